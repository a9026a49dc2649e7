package types_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressState_Monotonic(t *testing.T) {
	p := types.NewProgressState(100, "ln", "Compiling")

	samples := []int64{0, 3, 2, 10, 10, 4, 11}
	var seen []int64
	for _, s := range samples {
		p.Advance(s)
		seen = append(seen, p.Current)
	}

	assert.Equal(t, []int64{0, 3, 3, 10, 10, 10, 11}, seen)
}

func TestProgressState_ReviseOnce(t *testing.T) {
	p := types.NewProgressState(100, "ln", "Configuring")
	p.Advance(12)

	assert.True(t, p.Revise(12))
	assert.Equal(t, int64(12), p.Total)
	assert.True(t, p.Revised())

	assert.False(t, p.Revise(50), "second revision must be ignored")
	assert.Equal(t, int64(12), p.Total)
	assert.Equal(t, float64(100), p.Percent())
}

func TestProgressState_ReviseNeverMovesBackward(t *testing.T) {
	p := types.NewProgressState(100, "B", "Downloading")
	p.Advance(80)

	p.Revise(60)

	assert.Equal(t, int64(60), p.Total)
	assert.Equal(t, int64(80), p.Current)
	assert.Equal(t, float64(100), p.Percent())
}

func TestNewStageResult(t *testing.T) {
	ok := types.NewStageResult(types.StageCompile, "Compilation", 0, time.Second)
	assert.True(t, ok.Success)
	assert.Equal(t, "Compilation: Completed successfully.", ok.Message)

	failed := types.NewStageResult(types.StageCompile, "Compilation", 2, time.Second)
	assert.False(t, failed.Success)
	assert.Equal(t, 2, failed.ExitCode)
	assert.Contains(t, failed.Message, "return code 2")
}

func TestParseStageID(t *testing.T) {
	id, err := types.ParseStageID("compile")
	require.NoError(t, err)
	assert.Equal(t, types.StageCompile, id)
	assert.Equal(t, 6, id.Index())

	_, err = types.ParseStageID("deploy")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Equal(t, -1, types.StageUpgrade.Index())
}

func TestEnvironmentOverlay_Apply(t *testing.T) {
	overlay := types.NewEnvironmentOverlay().
		With("CC", "/usr/bin/gcc").
		With("CFLAGS", "-O3")
	overlay.Unset = []string{"CFLAGS", "LDFLAGS"}
	overlay.PathPrefix = []string{"/usr/bin"}

	env := overlay.Apply([]string{
		"PATH=/opt/bin",
		"LDFLAGS=-L/opt/lib",
		"HOME=/home/u",
		"MALFORMED",
	})

	assert.Equal(t, []string{
		"CC=/usr/bin/gcc",
		"CFLAGS=-O3",
		"HOME=/home/u",
		"PATH=/usr/bin:/opt/bin",
	}, env)
}

func TestEnvironmentOverlay_CopyOnWrite(t *testing.T) {
	base := types.NewEnvironmentOverlay().With("CC", "gcc")
	derived := base.With("HEADAS", "/opt/heasoft")

	assert.NotContains(t, base.Set, "HEADAS")
	assert.Equal(t, "gcc", derived.Set["CC"])

	merged := base.Merge(types.EnvironmentOverlay{Set: map[string]string{"CC": "clang"}, Unset: []string{"FC"}})
	assert.Equal(t, "clang", merged.Set["CC"])
	assert.Equal(t, "gcc", base.Set["CC"])
	assert.Equal(t, []string{"FC"}, merged.Unset)
	assert.False(t, merged.IsEmpty())
	assert.True(t, types.EnvironmentOverlay{}.IsEmpty())
}

func TestCommandSpec(t *testing.T) {
	spec := types.CommandSpec{Program: "make", Args: []string{"install"}}
	assert.Equal(t, "make install", spec.String())
	assert.Equal(t, []string{"make", "install"}, spec.Argv())
	assert.False(t, spec.IsZero())
	assert.True(t, types.CommandSpec{}.IsZero())
}

func TestInstallContext_ComponentGroups(t *testing.T) {
	ctx := types.InstallContext{
		Components: map[string][]string{"xanadu": {"xspec"}, "mission": {"nustar"}},
	}
	assert.Equal(t, []string{"mission", "xanadu"}, ctx.ComponentGroups())
	assert.False(t, ctx.HasShell())
}

func TestLogCategory_FileName(t *testing.T) {
	assert.Equal(t, "build.log", types.LogBuild.FileName())
	assert.Len(t, types.LogCategories, 6)
}
