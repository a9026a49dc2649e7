package shellrc_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/shellrc"
)

var bash = config.Shell{
	Extension:   "sh",
	ConfigFiles: []string{"$HOME/.bashrc", "$HOME/.config/bash/profile"},
	Env:         "export HEADAS=%s",
	Alias:       "alias heainit=\"%s\"",
	Source:      ". %s",
}

var source = config.Source{HomeVar: "HEADAS", InitScript: "headas-init"}

func getenv(key string) string {
	if key == "HOME" {
		return "/home/ada"
	}
	return ""
}

func TestSourceLine(t *testing.T) {
	assert.Equal(t, ". $HEADAS/headas-init.sh", shellrc.SourceLine(bash, "HEADAS", "headas-init"))
	assert.Equal(t, "headas-init.sh", shellrc.InitScript(bash, "headas-init"))
}

func TestRegister_FirstExistingCandidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/ada/.bashrc", []byte("export EDITOR=vi\n"), 0644))
	r := shellrc.NewRegistrar(fs, source, getenv)

	reg, err := r.Register(bash, "/opt/heasoft/x86_64-pc-linux-gnu")
	require.NoError(t, err)
	assert.Equal(t, "/home/ada/.bashrc", reg.Path)
	assert.False(t, reg.Created)

	content, err := afero.ReadFile(fs, "/home/ada/.bashrc")
	require.NoError(t, err)
	assert.Equal(t, "export EDITOR=vi\n\n\n# heasoft initialization\n"+
		"export HEADAS=/opt/heasoft/x86_64-pc-linux-gnu\n"+
		"alias heainit=\". $HEADAS/headas-init.sh\"\n", string(content))
}

func TestRegister_CreatesLastCandidate(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := shellrc.NewRegistrar(fs, source, getenv)

	reg, err := r.Register(bash, "/opt/heasoft")
	require.NoError(t, err)
	assert.True(t, reg.Created)
	assert.Equal(t, "/home/ada/.config/bash/profile", reg.Path)

	exists, err := afero.Exists(fs, "/home/ada/.config/bash/profile")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegister_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := shellrc.NewRegistrar(fs, source, getenv)

	_, err := r.Register(bash, "/opt/heasoft")
	require.NoError(t, err)
	first, err := afero.ReadFile(fs, "/home/ada/.config/bash/profile")
	require.NoError(t, err)

	reg, err := r.Register(bash, "/opt/heasoft")
	require.NoError(t, err)
	assert.True(t, reg.Unchanged)

	second, err := afero.ReadFile(fs, "/home/ada/.config/bash/profile")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRegister_NoCandidates(t *testing.T) {
	r := shellrc.NewRegistrar(afero.NewMemMapFs(), source, getenv)
	_, err := r.Register(config.Shell{Extension: "sh"}, "/opt/heasoft")
	assert.Error(t, err)
}
