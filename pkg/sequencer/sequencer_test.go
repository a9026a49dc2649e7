package sequencer_test

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/sequencer"
	"github.com/arthur-debert/heainstall/pkg/testutil"
	"github.com/arthur-debert/heainstall/pkg/types"
)

func TestRun_FullSequence(t *testing.T) {
	f := newFixture(t, nil)

	rep := f.seq.Run(context.Background(), f.ctx, f.options())

	require.True(t, rep.Success(), "%v", rep.Err)
	assert.Equal(t, "run-1", rep.RunID)
	assert.Equal(t, []types.StageID{
		types.StageAcquireSource, types.StageExtract, types.StageConfigure,
		types.StageCompile, types.StageInstall,
	}, f.runner.pipelineStages())

	var spinLabels []string
	for _, j := range f.runner.spinners {
		spinLabels = append(spinLabels, j.Label)
	}
	assert.Equal(t, []string{
		"Updating aptx", "Updating system packages", "Installing gfortran", "Installing numpy", "Verification",
	}, spinLabels)
	assert.Len(t, rep.Results, 12)

	configure := f.runner.pipelines[2]
	assert.Equal(t, buildDir, configure.Spec.Dir)
	assert.Equal(t, f.sinks.Path(types.LogConfig), configure.Target)
	assert.Equal(t, types.LogConfig, configure.Category)
	info, err := f.fs.Stat(buildDir + "/configure")
	require.NoError(t, err)
	assert.Equal(t, "-rwx------", info.Mode().Perm().String())

	download := f.runner.pipelines[0]
	assert.Equal(t, archive, download.Target)
	assert.Equal(t, int64(1000), download.InitialTotal)
	assert.Equal(t, "B", download.Unit)

	verify := f.runner.spinners[len(f.runner.spinners)-1]
	assert.Equal(t, prefixDir, verify.Env.Set["HEADAS"])
	assert.Equal(t, []string{"/bin/bash", "-i", "-c", ". $HEADAS/headas-init.sh && fversion"}, verify.Spec.Argv())

	assert.Contains(t, testutil.ReadFile(t, f.fs, home+"/.bashrc"), "export HEADAS="+prefixDir)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], home+"/.bashrc was not found")
}

func TestRun_PreconditionNeverLaunches(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.ArchiveSupplied = true

	rep := f.seq.Run(context.Background(), f.ctx.WithArchive("/nowhere/heasoft.tar.gz"), opts)

	assert.False(t, rep.Success())
	assert.Equal(t, types.StageExtract, rep.Failed)
	assert.True(t, errors.IsErrorCode(rep.Err, errors.ErrPreconditionNotMet))
	assert.Empty(t, f.runner.pipelines, "no stage after the failed precondition may launch")
}

func TestRun_FailureAbortsRemainingStages(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.exitCodes[types.StageCompile] = 2

	rep := f.seq.Run(context.Background(), f.ctx, f.options())

	assert.False(t, rep.Success())
	assert.Equal(t, types.StageCompile, rep.Failed)
	assert.Equal(t, errors.ClassSubprocess, errors.ClassOf(rep.Err))
	assert.Equal(t, 2, errors.GetErrorDetails(rep.Err)["exitCode"])

	last, ok := rep.Last()
	require.True(t, ok)
	assert.Equal(t, "Compilation: Failed with return code 2.", last.Message)
	assert.NotContains(t, f.runner.launched(), types.StageInstall)
	assert.NotContains(t, f.runner.launched(), types.StageVerify)

	assert.Contains(t, testutil.ReadFile(t, f.fs, f.sinks.Path(types.LogError)), "compile: ")
}

func TestRun_DependencyFailureAbortsWholeRun(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.exitCodes[types.StageInstallDeps] = 100

	rep := f.seq.Run(context.Background(), f.ctx, f.options())

	assert.Equal(t, types.StageInstallDeps, rep.Failed)
	assert.Len(t, f.runner.spinners, 3, "update steps and the first package only")
	assert.Empty(t, f.runner.pipelines)
}

func TestRun_ResumeFrom(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, buildDir+"/Makefile", []byte("all:"), 0644))

	opts := f.options()
	opts.From = types.StageCompile
	rep := f.seq.Run(context.Background(), f.ctx, opts)

	require.True(t, rep.Success(), "%v", rep.Err)
	assert.Equal(t, []types.StageID{types.StageCompile, types.StageInstall}, f.runner.pipelineStages())
	for _, res := range rep.Results[:6] {
		assert.True(t, res.Skipped, res.Stage)
	}
	assert.Equal(t, "/usr/bin/gcc", f.runner.pipelines[0].Env.Set["CC"], "the overlay is built even when config_env is skipped")
}

func TestRun_ResumeUnknownStage(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.From = "deploy"

	rep := f.seq.Run(context.Background(), f.ctx, opts)
	assert.True(t, errors.IsErrorCode(rep.Err, errors.ErrInvalidInput))
	assert.Empty(t, f.runner.launched())
}

func TestRun_CompileNeedsConfigureMarker(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.fs.MkdirAll(buildDir, 0755))

	opts := f.options()
	opts.From = types.StageCompile
	rep := f.seq.Run(context.Background(), f.ctx, opts)

	assert.Equal(t, types.StageCompile, rep.Failed)
	assert.True(t, errors.IsErrorCode(rep.Err, errors.ErrPreconditionNotMet))
	assert.Empty(t, f.runner.launched())
}

func TestRun_InstallNeedsCompileOutput(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, buildDir+"/Makefile", []byte("all:"), 0644))

	opts := f.options()
	opts.From = types.StageInstall
	rep := f.seq.Run(context.Background(), f.ctx, opts)

	assert.Equal(t, types.StageInstall, rep.Failed)
	assert.True(t, errors.IsErrorCode(rep.Err, errors.ErrPreconditionNotMet))
	assert.Empty(t, f.runner.launched())
}

func TestRun_ResumeFromInstallKeepsBuildLog(t *testing.T) {
	f := newFixture(t, nil)
	testutil.WriteFiles(t, f.fs, map[string]string{
		buildDir + "/Makefile":     "all:",
		installDir + "/build.log":  "cc -c foo.c\nld foo.o\n",
		installDir + "/config.log": "checking for gcc... yes\n",
	})

	opts := f.options()
	opts.From = types.StageInstall
	rep := f.seq.Run(context.Background(), f.ctx, opts)

	require.True(t, rep.Success(), "%v", rep.Err)
	assert.Equal(t, []types.StageID{types.StageInstall}, f.runner.pipelineStages())
	assert.Equal(t, "cc -c foo.c\nld foo.o\n", testutil.ReadFile(t, f.fs, installDir+"/build.log"))
	assert.Equal(t, "checking for gcc... yes\n", testutil.ReadFile(t, f.fs, installDir+"/config.log"))
}

func TestRun_AmbiguousSourceDirectory(t *testing.T) {
	f := newFixture(t, nil)
	testutil.WriteFiles(t, f.fs, map[string]string{
		buildDir + "/configure":                          "",
		installDir + "/heasoft-6.33/BUILD_DIR/configure": "",
	})

	opts := f.options()
	opts.From = types.StageConfigure
	rep := f.seq.Run(context.Background(), f.ctx, opts)

	assert.Equal(t, types.StageConfigure, rep.Failed)
	assert.Contains(t, rep.Err.Error(), "ambiguous")
	assert.Empty(t, f.runner.launched())
}

func TestRun_SuppliedArchiveSkipsDownload(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/data/heasoft-6.34src.tar.gz", []byte("tgz"), 0644))

	opts := f.options()
	opts.ArchiveSupplied = true
	rep := f.seq.Run(context.Background(), f.ctx.WithArchive("/data/heasoft-6.34src.tar.gz"), opts)

	require.True(t, rep.Success(), "%v", rep.Err)
	assert.NotContains(t, f.runner.pipelineStages(), types.StageAcquireSource)
	assert.Equal(t, []string{"-xvzf", "/data/heasoft-6.34src.tar.gz"}, f.runner.pipelines[0].Spec.Args)

	skipped := rep.Results[5]
	assert.Equal(t, types.StageAcquireSource, skipped.Stage)
	assert.True(t, skipped.Skipped)
}

func TestRun_StaleArchiveRemovedBeforeDownload(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, archive, []byte("half a download"), 0644))

	var presentAtStart bool
	f.runner.hooks[types.StageAcquireSource] = func(runner.PipelineJob) {
		presentAtStart, _ = afero.Exists(f.fs, archive)
		require.NoError(t, afero.WriteFile(f.fs, archive, []byte("tgz"), 0644))
	}

	rep := f.seq.Run(context.Background(), f.ctx, f.options())
	require.True(t, rep.Success(), "%v", rep.Err)
	assert.False(t, presentAtStart)
}

func TestRun_MissingDownloader(t *testing.T) {
	f := newFixture(t, nil)
	f.settings.Source.Downloader = "wget2"

	rep := f.seq.Run(context.Background(), f.ctx, f.options())

	assert.Equal(t, types.StageAcquireSource, rep.Failed)
	assert.True(t, errors.IsErrorCode(rep.Err, errors.ErrPreconditionNotMet))
	assert.Empty(t, f.runner.pipelines)
}

func TestRun_UnsupportedShellSkipsRegistration(t *testing.T) {
	f := newFixture(t, map[string]string{"HOME": home, "SHELL": "/usr/bin/fish"})

	rep := f.seq.Run(context.Background(), f.ctx, f.options())

	require.True(t, rep.Success(), "%v", rep.Err)
	assert.NotEmpty(t, rep.Warnings)
	assert.NotContains(t, f.runner.launched(), types.StageVerify)
	for _, res := range rep.Results[len(rep.Results)-2:] {
		assert.True(t, res.Skipped, res.Stage)
	}
	exists, _ := afero.Exists(f.fs, home+"/.bashrc")
	assert.False(t, exists)
}

func TestRun_EnvironmentOverlay(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, afero.WriteFile(f.fs, "/etc/heainstall.env", []byte("LDFLAGS=-L/opt/lib\nCC=/opt/bin/cc\n"), 0644))

	opts := f.options()
	opts.EnvFile = "/etc/heainstall.env"
	rep := f.seq.Run(context.Background(), f.ctx, opts)
	require.True(t, rep.Success(), "%v", rep.Err)

	env := f.runner.pipelines[len(f.runner.pipelines)-1].Env
	assert.Equal(t, "/opt/bin/cc", env.Set["CC"], "env file wins over resolved compilers")
	assert.Equal(t, "/usr/bin/gfortran", env.Set["FC"])
	assert.Equal(t, "-L/opt/lib", env.Set["LDFLAGS"])
	assert.Equal(t, []string{"CFLAGS"}, env.Unset)
	assert.Equal(t, []string{"/usr/bin"}, env.PathPrefix)

	installerLog := testutil.ReadFile(t, f.fs, f.sinks.Path(types.LogInstaller))
	assert.Contains(t, installerLog, "set FC=/usr/bin/gfortran")
	assert.Contains(t, installerLog, "unset CFLAGS")
}

func TestRun_MissingEnvFileIsFatalBeforeAnyStage(t *testing.T) {
	f := newFixture(t, nil)
	opts := f.options()
	opts.EnvFile = "/missing.env"

	rep := f.seq.Run(context.Background(), f.ctx, opts)
	assert.Equal(t, errors.ClassConfiguration, errors.ClassOf(rep.Err))
	assert.Empty(t, f.runner.launched())
}

func TestRun_InterruptedBetweenStages(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := f.seq.Run(ctx, f.ctx, f.options())
	assert.Equal(t, types.StageUpdate, rep.Failed)
	assert.Empty(t, f.runner.launched())
}

// countingLauncher counts process starts made through a real runner.
type countingLauncher struct {
	starts int
}

func (l *countingLauncher) Launch(types.CommandSpec, []string, io.Writer, io.Writer) (runner.Process, error) {
	l.starts++
	return nil, errors.New(errors.ErrInternal, "unexpected launch")
}

func TestRun_RealRunnerRecordsNoStartOnPrecondition(t *testing.T) {
	f := newFixture(t, nil)
	launcher := &countingLauncher{}
	sinks := logsink.New(f.fs, f.ctx.InstallDir)
	r := runner.New(sinks, runner.WithLauncher(launcher), runner.WithSurfaces(runner.NewPlainProgress(io.Discard), runner.NewPlainSpinner(io.Discard)))

	seq := sequencer.New(sequencer.Deps{
		Settings: f.settings,
		Catalog:  f.catalog,
		Runner:   r,
		Sinks:    sinks,
		Fs:       f.fs,
		LookPath: lookPath("aria2c"),
		Out:      io.Discard,
	})

	opts := f.options()
	opts.From = types.StageExtract
	rep := seq.Run(context.Background(), f.ctx, opts)

	assert.Equal(t, types.StageExtract, rep.Failed)
	assert.Equal(t, 0, launcher.starts)
	assert.Contains(t, rep.Err.Error(), "does not exist")
}
