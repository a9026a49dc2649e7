package sequencer_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/heainstall/pkg/catalog"
	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/logsink"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/sequencer"
	"github.com/arthur-debert/heainstall/pkg/types"
)

const (
	home       = "/home/ada"
	installDir = "/home/ada/heasoft"
	sourceDir  = "/home/ada/heasoft/heasoft-6.34"
	buildDir   = "/home/ada/heasoft/heasoft-6.34/BUILD_DIR"
	prefixDir  = "/home/ada/heasoft/heasoft-6.34/x86_64-pc-linux-gnu-libc2.35"
	archive    = "/home/ada/.cache/heasoft.tar.gz"
)

func testSettings() *config.Settings {
	return &config.Settings{
		Platforms: map[string]config.Platform{
			"linux": {
				Compilers:              []string{"gcc", "gfortran"},
				PackageManagerPriority: []string{"aptx"},
				PackageManagers: map[string]config.PackageManager{
					"aptx": {
						Update:     "aptx update",
						Upgrade:    "aptx upgrade -y",
						InstallCmd: "aptx install -y",
						Packages:   []string{"gfortran"},
						Link:       "pc-linux-ubuntu",
					},
				},
				PythonManagers: map[string]config.PythonManager{
					"pip": {InstallCmd: "pip install", Libraries: []string{"numpy"}},
				},
			},
		},
		Shells: map[string]config.Shell{
			"bash": {
				Extension:   "sh",
				ConfigFiles: []string{"$HOME/.bashrc"},
				Env:         "export HEADAS=%s",
				Alias:       "alias heainit=\"%s\"",
				Source:      ". %s",
			},
		},
		Responses: config.Responses{Positive: []string{"y"}, Negative: []string{"n"}},
		Environment: config.Environment{
			SetFlags:   []string{"CC", "FC"},
			UnsetFlags: []string{"CFLAGS"},
			PathPrefix: []string{"/usr/bin"},
		},
		Paths: config.Paths{InstallDir: "$HOME/heasoft", DownloadDir: "$HOME/.cache"},
		Source: config.Source{
			URL:             "https://example.org/tar?src_{link}=Y",
			Archive:         "heasoft.tar.gz",
			Downloader:      "aria2c",
			DownloaderArgs:  []string{"-d", "{dir}", "{url}", "-o", "{file}"},
			Extractor:       "tar",
			ExtractorArgs:   []string{"-xvzf", "{archive}"},
			SourceGlob:      "heasoft-[0-9].[0-9][0-9]*",
			BuildDir:        "BUILD_DIR",
			Configure:       "./configure",
			ConfigureMarker: "Makefile",
			Compile:         "make",
			Install:         "make install",
			InitScript:      "headas-init",
			HomeVar:         "HEADAS",
			VerifyCommand:   "fversion",
		},
		Stages: map[string]config.StageTuning{
			"acquire_source": {Label: "Download", Description: "Downloading", Estimate: 1000, Observer: "file_size", Unit: "B"},
			"extract":        {Label: "Extraction", Description: "Extracting", Estimate: 10, Observer: "line_number"},
			"configure":      {Label: "Configuration", Description: "Configuring", Estimate: 10, Observer: "line_number"},
			"compile":        {Label: "Compilation", Description: "Compiling", Estimate: 10, Observer: "line_number", PollInterval: 2 * time.Second},
			"install":        {Label: "Installation", Description: "Installing", Estimate: 10, Observer: "line_number"},
			"verify":         {Label: "Verification"},
		},
	}
}

func lookPath(names ...string) catalog.LookPath {
	return func(name string) (string, error) {
		for _, n := range names {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", fmt.Errorf("%s not found", name)
	}
}

// fakeRunner records jobs instead of launching processes. Hooks simulate
// the files a stage would leave behind.
type fakeRunner struct {
	pipelines []runner.PipelineJob
	spinners  []runner.SpinnerJob
	exitCodes map[types.StageID]int
	hooks     map[types.StageID]func(job runner.PipelineJob)
}

func (f *fakeRunner) RunPipeline(_ context.Context, job runner.PipelineJob) types.StageResult {
	f.pipelines = append(f.pipelines, job)
	if hook := f.hooks[job.Stage]; hook != nil {
		hook(job)
	}
	return types.NewStageResult(job.Stage, job.Label, f.exitCodes[job.Stage], time.Second)
}

func (f *fakeRunner) RunSpinner(_ context.Context, job runner.SpinnerJob) types.StageResult {
	f.spinners = append(f.spinners, job)
	return types.NewStageResult(job.Stage, job.Label, f.exitCodes[job.Stage], time.Second)
}

func (f *fakeRunner) launched() []types.StageID {
	var out []types.StageID
	for _, j := range f.spinners {
		out = append(out, j.Stage)
	}
	for _, j := range f.pipelines {
		out = append(out, j.Stage)
	}
	return out
}

func (f *fakeRunner) pipelineStages() []types.StageID {
	var out []types.StageID
	for _, j := range f.pipelines {
		out = append(out, j.Stage)
	}
	return out
}

type fixture struct {
	fs       afero.Fs
	settings *config.Settings
	catalog  *catalog.Catalog
	runner   *fakeRunner
	sinks    *logsink.Sinks
	out      *bytes.Buffer
	ctx      types.InstallContext
	seq      *sequencer.Sequencer
}

func newFixture(t *testing.T, env map[string]string) *fixture {
	t.Helper()
	if env == nil {
		env = map[string]string{"HOME": home, "SHELL": "/bin/bash"}
	}
	getenv := func(k string) string { return env[k] }

	fs := afero.NewMemMapFs()
	settings := testSettings()
	lp := lookPath("aptx", "aria2c", "gcc", "gfortran")
	cat := catalog.New(settings, lp)

	ictx, _, err := cat.Probe(catalog.Host{OS: "linux", Arch: "amd64", Getenv: getenv, LookPath: lp})
	require.NoError(t, err)

	fr := &fakeRunner{exitCodes: map[types.StageID]int{}}
	fr.hooks = map[types.StageID]func(runner.PipelineJob){
		types.StageAcquireSource: func(runner.PipelineJob) {
			require.NoError(t, afero.WriteFile(fs, archive, []byte("tgz"), 0644))
		},
		types.StageExtract: func(runner.PipelineJob) {
			require.NoError(t, afero.WriteFile(fs, buildDir+"/configure", []byte("#!/bin/sh"), 0644))
		},
		types.StageConfigure: func(runner.PipelineJob) {
			require.NoError(t, afero.WriteFile(fs, buildDir+"/Makefile", []byte("all:"), 0644))
		},
		types.StageCompile: func(job runner.PipelineJob) {
			require.NoError(t, afero.WriteFile(fs, job.Target, []byte("make all\n"), 0644))
		},
		types.StageInstall: func(runner.PipelineJob) {
			require.NoError(t, afero.WriteFile(fs, prefixDir+"/headas-init.sh", []byte("export X=1"), 0644))
		},
	}

	sinks := logsink.New(fs, ictx.InstallDir)
	out := &bytes.Buffer{}
	seq := sequencer.New(sequencer.Deps{
		Settings: settings,
		Catalog:  cat,
		Runner:   fr,
		Sinks:    sinks,
		Fs:       fs,
		LookPath: lp,
		Getenv:   getenv,
		Out:      out,
	})

	return &fixture{fs: fs, settings: settings, catalog: cat, runner: fr, sinks: sinks, out: out, ctx: ictx, seq: seq}
}

func (f *fixture) options() sequencer.Options {
	return sequencer.Options{
		RunID:     "run-1",
		Compilers: map[string]string{"CC": "/usr/bin/gcc", "FC": "/usr/bin/gfortran"},
	}
}
