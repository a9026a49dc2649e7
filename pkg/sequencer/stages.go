package sequencer

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pterm/pterm"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/observer"
	"github.com/arthur-debert/heainstall/pkg/runner"
	"github.com/arthur-debert/heainstall/pkg/shellrc"
	"github.com/arthur-debert/heainstall/pkg/types"
)

func (s *Sequencer) update(ctx context.Context, r *run) error {
	return s.spinSteps(ctx, r, types.StageUpdate)
}

func (s *Sequencer) installDeps(ctx context.Context, r *run) error {
	return s.spinSteps(ctx, r, types.StageInstallDeps)
}

// spinSteps runs every step of a multi-command stage behind a spinner.
func (s *Sequencer) spinSteps(ctx context.Context, r *run, id types.StageID) error {
	steps, err := s.catalog.Plan(id, r.ictx)
	if err != nil {
		return err
	}
	for _, step := range steps {
		res := s.runner.RunSpinner(ctx, runner.SpinnerJob{
			Stage:    id,
			Spec:     step.Spec,
			Label:    step.Label,
			Category: types.LogInstaller,
			Env:      r.env,
		})
		if err := s.record(r, res); err != nil {
			return err
		}
	}
	return nil
}

// environment builds the overlay every build subprocess runs with.
func (s *Sequencer) environment(opts Options) (types.EnvironmentOverlay, error) {
	env := types.NewEnvironmentOverlay()
	for _, flag := range s.settings.Environment.SetFlags {
		path, ok := opts.Compilers[flag]
		if !ok || path == "" {
			continue
		}
		env.Set[flag] = path
	}
	env.Unset = append(env.Unset, s.settings.Environment.UnsetFlags...)
	env.PathPrefix = append(env.PathPrefix, s.settings.Environment.PathPrefix...)

	if opts.EnvFile == "" {
		return env, nil
	}
	f, err := s.fs.Open(opts.EnvFile)
	if err != nil {
		return env, errors.Wrapf(err, errors.ErrConfigLoad, "failed to open env file %s", opts.EnvFile)
	}
	defer func() { _ = f.Close() }()
	extra, err := godotenv.Parse(f)
	if err != nil {
		return env, errors.Wrapf(err, errors.ErrConfigInvalid, "failed to parse env file %s", opts.EnvFile)
	}
	return env.Merge(types.EnvironmentOverlay{Set: extra}), nil
}

func (s *Sequencer) configEnv(_ context.Context, r *run) error {
	start := time.Now()
	keys := make([]string, 0, len(r.env.Set))
	for k := range r.env.Set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("set %s=%s", k, r.env.Set[k]))
	}
	for _, k := range r.env.Unset {
		lines = append(lines, "unset "+k)
	}
	if len(r.env.PathPrefix) > 0 {
		lines = append(lines, "prepend PATH "+strings.Join(r.env.PathPrefix, ":"))
	}
	if r.env.IsEmpty() {
		lines = append(lines, "environment unchanged")
	}
	for _, line := range lines {
		if err := s.sinks.Append(types.LogInstaller, line); err != nil {
			return err
		}
	}

	res := types.NewStageResult(types.StageConfigEnv, s.label(types.StageConfigEnv), 0, time.Since(start))
	pterm.Success.WithWriter(s.out).Println(res.Message)
	return s.record(r, res)
}

func (s *Sequencer) acquireSource(ctx context.Context, r *run) error {
	if r.opts.ArchiveSupplied {
		s.skip(r, types.StageAcquireSource, "using "+r.ictx.Archive)
		return nil
	}

	downloader := s.settings.Source.Downloader
	if _, err := s.lookPath(downloader); err != nil {
		return errors.Newf(errors.ErrPreconditionNotMet, "downloader %s is not on PATH", downloader).
			WithDetail("stage", string(types.StageAcquireSource))
	}
	if err := s.fs.MkdirAll(r.ictx.DownloadDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to create %s", r.ictx.DownloadDir)
	}
	if exists(s.fs, r.ictx.Archive) {
		s.logger.Info().Str("path", r.ictx.Archive).Msg("Removing stale archive")
		if err := s.fs.Remove(r.ictx.Archive); err != nil {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", r.ictx.Archive)
		}
	}

	spec, err := s.catalog.Resolve(types.StageAcquireSource, r.ictx)
	if err != nil {
		return err
	}
	return s.pipeline(ctx, r, types.StageAcquireSource, spec, r.ictx.Archive, types.LogInstaller)
}

func (s *Sequencer) extract(ctx context.Context, r *run) error {
	if !exists(s.fs, r.ictx.Archive) {
		return precondition(types.StageExtract, "archive %s does not exist", r.ictx.Archive)
	}
	spec, err := s.catalog.Resolve(types.StageExtract, r.ictx)
	if err != nil {
		return err
	}
	return s.pipeline(ctx, r, types.StageExtract, spec, s.sinks.Path(types.LogExtract), types.LogExtract)
}

func (s *Sequencer) configure(ctx context.Context, r *run) error {
	src, err := s.sourceDir(r, types.StageConfigure)
	if err != nil {
		return err
	}
	buildDir := filepath.Join(src, s.settings.Source.BuildDir)
	script := filepath.Join(buildDir, filepath.Base(s.settings.Source.Configure))
	if !exists(s.fs, script) {
		return precondition(types.StageConfigure, "%s does not exist", script)
	}
	if err := s.fs.Chmod(script, 0700); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to make %s executable", script)
	}

	spec, err := s.catalog.Resolve(types.StageConfigure, r.ictx)
	if err != nil {
		return err
	}
	spec.Dir = buildDir
	return s.pipeline(ctx, r, types.StageConfigure, spec, s.sinks.Path(types.LogConfig), types.LogConfig)
}

func (s *Sequencer) compile(ctx context.Context, r *run) error {
	buildDir, err := s.configuredBuildDir(r, types.StageCompile)
	if err != nil {
		return err
	}
	spec, err := s.catalog.Resolve(types.StageCompile, r.ictx)
	if err != nil {
		return err
	}
	spec.Dir = buildDir
	return s.pipeline(ctx, r, types.StageCompile, spec, s.sinks.Path(types.LogBuild), types.LogBuild)
}

func (s *Sequencer) install(ctx context.Context, r *run) error {
	buildDir, err := s.configuredBuildDir(r, types.StageInstall)
	if err != nil {
		return err
	}
	if !hasContent(s.fs, s.sinks.Path(types.LogBuild)) {
		return precondition(types.StageInstall, "compilation left no output in %s", s.sinks.Path(types.LogBuild))
	}
	spec, err := s.catalog.Resolve(types.StageInstall, r.ictx)
	if err != nil {
		return err
	}
	spec.Dir = buildDir
	return s.pipeline(ctx, r, types.StageInstall, spec, s.sinks.Path(types.LogInstall), types.LogInstall)
}

func (s *Sequencer) registerShell(_ context.Context, r *run) error {
	if !r.ictx.HasShell() {
		s.skip(r, types.StageRegisterShell, "no supported shell")
		s.warn(r, "HEASoft initialization lines were not written. Add them to your shell's config file manually.")
		return nil
	}
	start := time.Now()

	prefix, err := s.installPrefix(r, types.StageRegisterShell)
	if err != nil {
		return err
	}
	reg, err := s.registrar.Register(s.settings.Shells[r.ictx.Shell], prefix)
	if err != nil {
		return err
	}
	if reg.Created {
		s.warn(r, fmt.Sprintf("%s was not found and has been created. Make sure %s reads it.", reg.Path, r.ictx.Shell))
	}

	res := types.NewStageResult(types.StageRegisterShell, s.label(types.StageRegisterShell), 0, time.Since(start))
	if reg.Unchanged {
		res.Message = fmt.Sprintf("%s: Already present in %s.", res.Label, reg.Path)
	}
	pterm.Success.WithWriter(s.out).Println(res.Message)
	return s.record(r, res)
}

func (s *Sequencer) verify(ctx context.Context, r *run) error {
	if !r.ictx.HasShell() {
		s.skip(r, types.StageVerify, "no supported shell")
		return nil
	}
	prefix, err := s.installPrefix(r, types.StageVerify)
	if err != nil {
		return err
	}
	script := filepath.Join(prefix, shellrc.InitScript(s.settings.Shells[r.ictx.Shell], s.settings.Source.InitScript))
	if !exists(s.fs, script) {
		return precondition(types.StageVerify, "%s does not exist, the installation is incomplete", script)
	}

	spec, err := s.catalog.Resolve(types.StageVerify, r.ictx)
	if err != nil {
		return err
	}
	res := s.runner.RunSpinner(ctx, runner.SpinnerJob{
		Stage:    types.StageVerify,
		Spec:     spec,
		Label:    s.label(types.StageVerify),
		Category: types.LogInstaller,
		Env:      r.env.With(s.settings.Source.HomeVar, prefix),
	})
	return s.record(r, res)
}

// pipeline runs a stage whose progress is read from target.
func (s *Sequencer) pipeline(ctx context.Context, r *run, id types.StageID, spec types.CommandSpec, target string, category types.LogCategory) error {
	tuning := s.settings.Stage(string(id))
	kind := tuning.Observer
	if kind == "" {
		kind = string(observer.KindLineCount)
	}
	obs, err := observer.ForKind(kind, s.fs)
	if err != nil {
		return err
	}
	res := s.runner.RunPipeline(ctx, runner.PipelineJob{
		Stage:        id,
		Spec:         spec,
		Observer:     obs,
		Target:       target,
		InitialTotal: tuning.Estimate,
		Unit:         tuning.Unit,
		Description:  tuning.Description,
		PollInterval: tuning.PollInterval,
		Label:        s.label(id),
		Category:     category,
		Env:          r.env,
		Timeout:      tuning.Timeout,
	})
	return s.record(r, res)
}
