package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logging"
	"github.com/arthur-debert/heainstall/pkg/shellrc"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// Step is one labelled command of a stage.
type Step struct {
	Label string
	Spec  types.CommandSpec
}

// Catalog resolves stages against the configuration tables.
type Catalog struct {
	settings *config.Settings
	lookPath LookPath
	logger   zerolog.Logger
}

// New returns a catalog reading settings and resolving binaries with lookPath.
func New(settings *config.Settings, lookPath LookPath) *Catalog {
	return &Catalog{
		settings: settings,
		lookPath: lookPath,
		logger:   logging.GetLogger("catalog"),
	}
}

// Resolve returns the command of a single-command stage.
func (c *Catalog) Resolve(stage types.StageID, ctx types.InstallContext) (types.CommandSpec, error) {
	src := c.settings.Source

	switch stage {
	case types.StageUpdate, types.StageUpgrade:
		pm, err := c.packageManager(ctx)
		if err != nil {
			return types.CommandSpec{}, err
		}
		tmpl := pm.Update
		if stage == types.StageUpgrade {
			tmpl = pm.Upgrade
		}
		if strings.TrimSpace(tmpl) == "" {
			return types.CommandSpec{}, errors.Newf(errors.ErrConfigInvalid,
				"package manager %s has no %s command", ctx.PackageManager, stage)
		}
		return split(tmpl), nil

	case types.StageAcquireSource:
		url, err := c.DownloadURL(ctx)
		if err != nil {
			return types.CommandSpec{}, err
		}
		vars := map[string]string{
			"dir":  ctx.DownloadDir,
			"url":  url,
			"file": src.Archive,
		}
		return types.CommandSpec{Program: src.Downloader, Args: substitute(src.DownloaderArgs, vars)}, nil

	case types.StageExtract:
		vars := map[string]string{"archive": ctx.Archive}
		return types.CommandSpec{
			Program: src.Extractor,
			Args:    substitute(src.ExtractorArgs, vars),
			Dir:     ctx.InstallDir,
		}, nil

	case types.StageConfigure:
		return types.CommandSpec{Program: src.Configure, Args: append([]string{}, src.ConfigureArgs...)}, nil

	case types.StageCompile:
		return split(src.Compile), nil

	case types.StageInstall:
		return split(src.Install), nil

	case types.StageVerify:
		if !ctx.HasShell() {
			return types.CommandSpec{}, errors.New(errors.ErrNoCompatibleShell,
				"no supported shell to run the smoke test with")
		}
		line := fmt.Sprintf("%s && %s", shellrc.SourceLine(c.settings.Shells[ctx.Shell], c.settings.Source.HomeVar, c.settings.Source.InitScript), src.VerifyCommand)
		return types.CommandSpec{Program: ctx.ShellPath, Args: []string{"-i", "-c", line}}, nil
	}

	return types.CommandSpec{}, errors.Newf(errors.ErrConfigInvalid,
		"stage %s does not resolve to a single command", stage).WithDetail("stage", string(stage))
}

// Plan returns the labelled commands of a subprocess stage. In-process
// stages return no steps.
func (c *Catalog) Plan(stage types.StageID, ctx types.InstallContext) ([]Step, error) {
	switch stage {
	case types.StageConfigEnv, types.StageRegisterShell:
		return nil, nil

	case types.StageUpdate:
		update, err := c.Resolve(types.StageUpdate, ctx)
		if err != nil {
			return nil, err
		}
		upgrade, err := c.Resolve(types.StageUpgrade, ctx)
		if err != nil {
			return nil, err
		}
		return []Step{
			{Label: "Updating " + ctx.PackageManager, Spec: update},
			{Label: "Updating system packages", Spec: upgrade},
		}, nil

	case types.StageInstallDeps:
		return c.dependencySteps(ctx)
	}

	spec, err := c.Resolve(stage, ctx)
	if err != nil {
		return nil, err
	}
	return []Step{{Label: c.settings.Stage(string(stage)).Description, Spec: spec}}, nil
}

func (c *Catalog) dependencySteps(ctx types.InstallContext) ([]Step, error) {
	pm, err := c.packageManager(ctx)
	if err != nil {
		return nil, err
	}

	var steps []Step
	if strings.TrimSpace(pm.Initializer) != "" {
		steps = append(steps, Step{Label: "Installing extra dependencies", Spec: split(pm.Initializer)})
	}

	install := strings.Fields(pm.InstallCmd)
	for _, pkg := range pm.Packages {
		fields := strings.Fields(pkg)
		if len(fields) == 0 {
			continue
		}
		steps = append(steps, Step{
			Label: "Installing " + fields[len(fields)-1],
			Spec:  command(install, fields),
		})
	}

	if ctx.PythonManager == "" {
		return steps, nil
	}
	py := c.settings.Platforms[ctx.Platform].PythonManagers[ctx.PythonManager]
	pyInstall := strings.Fields(py.InstallCmd)
	if ctx.PipCommand != "" {
		pyInstall = strings.Fields(ctx.PipCommand)
	}
	for _, lib := range py.Libraries {
		fields := strings.Fields(lib)
		if len(fields) == 0 || len(pyInstall) == 0 {
			continue
		}
		steps = append(steps, Step{
			Label: "Installing " + fields[0],
			Spec:  command(pyInstall, fields),
		})
	}
	return steps, nil
}

// CompilerPath resolves the binary bound to a compiler flag such as CC.
func (c *Catalog) CompilerPath(flag, compiler string) (string, error) {
	path, err := c.lookPath(compiler)
	if err != nil || path == "" {
		return "", errors.Newf(errors.ErrMissingCompiler, "%s compiler not found", compiler).
			WithDetail("flag", flag).
			WithDetail("compiler", compiler)
	}
	return path, nil
}

// CompilerPaths resolves every configured compiler flag of the context's
// platform. The first missing compiler is returned as an error.
func (c *Catalog) CompilerPaths(ctx types.InstallContext) (map[string]string, error) {
	platform, ok := c.settings.Platforms[ctx.Platform]
	if !ok {
		return nil, errors.Newf(errors.ErrUnsupportedPlatform, "incompatible OS: %s", ctx.Platform)
	}
	flags := c.settings.Environment.SetFlags
	if len(flags) != len(platform.Compilers) {
		return nil, errors.Newf(errors.ErrConfigInvalid,
			"%d set_flags for %d compilers", len(flags), len(platform.Compilers))
	}

	out := make(map[string]string, len(flags))
	for i, flag := range flags {
		path, err := c.CompilerPath(flag, platform.Compilers[i])
		if err != nil {
			return nil, err
		}
		out[flag] = path
	}
	return out, nil
}

// DownloadURL formats the source URL with the package manager's link token
// and appends one query pair per selected component.
func (c *Catalog) DownloadURL(ctx types.InstallContext) (string, error) {
	pm, err := c.packageManager(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.ReplaceAll(c.settings.Source.URL, "{link}", pm.Link))
	for _, group := range ctx.ComponentGroups() {
		tokens := c.settings.Components[group]
		for _, opt := range ctx.Components[group] {
			value := tokens[opt]
			if value == "" {
				value = opt
			}
			fmt.Fprintf(&b, "&%s=%s", group, value)
		}
	}
	return b.String(), nil
}

func (c *Catalog) packageManager(ctx types.InstallContext) (config.PackageManager, error) {
	platform, ok := c.settings.Platforms[ctx.Platform]
	if !ok {
		return config.PackageManager{}, errors.Newf(errors.ErrUnsupportedPlatform, "incompatible OS: %s", ctx.Platform)
	}
	pm, ok := platform.PackageManagers[ctx.PackageManager]
	if !ok {
		return config.PackageManager{}, errors.Newf(errors.ErrNoPackageManager,
			"package manager %q is not configured for %s", ctx.PackageManager, ctx.Platform)
	}
	return pm, nil
}

func split(tmpl string) types.CommandSpec {
	fields := strings.Fields(tmpl)
	if len(fields) == 0 {
		return types.CommandSpec{}
	}
	return types.CommandSpec{Program: fields[0], Args: fields[1:]}
}

func command(base, extra []string) types.CommandSpec {
	argv := make([]string, 0, len(base)+len(extra))
	argv = append(argv, base...)
	argv = append(argv, extra...)
	return types.CommandSpec{Program: argv[0], Args: argv[1:]}
}

// substitute replaces {name} placeholders in every argument. Names are
// applied in sorted order so the result never depends on map iteration.
func substitute(args []string, vars map[string]string) []string {
	names := make([]string, 0, len(vars))
	for k := range vars {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make([]string, len(args))
	for i, arg := range args {
		for _, k := range names {
			arg = strings.ReplaceAll(arg, "{"+k+"}", vars[k])
		}
		out[i] = arg
	}
	return out
}
