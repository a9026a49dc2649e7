package catalog

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/types"
)

// LookPath resolves a binary name on the search path.
type LookPath func(name string) (string, error)

// Host is what the probe knows about the machine.
type Host struct {
	OS       string
	Arch     string
	Getenv   func(string) string
	LookPath LookPath
}

// CurrentHost describes the machine the program runs on.
func CurrentHost() Host {
	return Host{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Getenv:   os.Getenv,
		LookPath: exec.LookPath,
	}
}

// Probe builds the InstallContext. A missing platform entry or package
// manager is fatal; an unknown shell is returned as a warning and leaves
// the context without a shell.
func (c *Catalog) Probe(host Host) (types.InstallContext, []error, error) {
	var warnings []error

	platform, ok := c.settings.Platforms[host.OS]
	if !ok {
		return types.InstallContext{}, nil, errors.Newf(errors.ErrUnsupportedPlatform,
			"incompatible OS: %s", host.OS).WithDetail("platform", host.OS)
	}

	pm := ""
	candidates := platform.PackageManagerOrder()
	for _, name := range candidates {
		if _, err := host.LookPath(name); err == nil {
			pm = name
			break
		}
		c.logger.Debug().Str("candidate", name).Msg("package manager not on PATH")
	}
	if pm == "" {
		return types.InstallContext{}, nil, errors.New(errors.ErrNoPackageManager,
			"no supported package manager found").WithDetail("candidates", candidates)
	}

	ctx := types.InstallContext{
		Platform:       host.OS,
		Architecture:   machine(host.OS, host.Arch),
		PackageManager: pm,
		HomeDir:        host.Getenv("HOME"),
		PipCommand:     host.Getenv("PIP_CMD"),
	}

	shellPath := host.Getenv("SHELL")
	shell := filepath.Base(shellPath)
	if _, ok := c.settings.Shells[shell]; ok && shellPath != "" {
		ctx.Shell = shell
		ctx.ShellPath = shellPath
	} else {
		warnings = append(warnings, errors.Newf(errors.ErrNoCompatibleShell,
			"no supported shell found for %q, shell registration will be skipped", shell).
			WithDetail("shell", shell))
	}

	ctx.PythonManager = "pip"
	if host.Getenv("CONDA_PREFIX") != "" {
		ctx.PythonManager = "conda"
	}
	if _, ok := platform.PythonManagers[ctx.PythonManager]; !ok {
		ctx.PythonManager = ""
	}

	expand := func(s string) string { return os.Expand(s, host.Getenv) }
	ctx.InstallDir = expand(c.settings.Paths.InstallDir)
	ctx.DownloadDir = expand(c.settings.Paths.DownloadDir)
	ctx.Archive = filepath.Join(ctx.DownloadDir, c.settings.Source.Archive)
	ctx.Components = c.settings.SelectedComponents()

	c.logger.Info().
		Str("platform", ctx.Platform).
		Str("arch", ctx.Architecture).
		Str("packageManager", ctx.PackageManager).
		Str("shell", ctx.Shell).
		Msg("Probed host")

	return ctx, warnings, nil
}

// machine maps Go architecture names to the ones the build system uses
// to name its install directory.
func machine(goos, goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "386":
		return "i686"
	case "arm64":
		if goos == "darwin" {
			return "arm64"
		}
		return "aarch64"
	default:
		return goarch
	}
}
