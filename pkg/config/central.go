package config

import (
	"sort"
	"time"
)

// Settings is the validated configuration of a run.
type Settings struct {
	Platforms   map[string]Platform          `koanf:"platforms"`
	Shells      map[string]Shell             `koanf:"shells"`
	Responses   Responses                    `koanf:"responses"`
	Environment Environment                  `koanf:"environment"`
	Paths       Paths                        `koanf:"paths"`
	Source      Source                       `koanf:"source"`
	Components  map[string]map[string]string `koanf:"components"`
	Selection   map[string]map[string]bool   `koanf:"selection"`
	Stages      map[string]StageTuning       `koanf:"stages"`

	raw map[string]interface{}
}

// Platform holds everything needed to prepare one operating system.
type Platform struct {
	Compilers []string `koanf:"compilers"`
	// PackageManagerPriority orders the candidate binaries; the first one
	// found on PATH wins.
	PackageManagerPriority []string                 `koanf:"package_manager_priority"`
	PackageManagers        map[string]PackageManager `koanf:"package_managers"`
	PythonManagers         map[string]PythonManager  `koanf:"python_managers"`
}

// PackageManager holds the command templates of one package manager binary.
type PackageManager struct {
	Initializer string   `koanf:"initializer"`
	Update      string   `koanf:"update"`
	Upgrade     string   `koanf:"upgrade"`
	Packages    []string `koanf:"packages"`
	InstallCmd  string   `koanf:"install_cmd"`
	// Link is the platform token sent with the source download request.
	Link string `koanf:"link"`
}

// PythonManager installs the python libraries the build needs.
type PythonManager struct {
	InstallCmd string   `koanf:"install_cmd"`
	Libraries  []string `koanf:"libraries"`
}

// Shell describes how to register the installation with one shell.
type Shell struct {
	Extension   string   `koanf:"extension"`
	ConfigFiles []string `koanf:"config_files"`
	Env         string   `koanf:"env"`
	Alias       string   `koanf:"alias"`
	Source      string   `koanf:"source"`
}

// Responses lists the accepted answers of yes/no prompts.
type Responses struct {
	Positive []string `koanf:"positive"`
	Negative []string `koanf:"negative"`
}

// Environment holds the variables exported to every build subprocess.
type Environment struct {
	SetFlags   []string `koanf:"set_flags"`
	UnsetFlags []string `koanf:"unset_flags"`
	PathPrefix []string `koanf:"path_prefix"`
}

// Paths holds the user-facing directories.
type Paths struct {
	InstallDir  string `koanf:"install_dir"`
	DownloadDir string `koanf:"download_dir"`
}

// Source describes where the source archive comes from and what it contains.
type Source struct {
	URL             string   `koanf:"url"`
	Archive         string   `koanf:"archive"`
	Downloader      string   `koanf:"downloader"`
	DownloaderArgs  []string `koanf:"downloader_args"`
	Extractor       string   `koanf:"extractor"`
	ExtractorArgs   []string `koanf:"extractor_args"`
	SourceGlob      string   `koanf:"source_glob"`
	BuildDir        string   `koanf:"build_dir"`
	Configure       string   `koanf:"configure"`
	ConfigureArgs   []string `koanf:"configure_args"`
	ConfigureMarker string   `koanf:"configure_marker"`
	Compile         string   `koanf:"compile"`
	Install         string   `koanf:"install"`
	InitScript      string   `koanf:"init_script"`
	HomeVar         string   `koanf:"home_var"`
	VerifyCommand   string   `koanf:"verify_command"`
}

// StageTuning controls how a stage's progress is observed.
type StageTuning struct {
	Label        string        `koanf:"label"`
	Description  string        `koanf:"description"`
	Estimate     int64         `koanf:"estimate"`
	PollInterval time.Duration `koanf:"poll_interval"`
	Observer     string        `koanf:"observer"`
	Unit         string        `koanf:"unit"`
	Timeout      time.Duration `koanf:"timeout"`
}

// Stage returns the tuning of a stage, falling back to a one second poll.
func (s *Settings) Stage(id string) StageTuning {
	t := s.Stages[id]
	if t.PollInterval <= 0 {
		t.PollInterval = time.Second
	}
	return t
}

// SelectedComponents returns, per group, the options switched on in the
// selection table that the component catalog knows about. Options are sorted.
func (s *Settings) SelectedComponents() map[string][]string {
	out := make(map[string][]string)
	for group, options := range s.Selection {
		known := s.Components[group]
		var picked []string
		for opt, on := range options {
			if !on {
				continue
			}
			if _, ok := known[opt]; !ok {
				continue
			}
			picked = append(picked, opt)
		}
		if len(picked) == 0 {
			continue
		}
		sort.Strings(picked)
		out[group] = picked
	}
	return out
}

// PackageManagerOrder returns the candidate binaries in priority order.
// Without an explicit priority list the table keys are used alphabetically.
func (p Platform) PackageManagerOrder() []string {
	if len(p.PackageManagerPriority) > 0 {
		return p.PackageManagerPriority
	}
	names := make([]string, 0, len(p.PackageManagers))
	for name := range p.PackageManagers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
