package config

import (
	"github.com/arthur-debert/heainstall/pkg/errors"
)

var observerKinds = map[string]bool{"": true, "line_number": true, "file_size": true}

// Validate checks the tables the catalog relies on. Every problem is a
// configuration error and must stop the program before any stage runs.
func (s *Settings) Validate() error {
	if len(s.Platforms) == 0 {
		return errors.New(errors.ErrConfigInvalid, "no platforms configured")
	}

	for name, p := range s.Platforms {
		if len(p.PackageManagers) == 0 {
			return errors.Newf(errors.ErrConfigInvalid, "platform %s has no package managers", name)
		}
		for _, pm := range p.PackageManagerPriority {
			if _, ok := p.PackageManagers[pm]; !ok {
				return errors.Newf(errors.ErrConfigInvalid,
					"platform %s lists %s in package_manager_priority but has no table for it", name, pm)
			}
		}
		for pmName, pm := range p.PackageManagers {
			if pm.Update == "" || pm.InstallCmd == "" {
				return errors.Newf(errors.ErrConfigInvalid,
					"package manager %s on %s needs update and install_cmd", pmName, name)
			}
		}
		if len(p.Compilers) != len(s.Environment.SetFlags) {
			return errors.Newf(errors.ErrConfigInvalid,
				"platform %s lists %d compilers for %d set_flags", name, len(p.Compilers), len(s.Environment.SetFlags)).
				WithDetail("platform", name)
		}
	}

	for name, sh := range s.Shells {
		if sh.Extension == "" || len(sh.ConfigFiles) == 0 {
			return errors.Newf(errors.ErrConfigInvalid, "shell %s needs extension and config_files", name)
		}
		if sh.Env == "" || sh.Alias == "" || sh.Source == "" {
			return errors.Newf(errors.ErrConfigInvalid, "shell %s needs env, alias and source templates", name)
		}
	}

	if len(s.Responses.Positive) == 0 || len(s.Responses.Negative) == 0 {
		return errors.New(errors.ErrConfigInvalid, "responses need positive and negative tokens")
	}

	if s.Source.URL == "" || s.Source.Archive == "" {
		return errors.New(errors.ErrConfigInvalid, "source needs url and archive")
	}
	if s.Paths.InstallDir == "" || s.Paths.DownloadDir == "" {
		return errors.New(errors.ErrConfigInvalid, "paths need install_dir and download_dir")
	}

	for id, t := range s.Stages {
		if !observerKinds[t.Observer] {
			return errors.Newf(errors.ErrConfigInvalid, "stage %s has unknown observer %q", id, t.Observer)
		}
		if t.Estimate < 0 {
			return errors.Newf(errors.ErrConfigInvalid, "stage %s has a negative estimate", id)
		}
	}

	for group := range s.Selection {
		if _, ok := s.Components[group]; !ok {
			return errors.Newf(errors.ErrConfigInvalid, "selection group %s is not a known component group", group)
		}
	}

	return nil
}
