// Package shellrc registers an installation with the operator's shell by
// appending an initialization block to one of the shell's config files.
package shellrc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/arthur-debert/heainstall/pkg/config"
	"github.com/arthur-debert/heainstall/pkg/errors"
	"github.com/arthur-debert/heainstall/pkg/logging"
)

// BlockHeader opens the appended block.
const BlockHeader = "# heasoft initialization"

// Registration reports where the block went.
type Registration struct {
	Path string
	// Created is set when no candidate existed and the last one was created.
	Created bool
	// Unchanged is set when the block was already present.
	Unchanged bool
}

// Registrar appends initialization blocks through an afero filesystem.
type Registrar struct {
	fs         afero.Fs
	getenv     func(string) string
	homeVar    string
	initScript string
	logger     zerolog.Logger
}

// NewRegistrar returns a registrar for the given source layout. getenv
// expands $VARS in candidate config file paths.
func NewRegistrar(fs afero.Fs, src config.Source, getenv func(string) string) *Registrar {
	return &Registrar{
		fs:         fs,
		getenv:     getenv,
		homeVar:    src.HomeVar,
		initScript: src.InitScript,
		logger:     logging.GetLogger("shellrc"),
	}
}

// InitScript returns the init script file name for a shell, e.g. headas-init.sh.
func InitScript(shell config.Shell, initScript string) string {
	return initScript + "." + shell.Extension
}

// SourceLine formats the shell's source template with the init script
// path relative to the home variable, e.g. ". $HEADAS/headas-init.sh".
func SourceLine(shell config.Shell, homeVar, initScript string) string {
	return fmt.Sprintf(shell.Source, "$"+homeVar+"/"+InitScript(shell, initScript))
}

// Block returns the lines appended to the config file.
func (r *Registrar) Block(shell config.Shell, installDir string) string {
	env := fmt.Sprintf(shell.Env, installDir)
	alias := fmt.Sprintf(shell.Alias, SourceLine(shell, r.homeVar, r.initScript))
	return strings.Join([]string{BlockHeader, env, alias}, "\n") + "\n"
}

// Register appends the block to the first existing candidate config file.
// When none exists the last candidate is created along with its parents.
// A file that already carries the block is left untouched.
func (r *Registrar) Register(shell config.Shell, installDir string) (Registration, error) {
	if len(shell.ConfigFiles) == 0 {
		return Registration{}, errors.New(errors.ErrConfigInvalid, "shell has no config files")
	}

	var reg Registration
	for _, candidate := range shell.ConfigFiles {
		path := os.Expand(candidate, r.getenv)
		if exists, _ := afero.Exists(r.fs, path); exists {
			reg.Path = path
			break
		}
	}

	if reg.Path == "" {
		reg.Path = os.Expand(shell.ConfigFiles[len(shell.ConfigFiles)-1], r.getenv)
		reg.Created = true
		if err := r.fs.MkdirAll(filepath.Dir(reg.Path), 0755); err != nil {
			return reg, errors.Wrapf(err, errors.ErrFileAccess, "failed to create %s", filepath.Dir(reg.Path))
		}
	}

	block := r.Block(shell, installDir)
	if !reg.Created {
		content, err := afero.ReadFile(r.fs, reg.Path)
		if err != nil {
			return reg, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", reg.Path)
		}
		if strings.Contains(string(content), block) {
			reg.Unchanged = true
			r.logger.Debug().Str("path", reg.Path).Msg("Shell already registered")
			return reg, nil
		}
	}

	f, err := r.fs.OpenFile(reg.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return reg, errors.Wrapf(err, errors.ErrFileAccess, "failed to open %s", reg.Path)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString("\n\n" + block); err != nil {
		return reg, errors.Wrapf(err, errors.ErrFileAccess, "failed to write %s", reg.Path)
	}

	r.logger.Info().Str("path", reg.Path).Bool("created", reg.Created).Msg("Registered shell initialization")
	return reg, nil
}
