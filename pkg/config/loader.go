package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	tomlenc "github.com/pelletier/go-toml/v2"
	yamlenc "gopkg.in/yaml.v3"

	"github.com/arthur-debert/heainstall/pkg/errors"
)

const (
	envPrefix      = "HEAINSTALL_"
	userConfigName = "heainstall/config.toml"
)

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFile is an explicit user file; when empty the XDG config
	// directories are searched for heainstall/config.toml.
	ConfigFile string
	// SkipEnv disables HEAINSTALL_ environment overrides.
	SkipEnv bool
	// Overrides are dotted keys set from command line flags; they win over
	// every other layer.
	Overrides map[string]interface{}
}

// Load builds Settings from the embedded defaults, the user file, the
// environment and flag overrides, in that order of precedence (later wins).
func Load(opts LoadOptions) (*Settings, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load defaults")
	}

	// 2. User config if it exists
	path, err := userConfigPath(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load user config from %s", path)
		}
	}

	// 3. Env vars
	if !opts.SkipEnv {
		err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
			key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
			return strings.ReplaceAll(key, "__", ".")
		}), nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load env vars")
		}
	}

	// 4. Flag overrides
	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	// 5. Unmarshal
	var cfg Settings
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				answerToBoolMapHookFunc(),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to unmarshal configuration")
	}
	cfg.raw = k.Raw()

	// 6. Validate
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Dump renders the effective configuration as "toml" or "yaml".
func (s *Settings) Dump(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "toml":
		return tomlenc.Marshal(s.raw)
	case "yaml", "yml":
		return yamlenc.Marshal(s.raw)
	default:
		return nil, errors.Newf(errors.ErrInvalidInput, "unsupported format %q", format)
	}
}

// UserConfigPath returns the path `config init` writes to.
func UserConfigPath() (string, error) {
	xdg.Reload()
	return xdg.ConfigFile(userConfigName)
}

// WriteDefaults writes the embedded defaults to path, refusing to overwrite
// an existing file unless force is set.
func WriteDefaults(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.Newf(errors.ErrInvalidInput, "%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to create config directory")
	}
	if err := os.WriteFile(path, defaultConfig, 0644); err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to write config")
	}
	return nil
}

func userConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(err, errors.ErrConfigLoad, "config file %s", explicit)
		}
		return explicit, nil
	}

	xdg.Reload()
	for _, name := range []string{userConfigName, "heainstall/config.yaml", "heainstall/config.yml"} {
		if path, err := xdg.SearchConfigFile(name); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// answerToBoolMapHookFunc decodes selection tables, accepting both booleans
// and "yes"/"no" style answers.
func answerToBoolMapHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.Map || t.Kind() != reflect.Map || t.Elem().Kind() != reflect.Bool {
			return data, nil
		}
		m, ok := data.(map[string]interface{})
		if !ok {
			return data, nil
		}
		out := make(map[string]bool, len(m))
		for k, v := range m {
			switch val := v.(type) {
			case bool:
				out[k] = val
			case string:
				switch strings.ToLower(strings.TrimSpace(val)) {
				case "yes", "y", "true", "on":
					out[k] = true
				case "no", "n", "false", "off":
					out[k] = false
				default:
					return nil, fmt.Errorf("selection %s: unrecognised answer %q", k, val)
				}
			}
		}
		return out, nil
	}
}
