package types

import (
	"sort"
	"strings"
)

// EnvironmentOverlay holds the environment changes applied to every
// subprocess of a run. The parent process environment is never modified.
type EnvironmentOverlay struct {
	Set        map[string]string
	Unset      []string
	PathPrefix []string
}

// NewEnvironmentOverlay returns an empty overlay.
func NewEnvironmentOverlay() EnvironmentOverlay {
	return EnvironmentOverlay{Set: map[string]string{}}
}

// With returns a copy with one more variable set.
func (o EnvironmentOverlay) With(key, value string) EnvironmentOverlay {
	out := o.clone()
	out.Set[key] = value
	return out
}

// Merge returns a copy with other's entries layered on top.
func (o EnvironmentOverlay) Merge(other EnvironmentOverlay) EnvironmentOverlay {
	out := o.clone()
	for k, v := range other.Set {
		out.Set[k] = v
	}
	out.Unset = append(out.Unset, other.Unset...)
	out.PathPrefix = append(out.PathPrefix, other.PathPrefix...)
	return out
}

// IsEmpty reports whether the overlay changes nothing.
func (o EnvironmentOverlay) IsEmpty() bool {
	return len(o.Set) == 0 && len(o.Unset) == 0 && len(o.PathPrefix) == 0
}

// Apply merges the overlay into base (KEY=VALUE entries) and returns a new,
// sorted environment. Set wins over Unset for the same key.
func (o EnvironmentOverlay) Apply(base []string) []string {
	env := make(map[string]string, len(base)+len(o.Set))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}

	for _, k := range o.Unset {
		delete(env, k)
	}
	for k, v := range o.Set {
		env[k] = v
	}

	if len(o.PathPrefix) > 0 {
		parts := append([]string{}, o.PathPrefix...)
		if cur := env["PATH"]; cur != "" {
			parts = append(parts, cur)
		}
		env["PATH"] = strings.Join(parts, ":")
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func (o EnvironmentOverlay) clone() EnvironmentOverlay {
	out := EnvironmentOverlay{
		Set:        make(map[string]string, len(o.Set)),
		Unset:      append([]string{}, o.Unset...),
		PathPrefix: append([]string{}, o.PathPrefix...),
	}
	for k, v := range o.Set {
		out.Set[k] = v
	}
	return out
}
