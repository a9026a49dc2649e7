package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Isolate redirects the XDG base directories into a temporary directory
// and removes HEAINSTALL_ variables for the duration of the test. It
// returns the temporary root.
func Isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "HEAINSTALL_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_CONFIG_DIRS", filepath.Join(root, "etc"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(root, "cache"))
	return root
}
