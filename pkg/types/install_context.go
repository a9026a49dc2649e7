package types

import "sort"

// InstallContext describes the machine and the selections a run works with.
// It is built once, before the first stage, and passed by value afterwards.
type InstallContext struct {
	Platform       string
	Architecture   string
	PackageManager string
	// Shell is empty when the detected shell has no configuration entry.
	Shell     string
	ShellPath string

	HomeDir     string
	InstallDir  string
	DownloadDir string
	// Archive is the source archive later stages read: the download target,
	// or the file the operator already had.
	Archive string

	// Components maps a component group to its selected option ids, sorted.
	Components map[string][]string

	PythonManager string
	// PipCommand overrides the python install command when set.
	PipCommand string
}

// WithArchive returns a copy that reads the source from path. It is meant
// for the one decision taken before the sequence starts.
func (c InstallContext) WithArchive(path string) InstallContext {
	c.Archive = path
	return c
}

// HasShell reports whether shell registration can be performed.
func (c InstallContext) HasShell() bool {
	return c.Shell != ""
}

// ComponentGroups returns the selected component group names in sorted order.
func (c InstallContext) ComponentGroups() []string {
	groups := make([]string, 0, len(c.Components))
	for g := range c.Components {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
