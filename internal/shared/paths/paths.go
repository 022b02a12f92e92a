package paths

import "path/filepath"

// Memory is the SQLite path of an in-memory database; it is never resolved
const Memory = ":memory:"

// Default locations relative to the desktop home
const (
	AppsDir  = "apps"
	Database = "data/desktop.db"
)

// Layout resolves desktop files against a home directory
type Layout struct {
	Home string
}

// New returns the layout rooted at home; an empty home means the working directory
func New(home string) Layout {
	if home == "" {
		home = "."
	}
	return Layout{Home: filepath.Clean(home)}
}

// Resolve joins a relative path onto the home directory. Absolute paths and
// the in-memory database path are returned unchanged.
func (l Layout) Resolve(p string) string {
	if p == "" || p == Memory || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Home, p)
}
