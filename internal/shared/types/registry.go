package types

import "sort"

// AppID names an application type
type AppID string

// Known applications. The set is closed: anything else is rejected with UnknownAppError.
const (
	AppAbout       AppID = "about"
	AppBookmarks   AppID = "bookmarks"
	AppBrowser     AppID = "browser"
	AppCalculator  AppID = "calculator"
	AppFiles       AppID = "files"
	AppNotes       AppID = "notes"
	AppSettings    AppID = "settings"
	AppTerminal    AppID = "terminal"
	AppThemeEditor AppID = "theme-editor"
)

// AllAppIDs returns every known application id in lexical order
func AllAppIDs() []AppID {
	ids := []AppID{
		AppAbout,
		AppBookmarks,
		AppBrowser,
		AppCalculator,
		AppFiles,
		AppNotes,
		AppSettings,
		AppTerminal,
		AppThemeEditor,
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Known reports whether id is one of the registered applications
func (id AppID) Known() bool {
	switch id {
	case AppAbout, AppBookmarks, AppBrowser, AppCalculator, AppFiles,
		AppNotes, AppSettings, AppTerminal, AppThemeEditor:
		return true
	default:
		return false
	}
}

func (id AppID) String() string { return string(id) }

// Policy controls how a launch request for an already-open app is resolved
type Policy string

const (
	PolicySingle Policy = "single" // Reuse the existing instance (default)
	PolicyMulti  Policy = "multi"  // Allow a new instance when explicitly requested
)

// Valid reports whether p is a recognised policy
func (p Policy) Valid() bool {
	return p == PolicySingle || p == PolicyMulti
}

// Definition is the static description of a registered application
type Definition struct {
	ID              AppID     `json:"id"`
	Title           string    `json:"title"`
	Icon            string    `json:"icon,omitempty"`
	Category        string    `json:"category,omitempty"`
	Policy          Policy    `json:"policy"`
	DefaultPosition *Position `json:"default_position,omitempty"`
	DefaultSize     *Size     `json:"default_size,omitempty"`
}

// CatalogStats contains catalog statistics
type CatalogStats struct {
	TotalApps   int            `json:"total_apps"`
	MultiApps   int            `json:"multi_instance_apps"`
	Categories  map[string]int `json:"categories"`
	ManifestsOK int            `json:"manifests_loaded"`
}
