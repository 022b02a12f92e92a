// Package catalog holds the registered applications the shell can launch.
//
// The set of application ids is closed (types.AllAppIDs). Manifests may tune
// a known application's title, icon, policy and default geometry, but can
// never introduce a new id.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/shared/types"
)

// Catalog maps app ids to their definitions
type Catalog struct {
	mu        sync.RWMutex
	apps      map[types.AppID]types.Definition
	manifests int
}

// New creates a catalog seeded with the built-in definitions
func New() *Catalog {
	c := &Catalog{apps: make(map[types.AppID]types.Definition)}
	for _, def := range Builtins() {
		c.apps[def.ID] = def
	}
	return c
}

// Builtins returns the default definition of every known application
func Builtins() []types.Definition {
	return []types.Definition{
		{ID: types.AppAbout, Title: "About", Icon: "info", Category: "system", Policy: types.PolicySingle,
			DefaultSize: &types.Size{Width: 420, Height: 320}},
		{ID: types.AppBookmarks, Title: "Bookmarks", Icon: "bookmark", Category: "productivity", Policy: types.PolicySingle,
			DefaultSize: &types.Size{Width: 720, Height: 520}},
		{ID: types.AppBrowser, Title: "Browser", Icon: "globe", Category: "internet", Policy: types.PolicyMulti,
			DefaultSize: &types.Size{Width: 1024, Height: 720}},
		{ID: types.AppCalculator, Title: "Calculator", Icon: "calculator", Category: "utilities", Policy: types.PolicySingle,
			DefaultSize: &types.Size{Width: 320, Height: 480}},
		{ID: types.AppFiles, Title: "Files", Icon: "folder", Category: "system", Policy: types.PolicyMulti,
			DefaultSize: &types.Size{Width: 800, Height: 560}},
		{ID: types.AppNotes, Title: "Notes", Icon: "note", Category: "productivity", Policy: types.PolicyMulti,
			DefaultSize: &types.Size{Width: 600, Height: 480}},
		{ID: types.AppSettings, Title: "Settings", Icon: "gear", Category: "system", Policy: types.PolicySingle,
			DefaultSize: &types.Size{Width: 760, Height: 560}},
		{ID: types.AppTerminal, Title: "Terminal", Icon: "terminal", Category: "utilities", Policy: types.PolicyMulti,
			DefaultSize: &types.Size{Width: 720, Height: 440}},
		{ID: types.AppThemeEditor, Title: "Theme Editor", Icon: "palette", Category: "system", Policy: types.PolicySingle,
			DefaultSize: &types.Size{Width: 680, Height: 520}},
	}
}

// Has reports whether id is registered
func (c *Catalog) Has(id types.AppID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.apps[id]
	return ok
}

// Lookup returns the definition for id
func (c *Catalog) Lookup(id types.AppID) (types.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.apps[id]
	return def, ok
}

// Policy returns the launch policy for id, PolicySingle when unknown
func (c *Catalog) Policy(id types.AppID) types.Policy {
	if def, ok := c.Lookup(id); ok && def.Policy.Valid() {
		return def.Policy
	}
	return types.PolicySingle
}

// List returns all definitions sorted by id, optionally filtered by category
func (c *Catalog) List(category *string) []types.Definition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]types.Definition, 0, len(c.apps))
	for _, def := range c.apps {
		if category == nil || def.Category == *category {
			defs = append(defs, def)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// Apply merges a manifest into the definition of a known application.
// Zero-valued manifest fields leave the current value untouched.
func (c *Catalog) Apply(m Manifest) error {
	appID := types.AppID(m.ID)
	if !appID.Known() {
		return &types.UnknownAppError{AppID: appID}
	}
	if m.Policy != "" && !types.Policy(m.Policy).Valid() {
		return fmt.Errorf("app %s: invalid policy %q", m.ID, m.Policy)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	def := c.apps[appID]
	def.ID = appID
	if m.Title != "" {
		def.Title = m.Title
	}
	if m.Icon != "" {
		def.Icon = m.Icon
	}
	if m.Category != "" {
		def.Category = m.Category
	}
	if m.Policy != "" {
		def.Policy = types.Policy(m.Policy)
	}
	if m.Window != nil {
		if m.Window.Width > 0 && m.Window.Height > 0 {
			def.DefaultSize = &types.Size{Width: m.Window.Width, Height: m.Window.Height}
		}
		if m.Window.X != nil && m.Window.Y != nil {
			def.DefaultPosition = &types.Position{X: *m.Window.X, Y: *m.Window.Y}
		}
	}
	c.apps[appID] = def
	c.manifests++
	return nil
}

// Stats returns catalog statistics
func (c *Catalog) Stats() types.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.CatalogStats{
		TotalApps:   len(c.apps),
		Categories:  make(map[string]int),
		ManifestsOK: c.manifests,
	}
	for _, def := range c.apps {
		if def.Policy == types.PolicyMulti {
			stats.MultiApps++
		}
		if def.Category != "" {
			stats.Categories[def.Category]++
		}
	}
	return stats
}
