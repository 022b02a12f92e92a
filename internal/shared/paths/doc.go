// Package paths resolves the desktop's on-disk layout.
//
// Everything lives under one home directory (DESKTOP_HOME, default the
// working directory):
//
//	<home>/
//	  ├── data/desktop.db   (hints and saved sessions)
//	  └── apps/             (app manifests, YAML or TOML)
//
// Relative paths from configuration are resolved against home:
//
//	layout := paths.New(cfg.Store.Home)
//	db := layout.Resolve(cfg.Store.Path)
package paths
