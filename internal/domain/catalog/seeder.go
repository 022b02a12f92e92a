package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

// DefaultPattern matches every YAML and TOML manifest below the apps directory
const DefaultPattern = "**/*.{yaml,yml,toml}"

// Manifest is the on-disk description of a known application
type Manifest struct {
	ID       string          `yaml:"id" toml:"id"`
	Title    string          `yaml:"title" toml:"title"`
	Icon     string          `yaml:"icon" toml:"icon"`
	Category string          `yaml:"category" toml:"category"`
	Policy   string          `yaml:"policy" toml:"policy"`
	Window   *WindowManifest `yaml:"window" toml:"window"`
}

// WindowManifest holds default window geometry
type WindowManifest struct {
	X      *int `yaml:"x" toml:"x"`
	Y      *int `yaml:"y" toml:"y"`
	Width  int  `yaml:"width" toml:"width"`
	Height int  `yaml:"height" toml:"height"`
}

// Result summarises a seeding run
type Result struct {
	Loaded int
	Failed int
	Errors map[string]error // Keyed by path relative to the apps directory
}

// Seeder loads application manifests from disk into a catalog
type Seeder struct {
	catalog *Catalog
	appsDir string
	pattern string
	logger  *zap.Logger
}

// NewSeeder creates a new manifest seeder
func NewSeeder(catalog *Catalog, appsDir, pattern string, logger *zap.Logger) *Seeder {
	if pattern == "" {
		pattern = DefaultPattern
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		catalog: catalog,
		appsDir: appsDir,
		pattern: pattern,
		logger:  logger,
	}
}

// Seed walks the apps directory and applies every matching manifest.
// A missing directory is not an error. Individual bad manifests are
// reported in the result and do not stop the run.
func (s *Seeder) Seed(ctx context.Context) (Result, error) {
	result := Result{Errors: make(map[string]error)}

	if !doublestar.ValidatePattern(s.pattern) {
		return result, fmt.Errorf("invalid manifest pattern %q", s.pattern)
	}
	if _, err := os.Stat(s.appsDir); os.IsNotExist(err) {
		s.logger.Warn("Apps directory not found", zap.String("dir", s.appsDir))
		return result, nil
	}

	paths, err := s.discover(ctx)
	if err != nil {
		return result, err
	}

	for _, rel := range paths {
		if err := s.load(filepath.Join(s.appsDir, rel)); err != nil {
			s.logger.Warn("Failed to load manifest", zap.String("path", rel), zap.Error(err))
			result.Errors[rel] = err
			result.Failed++
			continue
		}
		s.logger.Debug("Loaded manifest", zap.String("path", rel))
		result.Loaded++
	}

	s.logger.Info("Catalog seeding complete",
		zap.Int("loaded", result.Loaded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// discover returns manifest paths relative to appsDir, sorted so later
// files override earlier ones deterministically
func (s *Seeder) discover(ctx context.Context) ([]string, error) {
	var (
		mu    sync.Mutex
		paths []string
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, s.appsDir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.appsDir, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(s.pattern, filepath.ToSlash(rel)); ok {
			mu.Lock()
			paths = append(paths, rel)
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.appsDir, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (s *Seeder) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	m, err := ParseManifest(filepath.Ext(path), data)
	if err != nil {
		return err
	}
	return s.catalog.Apply(m)
}

// ParseManifest decodes a manifest by file extension (.yaml, .yml or .toml)
func ParseManifest(ext string, data []byte) (Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("parse yaml manifest: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return m, fmt.Errorf("parse toml manifest: %w", err)
		}
	default:
		return m, fmt.Errorf("unsupported manifest format %q", ext)
	}

	if m.ID == "" {
		return m, fmt.Errorf("manifest is missing id")
	}
	return m, nil
}
