package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/logger"
)

// Version is the snapshot file format version written by this package
const Version = 1

// Format is a snapshot encoding
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported snapshot format")
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// File is the on-disk envelope around a catalog model
type File struct {
	Version  int             `yaml:"version" json:"version"`
	Database *catalog.Dbinfo `yaml:"database" json:"database"`
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Marshal encodes the model in the given format. Markdown output is for
// reading only and cannot be loaded back.
func Marshal(db *catalog.Dbinfo, format Format) ([]byte, error) {
	if db == nil {
		return nil, errors.New("snapshot: nil database")
	}

	f := File{Version: Version, Database: db}
	switch format {
	case FormatYAML:
		return yaml.Marshal(f)
	case FormatJSON:
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatMarkdown:
		return Markdown(db), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Unmarshal decodes a YAML or JSON snapshot
func Unmarshal(data []byte, format Format) (*catalog.Dbinfo, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode yaml snapshot: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to decode json snapshot: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if f.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if f.Database == nil {
		return nil, errors.New("snapshot has no database")
	}
	if !f.Database.Dialect.Valid() {
		return nil, fmt.Errorf("snapshot has invalid dialect %d", int(f.Database.Dialect))
	}
	normalize(f.Database)

	return f.Database, nil
}

// normalize restores empty maps dropped by the encoders
func normalize(db *catalog.Dbinfo) {
	if db.Catalogs == nil {
		db.Catalogs = make(map[string]*catalog.Catalog)
	}
	for _, c := range db.Catalogs {
		if c.Schemas == nil {
			c.Schemas = make(map[string]*catalog.Schema)
		}
		for _, s := range c.Schemas {
			if s.Tables == nil {
				s.Tables = make(map[string]*catalog.Table)
			}
		}
	}
}

// Save writes the model to path, creating parent directories
func Save(path string, db *catalog.Dbinfo) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(db, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	logger.Snapshot().Debug("Saved snapshot", "path", path, "tables", db.TableCount())
	return nil
}

// Load reads a snapshot written by Save
func Load(path string) (*catalog.Dbinfo, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	db, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	logger.Snapshot().Debug("Loaded snapshot", "path", path, "tables", db.TableCount())
	return db, nil
}
