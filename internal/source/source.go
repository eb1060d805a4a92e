package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/inspector"
	"github.com/aita/migi/internal/introspect"
	"github.com/aita/migi/internal/snapshot"
)

//go:generate mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks

// Source produces a catalog model to diff
type Source interface {
	// Load builds the model
	Load(ctx context.Context) (*catalog.Dbinfo, error)
	// String describes the source for messages
	String() string
}

// DDL is a set of SQL files or directories
type DDL struct {
	Paths   []string
	Options catalog.Options
	Strict  bool
}

func (s *DDL) Load(ctx context.Context) (*catalog.Dbinfo, error) {
	db := catalog.New(s.Options)
	if err := inspector.New(db, inspector.WithStrict(s.Strict)).InspectFiles(s.Paths...); err != nil {
		return nil, err
	}
	return db, nil
}

func (s *DDL) String() string {
	return strings.Join(s.Paths, ",")
}

// SnapshotFile is a recorded snapshot. With AllowMissing a missing file
// loads as an empty model built from Options.
type SnapshotFile struct {
	Path         string
	Options      catalog.Options
	AllowMissing bool
}

func (s *SnapshotFile) Load(ctx context.Context) (*catalog.Dbinfo, error) {
	db, err := snapshot.Load(s.Path)
	if err != nil {
		if s.AllowMissing && errors.Is(err, fs.ErrNotExist) {
			return catalog.New(s.Options), nil
		}
		return nil, err
	}
	return db, nil
}

func (s *SnapshotFile) String() string {
	return s.Path
}

// Database is a live database reached through a connection URL
type Database struct {
	URL     string
	Schemas []string
}

func (s *Database) Load(ctx context.Context) (*catalog.Dbinfo, error) {
	i, err := introspect.Open(ctx, s.URL, introspect.WithSchemas(s.Schemas...))
	if err != nil {
		return nil, err
	}
	defer i.Close()

	return i.Load(ctx)
}

func (s *Database) String() string {
	return "database"
}

// Empty is a model with nothing but the default catalog and schema
type Empty struct {
	Options catalog.Options
}

func (s *Empty) Load(ctx context.Context) (*catalog.Dbinfo, error) {
	return catalog.New(s.Options), nil
}

func (s *Empty) String() string {
	return "empty"
}

// Options are applied to sources parsed from a spec string
type Options struct {
	Catalog catalog.Options
	Strict  bool
}

// Parse maps a source spec to a Source:
//
//	empty                  an empty model
//	db:<url>               a live database
//	*.yaml, *.yml, *.json  a recorded snapshot
//	anything else          comma separated DDL files or directories
func Parse(spec string, opts Options) (Source, error) {
	spec = strings.TrimSpace(spec)
	switch {
	case spec == "":
		return nil, errors.New("empty source")
	case spec == "empty":
		return &Empty{Options: opts.Catalog}, nil
	case strings.HasPrefix(spec, "db:"):
		url := strings.TrimPrefix(spec, "db:")
		if url == "" {
			return nil, fmt.Errorf("source %q has no database url", spec)
		}
		return &Database{URL: url}, nil
	}

	switch strings.ToLower(filepath.Ext(spec)) {
	case ".yaml", ".yml", ".json":
		return &SnapshotFile{Path: spec, Options: opts.Catalog}, nil
	}

	var paths []string
	for _, p := range strings.Split(spec, ",") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return &DDL{Paths: paths, Options: opts.Catalog, Strict: opts.Strict}, nil
}
