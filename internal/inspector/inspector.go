package inspector

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/ddl"
	"github.com/aita/migi/internal/dialect"
	"github.com/aita/migi/internal/logger"
)

// Inspector builds a catalog model from DDL scripts
type Inspector struct {
	db       *catalog.Dbinfo
	dialect  dialect.Dialect
	filename string
	strict   bool
	log      logger.Logger
}

// Option configures an Inspector
type Option func(*Inspector)

// WithStrict makes statements without a model counterpart (views,
// functions, DML ...) fail instead of being skipped with a warning
func WithStrict(strict bool) Option {
	return func(i *Inspector) {
		i.strict = strict
	}
}

// WithLogger overrides the component logger
func WithLogger(l logger.Logger) Option {
	return func(i *Inspector) {
		i.log = l
	}
}

// New creates an inspector that adds to db
func New(db *catalog.Dbinfo, opts ...Option) *Inspector {
	i := &Inspector{
		db:      db,
		dialect: db.Dialect,
		log:     logger.Inspector(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect parses sql and applies every statement to the model. filename is
// used for error locations only.
func (i *Inspector) Inspect(sql, filename string) error {
	i.filename = filename

	stmts, err := ddl.Parse(sql, i.dialect)
	if err != nil {
		var syntaxErr *ddl.SyntaxError
		if errors.As(err, &syntaxErr) {
			return &Error{File: filename, Pos: syntaxErr.Pos, Msg: syntaxErr.Msg, Err: err}
		}
		return err
	}

	i.log.Debug("Parsed DDL", "file", filename, "statements", len(stmts))

	for _, stmt := range stmts {
		if err := i.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InspectFiles inspects each path in order. Directories are walked for
// *.sql files, visited in lexical order.
func (i *Inspector) InspectFiles(paths ...string) error {
	for _, path := range paths {
		files, err := collectFiles(path)
		if err != nil {
			return err
		}

		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			i.log.Info("Inspecting file", "file", file)
			if err := i.Inspect(string(data), file); err != nil {
				return err
			}
		}
	}
	return nil
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(p), ".sql") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", path, err)
	}

	slices.Sort(files)
	return files, nil
}

func (i *Inspector) statement(stmt ddl.Statement) error {
	switch s := stmt.(type) {
	case *ddl.CreateTable:
		return i.createTable(s)
	case *ddl.CreateSchema:
		return i.createSchema(s)
	case *ddl.CreateDatabase:
		return i.createDatabase(s)
	case *ddl.CreateIndex:
		return i.createIndex(s)
	case *ddl.AlterTable:
		return i.alterTable(s)
	case *ddl.CommentOn:
		return i.commentOn(s)
	case *ddl.Other:
		if i.strict {
			return i.unsupported(s.At, "%s is not supported", s.Keyword)
		}
		i.log.Warn("Skipping statement", "statement", s.Keyword, "location", i.location(s.At))
		return nil
	default:
		return i.unsupported(stmt.Position(), "%T is not supported", stmt)
	}
}

func (i *Inspector) createSchema(s *ddl.CreateSchema) error {
	switch i.dialect {
	case dialect.Postgres:
		var catalogName, name string
		switch len(s.Name) {
		case 1:
			catalogName, name = i.db.DefaultCatalog, i.fold(s.Name[0])
		case 2:
			catalogName, name = i.fold(s.Name[0]), i.fold(s.Name[1])
		default:
			return i.fail(s.At, catalog.ErrInvalidName, "invalid schema name %q", s.Name.String())
		}

		if c, err := i.db.GetCatalog(catalogName); err == nil {
			if _, ok := c.Schemas[name]; ok {
				i.log.Debug("Schema already exists", "schema", name)
				return nil
			}
		}
		if err := i.db.AddSchema(catalogName, catalog.NewSchema(name)); err != nil {
			return i.wrap(s.At, err)
		}
		return nil

	case dialect.MySQL:
		// a schema is a database in MySQL
		if len(s.Name) != 1 {
			return i.fail(s.At, catalog.ErrInvalidName, "invalid schema name %q", s.Name.String())
		}
		i.addCatalog(i.fold(s.Name[0]))
		return nil

	case dialect.SQLite:
		return i.unsupported(s.At, "CREATE SCHEMA is not supported in %s", i.dialect)

	default:
		return i.unsupported(s.At, "CREATE SCHEMA is not supported in %s", i.dialect)
	}
}

func (i *Inspector) createDatabase(s *ddl.CreateDatabase) error {
	if !i.dialect.HasDatabases() {
		return i.unsupported(s.At, "CREATE DATABASE is not supported in %s", i.dialect)
	}
	i.addCatalog(i.fold(s.Name))
	return nil
}

func (i *Inspector) addCatalog(name string) {
	if _, ok := i.db.Catalogs[name]; ok {
		i.log.Debug("Catalog already exists", "catalog", name)
		return
	}
	i.db.AddCatalog(name, catalog.NewCatalog(name, i.db.Options().DefaultSchema))
}

func (i *Inspector) createIndex(s *ddl.CreateIndex) error {
	table, err := i.lookupTable(s.Table)
	if err != nil {
		return err
	}
	table.Indexes = append(table.Indexes, i.index(s.Index))
	return nil
}

func (i *Inspector) commentOn(s *ddl.CommentOn) error {
	switch s.Target {
	case "TABLE":
		table, err := i.lookupTable(s.Name)
		if err != nil {
			return err
		}
		table.Comment = s.Comment
		return nil

	case "COLUMN":
		if len(s.Name) < 2 {
			return i.fail(s.At, catalog.ErrInvalidName, "invalid column name %q", s.Name.String())
		}
		table, err := i.lookupTable(s.Name[:len(s.Name)-1])
		if err != nil {
			return err
		}
		name := i.fold(s.Name[len(s.Name)-1])
		idx := slices.IndexFunc(table.Columns, func(c catalog.Column) bool { return c.Name == name })
		if idx < 0 {
			return i.fail(s.At, catalog.ErrNotFound, "column %q not found in table %s", name, table.Name)
		}

		col := &table.Columns[idx]
		col.Options = slices.DeleteFunc(col.Options, func(o catalog.ColumnOption) bool {
			return o.Kind == catalog.OptionComment
		})
		if !s.IsNull {
			col.Options = append(col.Options, catalog.ColumnOption{Kind: catalog.OptionComment, Expr: s.Comment})
		}
		return nil

	default:
		i.log.Debug("Skipping comment", "target", s.Target, "name", s.Name.String())
		return nil
	}
}

// tableName folds and resolves a parsed table reference
func (i *Inspector) tableName(name ddl.Name) (catalog.TableName, error) {
	parts := make([]string, len(name))
	for idx, id := range name {
		parts[idx] = i.fold(id)
	}

	tn, err := catalog.ResolveTableName(parts, i.dialect)
	if err != nil {
		return catalog.TableName{}, i.wrap(name.Position(), err)
	}
	return tn, nil
}

func (i *Inspector) lookupTable(name ddl.Name) (*catalog.Table, error) {
	tn, err := i.tableName(name)
	if err != nil {
		return nil, err
	}
	table, err := i.db.GetTable(tn)
	if err != nil {
		return nil, i.wrap(name.Position(), err)
	}
	return table, nil
}

func (i *Inspector) fold(id ddl.Ident) string {
	return i.dialect.FoldIdent(id.Value, id.Quoted)
}

func (i *Inspector) location(pos ddl.Pos) string {
	return (&Error{File: i.filename, Pos: pos}).Location()
}

func (i *Inspector) unsupported(pos ddl.Pos, format string, args ...interface{}) error {
	return i.fail(pos, ErrUnsupportedConstruct, format, args...)
}

func (i *Inspector) fail(pos ddl.Pos, err error, format string, args ...interface{}) error {
	return &Error{File: i.filename, Pos: pos, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (i *Inspector) wrap(pos ddl.Pos, err error) error {
	return &Error{File: i.filename, Pos: pos, Msg: err.Error(), Err: err}
}
