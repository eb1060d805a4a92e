package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
	"github.com/aita/migi/internal/logger"
)

// ErrUnsupportedDialect is returned for dialects without live introspection
var ErrUnsupportedDialect = errors.New("introspection is not supported for this dialect")

// Inspector reads a catalog model from a live database through
// information_schema. It never writes to the database.
type Inspector struct {
	db         *sqlx.DB
	dialect    dialect.Dialect
	opts       catalog.Options
	schemas    []string
	sq         squirrel.StatementBuilderType
	normalizer *SQLNormalizer
	log        logger.Logger
}

// Option configures an Inspector
type Option func(*Inspector)

// WithSchemas limits Postgres introspection to the named schemas
func WithSchemas(schemas ...string) Option {
	return func(i *Inspector) {
		i.schemas = schemas
	}
}

// New creates an inspector over an open connection
func New(db *sqlx.DB, d dialect.Dialect, opts catalog.Options, options ...Option) *Inspector {
	opts.Dialect = d
	i := &Inspector{
		db:         db,
		dialect:    d,
		opts:       opts,
		sq:         squirrel.StatementBuilder.PlaceholderFormat(placeholder(d)),
		normalizer: NewSQLNormalizer(),
		log:        logger.Introspect(),
	}
	for _, o := range options {
		o(i)
	}
	return i
}

func placeholder(d dialect.Dialect) squirrel.PlaceholderFormat {
	if d == dialect.Postgres {
		return squirrel.Dollar
	}
	return squirrel.Question
}

// Open connects to the database named by rawURL. postgres:// and
// postgresql:// URLs use lib/pq; anything else is a MySQL DSN, optionally
// prefixed with mysql://.
func Open(ctx context.Context, rawURL string, options ...Option) (*Inspector, error) {
	target, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, target.Driver, target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target.Dialect, err)
	}

	return New(db, target.Dialect, catalog.Options{Dialect: target.Dialect, Database: target.Database}, options...), nil
}

// Target is a parsed connection URL
type Target struct {
	Dialect  dialect.Dialect
	Driver   string
	DSN      string
	Database string
}

// ParseURL maps a connection URL to its driver and database name
func ParseURL(rawURL string) (Target, error) {
	if strings.HasPrefix(rawURL, "postgres://") || strings.HasPrefix(rawURL, "postgresql://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return Target{}, fmt.Errorf("invalid postgres url: %w", err)
		}
		dsn, err := pq.ParseURL(rawURL)
		if err != nil {
			return Target{}, fmt.Errorf("invalid postgres url: %w", err)
		}
		database := strings.TrimPrefix(u.Path, "/")
		if database == "" {
			database = "postgres"
		}
		return Target{Dialect: dialect.Postgres, Driver: "postgres", DSN: dsn, Database: database}, nil
	}

	cfg, err := mysql.ParseDSN(strings.TrimPrefix(rawURL, "mysql://"))
	if err != nil {
		return Target{}, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return Target{}, errors.New("mysql dsn must name a database")
	}
	return Target{Dialect: dialect.MySQL, Driver: "mysql", DSN: cfg.FormatDSN(), Database: cfg.DBName}, nil
}

// Close closes the underlying connection
func (i *Inspector) Close() error {
	return i.db.Close()
}

// Load reads every user table into a new model
func (i *Inspector) Load(ctx context.Context) (*catalog.Dbinfo, error) {
	switch i.dialect {
	case dialect.Postgres, dialect.MySQL:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, i.dialect)
	}

	db := catalog.New(i.opts)
	tables := make(map[tableKey]*catalog.Table)

	if i.dialect.HasSchemas() {
		if err := i.loadSchemas(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to get schemas: %w", err)
		}
	}
	if err := i.loadTables(ctx, db, tables); err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	if err := i.loadColumns(ctx, tables); err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if err := i.loadKeys(ctx, tables); err != nil {
		return nil, fmt.Errorf("failed to get constraints: %w", err)
	}
	if err := i.loadChecks(ctx, tables); err != nil {
		return nil, fmt.Errorf("failed to get check constraints: %w", err)
	}
	if err := i.loadIndexes(ctx, db, tables); err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}

	i.log.Info("Introspected database", "dialect", i.dialect.String(), "database", i.opts.Database, "tables", len(tables))
	return db, nil
}

func (i *Inspector) selectRows(ctx context.Context, dest interface{}, q squirrel.SelectBuilder) error {
	query, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}
	i.log.Debug("Running introspection query", "query", query)
	return i.db.SelectContext(ctx, dest, query, args...)
}

func (i *Inspector) loadSchemas(ctx context.Context, db *catalog.Dbinfo) error {
	var names []string
	if err := i.selectRows(ctx, &names, i.schemataQuery()); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := db.GetSchema(db.DefaultCatalog, name); err == nil {
			continue
		}
		if err := db.AddSchema(db.DefaultCatalog, catalog.NewSchema(name)); err != nil {
			return err
		}
	}
	return nil
}

func (i *Inspector) loadTables(ctx context.Context, db *catalog.Dbinfo, tables map[tableKey]*catalog.Table) error {
	var rows []tableRow
	if err := i.selectRows(ctx, &rows, i.tablesQuery()); err != nil {
		return err
	}

	for _, r := range rows {
		table := &catalog.Table{
			Name:      r.Name,
			Comment:   r.Comment,
			Engine:    r.Engine,
			Collation: r.Collation,
		}

		name := catalog.TableName{Table: r.Name}
		if i.dialect.HasSchemas() {
			name.Schema = r.Schema
			if _, err := db.GetSchema(db.DefaultCatalog, r.Schema); err != nil {
				if err := db.AddSchema(db.DefaultCatalog, catalog.NewSchema(r.Schema)); err != nil {
					return err
				}
			}
		}
		if err := db.AddTable(name, table); err != nil {
			return err
		}
		tables[tableKey{r.Schema, r.Name}] = table
	}
	return nil
}

func (i *Inspector) loadColumns(ctx context.Context, tables map[tableKey]*catalog.Table) error {
	var rows []columnRow
	if err := i.selectRows(ctx, &rows, i.columnsQuery()); err != nil {
		return err
	}

	for _, r := range rows {
		table, ok := tables[tableKey{r.Schema, r.Table}]
		if !ok {
			// views
			continue
		}
		table.Columns = append(table.Columns, i.column(r, table))
	}
	return nil
}

func (i *Inspector) column(r columnRow, table *catalog.Table) catalog.Column {
	col := catalog.Column{Name: r.Name}
	if r.Collation.Valid && r.Collation.String != table.Collation {
		col.Collation = r.Collation.String
	}

	switch i.dialect {
	case dialect.MySQL:
		col.DataType = r.ColumnType
	default:
		col.DataType = postgresType(r)
	}

	if r.IsNullable == "NO" {
		col.Options = append(col.Options, catalog.ColumnOption{Kind: catalog.OptionNotNull})
	}
	if r.Default.Valid {
		col.Options = append(col.Options, catalog.ColumnOption{Kind: catalog.OptionDefault, Expr: i.columnDefault(r)})
	}

	switch i.dialect {
	case dialect.MySQL:
		col.Options = append(col.Options, mysqlExtra(r)...)
	default:
		if r.Extra != "" {
			col.Options = append(col.Options, catalog.ColumnOption{Kind: catalog.OptionIdentity, Expr: r.Extra})
		}
		if r.GenerationExpr.Valid && r.GenerationExpr.String != "" {
			col.Options = append(col.Options, catalog.ColumnOption{
				Kind: catalog.OptionGenerated,
				Expr: "(" + i.normalizer.NormalizeExpr(r.GenerationExpr.String) + ") STORED",
			})
		}
	}

	if r.Comment != "" {
		col.Options = append(col.Options, catalog.ColumnOption{Kind: catalog.OptionComment, Expr: r.Comment})
	}
	return col
}

func (i *Inspector) columnDefault(r columnRow) string {
	if i.dialect == dialect.MySQL {
		return mysqlDefault(r)
	}
	return i.normalizer.NormalizeDefault(r.Default.String)
}

func (i *Inspector) loadKeys(ctx context.Context, tables map[tableKey]*catalog.Table) error {
	var rows []keyRow
	if err := i.selectRows(ctx, &rows, i.keysQuery()); err != nil {
		return err
	}

	var (
		current *catalog.Constraint
		owner   *catalog.Table
		last    keyRow
	)
	flush := func() {
		if current != nil && owner != nil {
			owner.Constraints = append(owner.Constraints, *current)
		}
		current = nil
	}

	for _, r := range rows {
		if current == nil || r.Schema != last.Schema || r.Table != last.Table || r.Name != last.Name {
			flush()
			owner = tables[tableKey{r.Schema, r.Table}]
			current = i.constraint(r)
		}
		current.Columns = append(current.Columns, r.Column)
		if current.References != nil && r.RefColumn.Valid {
			current.References.Columns = append(current.References.Columns, r.RefColumn.String)
		}
		last = r
	}
	flush()
	return nil
}

func (i *Inspector) constraint(r keyRow) *catalog.Constraint {
	c := &catalog.Constraint{Name: r.Name}
	switch r.Type {
	case "PRIMARY KEY":
		c.Kind = catalog.ConstraintPrimaryKey
		if i.dialect == dialect.MySQL {
			// MySQL names every primary key PRIMARY
			c.Name = ""
		}
	case "UNIQUE":
		c.Kind = catalog.ConstraintUnique
	case "FOREIGN KEY":
		c.Kind = catalog.ConstraintForeignKey
		c.References = &catalog.Reference{
			Table:    i.referencedTable(r),
			OnDelete: i.normalizer.NormalizeReferenceAction(r.DeleteRule.String),
			OnUpdate: i.normalizer.NormalizeReferenceAction(r.UpdateRule.String),
		}
	}
	return c
}

// referencedTable qualifies the referenced table only when it lives outside
// the default schema (Postgres) or database (MySQL)
func (i *Inspector) referencedTable(r keyRow) catalog.ObjectName {
	name := catalog.ObjectName{r.RefTable.String}
	if !r.RefSchema.Valid || r.RefSchema.String == "" {
		return name
	}

	local := r.Schema
	if i.dialect.HasSchemas() {
		local = i.opts.DefaultSchema
		if local == "" {
			local = i.dialect.DefaultSchema()
		}
	}
	if r.RefSchema.String == local {
		return name
	}
	return catalog.ObjectName{r.RefSchema.String, r.RefTable.String}
}

func (i *Inspector) loadChecks(ctx context.Context, tables map[tableKey]*catalog.Table) error {
	var rows []checkRow
	if err := i.selectRows(ctx, &rows, i.checksQuery()); err != nil {
		return err
	}

	for _, r := range rows {
		table, ok := tables[tableKey{r.Schema, r.Table}]
		if !ok {
			continue
		}
		table.Constraints = append(table.Constraints, catalog.Constraint{
			Name: r.Name,
			Kind: catalog.ConstraintCheck,
			Expr: i.normalizer.NormalizeExpr(r.Clause),
		})
	}
	return nil
}

func (i *Inspector) loadIndexes(ctx context.Context, db *catalog.Dbinfo, tables map[tableKey]*catalog.Table) error {
	var rows []indexRow
	if err := i.selectRows(ctx, &rows, i.indexesQuery()); err != nil {
		return err
	}

	switch i.dialect {
	case dialect.MySQL:
		return i.mysqlIndexes(rows, tables)
	default:
		return i.postgresIndexes(rows, db, tables)
	}
}
