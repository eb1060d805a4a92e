package catalog

import (
	"maps"
	"slices"

	"github.com/aita/migi/internal/dialect"
)

// Options configures a new database model
type Options struct {
	Dialect       dialect.Dialect
	Database      string
	DefaultSchema string
}

// Dbinfo is the root of the catalog model: a set of catalogs (databases),
// one of which is the default
type Dbinfo struct {
	Dialect        dialect.Dialect     `yaml:"dialect" json:"dialect"`
	DefaultCatalog string              `yaml:"default_catalog" json:"default_catalog"`
	Catalogs       map[string]*Catalog `yaml:"catalogs" json:"catalogs"`
}

// Catalog is a database holding schemas
type Catalog struct {
	Name          string             `yaml:"name" json:"name"`
	DefaultSchema string             `yaml:"default_schema" json:"default_schema"`
	Schemas       map[string]*Schema `yaml:"schemas" json:"schemas"`
}

// Schema is a namespace holding tables
type Schema struct {
	Name   string            `yaml:"name" json:"name"`
	Tables map[string]*Table `yaml:"tables" json:"tables"`
}

// New creates a model holding the default catalog and its default schema.
// An empty DefaultSchema falls back to the dialect's default.
func New(opts Options) *Dbinfo {
	defaultSchema := opts.DefaultSchema
	if defaultSchema == "" {
		defaultSchema = opts.Dialect.DefaultSchema()
	}

	db := &Dbinfo{
		Dialect:        opts.Dialect,
		DefaultCatalog: opts.Database,
		Catalogs:       make(map[string]*Catalog),
	}
	db.AddCatalog(opts.Database, NewCatalog(opts.Database, defaultSchema))

	return db
}

// NewCatalog creates a catalog holding an empty default schema
func NewCatalog(name, defaultSchema string) *Catalog {
	return &Catalog{
		Name:          name,
		DefaultSchema: defaultSchema,
		Schemas: map[string]*Schema{
			defaultSchema: NewSchema(defaultSchema),
		},
	}
}

// NewSchema creates an empty schema
func NewSchema(name string) *Schema {
	return &Schema{
		Name:   name,
		Tables: make(map[string]*Table),
	}
}

// Options returns the options the model was created with
func (db *Dbinfo) Options() Options {
	opts := Options{Dialect: db.Dialect, Database: db.DefaultCatalog}
	if c, ok := db.Catalogs[db.DefaultCatalog]; ok {
		opts.DefaultSchema = c.DefaultSchema
	}
	return opts
}

// AddCatalog inserts or replaces a catalog
func (db *Dbinfo) AddCatalog(name string, c *Catalog) {
	if db.Catalogs == nil {
		db.Catalogs = make(map[string]*Catalog)
	}
	db.Catalogs[name] = c
}

// AddSchema inserts or replaces a schema in the named catalog. An empty
// catalog name selects the default catalog.
func (db *Dbinfo) AddSchema(catalogName string, s *Schema) error {
	if catalogName == "" {
		catalogName = db.DefaultCatalog
	}
	c, ok := db.Catalogs[catalogName]
	if !ok {
		return notFound("add schema", "catalog", catalogName)
	}
	if c.Schemas == nil {
		c.Schemas = make(map[string]*Schema)
	}
	c.Schemas[s.Name] = s
	return nil
}

// AddTable inserts or replaces a table. Qualifiers missing from name are
// taken from the defaults; an explicitly named catalog or schema must exist.
func (db *Dbinfo) AddTable(name TableName, t *Table) error {
	s, err := db.schemaFor("add table", name)
	if err != nil {
		return err
	}
	if s.Tables == nil {
		s.Tables = make(map[string]*Table)
	}
	s.Tables[name.Table] = t
	return nil
}

// GetCatalog looks up a catalog by name
func (db *Dbinfo) GetCatalog(name string) (*Catalog, error) {
	c, ok := db.Catalogs[name]
	if !ok {
		return nil, notFound("get catalog", "catalog", name)
	}
	return c, nil
}

// GetSchema looks up a schema within a catalog
func (db *Dbinfo) GetSchema(catalogName, name string) (*Schema, error) {
	c, ok := db.Catalogs[catalogName]
	if !ok {
		return nil, notFound("get schema", "catalog", catalogName)
	}
	s, ok := c.Schemas[name]
	if !ok {
		return nil, notFound("get schema", "schema", catalogName, name)
	}
	return s, nil
}

// GetTable looks up a table, applying defaults to missing qualifiers
func (db *Dbinfo) GetTable(name TableName) (*Table, error) {
	s, err := db.schemaFor("get table", name)
	if err != nil {
		return nil, err
	}
	t, ok := s.Tables[name.Table]
	if !ok {
		q := db.Qualify(name)
		return nil, notFound("get table", "table", q.Catalog, q.Schema, q.Table)
	}
	return t, nil
}

// Qualify fills missing qualifiers with the model's defaults
func (db *Dbinfo) Qualify(name TableName) TableName {
	if name.Catalog == "" {
		name.Catalog = db.DefaultCatalog
	}
	if name.Schema == "" {
		if c, ok := db.Catalogs[name.Catalog]; ok {
			name.Schema = c.DefaultSchema
		}
	}
	return name
}

func (db *Dbinfo) schemaFor(op string, name TableName) (*Schema, error) {
	catalogName := name.Catalog
	if catalogName == "" {
		catalogName = db.DefaultCatalog
	}
	c, ok := db.Catalogs[catalogName]
	if !ok {
		return nil, notFound(op, "catalog", catalogName)
	}

	schemaName := name.Schema
	if schemaName == "" {
		schemaName = c.DefaultSchema
	}
	s, ok := c.Schemas[schemaName]
	if !ok {
		return nil, notFound(op, "schema", catalogName, schemaName)
	}
	return s, nil
}

// CatalogNames returns catalog names in sorted order
func (db *Dbinfo) CatalogNames() []string {
	return slices.Sorted(maps.Keys(db.Catalogs))
}

// TableCount returns the number of tables across all catalogs
func (db *Dbinfo) TableCount() int {
	n := 0
	for _, c := range db.Catalogs {
		for _, s := range c.Schemas {
			n += len(s.Tables)
		}
	}
	return n
}

// Equal reports structural equality of two models
func (db *Dbinfo) Equal(other *Dbinfo) bool {
	if db == nil || other == nil {
		return db == other
	}
	return db.Dialect == other.Dialect &&
		db.DefaultCatalog == other.DefaultCatalog &&
		maps.EqualFunc(db.Catalogs, other.Catalogs, (*Catalog).Equal)
}

// Clone returns a deep copy of the model
func (db *Dbinfo) Clone() *Dbinfo {
	if db == nil {
		return nil
	}
	c := *db
	c.Catalogs = make(map[string]*Catalog, len(db.Catalogs))
	for k, v := range db.Catalogs {
		c.Catalogs[k] = v.Clone()
	}
	return &c
}

// SchemaNames returns schema names in sorted order
func (c *Catalog) SchemaNames() []string {
	return slices.Sorted(maps.Keys(c.Schemas))
}

// Equal reports structural equality of two catalogs
func (c *Catalog) Equal(other *Catalog) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Name == other.Name &&
		c.DefaultSchema == other.DefaultSchema &&
		maps.EqualFunc(c.Schemas, other.Schemas, (*Schema).Equal)
}

// Clone returns a deep copy of the catalog
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := *c
	out.Schemas = make(map[string]*Schema, len(c.Schemas))
	for k, v := range c.Schemas {
		out.Schemas[k] = v.Clone()
	}
	return &out
}

// TableNames returns table names in sorted order
func (s *Schema) TableNames() []string {
	return slices.Sorted(maps.Keys(s.Tables))
}

// Equal reports structural equality of two schemas
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Name == other.Name &&
		maps.EqualFunc(s.Tables, other.Tables, (*Table).Equal)
}

// Clone returns a deep copy of the schema
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Tables = make(map[string]*Table, len(s.Tables))
	for k, v := range s.Tables {
		out.Tables[k] = v.Clone()
	}
	return &out
}
