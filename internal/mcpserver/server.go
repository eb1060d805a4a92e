// Package mcpserver exposes schema inspection and diffing as MCP tools
// served over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/config"
	"github.com/aita/migi/internal/dialect"
	"github.com/aita/migi/internal/diff"
	"github.com/aita/migi/internal/inspector"
	"github.com/aita/migi/internal/logger"
	"github.com/aita/migi/internal/render"
	"github.com/aita/migi/internal/snapshot"
	"github.com/aita/migi/pkg/migi"
)

// New builds the MCP server with the inspect_schema and diff_schemas tools
func New() *server.MCPServer {
	s := server.NewMCPServer(
		"migi",
		migi.Version,
		server.WithToolCapabilities(false),
	)

	inspectTool := mcp.NewTool("inspect_schema",
		mcp.WithDescription("Parse SQL DDL into a catalog model and return it as a YAML snapshot"),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("CREATE DATABASE, CREATE SCHEMA and CREATE TABLE statements"),
		),
		mcp.WithString("dialect",
			mcp.Description("SQL dialect (default: postgres)"),
			mcp.Enum("postgres", "mysql", "sqlite"),
		),
		mcp.WithString("database",
			mcp.Description("Default database name (default depends on the dialect)"),
		),
		mcp.WithString("default_schema",
			mcp.Description("Default schema name (default depends on the dialect)"),
		),
	)
	s.AddTool(inspectTool, handleInspectSchema)

	diffTool := mcp.NewTool("diff_schemas",
		mcp.WithDescription("Compare two DDL scripts and return the migration SQL that turns the previous schema into the current one"),
		mcp.WithString("previous_sql",
			mcp.Required(),
			mcp.Description("DDL of the previous schema, may be empty"),
		),
		mcp.WithString("current_sql",
			mcp.Required(),
			mcp.Description("DDL of the current schema"),
		),
		mcp.WithString("dialect",
			mcp.Description("SQL dialect (default: postgres)"),
			mcp.Enum("postgres", "mysql", "sqlite"),
		),
		mcp.WithString("database",
			mcp.Description("Default database name (default depends on the dialect)"),
		),
	)
	s.AddTool(diffTool, handleDiffSchemas)

	return s
}

// Serve runs the server over stdin and stdout until the input closes
func Serve() error {
	logger.MCP().Info("Starting MCP server", "version", migi.Version)
	return server.ServeStdio(New())
}

func handleInspectSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sql, err := request.RequireString("sql")
	if err != nil {
		return mcp.NewToolResultError("sql parameter is required"), nil
	}

	output, err := inspectSchemaCore(
		request.GetString("dialect", "postgres"),
		sql,
		request.GetString("database", ""),
		request.GetString("default_schema", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(output), nil
}

func handleDiffSchemas(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	previousSQL, err := request.RequireString("previous_sql")
	if err != nil {
		return mcp.NewToolResultError("previous_sql parameter is required"), nil
	}
	currentSQL, err := request.RequireString("current_sql")
	if err != nil {
		return mcp.NewToolResultError("current_sql parameter is required"), nil
	}

	output, err := diffSchemasCore(ctx,
		request.GetString("dialect", "postgres"),
		previousSQL,
		currentSQL,
		request.GetString("database", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(output), nil
}

// inspectSchemaCore parses sql and returns the YAML snapshot of the model
func inspectSchemaCore(dialectName, sql, database, defaultSchema string) (string, error) {
	opts, err := options(dialectName, database)
	if err != nil {
		return "", err
	}
	opts.DefaultSchema = defaultSchema

	db, err := build(opts, sql, "sql")
	if err != nil {
		return "", err
	}

	data, err := snapshot.Marshal(db, snapshot.FormatYAML)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// diffSchemasCore diffs two DDL scripts and returns the summary followed by
// the rendered SQL
func diffSchemasCore(ctx context.Context, dialectName, previousSQL, currentSQL, database string) (string, error) {
	opts, err := options(dialectName, database)
	if err != nil {
		return "", err
	}

	previous, err := build(opts, previousSQL, "previous_sql")
	if err != nil {
		return "", err
	}
	current, err := build(opts, currentSQL, "current_sql")
	if err != nil {
		return "", err
	}

	migration, err := diff.NewGenerator(previous, current).Generate()
	if err != nil {
		return "", err
	}

	sql, err := render.New(opts.Dialect).RenderSQL(ctx, migration)
	if err != nil {
		return "", err
	}

	logger.MCP().Debug("Diffed schemas", "summary", migration.Summary())

	var sb strings.Builder
	sb.WriteString(migration.Summary())
	sb.WriteString("\n")
	if sql != "" {
		sb.WriteString("\n")
		sb.WriteString(sql)
	}
	return sb.String(), nil
}

func options(dialectName, database string) (catalog.Options, error) {
	d, err := dialect.Parse(dialectName)
	if err != nil {
		return catalog.Options{}, err
	}
	if database == "" {
		database = config.DefaultDatabase(d)
	}
	return catalog.Options{Dialect: d, Database: database}, nil
}

func build(opts catalog.Options, sql, name string) (*catalog.Dbinfo, error) {
	db := catalog.New(opts)
	if strings.TrimSpace(sql) == "" {
		return db, nil
	}
	if err := inspector.New(db, inspector.WithLogger(logger.MCP())).Inspect(sql, name); err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", name, err)
	}
	return db, nil
}
