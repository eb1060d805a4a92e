package logger

// Component-specific logger functions

// Inspector returns a logger for DDL inspection
func Inspector() Logger {
	return WithField("component", "inspector")
}

// Diff returns a logger for migration diffing
func Diff() Logger {
	return WithField("component", "diff")
}

// Render returns a logger for SQL rendering
func Render() Logger {
	return WithField("component", "render")
}

// Snapshot returns a logger for snapshot persistence
func Snapshot() Logger {
	return WithField("component", "snapshot")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// Introspect returns a logger for live database introspection
func Introspect() Logger {
	return WithField("component", "introspect")
}

// MCP returns a logger for the MCP tool server
func MCP() Logger {
	return WithField("component", "mcp")
}
