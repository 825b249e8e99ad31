package database

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
)

//go:embed schema.surql
var schemaSource string

// SchemaStatements returns the schema definition statements in order.
// Every statement is idempotent (DEFINE ... IF NOT EXISTS).
func SchemaStatements() []string {
	var out []string
	for _, raw := range strings.Split(schemaSource, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, " "))
		}
	}
	return out
}

// ApplySchema defines the tables and indexes the repositories rely on. The
// unique indexes on signal direction and handshake pair are what turn
// concurrent inserts into ErrDuplicate.
func ApplySchema(ctx context.Context, db Database) error {
	batch := NewAtomicBatch()
	for _, stmt := range SchemaStatements() {
		batch.Add(stmt, nil)
	}
	if err := batch.Execute(ctx, db); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
