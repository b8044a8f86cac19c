package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leofalp/chatgate/core/gateway"
)

// SaveTool inserts or replaces a tool. An empty ID is assigned a UUID and a
// zero CreatedAt is set to now; both are written back to tool.
func (d *DB) SaveTool(ctx context.Context, tool *gateway.ToolRecord) error {
	if tool.ID == "" {
		tool.ID = uuid.NewString()
	}
	if tool.CreatedAt.IsZero() {
		tool.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tools (id, name, description, schema, custom_headers, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			schema = excluded.schema,
			custom_headers = excluded.custom_headers
	`, tool.ID, tool.Name, tool.Description, tool.Schema, tool.CustomHeaders,
		tool.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save tool %s: %w", tool.ID, err)
	}
	return nil
}

// ToolSchema returns the tool with id. It implements gateway.ToolSource.
func (d *DB) ToolSchema(ctx context.Context, id string) (gateway.ToolRecord, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, description, schema, custom_headers, created_at
		FROM tools WHERE id = ?
	`, id)
	tool, err := scanTool(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.ToolRecord{}, fmt.Errorf("tool %s: %w", id, ErrNotFound)
	}
	return tool, err
}

// ListTools returns all tools, newest first.
func (d *DB) ListTools(ctx context.Context) ([]gateway.ToolRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, description, schema, custom_headers, created_at
		FROM tools ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []gateway.ToolRecord
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, tool)
	}
	return tools, rows.Err()
}

// DeleteTool removes a tool.
func (d *DB) DeleteTool(ctx context.Context, id string) error {
	return d.delete(ctx, "tools", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTool(row scanner) (gateway.ToolRecord, error) {
	var tool gateway.ToolRecord
	var created string
	if err := row.Scan(&tool.ID, &tool.Name, &tool.Description, &tool.Schema, &tool.CustomHeaders, &created); err != nil {
		return gateway.ToolRecord{}, err
	}
	tool.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return tool, nil
}

// delete removes one row by id from table, a constant chosen by the caller.
func (d *DB) delete(ctx context.Context, table, id string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", table, id, ErrNotFound)
	}
	return nil
}
