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

// SaveCustomModel inserts or replaces a custom model endpoint.
func (d *DB) SaveCustomModel(ctx context.Context, model *gateway.CustomModel) error {
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO custom_models (id, name, model_id, base_url, api_key, context_length, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			model_id = excluded.model_id,
			base_url = excluded.base_url,
			api_key = excluded.api_key,
			context_length = excluded.context_length
	`, model.ID, model.Name, model.ModelID, model.BaseURL, model.APIKey, model.ContextLength,
		model.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save custom model %s: %w", model.ID, err)
	}
	return nil
}

// CustomModel returns the model with id. It implements gateway.ModelSource.
func (d *DB) CustomModel(ctx context.Context, id string) (gateway.CustomModel, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, name, model_id, base_url, api_key, context_length, created_at
		FROM custom_models WHERE id = ?
	`, id)
	model, err := scanCustomModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return gateway.CustomModel{}, fmt.Errorf("custom model %s: %w", id, ErrNotFound)
	}
	return model, err
}

// ListCustomModels returns all custom models, newest first.
func (d *DB) ListCustomModels(ctx context.Context) ([]gateway.CustomModel, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, name, model_id, base_url, api_key, context_length, created_at
		FROM custom_models ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []gateway.CustomModel
	for rows.Next() {
		model, err := scanCustomModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// DeleteCustomModel removes a custom model.
func (d *DB) DeleteCustomModel(ctx context.Context, id string) error {
	return d.delete(ctx, "custom_models", id)
}

func scanCustomModel(row scanner) (gateway.CustomModel, error) {
	var model gateway.CustomModel
	var created string
	err := row.Scan(&model.ID, &model.Name, &model.ModelID, &model.BaseURL, &model.APIKey, &model.ContextLength, &created)
	if err != nil {
		return gateway.CustomModel{}, err
	}
	model.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return model, nil
}
