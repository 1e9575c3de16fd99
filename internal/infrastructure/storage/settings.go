package storage

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// GetSetting returns the stored value for key and whether it exists.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	query, args, err := r.builder.Select("value").From(settingsTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return "", false, fail("build setting query", err)
	}

	var value string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fail("query setting", err)
	}
	return value, true, nil
}

// SetSetting upserts a key/value pair.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	query, args, err := r.builder.Insert(settingsTable).
		Columns("key", "value", "updated_at").
		Values(key, value, formatTime(r.now())).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fail("build setting upsert", err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fail("upsert setting", err)
	}
	return nil
}

// Settings returns every stored key/value pair.
func (r *Repository) Settings(ctx context.Context) (map[string]string, error) {
	query, args, err := r.builder.Select("key", "value").From(settingsTable).OrderBy("key").ToSql()
	if err != nil {
		return nil, fail("build settings query", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fail("query settings", err)
	}

	result := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			_ = rows.Close()
			return nil, fail("scan setting", err)
		}
		result[key] = value
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fail("rows iteration", rowsErr)
	}
	if closeErr := rows.Close(); closeErr != nil {
		return nil, fail("close rows", closeErr)
	}
	return result, nil
}
