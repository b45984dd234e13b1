package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/zihaozhangmm/slider/store"
)

func (d *DB) CreateSlider(ctx context.Context, create *store.Slider) (*store.Slider, error) {
	fields := []string{"title"}
	placeholderValues := []any{create.Title}

	stmt := `INSERT INTO slider (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id, version`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
		&create.Version,
	); err != nil {
		return nil, fmt.Errorf("failed to create slider: %w", err)
	}

	return create, nil
}

func (d *DB) ListSliders(ctx context.Context, find *store.FindSlider) ([]*store.Slider, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "slider.id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, title, version
		FROM slider
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY slider.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sliders: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Slider, 0)
	for rows.Next() {
		var slider store.Slider
		if err := rows.Scan(
			&slider.ID,
			&slider.Title,
			&slider.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slider: %w", err)
		}
		list = append(list, &slider)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sliders: %w", err)
	}

	return list, nil
}

// UpdateSlider performs the version-guarded update in a single statement so
// concurrent updates with the same expected version cannot both commit.
func (d *DB) UpdateSlider(ctx context.Context, update *store.UpdateSlider) (*store.Slider, error) {
	set, args := []string{"version = version + 1"}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}

	args = append(args, update.ID, update.ExpectedVersion)

	stmt := `UPDATE slider SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)-1) + ` AND version = ` + placeholder(len(args)) + `
		RETURNING id, title, version`

	var slider store.Slider
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&slider.ID,
		&slider.Title,
		&slider.Version,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrVersionConflict
		}
		return nil, fmt.Errorf("failed to update slider: %w", err)
	}

	return &slider, nil
}

func (d *DB) DeleteSlider(ctx context.Context, delete *store.DeleteSlider) error {
	stmt := `DELETE FROM slider WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete slider: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("slider not found")
	}

	return nil
}
