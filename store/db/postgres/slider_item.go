package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/zihaozhangmm/slider/store"
)

func (d *DB) CreateSliderItem(ctx context.Context, create *store.SliderItem) (*store.SliderItem, error) {
	fields := []string{"slider_id", "slider_image_id", "title", "description", "button_text", "component"}
	placeholderValues := []any{
		create.SliderID, create.SliderImageID, create.Title,
		create.Description, create.ButtonText, create.Component,
	}

	stmt := `INSERT INTO slider_item (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to create slider item: %w", err)
	}

	return create, nil
}

func (d *DB) ListSliderItems(ctx context.Context, find *store.FindSliderItem) ([]*store.SliderItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "slider_item.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.SliderID; v != nil {
		where, args = append(where, "slider_item.slider_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, slider_id, slider_image_id, title, description, button_text, component
		FROM slider_item
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY slider_item.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slider items: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SliderItem, 0)
	for rows.Next() {
		var item store.SliderItem
		if err := rows.Scan(
			&item.ID,
			&item.SliderID,
			&item.SliderImageID,
			&item.Title,
			&item.Description,
			&item.ButtonText,
			&item.Component,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slider item: %w", err)
		}
		list = append(list, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slider items: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateSliderItem(ctx context.Context, update *store.UpdateSliderItem) error {
	set, args := []string{}, []any{}

	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.ButtonText; v != nil {
		set, args = append(set, "button_text = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Component; v != nil {
		set, args = append(set, "component = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.SliderImageID; v != nil {
		set, args = append(set, "slider_image_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	if len(set) == 0 {
		return nil
	}

	args = append(args, update.ID)

	stmt := `UPDATE slider_item SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to update slider item: %w", err)
	}

	return nil
}

func (d *DB) DeleteSliderItem(ctx context.Context, delete *store.DeleteSliderItem) error {
	stmt := `DELETE FROM slider_item WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete slider item: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("slider item not found")
	}

	return nil
}
