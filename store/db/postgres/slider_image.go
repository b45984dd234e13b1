package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/zihaozhangmm/slider/store"
)

func (d *DB) CreateSliderImage(ctx context.Context, create *store.SliderImage) (*store.SliderImage, error) {
	fields := []string{"slider_id", "link", "metadata"}
	placeholderValues := []any{create.SliderID, create.Link, create.Metadata}

	stmt := `INSERT INTO slider_image (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(placeholderValues)) + `)
		RETURNING id`

	if err := d.db.QueryRowContext(ctx, stmt, placeholderValues...).Scan(
		&create.ID,
	); err != nil {
		return nil, fmt.Errorf("failed to create slider image: %w", err)
	}

	return create, nil
}

func (d *DB) ListSliderImages(ctx context.Context, find *store.FindSliderImage) ([]*store.SliderImage, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "slider_image.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.IDList; len(v) > 0 {
		list := []string{}
		for _, id := range v {
			list, args = append(list, placeholder(len(args)+1)), append(args, id)
		}
		where = append(where, "slider_image.id IN ("+strings.Join(list, ", ")+")")
	}
	if v := find.SliderID; v != nil {
		where, args = append(where, "slider_image.slider_id = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `
		SELECT id, slider_id, link, metadata
		FROM slider_image
		WHERE ` + strings.Join(where, " AND ") + ` ORDER BY slider_image.id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slider images: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SliderImage, 0)
	for rows.Next() {
		var image store.SliderImage
		if err := rows.Scan(
			&image.ID,
			&image.SliderID,
			&image.Link,
			&image.Metadata,
		); err != nil {
			return nil, fmt.Errorf("failed to scan slider image: %w", err)
		}
		list = append(list, &image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate slider images: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteSliderImage(ctx context.Context, delete *store.DeleteSliderImage) error {
	stmt := `DELETE FROM slider_image WHERE id = ` + placeholder(1)
	result, err := d.db.ExecContext(ctx, stmt, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete slider image: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("slider image not found")
	}

	return nil
}
