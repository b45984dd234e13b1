package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrVersionConflict is returned by UpdateSlider when the stored version no
// longer matches the expected one, meaning another update committed first.
var ErrVersionConflict = errors.New("slider version conflict")

// Slider is the object representing a slider.
type Slider struct {
	ID    int32
	Title string
	// Version is the optimistic lock token. It starts at 0 and is incremented
	// by exactly 1 on every successful update.
	Version int32
}

// FindSlider is the find condition for slider.
type FindSlider struct {
	ID *int32
}

// UpdateSlider is the update request for slider.
type UpdateSlider struct {
	ID    int32
	Title *string
	// ExpectedVersion guards the update: the row is only written (and its
	// version incremented) if the stored version still matches. A mismatch
	// yields ErrVersionConflict and no mutation.
	ExpectedVersion int32
}

// DeleteSlider is the delete request for slider. Items and images owned by the
// slider are removed by the schema's cascade rules.
type DeleteSlider struct {
	ID int32
}

// CreateSlider creates a new slider with version 0.
func (s *Store) CreateSlider(ctx context.Context, create *Slider) (*Slider, error) {
	return s.driver.CreateSlider(ctx, create)
}

// ListSliders lists sliders with filter.
func (s *Store) ListSliders(ctx context.Context, find *FindSlider) ([]*Slider, error) {
	return s.driver.ListSliders(ctx, find)
}

// GetSlider gets a single slider. Returns nil when absent.
func (s *Store) GetSlider(ctx context.Context, find *FindSlider) (*Slider, error) {
	list, err := s.driver.ListSliders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateSlider applies a version-guarded update and returns the updated row.
func (s *Store) UpdateSlider(ctx context.Context, update *UpdateSlider) (*Slider, error) {
	return s.driver.UpdateSlider(ctx, update)
}

// DeleteSlider deletes a slider and, via cascade, its items and images.
func (s *Store) DeleteSlider(ctx context.Context, delete *DeleteSlider) error {
	return s.driver.DeleteSlider(ctx, delete)
}
