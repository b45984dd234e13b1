package store

import (
	"context"
)

// SliderItem is one slide of a slider. It references exactly one SliderImage.
type SliderItem struct {
	ID            int32
	SliderID      int32
	SliderImageID int32
	Title         string
	Description   string
	ButtonText    string
	Component     string
}

// FindSliderItem is the find condition for slider item.
type FindSliderItem struct {
	ID       *int32
	SliderID *int32
}

// UpdateSliderItem is the update request for slider item.
type UpdateSliderItem struct {
	ID            int32
	Title         *string
	Description   *string
	ButtonText    *string
	Component     *string
	SliderImageID *int32
}

// DeleteSliderItem is the delete request for slider item.
type DeleteSliderItem struct {
	ID int32
}

func (s *Store) CreateSliderItem(ctx context.Context, create *SliderItem) (*SliderItem, error) {
	return s.driver.CreateSliderItem(ctx, create)
}

// ListSliderItems returns items in insertion order.
func (s *Store) ListSliderItems(ctx context.Context, find *FindSliderItem) ([]*SliderItem, error) {
	return s.driver.ListSliderItems(ctx, find)
}

// GetSliderItem gets a single slider item. Returns nil when absent.
func (s *Store) GetSliderItem(ctx context.Context, find *FindSliderItem) (*SliderItem, error) {
	list, err := s.driver.ListSliderItems(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateSliderItem(ctx context.Context, update *UpdateSliderItem) error {
	return s.driver.UpdateSliderItem(ctx, update)
}

func (s *Store) DeleteSliderItem(ctx context.Context, delete *DeleteSliderItem) error {
	return s.driver.DeleteSliderItem(ctx, delete)
}
