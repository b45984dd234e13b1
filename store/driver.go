package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Slider model related methods.
	CreateSlider(ctx context.Context, create *Slider) (*Slider, error)
	ListSliders(ctx context.Context, find *FindSlider) ([]*Slider, error)
	UpdateSlider(ctx context.Context, update *UpdateSlider) (*Slider, error)
	DeleteSlider(ctx context.Context, delete *DeleteSlider) error

	// SliderItem model related methods.
	CreateSliderItem(ctx context.Context, create *SliderItem) (*SliderItem, error)
	ListSliderItems(ctx context.Context, find *FindSliderItem) ([]*SliderItem, error)
	UpdateSliderItem(ctx context.Context, update *UpdateSliderItem) error
	DeleteSliderItem(ctx context.Context, delete *DeleteSliderItem) error

	// SliderImage model related methods.
	CreateSliderImage(ctx context.Context, create *SliderImage) (*SliderImage, error)
	ListSliderImages(ctx context.Context, find *FindSliderImage) ([]*SliderImage, error)
	DeleteSliderImage(ctx context.Context, delete *DeleteSliderImage) error
}
