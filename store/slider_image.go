package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SliderImage is an image record owned by a slider. Link is the blob path
// relative to the profile data directory; Metadata is arbitrary JSON stored
// as text.
type SliderImage struct {
	ID       int32
	SliderID int32
	Link     string
	Metadata string
}

// FindSliderImage is the find condition for slider image.
type FindSliderImage struct {
	ID       *int32
	IDList   []int32
	SliderID *int32
}

// DeleteSliderImage is the delete request for slider image.
type DeleteSliderImage struct {
	ID int32
}

func (s *Store) CreateSliderImage(ctx context.Context, create *SliderImage) (*SliderImage, error) {
	return s.driver.CreateSliderImage(ctx, create)
}

func (s *Store) ListSliderImages(ctx context.Context, find *FindSliderImage) ([]*SliderImage, error) {
	return s.driver.ListSliderImages(ctx, find)
}

// GetSliderImage gets a single slider image. Returns nil when absent.
func (s *Store) GetSliderImage(ctx context.Context, find *FindSliderImage) (*SliderImage, error) {
	list, err := s.driver.ListSliderImages(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteSliderImage deletes the record and its blob file. Blob removal is
// best-effort: a missing or undeletable file does not prevent the record
// deletion.
func (s *Store) DeleteSliderImage(ctx context.Context, delete *DeleteSliderImage) error {
	image, err := s.GetSliderImage(ctx, &FindSliderImage{ID: &delete.ID})
	if err != nil {
		return errors.Wrap(err, "failed to get slider image")
	}
	if image == nil {
		return errors.New("slider image not found")
	}

	p := filepath.FromSlash(image.Link)
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.profile.Data, p)
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		slog.Error("failed to delete slider image file",
			"error", err,
			"path", p,
			"slider_image_id", delete.ID,
		)
	}

	return s.driver.DeleteSliderImage(ctx, delete)
}

// ReadSliderImageBlob loads the blob bytes for an image record.
func (s *Store) ReadSliderImageBlob(image *SliderImage) ([]byte, error) {
	p := filepath.FromSlash(image.Link)
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.profile.Data, p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read slider image blob %s", image.Link)
	}
	return data, nil
}
