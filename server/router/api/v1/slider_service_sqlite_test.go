package v1

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/cache"
	"github.com/zihaozhangmm/slider/store/db"
)

// newSQLiteTestService wires the service against a real sqlite store so the
// schema's foreign keys and cascades are in play, not a test double.
func newSQLiteTestService(t *testing.T) *APIV1Service {
	t.Helper()

	dataDir := t.TempDir()
	testProfile := &profile.Profile{
		Mode:          "prod",
		Data:          dataDir,
		Driver:        "sqlite",
		DSN:           filepath.Join(dataDir, "slider_test.db"),
		PayloadTTL:    600 * time.Second,
		PayloadJitter: 60 * time.Second,
		LockTTL:       10 * time.Second,
	}

	driver, err := db.NewDBDriver(testProfile)
	require.NoError(t, err)

	ts := store.New(driver, testProfile)
	t.Cleanup(func() { _ = ts.Close() })
	require.NoError(t, ts.Migrate(context.Background()))

	memory := cache.NewMemory(cache.DefaultMemoryConfig())
	t.Cleanup(func() { _ = memory.Close() })

	return NewAPIV1Service(testProfile, ts, memory)
}

func storeImageWithBlob(t *testing.T, svc *APIV1Service, sliderID int32, name string, blob []byte) *store.SliderImage {
	t.Helper()

	dir := filepath.Join(svc.Profile.Data, SliderImageFolder)
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), blob, 0640))

	image, err := svc.Store.CreateSliderImage(context.Background(), &store.SliderImage{
		SliderID: sliderID,
		Link:     filepath.ToSlash(filepath.Join(SliderImageFolder, name)),
		Metadata: "{}",
	})
	require.NoError(t, err)
	return image
}

func TestUpdateSliderReconcilesItemsSQLite(t *testing.T) {
	ctx := context.Background()
	svc := newSQLiteTestService(t)

	slider, err := svc.Store.CreateSlider(ctx, &store.Slider{Title: "Gallery"})
	require.NoError(t, err)
	image := storeImageWithBlob(t, svc, slider.ID, "dropped.png", []byte("dropped"))
	_, err = svc.Store.CreateSliderItem(ctx, &store.SliderItem{
		SliderID:      slider.ID,
		SliderImageID: image.ID,
		Title:         "Dropped",
	})
	require.NoError(t, err)

	// Omitting the item must delete it and its image, record and blob both,
	// without tripping over the item row the image cascade would take with it.
	err = svc.updateSlider(ctx, slider.ID, &UpdateSliderRequest{
		Title:          "Gallery v2",
		Version:        0,
		SliderItemList: []SliderItemRequest{},
	})
	require.NoError(t, err)

	current, err := svc.Store.GetSlider(ctx, &store.FindSlider{ID: &slider.ID})
	require.NoError(t, err)
	require.Equal(t, "Gallery v2", current.Title)
	require.Equal(t, int32(1), current.Version)

	items, err := svc.Store.ListSliderItems(ctx, &store.FindSliderItem{SliderID: &slider.ID})
	require.NoError(t, err)
	require.Empty(t, items)

	gone, err := svc.Store.GetSliderImage(ctx, &store.FindSliderImage{ID: &image.ID})
	require.NoError(t, err)
	require.Nil(t, gone)

	_, statErr := os.Stat(filepath.Join(svc.Profile.Data, filepath.FromSlash(image.Link)))
	require.True(t, os.IsNotExist(statErr))
}

func TestUpdateSliderKeepsSubmittedItemsSQLite(t *testing.T) {
	ctx := context.Background()
	svc := newSQLiteTestService(t)

	slider, err := svc.Store.CreateSlider(ctx, &store.Slider{Title: "Gallery"})
	require.NoError(t, err)
	keptImage := storeImageWithBlob(t, svc, slider.ID, "kept.png", []byte("kept"))
	droppedImage := storeImageWithBlob(t, svc, slider.ID, "dropped.png", []byte("dropped"))

	kept, err := svc.Store.CreateSliderItem(ctx, &store.SliderItem{
		SliderID:      slider.ID,
		SliderImageID: keptImage.ID,
		Title:         "Kept",
	})
	require.NoError(t, err)
	_, err = svc.Store.CreateSliderItem(ctx, &store.SliderItem{
		SliderID:      slider.ID,
		SliderImageID: droppedImage.ID,
		Title:         "Dropped",
	})
	require.NoError(t, err)

	err = svc.updateSlider(ctx, slider.ID, &UpdateSliderRequest{
		Title:   "Gallery",
		Version: 0,
		SliderItemList: []SliderItemRequest{
			{ID: &kept.ID, Title: "Kept", SliderImageID: keptImage.ID, Updated: false},
		},
	})
	require.NoError(t, err)

	items, err := svc.Store.ListSliderItems(ctx, &store.FindSliderItem{SliderID: &slider.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, kept.ID, items[0].ID)

	still, err := svc.Store.GetSliderImage(ctx, &store.FindSliderImage{ID: &keptImage.ID})
	require.NoError(t, err)
	require.NotNil(t, still)
}
