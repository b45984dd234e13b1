package v1

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/cache"
)

// fakeDriver is an in-memory store.Driver. It counts reads so tests can
// assert that cache hits bypass the store, and can delay slider reads so
// tests can hold a populator inside its critical section.
type fakeDriver struct {
	mu sync.Mutex

	nextSliderID int32
	nextItemID   int32
	nextImageID  int32

	sliders map[int32]*store.Slider
	items   map[int32]*store.SliderItem
	images  map[int32]*store.SliderImage

	sliderReads     int
	itemWrites      int
	listSliderDelay time.Duration
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		sliders: make(map[int32]*store.Slider),
		items:   make(map[int32]*store.SliderItem),
		images:  make(map[int32]*store.SliderImage),
	}
}

func (d *fakeDriver) GetDB() *sql.DB { return nil }
func (d *fakeDriver) Close() error   { return nil }

func (d *fakeDriver) IsInitialized(context.Context) (bool, error) { return true, nil }

func (d *fakeDriver) CreateSlider(_ context.Context, create *store.Slider) (*store.Slider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextSliderID++
	create.ID = d.nextSliderID
	create.Version = 0
	clone := *create
	d.sliders[create.ID] = &clone
	return create, nil
}

func (d *fakeDriver) ListSliders(_ context.Context, find *store.FindSlider) ([]*store.Slider, error) {
	if d.listSliderDelay > 0 {
		time.Sleep(d.listSliderDelay)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.sliderReads++

	list := []*store.Slider{}
	for _, slider := range d.sliders {
		if find.ID != nil && slider.ID != *find.ID {
			continue
		}
		clone := *slider
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (d *fakeDriver) UpdateSlider(_ context.Context, update *store.UpdateSlider) (*store.Slider, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slider, ok := d.sliders[update.ID]
	if !ok || slider.Version != update.ExpectedVersion {
		return nil, store.ErrVersionConflict
	}
	if update.Title != nil {
		slider.Title = *update.Title
	}
	slider.Version++
	clone := *slider
	return &clone, nil
}

func (d *fakeDriver) DeleteSlider(_ context.Context, del *store.DeleteSlider) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sliders, del.ID)
	for id, item := range d.items {
		if item.SliderID == del.ID {
			delete(d.items, id)
		}
	}
	for id, image := range d.images {
		if image.SliderID == del.ID {
			delete(d.images, id)
		}
	}
	return nil
}

func (d *fakeDriver) CreateSliderItem(_ context.Context, create *store.SliderItem) (*store.SliderItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextItemID++
	create.ID = d.nextItemID
	clone := *create
	d.items[create.ID] = &clone
	d.itemWrites++
	return create, nil
}

func (d *fakeDriver) ListSliderItems(_ context.Context, find *store.FindSliderItem) ([]*store.SliderItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := []*store.SliderItem{}
	for _, item := range d.items {
		if find.ID != nil && item.ID != *find.ID {
			continue
		}
		if find.SliderID != nil && item.SliderID != *find.SliderID {
			continue
		}
		clone := *item
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (d *fakeDriver) UpdateSliderItem(_ context.Context, update *store.UpdateSliderItem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.items[update.ID]
	if !ok {
		return nil
	}
	if update.Title != nil {
		item.Title = *update.Title
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.ButtonText != nil {
		item.ButtonText = *update.ButtonText
	}
	if update.Component != nil {
		item.Component = *update.Component
	}
	if update.SliderImageID != nil {
		item.SliderImageID = *update.SliderImageID
	}
	d.itemWrites++
	return nil
}

func (d *fakeDriver) DeleteSliderItem(_ context.Context, del *store.DeleteSliderItem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[del.ID]; !ok {
		return errors.New("slider item not found")
	}
	delete(d.items, del.ID)
	return nil
}

func (d *fakeDriver) CreateSliderImage(_ context.Context, create *store.SliderImage) (*store.SliderImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextImageID++
	create.ID = d.nextImageID
	clone := *create
	d.images[create.ID] = &clone
	return create, nil
}

func (d *fakeDriver) ListSliderImages(_ context.Context, find *store.FindSliderImage) ([]*store.SliderImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	wanted := map[int32]bool{}
	for _, id := range find.IDList {
		wanted[id] = true
	}

	list := []*store.SliderImage{}
	for _, image := range d.images {
		if find.ID != nil && image.ID != *find.ID {
			continue
		}
		if len(find.IDList) > 0 && !wanted[image.ID] {
			continue
		}
		if find.SliderID != nil && image.SliderID != *find.SliderID {
			continue
		}
		clone := *image
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// DeleteSliderImage models the schema's ON DELETE CASCADE: dropping an image
// also drops every item that references it.
func (d *fakeDriver) DeleteSliderImage(_ context.Context, del *store.DeleteSliderImage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.images, del.ID)
	for id, item := range d.items {
		if item.SliderImageID == del.ID {
			delete(d.items, id)
		}
	}
	return nil
}

func (d *fakeDriver) sliderReadCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sliderReads
}

func (d *fakeDriver) itemWriteCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.itemWrites
}

// newTestService wires an APIV1Service against the fake driver and a fresh
// memory cache.
func newTestService(t *testing.T) (*APIV1Service, *fakeDriver) {
	t.Helper()

	testProfile := &profile.Profile{
		Mode:          "dev",
		Data:          t.TempDir(),
		Driver:        "sqlite",
		PayloadTTL:    600 * time.Second,
		PayloadJitter: 60 * time.Second,
		LockTTL:       10 * time.Second,
	}

	driver := newFakeDriver()
	memory := cache.NewMemory(cache.DefaultMemoryConfig())
	t.Cleanup(func() { _ = memory.Close() })

	return NewAPIV1Service(testProfile, store.New(driver, testProfile), memory), driver
}

// seedImage creates an image record whose blob file exists under the test
// data directory.
func seedImage(t *testing.T, svc *APIV1Service, driver *fakeDriver, sliderID int32, blob []byte) *store.SliderImage {
	t.Helper()

	dir := filepath.Join(svc.Profile.Data, SliderImageFolder)
	require.NoError(t, os.MkdirAll(dir, 0750))

	image, err := driver.CreateSliderImage(context.Background(), &store.SliderImage{
		SliderID: sliderID,
		Metadata: `{"alt":"test"}`,
	})
	require.NoError(t, err)

	name := fmt.Sprintf("seed_%d.png", image.ID)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), blob, 0640))

	image.Link = filepath.ToSlash(filepath.Join(SliderImageFolder, name))
	driver.mu.Lock()
	driver.images[image.ID].Link = image.Link
	driver.mu.Unlock()

	return image
}
