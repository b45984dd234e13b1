package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zihaozhangmm/slider/store"
)

// lockValue is the placeholder stored under the populate lock key. Only the
// key's presence matters.
const lockValue = "locked"

func sliderDataKey(sliderID int32) string {
	return fmt.Sprintf("slider_data_%d", sliderID)
}

func sliderLockKey(sliderID int32) string {
	return fmt.Sprintf("slider_lock_%d", sliderID)
}

// SliderItemRequest is one submitted item of a create or update request.
type SliderItemRequest struct {
	ID            *int32 `json:"id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	ButtonText    string `json:"button_text"`
	Component     string `json:"component"`
	SliderImageID int32  `json:"slider_image_id"`
	// Updated marks the item as changed. Unchanged items are skipped by the
	// update path to avoid redundant store writes.
	Updated bool `json:"updated"`
}

type CreateSliderRequest struct {
	Title          string              `json:"title"`
	SliderItemList []SliderItemRequest `json:"slider_item_list"`
}

type UpdateSliderRequest struct {
	Title          string              `json:"title"`
	Version        int32               `json:"version"`
	SliderItemList []SliderItemRequest `json:"slider_item_list"`
}

// SliderImageView is an image resolved to its blob bytes and parsed metadata.
type SliderImageView struct {
	Link      string          `json:"link"`
	Metadata  json.RawMessage `json:"metadata"`
	ImageData []byte          `json:"image_data"`
}

type SliderItemView struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ButtonText  string          `json:"button_text"`
	Component   string          `json:"component"`
	SliderImage SliderImageView `json:"slider_image"`
}

// SliderPayload is the cached read-path result.
type SliderPayload struct {
	ID          int32            `json:"id"`
	Title       string           `json:"title"`
	Version     int32            `json:"version"`
	SliderItems []SliderItemView `json:"slider_items"`
}

// CreateSlider handles POST /api/slider.
func (s *APIV1Service) CreateSlider(c echo.Context) error {
	request := &CreateSliderRequest{}
	if err := c.Bind(request); err != nil {
		return errorResponse(c, invalidArgumentf("malformed request body: %v", err))
	}

	if err := s.createSlider(c.Request().Context(), request); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": "success"})
}

// UpdateSlider handles PUT /api/slider/:id.
func (s *APIV1Service) UpdateSlider(c echo.Context) error {
	sliderID, err := parseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	request := &UpdateSliderRequest{}
	if err := c.Bind(request); err != nil {
		return errorResponse(c, invalidArgumentf("malformed request body: %v", err))
	}

	if err := s.updateSlider(c.Request().Context(), sliderID, request); err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "success"})
}

// RetrieveSlider handles GET /api/slider/:id.
func (s *APIV1Service) RetrieveSlider(c echo.Context) error {
	sliderID, err := parseID(c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}

	payload, waiting, err := s.retrieveSlider(c.Request().Context(), sliderID)
	if err != nil {
		return errorResponse(c, err)
	}
	if waiting {
		return c.JSON(http.StatusOK, map[string]string{"status": "waiting_for_lock"})
	}
	return c.JSON(http.StatusOK, payload)
}

// retrieveSlider is the cache-first read path. On a cache miss exactly one
// caller acquires the populate lock and queries the store; all others get
// waiting == true and are expected to retry shortly. The lock is released
// unconditionally after population, success or not; its TTL is the backstop
// for a populator that dies mid-flight.
func (s *APIV1Service) retrieveSlider(ctx context.Context, sliderID int32) (payload *SliderPayload, waiting bool, err error) {
	dataKey := sliderDataKey(sliderID)
	if raw, ok := s.Cache.Get(ctx, dataKey); ok {
		cached := &SliderPayload{}
		if err := json.Unmarshal(raw, cached); err == nil {
			return cached, false, nil
		}
		// Undecodable entry; drop it and repopulate below.
		slog.Warn("dropping undecodable cached slider payload", "key", dataKey)
		if err := s.Cache.Delete(ctx, dataKey); err != nil {
			return nil, false, errors.Wrap(err, "failed to drop cache entry")
		}
	}

	lockKey := sliderLockKey(sliderID)
	acquired, err := s.Cache.SetIfAbsent(ctx, lockKey, []byte(lockValue), s.Profile.LockTTL)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to acquire populate lock")
	}
	if !acquired {
		// Another request is populating; do not block a worker on it.
		return nil, true, nil
	}
	defer func() {
		// Best-effort release on every path out of the populate section.
		if err := s.Cache.Delete(ctx, lockKey); err != nil {
			slog.Warn("failed to release populate lock", "key", lockKey, "error", err)
		}
	}()

	payload, err = s.buildSliderPayload(ctx, sliderID)
	if err != nil {
		return nil, false, err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to encode slider payload")
	}
	if err := s.Cache.Set(ctx, dataKey, raw, s.payloadTTL()); err != nil {
		// The payload is already built; serving it beats failing the request.
		slog.Warn("failed to cache slider payload", "key", dataKey, "error", err)
	}

	return payload, false, nil
}

// buildSliderPayload assembles the full payload from the store: the slider,
// its items in insertion order, and each item's image resolved to blob bytes.
func (s *APIV1Service) buildSliderPayload(ctx context.Context, sliderID int32) (*SliderPayload, error) {
	slider, err := s.Store.GetSlider(ctx, &store.FindSlider{ID: &sliderID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slider")
	}
	if slider == nil {
		return nil, notFoundf("slider %d not found", sliderID)
	}

	items, err := s.Store.ListSliderItems(ctx, &store.FindSliderItem{SliderID: &sliderID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list slider items")
	}

	// Batch-load the referenced images, deduplicated by id.
	imageIDs := make([]int32, 0, len(items))
	seen := make(map[int32]bool, len(items))
	for _, item := range items {
		if !seen[item.SliderImageID] {
			seen[item.SliderImageID] = true
			imageIDs = append(imageIDs, item.SliderImageID)
		}
	}

	imagesByID := make(map[int32]*store.SliderImage, len(imageIDs))
	if len(imageIDs) > 0 {
		images, err := s.Store.ListSliderImages(ctx, &store.FindSliderImage{IDList: imageIDs})
		if err != nil {
			return nil, errors.Wrap(err, "failed to list slider images")
		}
		for _, image := range images {
			imagesByID[image.ID] = image
		}
	}

	payload := &SliderPayload{
		ID:          slider.ID,
		Title:       slider.Title,
		Version:     slider.Version,
		SliderItems: make([]SliderItemView, 0, len(items)),
	}
	for _, item := range items {
		image, ok := imagesByID[item.SliderImageID]
		if !ok {
			return nil, notFoundf("slider image %d not found", item.SliderImageID)
		}
		view, err := s.sliderImageView(image)
		if err != nil {
			return nil, err
		}
		payload.SliderItems = append(payload.SliderItems, SliderItemView{
			Title:       item.Title,
			Description: item.Description,
			ButtonText:  item.ButtonText,
			Component:   item.Component,
			SliderImage: *view,
		})
	}

	return payload, nil
}

// payloadTTL returns the payload expiration with a uniform random offset in
// [-jitter, +jitter] so payloads cached together do not expire together.
func (s *APIV1Service) payloadTTL() time.Duration {
	ttl := s.Profile.PayloadTTL
	if jitter := s.Profile.PayloadJitter; jitter > 0 {
		ttl += rand.N(2*jitter) - jitter
	}
	return ttl
}

// createSlider creates the slider and its items. Item creation failing
// partway leaves the already-created prefix committed; the caller sees the
// error and no cache entry exists yet for a new slider.
func (s *APIV1Service) createSlider(ctx context.Context, request *CreateSliderRequest) error {
	if request.Title == "" {
		return invalidArgumentf("please input the title of the slider")
	}

	slider, err := s.Store.CreateSlider(ctx, &store.Slider{Title: request.Title})
	if err != nil {
		return errors.Wrap(err, "failed to create slider")
	}

	for _, item := range request.SliderItemList {
		if err := s.createSliderItem(ctx, slider.ID, &item); err != nil {
			return err
		}
	}
	return nil
}

// updateSlider is the optimistic-concurrency write path. The stored version
// must match the submitted one or the whole update is rejected with no
// mutation. Once any mutation is applied, the cache entry is invalidated even
// if a later step fails, so a committed prefix can never be served stale.
func (s *APIV1Service) updateSlider(ctx context.Context, sliderID int32, request *UpdateSliderRequest) error {
	if request.Title == "" {
		return invalidArgumentf("please input the title of the slider")
	}

	slider, err := s.Store.GetSlider(ctx, &store.FindSlider{ID: &sliderID})
	if err != nil {
		return errors.Wrap(err, "failed to get slider")
	}
	if slider == nil {
		return notFoundf("slider %d not found", sliderID)
	}
	if slider.Version != request.Version {
		return store.ErrVersionConflict
	}

	mutated := false
	defer func() {
		if !mutated {
			return
		}
		if err := s.Cache.Delete(ctx, sliderDataKey(sliderID)); err != nil {
			slog.Error("failed to invalidate slider cache", "slider_id", sliderID, "error", err)
		}
	}()

	// The guarded update re-checks the version inside the statement, so a
	// concurrent update that committed after the read above still loses here.
	if _, err := s.Store.UpdateSlider(ctx, &store.UpdateSlider{
		ID:              sliderID,
		Title:           &request.Title,
		ExpectedVersion: request.Version,
	}); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		return errors.Wrap(err, "failed to update slider")
	}
	mutated = true

	existingItems, err := s.Store.ListSliderItems(ctx, &store.FindSliderItem{SliderID: &sliderID})
	if err != nil {
		return errors.Wrap(err, "failed to list slider items")
	}

	submittedIDs := make(map[int32]bool, len(request.SliderItemList))
	for _, item := range request.SliderItemList {
		if item.ID != nil {
			submittedIDs[*item.ID] = true
		}
	}

	// Delete items omitted from the submitted list, along with their images.
	// The item goes first: deleting the image first would cascade the item row
	// away and the explicit item delete would then fail on zero rows.
	existingByID := make(map[int32]*store.SliderItem, len(existingItems))
	for _, item := range existingItems {
		existingByID[item.ID] = item
		if submittedIDs[item.ID] {
			continue
		}
		if err := s.Store.DeleteSliderItem(ctx, &store.DeleteSliderItem{ID: item.ID}); err != nil {
			return errors.Wrap(err, "failed to delete slider item")
		}
		if err := s.Store.DeleteSliderImage(ctx, &store.DeleteSliderImage{ID: item.SliderImageID}); err != nil {
			return errors.Wrap(err, "failed to delete slider image")
		}
	}

	for _, item := range request.SliderItemList {
		// Unchanged items are skipped to reduce store access.
		if !item.Updated {
			continue
		}
		if item.ID != nil {
			if _, ok := existingByID[*item.ID]; ok {
				if err := s.Store.UpdateSliderItem(ctx, &store.UpdateSliderItem{
					ID:            *item.ID,
					Title:         &item.Title,
					Description:   &item.Description,
					ButtonText:    &item.ButtonText,
					Component:     &item.Component,
					SliderImageID: &item.SliderImageID,
				}); err != nil {
					return errors.Wrap(err, "failed to update slider item")
				}
				continue
			}
		}
		if err := s.createSliderItem(ctx, sliderID, &item); err != nil {
			return err
		}
	}

	return nil
}

// createSliderItem validates and creates one item. The referenced image must
// exist at write time.
func (s *APIV1Service) createSliderItem(ctx context.Context, sliderID int32, item *SliderItemRequest) error {
	if item.Title == "" {
		return invalidArgumentf("please input the title of the slider item")
	}

	image, err := s.Store.GetSliderImage(ctx, &store.FindSliderImage{ID: &item.SliderImageID})
	if err != nil {
		return errors.Wrap(err, "failed to get slider image")
	}
	if image == nil {
		return notFoundf("slider image %d not found", item.SliderImageID)
	}

	if _, err := s.Store.CreateSliderItem(ctx, &store.SliderItem{
		SliderID:      sliderID,
		SliderImageID: item.SliderImageID,
		Title:         item.Title,
		Description:   item.Description,
		ButtonText:    item.ButtonText,
		Component:     item.Component,
	}); err != nil {
		return errors.Wrap(err, "failed to create slider item")
	}
	return nil
}

func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, invalidArgumentf("invalid id %q", raw)
	}
	return int32(id), nil
}
