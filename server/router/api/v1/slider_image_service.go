package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zihaozhangmm/slider/store"
)

const (
	// The upload memory buffer is 32 MiB.
	// It should be kept low, so RAM usage doesn't get out of control.
	MaxUploadBufferSizeBytes = 32 << 20

	// SliderImageFolder is the folder under the data directory where image
	// blobs are stored.
	SliderImageFolder = "slider-images"
	// ThumbnailCacheFolder is the folder name where the thumbnail images are stored.
	ThumbnailCacheFolder = ".thumbnail_cache"
	// thumbnailWidth is the target width; height follows the aspect ratio.
	thumbnailWidth = 320
)

var SupportedThumbnailMimeTypes = []string{
	"image/png",
	"image/jpeg",
}

// UploadSliderImage handles POST /api/slider-images/upload. The blob is
// written under a collision-resistant generated name, then a SliderImage
// record links it to the given slider or to a newly created one.
func (s *APIV1Service) UploadSliderImage(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return errorResponse(c, invalidArgumentf("image file is required"))
	}
	if fileHeader.Size > MaxUploadBufferSizeBytes {
		return errorResponse(c, invalidArgumentf("file size exceeds the limit"))
	}

	filename := filepath.Base(fileHeader.Filename)
	if !validateFilename(filename) {
		return errorResponse(c, invalidArgumentf("filename contains invalid characters or format"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, errors.Wrap(err, "failed to open uploaded file"))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadBufferSizeBytes+1))
	if err != nil {
		return errorResponse(c, errors.Wrap(err, "failed to read uploaded file"))
	}
	if len(data) > MaxUploadBufferSizeBytes {
		return errorResponse(c, invalidArgumentf("file size exceeds the limit"))
	}

	metadata := c.FormValue("metadata")
	if metadata == "" {
		metadata = "{}"
	}
	if !json.Valid([]byte(metadata)) {
		return errorResponse(c, invalidArgumentf("metadata is not valid JSON"))
	}

	slider, err := s.resolveUploadSlider(ctx, c.FormValue("slider_id"))
	if err != nil {
		return errorResponse(c, err)
	}

	link, err := s.saveSliderImageBlob(filename, data)
	if err != nil {
		return errorResponse(c, err)
	}

	if _, err := s.Store.CreateSliderImage(ctx, &store.SliderImage{
		SliderID: slider.ID,
		Link:     link,
		Metadata: metadata,
	}); err != nil {
		return errorResponse(c, errors.Wrap(err, "failed to create slider image"))
	}

	s.generateThumbnailAsync(link, filename, data)

	return c.JSON(http.StatusCreated, map[string]string{"status": "success"})
}

// GetAllImages handles GET /api/slider-images/:sliderID. Each image resolves
// to its blob bytes plus parsed metadata.
func (s *APIV1Service) GetAllImages(c echo.Context) error {
	sliderID, err := parseID(c.Param("sliderID"))
	if err != nil {
		return errorResponse(c, err)
	}

	images, err := s.Store.ListSliderImages(c.Request().Context(), &store.FindSliderImage{SliderID: &sliderID})
	if err != nil {
		return errorResponse(c, errors.Wrap(err, "failed to list slider images"))
	}

	views := make([]*SliderImageView, 0, len(images))
	for _, image := range images {
		view, err := s.sliderImageView(image)
		if err != nil {
			return errorResponse(c, err)
		}
		views = append(views, view)
	}

	return c.JSON(http.StatusOK, views)
}

// sliderImageView resolves an image record to its blob bytes and metadata.
func (s *APIV1Service) sliderImageView(image *store.SliderImage) (*SliderImageView, error) {
	data, err := s.Store.ReadSliderImageBlob(image)
	if err != nil {
		return nil, err
	}

	metadata := image.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	return &SliderImageView{
		Link:      image.Link,
		Metadata:  json.RawMessage(metadata),
		ImageData: data,
	}, nil
}

// resolveUploadSlider returns the slider an upload belongs to: the one named
// by slider_id, or a fresh empty slider when none is given.
func (s *APIV1Service) resolveUploadSlider(ctx context.Context, sliderIDParam string) (*store.Slider, error) {
	if sliderIDParam == "" {
		slider, err := s.Store.CreateSlider(ctx, &store.Slider{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create slider")
		}
		return slider, nil
	}

	sliderID, err := parseID(sliderIDParam)
	if err != nil {
		return nil, err
	}
	slider, err := s.Store.GetSlider(ctx, &store.FindSlider{ID: &sliderID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get slider")
	}
	if slider == nil {
		return nil, notFoundf("slider %d not found", sliderID)
	}
	return slider, nil
}

// saveSliderImageBlob writes the blob under a generated unique name and
// returns its link (path relative to the data directory, slash-separated).
func (s *APIV1Service) saveSliderImageBlob(filename string, data []byte) (string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	name := fmt.Sprintf("%s_%s%s", base, uuid.New().String(), ext)

	dir := filepath.Join(s.Profile.Data, SliderImageFolder)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", errors.Wrap(err, "failed to create image folder")
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0640); err != nil {
		return "", errors.Wrap(err, "failed to write image blob")
	}

	return filepath.ToSlash(filepath.Join(SliderImageFolder, name)), nil
}

// generateThumbnailAsync writes a downscaled copy of a PNG/JPEG upload to the
// thumbnail cache. Runs in the background under a semaphore; failures only
// log, the full-size blob is the source of truth.
func (s *APIV1Service) generateThumbnailAsync(link, filename string, data []byte) {
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	supported := false
	for _, t := range SupportedThumbnailMimeTypes {
		if strings.HasPrefix(mimeType, t) {
			supported = true
			break
		}
	}
	if !supported {
		return
	}

	go func() {
		if err := s.thumbnailSemaphore.Acquire(context.Background(), 1); err != nil {
			return
		}
		defer s.thumbnailSemaphore.Release(1)

		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			slog.Warn("failed to decode image for thumbnail", "link", link, "error", err)
			return
		}

		dir := filepath.Join(s.Profile.Data, ThumbnailCacheFolder)
		if err := os.MkdirAll(dir, 0750); err != nil {
			slog.Warn("failed to create thumbnail folder", "error", err)
			return
		}

		thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)
		dst := filepath.Join(dir, filepath.Base(link))
		if err := imaging.Save(thumbnail, dst); err != nil {
			slog.Warn("failed to save thumbnail", "path", dst, "error", err)
		}
	}()
}

func validateFilename(filename string) bool {
	// Reject path traversal attempts and make sure no additional directories are created
	if !filepath.IsLocal(filename) || strings.ContainsAny(filename, "/\\") {
		return false
	}

	// Reject filenames starting or ending with spaces or periods
	if strings.HasPrefix(filename, " ") || strings.HasSuffix(filename, " ") ||
		strings.HasPrefix(filename, ".") || strings.HasSuffix(filename, ".") {
		return false
	}

	return true
}
