// Package v1 hosts the slider REST API: the cache-first read path, the
// optimistic-concurrency write path, and the slider image endpoints.
package v1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/zihaozhangmm/slider/internal/profile"
	"github.com/zihaozhangmm/slider/store"
	"github.com/zihaozhangmm/slider/store/cache"
)

type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Cache   cache.Cache

	// thumbnailSemaphore limits concurrent thumbnail generation to prevent
	// memory exhaustion
	thumbnailSemaphore *semaphore.Weighted
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, cache cache.Cache) *APIV1Service {
	return &APIV1Service{
		Profile:            profile,
		Store:              store,
		Cache:              cache,
		thumbnailSemaphore: semaphore.NewWeighted(3),
	}
}

// RegisterRoutes registers the API routes with the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api")
	g.POST("/slider", s.CreateSlider)
	g.PUT("/slider/:id", s.UpdateSlider)
	g.GET("/slider/:id", s.RetrieveSlider)
	g.POST("/slider-images/upload", s.UploadSliderImage)
	g.GET("/slider-images/:sliderID", s.GetAllImages)
}
