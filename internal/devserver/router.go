package devserver

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes configures the backend routes
func (s *Server) SetupRoutes() *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Get("/health", s.health)
	router.Get("/view", s.view)

	router.Route("/s3io", func(r chi.Router) {
		r.Post("/upload/image", s.uploadHandler("image"))
		r.Post("/upload/video", s.uploadHandler("video", "image"))
		r.Get("/preview/image", s.previewImage)
		r.Get("/preview/video", s.previewVideo)
	})

	return router
}
