// Package handlers implements the catalog REST API.
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/amaumene/gocatalog/internal/models"
	"github.com/amaumene/gocatalog/internal/services"
)

// Handler handles HTTP requests for the catalog API.
type Handler struct {
	services *services.Container
}

// New creates a new Handler with the provided services.
func New(services *services.Container) *Handler {
	return &Handler{services: services}
}

// RegisterRoutes registers the API under /api. auth guards every route except the public custom reads.
func (h *Handler) RegisterRoutes(r *gin.Engine, auth gin.HandlerFunc) {
	r.GET("/healthz", h.handleHealth)

	api := r.Group("/api")

	// Public routes
	api.GET("/movies/from-title", h.handleFromTitle)
	api.GET("/movie-actors/movie/:movieId", h.handleCastByMovie)
	api.GET("/movie-genres/movie/:id", h.handleGenresByMovie)

	protected := api.Group("")
	if auth != nil {
		protected.Use(auth)
	}

	// Maintenance routes
	for _, c := range []models.Collection{
		models.CollectionMovies,
		models.CollectionActors,
		models.CollectionGenres,
		models.CollectionMovieActors,
	} {
		protected.DELETE("/"+c.String()+"/delete-all", h.deleteAll(c))
	}

	// Content routes
	for _, c := range models.Collections() {
		group := protected.Group("/" + c.String())
		group.GET("", h.find(c))
		group.POST("", h.create(c))
		group.GET("/:documentId", h.findOne(c))
		group.PUT("/:documentId", h.update(c))
		group.DELETE("/:documentId", h.delete(c))
	}
}
