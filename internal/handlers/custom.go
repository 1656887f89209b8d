package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gocatalog/internal/constants"
	"github.com/amaumene/gocatalog/internal/models"
)

var deleteAllNouns = map[models.Collection]string{
	models.CollectionMovies:      "films",
	models.CollectionActors:      "acteurs",
	models.CollectionGenres:      "genres",
	models.CollectionMovieActors: "castings",
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleFromTitle returns the movie titled exactly like ?title= (case-insensitive). When the
// catalog has none, exact matches of a TMDB search are imported and the first one returned.
func (h *Handler) handleFromTitle(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		AbortWithError(c, http.StatusBadRequest, "Le paramètre 'title' est manquant.", map[string]any{"field": "title"})
		return
	}
	ctx := c.Request.Context()

	q := models.Query{
		Filters:  []models.Filter{{Field: "title", Op: models.OpEqi, Value: title}},
		PageSize: 1,
	}
	entries, _, err := h.services.Store.Find(ctx, models.CollectionMovies, q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if len(entries) > 0 {
		c.JSON(http.StatusOK, gin.H{"data": entries[0], "meta": gin.H{}})
		return
	}

	if h.services.TMDB == nil || h.services.Importer == nil {
		h.services.Logger.Debugf("[API] no movie titled %q and TMDB import is disabled", title)
		AbortWithError(c, http.StatusNotFound, "Aucun film trouvé avec ce titre exact", nil)
		return
	}

	results, err := h.services.TMDB.SearchMovies(ctx, title)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var firstID string
	imported := 0
	for _, m := range results {
		if imported == constants.MaxTitleImports {
			break
		}
		if !strings.EqualFold(strings.TrimSpace(m.Title), title) {
			continue
		}
		documentID, err := h.services.Importer.ImportOne(ctx, m.ID)
		if err != nil {
			h.services.Logger.Warnf("[API] import of TMDB movie %d for %q failed: %v", m.ID, title, err)
			continue
		}
		imported++
		if firstID == "" {
			firstID = documentID
		}
	}
	if firstID == "" {
		AbortWithError(c, http.StatusNotFound, "Aucun film trouvé avec ce titre exact", nil)
		return
	}

	h.invalidate(models.CollectionMovies)
	movie, err := h.services.Store.Get(ctx, models.CollectionMovies, firstID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.services.Logger.Infof("[API] imported %d movie(s) titled %q", imported, title)
	c.JSON(http.StatusOK, gin.H{"data": movie, "meta": gin.H{}})
}

// handleCastByMovie lists the cast links of a movie with the actor populated, in billing order.
func (h *Handler) handleCastByMovie(c *gin.Context) {
	ctx := c.Request.Context()
	q := models.Query{
		Filters:  []models.Filter{models.Eq("movie.documentId", c.Param("movieId"))},
		Sort:     []models.SortField{{Field: "order_index"}},
		PageSize: models.MaxPageSize,
	}
	links, _, err := h.services.Store.Find(ctx, models.CollectionMovieActors, q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	data := make([]map[string]any, 0, len(links))
	for _, e := range links {
		link := e.(*models.MovieActor)
		item, err := attributes(link)
		if err != nil {
			h.respondError(c, err)
			return
		}
		actor, err := h.get(c, models.CollectionActors, link.ActorID)
		if err != nil {
			h.services.Logger.Warnf("[API] cast link %s points to missing actor %s", link.DocumentID, link.ActorID)
			item["actor"] = nil
		} else {
			item["actor"] = actor
		}
		data = append(data, item)
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "meta": gin.H{}})
}

// handleGenresByMovie lists the genres of a movie.
func (h *Handler) handleGenresByMovie(c *gin.Context) {
	ctx := c.Request.Context()
	q := models.Query{
		Filters:  []models.Filter{models.Eq("movie.documentId", c.Param("id"))},
		PageSize: models.MaxPageSize,
	}
	links, _, err := h.services.Store.Find(ctx, models.CollectionMovieGenres, q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	genres := make([]models.Entry, 0, len(links))
	for _, e := range links {
		genre, err := h.get(c, models.CollectionGenres, e.(*models.MovieGenre).GenreID)
		if err != nil {
			continue
		}
		genres = append(genres, genre)
	}
	if len(genres) == 0 {
		AbortWithError(c, http.StatusNotFound, "Aucun genre trouvé pour ce film", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": genres, "meta": gin.H{}})
}

func (h *Handler) deleteAll(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := h.services.Store.DeleteAll(c.Request.Context(), collection)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.invalidate(collection)
		h.services.Logger.Infof("[API] deleted %d %s", count, collection)
		message := fmt.Sprintf("%d %s supprimés avec succès", count, deleteAllNouns[collection])
		if count == 0 && collection == models.CollectionMovies {
			message = "Aucun film à supprimer"
		}
		c.JSON(http.StatusOK, gin.H{
			"message": message,
			"count":   count,
		})
	}
}
