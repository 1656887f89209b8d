package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gocatalog/internal/cache"
	"github.com/amaumene/gocatalog/internal/models"
)

func (h *Handler) find(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := models.ParseQuery(c.Request.URL.Query())
		if err == nil {
			err = validateQuery(collection, q)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		entries, total, err := h.services.Store.Find(c.Request.Context(), collection, q)
		if err != nil {
			h.respondError(c, err)
			return
		}

		data := make([]any, 0, len(entries))
		for _, e := range entries {
			item, err := project(e, q.Fields)
			if err != nil {
				h.respondError(c, err)
				return
			}
			data = append(data, item)
		}
		c.JSON(http.StatusOK, gin.H{
			"data": data,
			"meta": gin.H{"pagination": models.NewPagination(q, total)},
		})
	}
}

func (h *Handler) findOne(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := models.ParseQuery(c.Request.URL.Query())
		if err == nil {
			err = validateQuery(collection, q)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}

		e, err := h.get(c, collection, c.Param("documentId"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		item, err := project(e, q.Fields)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": item, "meta": gin.H{}})
	}
}

func (h *Handler) create(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := readData(c, collection)
		if err != nil {
			h.respondError(c, err)
			return
		}
		e, err := toEntry(collection, data)
		if err != nil {
			h.respondError(c, err)
			return
		}

		created, err := h.services.Store.Create(c.Request.Context(), e)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.invalidate(collection)
		h.services.Logger.Debugf("[API] created %s %s", collection, created.Base().DocumentID)
		c.JSON(http.StatusCreated, gin.H{"data": created, "meta": gin.H{}})
	}
}

func (h *Handler) update(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		documentID := c.Param("documentId")
		data, err := readData(c, collection)
		if err != nil {
			h.respondError(c, err)
			return
		}

		existing, err := h.services.Store.Get(c.Request.Context(), collection, documentID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		merged, err := merge(existing, data)
		if err != nil {
			h.respondError(c, err)
			return
		}
		e, err := toEntry(collection, merged)
		if err != nil {
			h.respondError(c, err)
			return
		}

		updated, err := h.services.Store.Update(c.Request.Context(), documentID, e)
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.invalidate(collection)
		c.JSON(http.StatusOK, gin.H{"data": updated, "meta": gin.H{}})
	}
}

func (h *Handler) delete(collection models.Collection) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := h.services.Store.Delete(c.Request.Context(), collection, c.Param("documentId"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		h.invalidate(collection)
		c.JSON(http.StatusOK, gin.H{"data": deleted, "meta": gin.H{}})
	}
}

// get reads a document through the read cache.
func (h *Handler) get(c *gin.Context, collection models.Collection, documentID string) (models.Entry, error) {
	key := cache.Key(collection.String(), documentID)
	if h.services.Cache != nil {
		if cached, ok := h.services.Cache.Get(key); ok {
			if e, ok := cached.(models.Entry); ok {
				return e, nil
			}
		}
	}

	e, err := h.services.Store.Get(c.Request.Context(), collection, documentID)
	if err != nil {
		return nil, err
	}
	if h.services.Cache != nil {
		h.services.Cache.Set(key, e)
	}
	return e, nil
}

// invalidate drops the cached documents of collection and of the associations that may
// reference it, since deletes cascade.
func (h *Handler) invalidate(collection models.Collection) {
	Invalidate(h.services.Cache, collection)
}

// Invalidate drops the cached documents of collection and of its dependent associations.
func Invalidate(c *cache.LRUCache, collection models.Collection) {
	if c == nil {
		return
	}
	c.DeletePrefix(cache.Key(collection.String(), ""))
	for _, other := range models.Collections() {
		for _, target := range other.RelationFields() {
			if target == collection {
				c.DeletePrefix(cache.Key(other.String(), ""))
				break
			}
		}
	}
}
