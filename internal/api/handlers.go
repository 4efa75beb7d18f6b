package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/youruser/cardgrid/internal/deck"
	"github.com/youruser/cardgrid/internal/generator"
	"github.com/youruser/cardgrid/internal/logging"
	"github.com/youruser/cardgrid/internal/storage"
)

const (
	kindDeck    = storage.KindDeck
	kindBanlist = storage.KindBanlist
)

type handlers struct {
	svc *generator.Service
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}

type deckImageRequest struct {
	Main    []int         `json:"main"`
	Extra   []int         `json:"extra"`
	Side    []int         `json:"side"`
	Banlist *deck.Banlist `json:"banlist"`
}

// generateDeck renders and stores the image of one decklist.
func (h *handlers) generateDeck(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req deckImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := deck.Deck{ID: id, Main: req.Main, Extra: req.Extra, Side: req.Side}
	path, err := h.svc.DeckImage(c.Request.Context(), id, d, req.Banlist)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.created(c, kindDeck, id, path)
}

type banlistImageRequest struct {
	Current  deck.Banlist  `json:"current"`
	Previous *deck.Banlist `json:"previous"`
}

// generateBanlist renders and stores the banlist image of one session.
func (h *handlers) generateBanlist(c *gin.Context) {
	session, ok := idParam(c)
	if !ok {
		return
	}
	var req banlistImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	path, err := h.svc.BanlistImage(c.Request.Context(), session, req.Current, req.Previous)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.created(c, kindBanlist, session, path)
}

func (h *handlers) created(c *gin.Context, kind storage.Kind, key int, path string) {
	url, _ := storage.URLPath(kind, key)
	c.JSON(http.StatusCreated, gin.H{"path": path, "url": "/public/" + url})
}

// getImage serves the stored PNG. A missing file means the image has not
// been generated yet; clients offer regeneration instead of failing.
func (h *handlers) getImage(kind storage.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		exists, err := h.svc.Exists(kind, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusNotFound, gin.H{"status": "not generated"})
			return
		}
		path, err := h.svc.Store().Path(kind, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.File(path)
	}
}

func (h *handlers) deleteImage(kind storage.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := h.svc.Delete(kind, id); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *handlers) clearCache(c *gin.Context) {
	n := h.svc.ClearCache()
	logging.L().Info("card art cache cleared", "entries", n)
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}
