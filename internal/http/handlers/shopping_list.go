package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/services"
)

type ShoppingListHandler struct {
	log     *logger.Logger
	listSvc services.ShoppingListService
}

func NewShoppingListHandler(baseLog *logger.Logger, listSvc services.ShoppingListService) *ShoppingListHandler {
	return &ShoppingListHandler{
		log:     baseLog.With("handler", "ShoppingListHandler"),
		listSvc: listSvc,
	}
}

func listFilterFromQuery(c *gin.Context) domain.ListFilter {
	filter := domain.ListFilter{Mode: domain.FilterAll, Search: c.Query("search")}
	switch domain.FilterMode(c.Query("mode")) {
	case domain.FilterInStock:
		filter.Mode = domain.FilterInStock
	case domain.FilterNeeded:
		filter.Mode = domain.FilterNeeded
	}
	return filter
}

func (h *ShoppingListHandler) Get(c *gin.Context) {
	locationID, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	items, err := h.listSvc.Get(c.Request.Context(), locationID, listFilterFromQuery(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"items": items})
}

// Watch streams snapshots as server-sent events until the client goes away.
func (h *ShoppingListHandler) Watch(c *gin.Context) {
	locationID, ok := pathID(c, "locationId")
	if !ok {
		return
	}
	snapshots, err := h.listSvc.Watch(c.Request.Context(), locationID, listFilterFromQuery(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	c.Stream(func(w io.Writer) bool {
		snapshot, open := <-snapshots
		if !open {
			return false
		}
		payload, err := json.Marshal(gin.H{"items": snapshot})
		if err != nil {
			h.log.Warn("snapshot marshal failed", "error", err)
			return true
		}
		c.SSEvent("shopping_list", string(payload))
		return true
	})
}
