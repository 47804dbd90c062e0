package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/services"
)

type AisleHandler struct {
	log      *logger.Logger
	aisleSvc services.AisleService
}

func NewAisleHandler(baseLog *logger.Logger, aisleSvc services.AisleService) *AisleHandler {
	return &AisleHandler{
		log:      baseLog.With("handler", "AisleHandler"),
		aisleSvc: aisleSvc,
	}
}

type aisleBody struct {
	Name       string    `json:"name"`
	LocationID uuid.UUID `json:"location_id"`
	Rank       int       `json:"rank"`
	Expanded   *bool     `json:"expanded"`
}

func (b aisleBody) toAisle(id uuid.UUID) *domain.Aisle {
	aisle := &domain.Aisle{
		ID:         id,
		Name:       b.Name,
		LocationID: b.LocationID,
		Rank:       b.Rank,
		Expanded:   true,
	}
	if b.Expanded != nil {
		aisle.Expanded = *b.Expanded
	}
	return aisle
}

func (h *AisleHandler) Add(c *gin.Context) {
	var body aisleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	id, err := h.aisleSvc.Add(c.Request.Context(), body.toAisle(uuid.Nil))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *AisleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	aisle, err := h.aisleSvc.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if aisle == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, aisle)
}

func (h *AisleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body aisleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.aisleSvc.Update(c.Request.Context(), body.toAisle(id)); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *AisleHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.aisleSvc.Remove(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": id})
}

func (h *AisleHandler) UpdateExpanded(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Expanded bool `json:"expanded"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	aisle, err := h.aisleSvc.UpdateExpanded(c.Request.Context(), id, body.Expanded)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"aisle": aisle})
}

func (h *AisleHandler) UpdateRank(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Rank int `json:"rank"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.aisleSvc.UpdateRank(c.Request.Context(), id, body.Rank); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *AisleHandler) ListForLocation(c *gin.Context) {
	locationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	aisles, err := h.aisleSvc.GetForLocation(c.Request.Context(), locationID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"aisles": aisles})
}

func (h *AisleHandler) ExpandCollapseForLocation(c *gin.Context) {
	locationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Expand bool `json:"expand"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.aisleSvc.ExpandCollapseForLocation(c.Request.Context(), locationID, body.Expand); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"location_id": locationID})
}

func (h *AisleHandler) SortForLocation(c *gin.Context) {
	locationID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.aisleSvc.SortByName(c.Request.Context(), locationID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"location_id": locationID})
}
