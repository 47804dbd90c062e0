package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/services"
)

type LocationHandler struct {
	log         *logger.Logger
	locationSvc services.LocationService
	aisleSvc    services.AisleService
	noteSvc     services.NoteService
}

func NewLocationHandler(
	baseLog *logger.Logger,
	locationSvc services.LocationService,
	aisleSvc services.AisleService,
	noteSvc services.NoteService,
) *LocationHandler {
	return &LocationHandler{
		log:         baseLog.With("handler", "LocationHandler"),
		locationSvc: locationSvc,
		aisleSvc:    aisleSvc,
		noteSvc:     noteSvc,
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *LocationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	switch {
	case c.Query("type") == string(domain.LocationTypeHome):
		home, err := h.locationSvc.GetHome(ctx)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if home == nil {
			RespondOK(c, gin.H{"locations": []*domain.Location{}})
			return
		}
		RespondOK(c, gin.H{"locations": []*domain.Location{home}})
	case c.Query("type") == string(domain.LocationTypeShop) && c.Query("pinned") == "true":
		shops, err := h.locationSvc.GetPinnedShops(ctx)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		RespondOK(c, gin.H{"locations": shops})
	case c.Query("type") == string(domain.LocationTypeShop):
		shops, err := h.locationSvc.GetShops(ctx)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		RespondOK(c, gin.H{"locations": shops})
	default:
		all, err := h.locationSvc.GetAll(ctx)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		RespondOK(c, gin.H{"locations": all})
	}
}

func (h *LocationHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	loc, err := h.locationSvc.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if loc == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, loc)
}

type locationBody struct {
	Type             domain.LocationType `json:"type"`
	Name             string              `json:"name"`
	Pinned           bool                `json:"pinned"`
	DefaultFilter    domain.FilterMode   `json:"default_filter"`
	Expanded         *bool               `json:"expanded"`
	ShowDefaultAisle *bool               `json:"show_default_aisle"`
	Rank             int                 `json:"rank"`
}

func (b locationBody) toLocation(id uuid.UUID) *domain.Location {
	loc := &domain.Location{
		ID:               id,
		Type:             b.Type,
		Name:             b.Name,
		Pinned:           b.Pinned,
		DefaultFilter:    b.DefaultFilter,
		Rank:             b.Rank,
		Expanded:         true,
		ShowDefaultAisle: true,
	}
	if b.DefaultFilter == "" {
		loc.DefaultFilter = domain.FilterAll
	}
	if b.Expanded != nil {
		loc.Expanded = *b.Expanded
	}
	if b.ShowDefaultAisle != nil {
		loc.ShowDefaultAisle = *b.ShowDefaultAisle
	}
	return loc
}

func (h *LocationHandler) Add(c *gin.Context) {
	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	id, err := h.locationSvc.Add(c.Request.Context(), body.toLocation(uuid.Nil))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *LocationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body locationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.locationSvc.Update(c.Request.Context(), body.toLocation(id)); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *LocationHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.locationSvc.Remove(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": id})
}

func (h *LocationHandler) Copy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		NewName string `json:"new_name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	newID, err := h.locationSvc.Copy(c.Request.Context(), id, body.NewName)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": newID})
}

func (h *LocationHandler) UpdateExpanded(c *gin.Context) {
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
	loc, err := h.locationSvc.UpdateExpanded(c.Request.Context(), id, body.Expanded)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"location": loc})
}

func (h *LocationHandler) UpdateRank(c *gin.Context) {
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
	if err := h.locationSvc.UpdateRank(c.Request.Context(), id, body.Rank); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *LocationHandler) ApplyNote(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		NoteID   *uuid.UUID `json:"note_id"`
		NoteText string     `json:"note_text"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	ctx := c.Request.Context()
	loc, err := h.locationSvc.Get(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if loc == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	edited := &domain.Note{NoteText: body.NoteText}
	if body.NoteID != nil {
		edited.ID = *body.NoteID
	}
	noteID, err := h.noteSvc.Apply(ctx, loc, edited)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"note_id": noteID})
}

func (h *LocationHandler) ExpandCollapseType(c *gin.Context) {
	locType := domain.LocationType(c.Param("type"))
	var body struct {
		Expand bool `json:"expand"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.locationSvc.ExpandCollapse(c.Request.Context(), locType, body.Expand); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"type": locType})
}

func (h *LocationHandler) SortType(c *gin.Context) {
	locType := domain.LocationType(c.Param("type"))
	if err := h.locationSvc.SortByName(c.Request.Context(), locType); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"type": locType})
}

func (h *LocationHandler) MaxRankForType(c *gin.Context) {
	locType := domain.LocationType(c.Param("type"))
	max, err := h.locationSvc.GetMaxRank(c.Request.Context(), locType)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"max_rank": max})
}
