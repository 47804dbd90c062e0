package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisleron/aisleron-server/internal/domain"
	"github.com/aisleron/aisleron-server/internal/platform/logger"
	"github.com/aisleron/aisleron-server/internal/services"
)

type ProductHandler struct {
	log        *logger.Logger
	productSvc services.ProductService
	noteSvc    services.NoteService
}

func NewProductHandler(baseLog *logger.Logger, productSvc services.ProductService, noteSvc services.NoteService) *ProductHandler {
	return &ProductHandler{
		log:        baseLog.With("handler", "ProductHandler"),
		productSvc: productSvc,
		noteSvc:    noteSvc,
	}
}

type productBody struct {
	Name          string              `json:"name"`
	InStock       bool                `json:"in_stock"`
	QtyNeeded     float64             `json:"qty_needed"`
	QtyIncrement  float64             `json:"qty_increment"`
	UnitOfMeasure string              `json:"unit_of_measure"`
	TrackingMode  domain.TrackingMode `json:"tracking_mode"`
}

func (b productBody) toProduct(id uuid.UUID) *domain.Product {
	p := &domain.Product{
		ID:            id,
		Name:          b.Name,
		InStock:       b.InStock,
		QtyNeeded:     b.QtyNeeded,
		QtyIncrement:  b.QtyIncrement,
		UnitOfMeasure: b.UnitOfMeasure,
		TrackingMode:  b.TrackingMode,
	}
	if p.TrackingMode == "" {
		p.TrackingMode = domain.TrackingModeToggle
	}
	if p.QtyIncrement == 0 {
		p.QtyIncrement = 1
	}
	return p
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productSvc.GetAll(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"products": products})
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.productSvc.Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if p == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	RespondOK(c, p)
}

func (h *ProductHandler) Add(c *gin.Context) {
	var body productBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	id, err := h.productSvc.Add(c.Request.Context(), body.toProduct(uuid.Nil))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body productBody
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.productSvc.Update(c.Request.Context(), body.toProduct(id)); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *ProductHandler) Remove(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.productSvc.Remove(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"removed": id})
}

func (h *ProductHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		InStock bool `json:"in_stock"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	p, err := h.productSvc.UpdateStatus(c.Request.Context(), id, body.InStock)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": p})
}

func (h *ProductHandler) UpdateQtyNeeded(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		QtyNeeded float64 `json:"qty_needed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	p, err := h.productSvc.UpdateQtyNeeded(c.Request.Context(), id, body.QtyNeeded)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"product": p})
}

func (h *ProductHandler) ChangeAisle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body struct {
		FromAisleID uuid.UUID `json:"from_aisle_id"`
		ToAisleID   uuid.UUID `json:"to_aisle_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.productSvc.ChangeAisle(c.Request.Context(), id, body.FromAisleID, body.ToAisleID); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *ProductHandler) Copy(c *gin.Context) {
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
	newID, err := h.productSvc.Copy(c.Request.Context(), id, body.NewName)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": newID})
}

func (h *ProductHandler) Mappings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	mappings, err := h.productSvc.GetMappings(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"mappings": mappings})
}

func (h *ProductHandler) UpdateMappingRank(c *gin.Context) {
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
	if err := h.productSvc.UpdateMappingRank(c.Request.Context(), id, body.Rank); err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id})
}

func (h *ProductHandler) ApplyNote(c *gin.Context) {
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
	p, err := h.productSvc.Get(ctx, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if p == nil {
		RespondError(c, http.StatusNotFound, "not_found", nil)
		return
	}
	edited := &domain.Note{NoteText: body.NoteText}
	if body.NoteID != nil {
		edited.ID = *body.NoteID
	}
	noteID, err := h.noteSvc.Apply(ctx, p, edited)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	RespondOK(c, gin.H{"note_id": noteID})
}
