package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/database"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// EntityStore is the RCV registry used for counterparty lookups
type EntityStore interface {
	UpsertEntity(ctx context.Context, entity models.Entity) (*models.Entity, error)
	GetEntity(ctx context.Context, companyID uuid.UUID, rut string) (*models.Entity, error)
}

// EntityHandler manages RCV supplier/customer records
type EntityHandler struct {
	store EntityStore
}

func NewEntityHandler(store EntityStore) *EntityHandler {
	return &EntityHandler{store: store}
}

// UpsertEntityRequest represents the request body for UpsertEntity
type UpsertEntityRequest struct {
	RUT         string `json:"rut"`
	EntityType  string `json:"entity_type"`
	EntityName  string `json:"entity_name"`
	AccountCode string `json:"account_code"`
}

// UpsertEntity creates or replaces a registry record
// POST /v1/entities
func (h *EntityHandler) UpsertEntity(c fiber.Ctx) error {
	var req UpsertEntityRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	if !services.ValidateRUT(req.RUT) {
		return utils.NewBadRequestError("invalid rut", req.RUT)
	}
	kind := models.EntityKind(strings.ToLower(strings.TrimSpace(req.EntityType)))
	switch kind {
	case models.EntitySupplier, models.EntityCustomer, models.EntityBoth:
	default:
		return utils.NewBadRequestError("entity_type must be supplier, customer or both", req.EntityType)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	entity, err := h.store.UpsertEntity(c.Context(), models.Entity{
		CompanyID:   companyID,
		RUT:         req.RUT,
		Kind:        kind,
		Name:        strings.TrimSpace(req.EntityName),
		AccountCode: strings.TrimSpace(req.AccountCode),
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, entity)
}

// GetEntity returns the registry record for a RUT
// GET /v1/entities/:rut
func (h *EntityHandler) GetEntity(c fiber.Ctx) error {
	rut := c.Params("rut")
	if services.NormalizeRUT(rut) == "" {
		return utils.NewBadRequestError("invalid rut", rut)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	entity, err := h.store.GetEntity(c.Context(), companyID, rut)
	if errors.Is(err, database.ErrNotFound) {
		return utils.NewNotFoundError("Entity")
	}
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, entity)
}
