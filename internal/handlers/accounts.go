package handlers

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// AccountMapper suggests chart accounts from a cached per-company chart
type AccountMapper interface {
	LoadAccounts(ctx context.Context, companyID uuid.UUID) ([]models.ChartAccount, error)
	Suggest(ctx context.Context, companyID uuid.UUID, src models.SourceAccount) (*models.AccountSuggestion, error)
	InvalidateCompany(companyID uuid.UUID)
}

// AccountSeeder writes chart entries
type AccountSeeder interface {
	SeedAccounts(ctx context.Context, companyID uuid.UUID, accounts []models.ChartAccount) error
}

// AccountHandler exposes the chart of accounts and the account mapper
type AccountHandler struct {
	mapper AccountMapper
	seeder AccountSeeder
}

func NewAccountHandler(mapper AccountMapper, seeder AccountSeeder) *AccountHandler {
	return &AccountHandler{mapper: mapper, seeder: seeder}
}

// ListAccounts returns the company's chart of accounts
// GET /v1/accounts
func (h *AccountHandler) ListAccounts(c fiber.Ctx) error {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	accounts, err := h.mapper.LoadAccounts(c.Context(), companyID)
	if err != nil {
		return err
	}
	if accounts == nil {
		accounts = []models.ChartAccount{}
	}
	return utils.SuccessResponse(c, accounts)
}

// SeedAccountsRequest represents the request body for SeedAccounts
type SeedAccountsRequest struct {
	Accounts []models.ChartAccount `json:"accounts"`
}

// SeedAccounts upserts chart entries and drops the company's cached chart
// POST /v1/accounts
func (h *AccountHandler) SeedAccounts(c fiber.Ctx) error {
	var req SeedAccountsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if len(req.Accounts) == 0 {
		return utils.NewBadRequestError("accounts is required", nil)
	}
	for i, a := range req.Accounts {
		if a.Code == "" || a.Name == "" {
			return utils.NewBadRequestError("every account needs code and name", fiber.Map{"index": i})
		}
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	if err := h.seeder.SeedAccounts(c.Context(), companyID, req.Accounts); err != nil {
		return err
	}
	h.mapper.InvalidateCompany(companyID)

	return utils.CreatedResponse(c, fiber.Map{"saved": len(req.Accounts)})
}

// SuggestAccount maps a legacy account onto the company's chart
// GET /v1/accounts/suggest?code=&description=&nature=
func (h *AccountHandler) SuggestAccount(c fiber.Ctx) error {
	src := models.SourceAccount{
		Code:        c.Query("code"),
		Description: c.Query("description"),
		Nature:      c.Query("nature"),
	}
	if src.Code == "" && src.Description == "" && src.Nature == "" {
		return utils.NewBadRequestError("code, description or nature is required", nil)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	suggestion, err := h.mapper.Suggest(c.Context(), companyID, src)
	if err != nil {
		return err
	}
	if suggestion == nil {
		return utils.NewNotFoundError("Matching account")
	}
	return utils.SuccessResponse(c, suggestion)
}

// InvalidateCache forces the next mapper call to reload the chart
// DELETE /v1/accounts/cache
func (h *AccountHandler) InvalidateCache(c fiber.Ctx) error {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}
	h.mapper.InvalidateCompany(companyID)
	return c.SendStatus(fiber.StatusNoContent)
}
