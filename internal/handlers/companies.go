package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/database"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/logger"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// CompanyStore keeps companies and their members
type CompanyStore interface {
	CreateCompany(ctx context.Context, name, ownerID string) (*models.Company, error)
	ListCompanies(ctx context.Context, userID string) ([]models.Company, error)
	MemberRole(ctx context.Context, companyID uuid.UUID, userID string) (models.MemberRole, error)
	AddMember(ctx context.Context, companyID uuid.UUID, userID string, role models.MemberRole) error
}

// CompanyHandler manages the companies a user can act on
type CompanyHandler struct {
	store CompanyStore
}

func NewCompanyHandler(store CompanyStore) *CompanyHandler {
	return &CompanyHandler{store: store}
}

// CreateCompanyRequest represents the request body for CreateCompany
type CreateCompanyRequest struct {
	Name string `json:"name"`
}

// CreateCompany creates a company owned by the caller
// POST /v1/companies
func (h *CompanyHandler) CreateCompany(c fiber.Ctx) error {
	var req CreateCompanyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return utils.NewBadRequestError("name is required", nil)
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.NewUnauthorizedError("User not found in request")
	}

	company, err := h.store.CreateCompany(c.Context(), name, userID)
	if err != nil {
		return err
	}

	logger.FromContext(c.Context()).Info().
		Str("company_id", company.ID.String()).
		Str("user_id", userID).
		Msg("company created")

	return utils.CreatedResponse(c, company)
}

// ListCompanies returns the caller's companies
// GET /v1/companies
func (h *CompanyHandler) ListCompanies(c fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.NewUnauthorizedError("User not found in request")
	}

	companies, err := h.store.ListCompanies(c.Context(), userID)
	if err != nil {
		return err
	}
	if companies == nil {
		companies = []models.Company{}
	}
	return utils.SuccessResponse(c, companies)
}

// AddMemberRequest represents the request body for AddMember
type AddMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// AddMember grants another user access to the current company. Owners only.
// POST /v1/companies/members
func (h *CompanyHandler) AddMember(c fiber.Ctx) error {
	var req AddMemberRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	member := strings.TrimSpace(req.UserID)
	if member == "" {
		return utils.NewBadRequestError("user_id is required", nil)
	}
	role := models.MemberRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleOwner && role != models.RoleMember {
		return utils.NewBadRequestError("role must be owner or member", req.Role)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.NewUnauthorizedError("User not found in request")
	}

	callerRole, err := h.store.MemberRole(c.Context(), companyID, userID)
	if errors.Is(err, database.ErrNotFound) || (err == nil && callerRole != models.RoleOwner) {
		return utils.NewForbiddenError("Only owners can add members")
	}
	if err != nil {
		return err
	}

	if err := h.store.AddMember(c.Context(), companyID, member, role); err != nil {
		return err
	}
	return utils.CreatedResponse(c, fiber.Map{
		"company_id": companyID,
		"user_id":    member,
		"role":       role,
	})
}
