package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// HeaderCompanyID selects the company a request acts on
const HeaderCompanyID = "X-Company-ID"

// MembershipVerifier reports whether a user belongs to a company
type MembershipVerifier func(ctx context.Context, userID string, companyID uuid.UUID) (bool, error)

// RequireCompany parses X-Company-ID into the company_id local after
// checking that the authenticated user is a member. It must run after Auth.
func RequireCompany(isMember MembershipVerifier) fiber.Handler {
	return func(c fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(HeaderCompanyID))
		if raw == "" {
			return utils.NewBadRequestError("Missing company header", HeaderCompanyID)
		}
		companyID, err := uuid.Parse(raw)
		if err != nil || companyID == uuid.Nil {
			return utils.NewBadRequestError("Invalid company id", raw)
		}

		userID, ok := UserID(c)
		if !ok {
			return utils.NewUnauthorizedError("User not found in request")
		}
		member, err := isMember(c.Context(), userID, companyID)
		if err != nil {
			return err
		}
		if !member {
			return utils.NewForbiddenError("Not a member of this company")
		}

		c.Locals("company_id", companyID)
		return c.Next()
	}
}

// CompanyID returns the id stored by RequireCompany
func CompanyID(c fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals("company_id").(uuid.UUID)
	return id, ok
}
