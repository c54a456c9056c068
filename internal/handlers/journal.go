package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/database"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/logger"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

// JournalStore persists journal drafts
type JournalStore interface {
	SaveDrafts(ctx context.Context, entries []models.JournalEntry) ([]models.JournalEntry, error)
	ListDrafts(ctx context.Context, companyID uuid.UUID, limit, offset int) (*database.DraftPage, error)
}

const entryDateLayout = "2006-01-02"

// JournalHandler turns reviewed parse results into journal drafts
type JournalHandler struct {
	store JournalStore
}

func NewJournalHandler(store JournalStore) *JournalHandler {
	return &JournalHandler{store: store}
}

// CreateDrafts stores one draft per transaction of a reviewed parse result
// POST /v1/journal/drafts
func (h *JournalHandler) CreateDrafts(c fiber.Ctx) error {
	var result models.ParseResult
	if err := c.Bind().JSON(&result); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	drafts := services.BuildJournalDrafts(companyID, &result)
	if len(drafts) == 0 {
		return utils.NewBadRequestError("no transaction carries a complete accounting suggestion", nil)
	}
	// the parser only range-checks days; the DATE column needs a real calendar day
	for _, d := range drafts {
		if _, err := time.Parse(entryDateLayout, d.EntryDate); err != nil {
			return utils.NewBadRequestError("invalid transaction date", d.EntryDate)
		}
	}

	saved, err := h.store.SaveDrafts(c.Context(), drafts)
	if err != nil {
		return err
	}

	logger.FromContext(c.Context()).Info().
		Str("company_id", companyID.String()).
		Int("drafts", len(saved)).
		Int("skipped", len(result.Transactions)-len(saved)).
		Msg("journal drafts saved")

	return utils.CreatedResponse(c, fiber.Map{
		"entries": saved,
		"saved":   len(saved),
		"skipped": len(result.Transactions) - len(saved),
	})
}

// ListDrafts pages through the company's drafts
// GET /v1/journal/drafts?limit=50&offset=0
func (h *JournalHandler) ListDrafts(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	page, err := h.store.ListDrafts(c.Context(), companyID, limit, offset)
	if err != nil {
		return err
	}
	return utils.PaginatedResponse(c, page.Entries, limit, offset, page.Total, fiber.Map{
		"total_debit":  page.TotalDebit,
		"total_credit": page.TotalCredit,
	})
}
