package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/gofiber/fiber/v3"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/logger"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

const (
	// PresignedURLExpiryMinutes is the expiry time for presigned URLs in minutes
	PresignedURLExpiryMinutes = 15
	// PresignedURLExpirySeconds is the expiry time for presigned URLs in seconds
	PresignedURLExpirySeconds = PresignedURLExpiryMinutes * 60

	// ReviewConfidenceThreshold is the lowest confidence accepted without manual review
	ReviewConfidenceThreshold = 70
)

// AllowedContentTypes defines the content types that can be presigned for upload
var AllowedContentTypes = map[string]bool{
	"text/csv":                  true,
	"text/plain":                true,
	"text/tab-separated-values": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/pdf": true,
}

// StorageService interface defines methods for S3 operations
type StorageService interface {
	GenerateUploadKey(companyID, filename string) (string, error)
	GeneratePresignedURL(ctx context.Context, key, contentType string, expiryMinutes int) (string, error)
	DownloadFile(ctx context.Context, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, key string) error
}

// StatementParser turns statement files or pasted text into parse results
type StatementParser interface {
	Parse(ctx context.Context, text, companyID string) *models.ParseResult
	ParseFile(ctx context.Context, r io.Reader, filename, companyID string) (*models.ParseResult, error)
}

// FileValidator checks uploaded files before parsing
type FileValidator interface {
	ValidateFile(reader io.Reader, filename, contentType string) (*services.ValidationResult, error)
}

// StatementHandler handles statement upload and parsing requests
type StatementHandler struct {
	storage   StorageService
	parser    StatementParser
	validator FileValidator
}

func NewStatementHandler(storage StorageService, parser StatementParser, validator FileValidator) *StatementHandler {
	return &StatementHandler{
		storage:   storage,
		parser:    parser,
		validator: validator,
	}
}

// StatementResponse is a parse result plus the review gate
type StatementResponse struct {
	*models.ParseResult
	FileKey          string `json:"file_key,omitempty"`
	TransactionCount int    `json:"transaction_count"`
	NeedsReview      bool   `json:"needs_review"`
}

func newStatementResponse(result *models.ParseResult, fileKey string) StatementResponse {
	return StatementResponse{
		ParseResult:      result,
		FileKey:          fileKey,
		TransactionCount: len(result.Transactions),
		NeedsReview:      len(result.Transactions) == 0 || result.Confidence < ReviewConfidenceThreshold,
	}
}

// GetPresignedURL generates a presigned URL for a statement upload
// GET /v1/statements/presigned-url?filename=...&content_type=...
func (h *StatementHandler) GetPresignedURL(c fiber.Ctx) error {
	filename := c.Query("filename")
	contentType := c.Query("content_type")

	if filename == "" {
		return utils.NewBadRequestError("filename is required", nil)
	}
	if contentType == "" {
		return utils.NewBadRequestError("content_type is required", nil)
	}
	if !AllowedContentTypes[contentType] {
		return utils.NewBadRequestError("unsupported file type", contentType)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	key, err := h.storage.GenerateUploadKey(companyID.String(), filename)
	if err != nil {
		return utils.NewBadRequestError("invalid filename", err.Error())
	}

	url, err := h.storage.GeneratePresignedURL(c.Context(), key, contentType, PresignedURLExpiryMinutes)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"upload_url": url,
		"file_key":   key,
		"expires_in": PresignedURLExpirySeconds,
	})
}

// ProcessUploadRequest represents the request body for ProcessUpload
type ProcessUploadRequest struct {
	FileKey string `json:"file_key"`
}

// ProcessUpload downloads an uploaded statement from S3 and parses it.
// Uploads that can never be parsed are deleted so they do not linger.
// POST /v1/statements/process
// Body: {"file_key": "statements/{company}/1699564800-ab12cd34-cartola.csv"}
func (h *StatementHandler) ProcessUpload(c fiber.Ctx) error {
	// 1. Parse request body
	var req ProcessUploadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if req.FileKey == "" {
		return utils.NewBadRequestError("file_key is required", nil)
	}

	// 2. Verify the key belongs to the company
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}
	if err := services.CheckKeyScope(req.FileKey, companyID.String()); err != nil {
		return utils.NewForbiddenError("cannot access this file")
	}

	// 3. Download the statement
	log := logger.FromContext(c.Context())
	reader, err := h.storage.DownloadFile(c.Context(), req.FileKey)
	if err != nil {
		log.Warn().Err(err).Str("file_key", req.FileKey).Msg("statement download failed")
		return utils.NewNotFoundError("File")
	}
	defer reader.Close()

	// 4. Parse it, dropping unreadable uploads
	result, err := h.parser.ParseFile(c.Context(), reader, filepath.Base(req.FileKey), companyID.String())
	if err != nil {
		if isUnreadable(err) {
			if delErr := h.storage.DeleteFile(c.Context(), req.FileKey); delErr != nil {
				log.Warn().Err(delErr).Str("file_key", req.FileKey).Msg("failed to delete unreadable statement")
			}
		}
		return parseFileError(err)
	}
	return utils.SuccessResponse(c, newStatementResponse(result, req.FileKey))
}

// ParseUpload parses a statement sent as multipart field "file"
// POST /v1/statements/parse[?format=csv]
func (h *StatementHandler) ParseUpload(c fiber.Ctx) error {
	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return utils.NewBadRequestError("file is required", nil)
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	contentType := fh.Header.Get(fiber.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	validation, err := h.validator.ValidateFile(bytes.NewReader(data), fh.Filename, contentType)
	if err != nil {
		return err
	}
	if !validation.Valid {
		return utils.NewBadRequestError("invalid file", validation.Errors)
	}

	result, err := h.parser.ParseFile(c.Context(), bytes.NewReader(data), fh.Filename, companyID.String())
	if err != nil {
		return parseFileError(err)
	}

	if c.Query("format") == "csv" {
		return sendCSV(c, result, fh.Filename)
	}
	return utils.SuccessResponse(c, newStatementResponse(result, ""))
}

// ParseTextRequest carries statement text pasted by the user
type ParseTextRequest struct {
	Text string `json:"text"`
}

// ParseText parses raw statement text
// POST /v1/statements/parse-text
func (h *StatementHandler) ParseText(c fiber.Ctx) error {
	var req ParseTextRequest
	if err := c.Bind().JSON(&req); err != nil {
		return utils.NewBadRequestError("invalid request body", nil)
	}
	if req.Text == "" {
		return utils.NewBadRequestError("text is required", nil)
	}

	companyID, ok := middleware.CompanyID(c)
	if !ok {
		return utils.NewUnauthorizedError("company not found in request")
	}

	result := h.parser.Parse(c.Context(), req.Text, companyID.String())
	return utils.SuccessResponse(c, newStatementResponse(result, ""))
}

func isUnreadable(err error) bool {
	return errors.Is(err, services.ErrUnsupportedFormat) || errors.Is(err, services.ErrEmptyDocument)
}

func parseFileError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnsupportedFormat):
		return utils.NewUnprocessableError("unsupported statement format", err.Error())
	case errors.Is(err, services.ErrEmptyDocument):
		return utils.NewUnprocessableError("statement has no readable content", nil)
	default:
		return err
	}
}

func sendCSV(c fiber.Ctx, result *models.ParseResult, filename string) error {
	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, result); err != nil {
		return err
	}
	name := stripExt(filepath.Base(filename)) + "-movimientos.csv"
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

func stripExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
