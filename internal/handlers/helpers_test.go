package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/middleware"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/utils"
)

var testCompanyID = uuid.MustParse("7b0c6f1e-2a43-4d7e-9a51-3f2d8c9e1b20")

const testUserID = "user_test"

// withTestUser stands in for Auth, taking the user from X-Test-User
func withTestUser(c fiber.Ctx) error {
	user := c.Get("X-Test-User", testUserID)
	if user != "-" {
		c.Locals("user_id", user)
	}
	return c.Next()
}

// testMembership lets testUserID into testCompanyID only
func testMembership(_ context.Context, userID string, companyID uuid.UUID) (bool, error) {
	return userID == testUserID && companyID == testCompanyID, nil
}

// newTestApp returns an app whose routes sit behind RequireCompany
func newTestApp() (*fiber.App, fiber.Router) {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	return app, app.Group("", withTestUser, middleware.RequireCompany(testMembership))
}

// newUserApp returns an app whose routes only need an authenticated user
func newUserApp() (*fiber.App, fiber.Router) {
	app := fiber.New(fiber.Config{ErrorHandler: utils.ErrorHandler})
	return app, app.Group("", withTestUser)
}

func newRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(middleware.HeaderCompanyID, testCompanyID.String())
	return req
}

func newJSONRequest(method, target, body string) *http.Request {
	req := newRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
