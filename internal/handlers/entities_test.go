package handlers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/database"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/models"
	"github.com/matiquelmec/contapyme-sistema-contable-sub002/internal/services"
)

// MockEntityStore keeps entities in memory keyed by normalized RUT
type MockEntityStore struct {
	entities map[string]models.Entity
}

func (m *MockEntityStore) UpsertEntity(_ context.Context, e models.Entity) (*models.Entity, error) {
	if m.entities == nil {
		m.entities = map[string]models.Entity{}
	}
	e.RUT = services.NormalizeRUT(e.RUT)
	m.entities[e.CompanyID.String()+"/"+e.RUT] = e
	return &e, nil
}

func (m *MockEntityStore) GetEntity(_ context.Context, companyID uuid.UUID, rut string) (*models.Entity, error) {
	e, ok := m.entities[companyID.String()+"/"+services.NormalizeRUT(rut)]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &e, nil
}

func TestEntityHandler(t *testing.T) {
	store := &MockEntityStore{}
	h := NewEntityHandler(store)
	app, r := newTestApp()
	r.Post("/entities", h.UpsertEntity)
	r.Get("/entities/:rut", h.GetEntity)

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid supplier", `{"rut":"76.123.456-0","entity_type":"supplier","entity_name":"Austral SpA","account_code":"2101"}`, 200},
		{"bad check digit", `{"rut":"76.123.456-1","entity_type":"supplier"}`, 400},
		{"unknown type", `{"rut":"76.123.456-0","entity_type":"partner"}`, 400},
		{"invalid json", `{`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(newJSONRequest("POST", "/entities", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("get stored entity", func(t *testing.T) {
		resp, err := app.Test(newRequest("GET", "/entities/76123456-0", nil))
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		data := decodeBody(t, resp)["data"].(map[string]any)
		assert.Equal(t, "76123456-0", data["rut"])
		assert.Equal(t, "supplier", data["entity_type"])
		assert.Equal(t, "Austral SpA", data["entity_name"])
	})

	t.Run("unknown rut", func(t *testing.T) {
		resp, err := app.Test(newRequest("GET", "/entities/11111111-1", nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("malformed rut", func(t *testing.T) {
		resp, err := app.Test(newRequest("GET", "/entities/abc", nil))
		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
	})
}
