package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

func TestHandleCheckSlug(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		tenants    *mockTenants
		wantStatus int
		wantBody   string
	}{
		{"available", "?slug=acme", &mockTenants{available: true}, http.StatusOK, `{"isAvailable":true}`},
		{"taken", "?slug=acme", &mockTenants{available: false}, http.StatusOK, `{"isAvailable":false}`},
		{"missing slug", "", &mockTenants{}, http.StatusBadRequest, `{"error":"slug is required"}`},
		{
			"invalid slug",
			"?slug=Not_OK",
			&mockTenants{err: fmt.Errorf("%w: invalid slug", domain.ErrBadRequest)},
			http.StatusBadRequest,
			`{"error":"bad request: invalid slug"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Ports{Tenants: tt.tenants}, Config{})
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orgs/check-slug"+tt.query, http.NoBody))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandleCheckSlug_NotConfigured(t *testing.T) {
	s := newTestServer(t, Ports{}, Config{})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orgs/check-slug?slug=acme", http.NoBody))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
