package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/socialhub/middleware"
	"go.uber.org/zap"
)

func currentPlans(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	data, ok := decodeBody(t, w)["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, data, len(DefaultPlans))

	var current []string
	for _, item := range data {
		plan := item.(map[string]interface{})
		if plan["current"] == true {
			current = append(current, plan["id"].(string))
		}
	}
	return current
}

func TestPlanHandler_HandleList(t *testing.T) {
	handler := NewPlanHandler(DefaultPlans, zap.NewNop())

	t.Run("anonymous caller", func(t *testing.T) {
		w := httptest.NewRecorder()

		handler.HandleList(w, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, currentPlans(t, w))
	})

	t.Run("authenticated caller sees current plan", func(t *testing.T) {
		org := newTestOrganization()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req = req.WithContext(middleware.WithIdentity(req.Context(), customerIdentity(newTestUser(org))))
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		assert.Equal(t, []string{"growth"}, currentPlans(t, w))
	})

	t.Run("catalog is not mutated", func(t *testing.T) {
		for _, p := range DefaultPlans {
			assert.False(t, p.Current)
		}
	})
}
