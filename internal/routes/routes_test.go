package routes

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"apms-analytics-service/internal/controller"
	"apms-analytics-service/internal/model"
	mockservice "apms-analytics-service/internal/testdata/mockservice"
)

func newTestApp(svc *mockservice.Service) *fiber.App {
	app := fiber.New()
	Register(app, controller.NewAnalyticsController(svc))
	return app
}

func TestRegister_Health(t *testing.T) {
	app := newTestApp(&mockservice.Service{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestRegister_AnalyticsPaths(t *testing.T) {
	svc := &mockservice.Service{}
	svc.On("DailyCounts", mock.Anything).Return([]model.DayCount{}, nil)
	svc.On("Refs", mock.Anything).Return(model.RefsResponse{}, nil)
	app := newTestApp(svc)

	for _, path := range []string{
		"/v1/analytics/timerlogs/heatmap/daily-counts",
		"/v1/refs/basic",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestRegister_UnknownPathIs404(t *testing.T) {
	app := newTestApp(&mockservice.Service{})

	req := httptest.NewRequest(http.MethodGet, "/v1/analytics/nope", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
