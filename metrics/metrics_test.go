package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flow-hydraulics/flow-settings-api/settings"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func strPtr(s string) *string { return &s }

func TestUpdatesCounter(t *testing.T) {
	m := New()

	m.Handle(context.Background(), settings.UpdatedPayload{Update: settings.Update{
		Theme:                strPtr("dark"),
		NotificationSettings: &settings.NotificationSettingsUpdate{},
	}})
	m.Handle(context.Background(), settings.UpdatedPayload{Update: settings.Update{Theme: strPtr("light")}})

	if got := testutil.ToFloat64(m.updatesTotal.WithLabelValues("theme")); got != 2 {
		t.Errorf("expected 2 theme updates, got %v", got)
	}
	if got := testutil.ToFloat64(m.updatesTotal.WithLabelValues("notificationSettings")); got != 1 {
		t.Errorf("expected 1 notificationSettings update, got %v", got)
	}
	if got := testutil.ToFloat64(m.updatesTotal.WithLabelValues("languageSettings")); got != 0 {
		t.Errorf("expected 0 languageSettings updates, got %v", got)
	}
}

func TestMiddleware(t *testing.T) {
	m := New()

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/settings", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/settings", nil))
	}

	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/settings", "200")); got != 3 {
		t.Errorf("expected 3 requests, got %v", got)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rr.Result().Body)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(body), `settings_http_requests_total{method="GET",route="/settings",status="200"} 3`) {
		t.Errorf("expected exposition to contain the request counter, got:\n%s", body)
	}
}
