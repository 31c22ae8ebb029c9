package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestHealth(t *testing.T) {
	res := send(http.HandlerFunc(HandleHealthReady), http.MethodGet, "/health/ready", nil)
	assertStatusCode(t, res, http.StatusOK)

	live := Liveness(func() (interface{}, error) {
		return map[string]string{"status": "ok"}, nil
	})
	res = send(live, http.MethodGet, "/health/liveness", nil)
	assertStatusCode(t, res, http.StatusOK)
	if got := readBody(t, res); got != `{"status":"ok"}` {
		t.Errorf(`expected {"status":"ok"}, got %s`, got)
	}

	dead := Liveness(func() (interface{}, error) {
		return nil, errors.New("not alive")
	})
	res = send(dead, http.MethodGet, "/health/liveness", nil)
	assertStatusCode(t, res, http.StatusInternalServerError)
	if got := readBody(t, res); got != "Error" {
		t.Errorf(`expected internal errors to be hidden, got %q`, got)
	}
}

func TestDebug(t *testing.T) {
	h := Debug("https://github.com/flow-hydraulics/flow-settings-api", "1.0.0", "abc123", "today")

	res := sendWithHeaders(h, http.MethodGet, "/debug", nil, map[string]string{"X-Test": "yes"})
	assertStatusCode(t, res, http.StatusOK)

	body := readBody(t, res)
	for _, want := range []string{
		"url: GET /debug",
		"  X-Test: yes",
		"version: 1.0.0",
		"ver: https://github.com/flow-hydraulics/flow-settings-api/commit/abc123",
		"built on: today",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected debug output to contain %q, got:\n%s", want, body)
		}
	}
}
