package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skylark/opscommand/internal/models/dtos"
)

func TestRespondSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondSuccess(rec, time.Now(), "created", map[string]string{"id": "1"}, http.StatusCreated)

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected 201, got %d", rec.Code)
	}

	var body dtos.APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != "ok" || body.Message != "created" {
		t.Errorf("Unexpected envelope %+v", body)
	}
	if !strings.HasSuffix(body.ResponseTime, "ms") {
		t.Errorf("Expected response time in ms, got %q", body.ResponseTime)
	}
}

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, time.Now(), errors.New("internal detail"), "", http.StatusBadGateway)

	var body dtos.APIResponse
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusBadGateway || body.Status != "error" || body.Message != "internal detail" {
		t.Errorf("Unexpected response %d %+v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	RespondError(rec, time.Now(), errors.New("internal detail"), "Pilot data unavailable")
	json.NewDecoder(rec.Body).Decode(&body)
	if rec.Code != http.StatusInternalServerError || body.Message != "Pilot data unavailable" {
		t.Errorf("Expected explicit message to win, got %d %+v", rec.Code, body)
	}
}

func TestParseBoolParam(t *testing.T) {
	cases := map[string]bool{"": false, "true": true, "1": true, "yes": true, "false": false, "No": false}
	for in, want := range cases {
		got, err := ParseBoolParam(in)
		if err != nil || got != want {
			t.Errorf("ParseBoolParam(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseBoolParam("maybe"); err == nil {
		t.Error("Expected error for maybe")
	}
}
