package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jandy1990/wwfm-platform-sub002/internal/testkit"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewStatusServer(testkit.NewProgressRepository(), "0")

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProgressEndpoint(t *testing.T) {
	progress := testkit.NewProgressRepository()
	progress.SeedUnit("Sertraline", "medications", 3)
	progress.SeedUnit("Ibuprofen", "medications", 0)
	s := NewStatusServer(progress, "0")

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/progress", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rows []categoryProgress
	err := json.Unmarshal(rec.Body.Bytes(), &rows)
	assert.NoError(t, err)

	var meds *categoryProgress
	for i := range rows {
		if rows[i].Category == "medications" {
			meds = &rows[i]
		}
	}
	if assert.NotNil(t, meds, "medications row missing from progress response") {
		assert.Equal(t, 2, meds.Total)
		assert.Equal(t, 1, meds.WithConnections)
		assert.Equal(t, 2, meds.Pending)
		assert.InDelta(t, 0.5, meds.Coverage, 0.001)
	}
}

func TestReportEndpointRendersHTML(t *testing.T) {
	progress := testkit.NewProgressRepository()
	progress.SeedUnit("Magnesium glycinate", "supplements", 1)
	s := NewStatusServer(progress, "0")

	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/report", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "supplements")
	assert.Contains(t, body, "Expansion Coverage")
}
