package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/adlytics/experiment-service/internal/assignment"
	"github.com/adlytics/experiment-service/internal/domain"
	"github.com/adlytics/experiment-service/internal/dto"
	"github.com/adlytics/experiment-service/internal/queue/direct"
	"github.com/adlytics/experiment-service/internal/repository/memory"
	"github.com/adlytics/experiment-service/internal/service"
)

// fullStack wires the real engine, service, direct publisher, and in-memory
// repository behind the handler, so requests exercise the whole pipeline.
func fullStack(t *testing.T) (*Handler, *memory.Repository) {
	t.Helper()

	registry := testRegistry(t, "dashboard_layout", "pricing_cta")
	repo := memory.NewRepository()
	log := zap.NewNop()

	publisher := direct.NewPublisher(repo, log)
	engine := assignment.NewEngine(registry, assignment.WithRand(rand.New(rand.NewSource(99))))
	experimentService := service.NewExperimentService(registry, publisher, repo, log)

	handler := NewHandler(experimentService, engine, Config{
		PricingTestID: "pricing_cta",
		ResultsAPIKey: testAPIKey,
	}, log)

	return handler, repo
}

func recordsOfKind(t *testing.T, repo *memory.Repository, kind domain.RecordKind) []*domain.Record {
	t.Helper()

	all, err := repo.List(context.Background())
	require.NoError(t, err)

	var out []*domain.Record
	for _, record := range all {
		if record.Kind == kind {
			out = append(out, record)
		}
	}
	return out
}

func TestIntegration_DashboardStickinessAndAppendOnlyLog(t *testing.T) {
	handler, repo := fullStack(t)

	// First visit: no tokens at all.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/views/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var first dto.DashboardViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.Len(t, first.Variants, 2)

	exposures := recordsOfKind(t, repo, domain.KindExposure)
	require.Len(t, exposures, 2, "one exposure per configured experiment")
	for _, record := range exposures {
		assert.Equal(t, first.VisitorID, record.VisitorID)
		assert.Equal(t, first.Variants[record.TestID], record.Variant)
	}

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	// Second visit with the issued tokens resubmitted.
	req := httptest.NewRequest(http.MethodGet, "/views/dashboard", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var second dto.DashboardViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	assert.Equal(t, first.VisitorID, second.VisitorID)
	assert.Equal(t, first.Variants, second.Variants)

	// Repeat exposure is intended: the log is append-only.
	assert.Len(t, recordsOfKind(t, repo, domain.KindExposure), 4)
}

func TestIntegration_EventWithoutExposure(t *testing.T) {
	handler, repo := fullStack(t)

	body, _ := json.Marshal(dto.TrackEventRequest{Event: "converted", TestID: "pricing_cta"})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.TrackEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotNil(t, response.Variant)

	// Exactly one event record and no retroactive exposure.
	assert.Len(t, recordsOfKind(t, repo, domain.KindEvent), 1)
	assert.Empty(t, recordsOfKind(t, repo, domain.KindExposure))
}

func TestIntegration_ResultsReflectTrackedActivity(t *testing.T) {
	handler, repo := fullStack(t)

	// One dashboard visit, then a conversion on the pricing experiment.
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/views/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	var view dto.DashboardViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))

	body, _ := json.Marshal(dto.TrackEventRequest{Event: "converted", TestID: "pricing_cta"})
	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Sanity: two exposures and one event in the log.
	require.Len(t, recordsOfKind(t, repo, domain.KindExposure), 2)
	require.Len(t, recordsOfKind(t, repo, domain.KindEvent), 1)

	resultsReq := httptest.NewRequest(http.MethodGet, "/results", nil)
	resultsReq.Header.Set("X-API-Key", testAPIKey)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, resultsReq)
	require.Equal(t, http.StatusOK, w.Code)

	var results dto.ResultsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))

	assert.Equal(t, uint64(2), results.TotalExposures)
	assert.Equal(t, uint64(1), results.TotalEvents)

	for _, experiment := range results.Experiments {
		if experiment.TestID != "pricing_cta" {
			continue
		}
		variant := domain.Variant(view.Variants["pricing_cta"])
		assert.Equal(t, uint64(1), experiment.Results[variant].Exposures)
		assert.Equal(t, uint64(1), experiment.Results[variant].Events)
		assert.InDelta(t, 1.0, experiment.Results[variant].ConversionRate, 1e-9)
	}
}
