package server

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type fakeAIStatus struct {
	status util.CircuitBreakerStatus
}

func (f *fakeAIStatus) CircuitStatus() util.CircuitBreakerStatus {
	return f.status
}

type fakeQuotaStatus struct {
	used      int
	remaining int
	reset     time.Time
}

func (f *fakeQuotaStatus) GetQuotaStatus() (int, int, time.Time) {
	return f.used, f.remaining, f.reset
}

func newStatusTestRouter(ai AIStatusSource, quota QuotaStatusSource) *mux.Router {
	router := mux.NewRouter()
	NewStatusHandler(ai, quota, zap.NewNop()).Register(router)
	return router
}

func TestStatusReportsIntegrations(t *testing.T) {
	retry := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	router := newStatusTestRouter(
		&fakeAIStatus{status: util.CircuitBreakerStatus{
			State:         util.CircuitStateOpen,
			FailureCount:  4,
			NextRetryTime: &retry,
		}},
		&fakeQuotaStatus{used: 300, remaining: 9700, reset: retry},
	)

	rec := doJSON(t, router, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Status string `json:"status"`
		AI     *struct {
			Circuit      string `json:"circuit"`
			FailureCount int    `json:"failure_count"`
			NextRetry    string `json:"next_retry"`
		} `json:"ai"`
		YouTube *struct {
			Used      int `json:"used"`
			Remaining int `json:"remaining"`
		} `json:"youtube"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.AI == nil || resp.AI.Circuit != "OPEN" || resp.AI.FailureCount != 4 {
		t.Errorf("ai section = %+v, want OPEN with 4 failures", resp.AI)
	}
	if resp.AI != nil && resp.AI.NextRetry == "" {
		t.Error("next_retry missing for an open circuit")
	}
	if resp.YouTube == nil || resp.YouTube.Used != 300 || resp.YouTube.Remaining != 9700 {
		t.Errorf("youtube section = %+v, want used 300 remaining 9700", resp.YouTube)
	}
}

func TestStatusOmitsUnconfiguredIntegrations(t *testing.T) {
	router := newStatusTestRouter(nil, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp["ai"]; ok {
		t.Error("ai section present without a configured model manager")
	}
	if _, ok := resp["youtube"]; ok {
		t.Error("youtube section present without a configured API key")
	}
}
