package server

import (
	"net/http"
	"time"

	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AIStatusSource reports the AI circuit breaker state.
type AIStatusSource interface {
	CircuitStatus() util.CircuitBreakerStatus
}

// QuotaStatusSource reports local YouTube API quota consumption.
type QuotaStatusSource interface {
	GetQuotaStatus() (used int, remaining int, resetTime time.Time)
}

// StatusHandler exposes the operational state of the optional integrations.
// Either source may be nil when the feature is unconfigured; its section is
// simply omitted from the response.
type StatusHandler struct {
	ai     AIStatusSource
	quota  QuotaStatusSource
	logger *zap.Logger
}

func NewStatusHandler(ai AIStatusSource, quota QuotaStatusSource, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{ai: ai, quota: quota, logger: logger}
}

func (h *StatusHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/status", h.Get).Methods("GET")
}

type aiStatus struct {
	Circuit      string `json:"circuit"`
	FailureCount int    `json:"failure_count"`
	NextRetry    string `json:"next_retry,omitempty"`
}

type youtubeQuotaStatus struct {
	Used      int    `json:"used"`
	Remaining int    `json:"remaining"`
	ResetsAt  string `json:"resets_at"`
}

type statusResponse struct {
	Status  string              `json:"status"`
	AI      *aiStatus           `json:"ai,omitempty"`
	YouTube *youtubeQuotaStatus `json:"youtube,omitempty"`
}

func (h *StatusHandler) Get(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{Status: "ok"}

	if h.ai != nil {
		st := h.ai.CircuitStatus()
		resp.AI = &aiStatus{
			Circuit:      st.State.String(),
			FailureCount: st.FailureCount,
		}
		if st.NextRetryTime != nil {
			resp.AI.NextRetry = st.NextRetryTime.Format(time.RFC3339)
		}
	}

	if h.quota != nil {
		used, remaining, reset := h.quota.GetQuotaStatus()
		resp.YouTube = &youtubeQuotaStatus{
			Used:      used,
			Remaining: remaining,
			ResetsAt:  reset.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
