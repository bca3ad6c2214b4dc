package server

import (
	"net/http"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/presenter"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PresenterHandler drives a liturgy's live session over REST and feeds
// snapshot updates to websocket clients.
type PresenterHandler struct {
	manager  *presenter.Manager
	hub      *presenter.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewPresenterHandler(manager *presenter.Manager, hub *presenter.Hub, logger *zap.Logger) *PresenterHandler {
	return &PresenterHandler{
		manager: manager,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// operator and projector clients are served from other origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *PresenterHandler) Register(r *mux.Router) {
	p := r.PathPrefix("/api/presenter/{id}").Subrouter()

	p.HandleFunc("/snapshot", h.GetSnapshot).Methods("GET")
	p.HandleFunc("", h.EndSession).Methods("DELETE")

	p.HandleFunc("/goto", h.GoToSlide).Methods("POST")
	p.HandleFunc("/next", h.control((*presenter.Session).NextSlide)).Methods("POST")
	p.HandleFunc("/prev", h.control((*presenter.Session).PrevSlide)).Methods("POST")
	p.HandleFunc("/first", h.control((*presenter.Session).FirstSlide)).Methods("POST")
	p.HandleFunc("/last", h.control((*presenter.Session).LastSlide)).Methods("POST")
	p.HandleFunc("/element", h.GoToElement).Methods("POST")

	p.HandleFunc("/live", h.SetLive).Methods("POST")
	p.HandleFunc("/black", h.control((*presenter.Session).ToggleBlack)).Methods("POST")

	p.HandleFunc("/temp-edit", h.SetTempEdit).Methods("POST")
	p.HandleFunc("/temp-edit/{slideID}", h.ClearTempEdit).Methods("DELETE")
	p.HandleFunc("/temp-edits", h.control((*presenter.Session).ClearAllTempEdits)).Methods("DELETE")

	p.HandleFunc("/logo", h.SetLogoDefault).Methods("PUT")
	p.HandleFunc("/logo/override", h.SetLogoOverride).Methods("POST")
	p.HandleFunc("/logo/override", h.ClearLogoOverride).Methods("DELETE")

	p.HandleFunc("/overlays", h.AddTextOverlay).Methods("POST")
	p.HandleFunc("/overlays/{overlayID}", h.UpdateTextOverlay).Methods("PUT")
	p.HandleFunc("/overlays/{overlayID}", h.RemoveTextOverlay).Methods("DELETE")
	p.HandleFunc("/overlays/{overlayID}/override", h.SetOverlayOverride).Methods("POST")

	p.HandleFunc("/slides/duplicate", h.DuplicateSlide).Methods("POST")
	p.HandleFunc("/slides/delete", h.DeleteSlide).Methods("POST")

	p.HandleFunc("/props/show", h.ShowProp).Methods("POST")
	p.HandleFunc("/props/hide", h.HideProp).Methods("POST")
	p.HandleFunc("/props/hide-all", h.control((*presenter.Session).HideAllProps)).Methods("POST")

	r.HandleFunc("/ws/presenter/{id}", h.Subscribe).Methods("GET")
}

func (h *PresenterHandler) session(w http.ResponseWriter, r *http.Request) *presenter.Session {
	liturgyID := mux.Vars(r)["id"]

	session, err := h.manager.Session(r.Context(), liturgyID)
	if err != nil {
		writeError(w, h.logger, err)
		return nil
	}
	if session == nil {
		writeNotFound(w, h.logger, "liturgy", liturgyID)
		return nil
	}
	return session
}

// control adapts a no-argument session operation into a handler.
func (h *PresenterHandler) control(op func(*presenter.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := h.session(w, r)
		if session == nil {
			return
		}
		op(session)
		writeJSON(w, http.StatusOK, session.Snapshot())
	}
}

// GetSnapshot returns the current resolved state.
// GET /api/presenter/{id}/snapshot
func (h *PresenterHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	session := h.session(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// EndSession drops the live session and disconnects its clients.
// DELETE /api/presenter/{id}
func (h *PresenterHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	liturgyID := mux.Vars(r)["id"]
	h.manager.End(liturgyID)
	writeJSON(w, http.StatusOK, map[string]bool{"ended": true})
}

type gotoSlideRequest struct {
	Index int `json:"index"`
}

// GoToSlide jumps the cursor; out-of-range indices clamp.
// POST /api/presenter/{id}/goto
func (h *PresenterHandler) GoToSlide(w http.ResponseWriter, r *http.Request) {
	var req gotoSlideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.GoToSlide(req.Index)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// GoToElement jumps to an element's first slide.
// POST /api/presenter/{id}/element
func (h *PresenterHandler) GoToElement(w http.ResponseWriter, r *http.Request) {
	var req gotoSlideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.GoToElement(req.Index)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type setLiveRequest struct {
	On bool `json:"on"`
}

// SetLive toggles live output. Going live clears the black screen.
// POST /api/presenter/{id}/live
func (h *PresenterHandler) SetLive(w http.ResponseWriter, r *http.Request) {
	var req setLiveRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.SetLive(req.On)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type tempEditRequest struct {
	SlideID string               `json:"slide_id"`
	Content *domain.SlideContent `json:"content"`
}

// SetTempEdit overlays slide text for this session only.
// POST /api/presenter/{id}/temp-edit
func (h *PresenterHandler) SetTempEdit(w http.ResponseWriter, r *http.Request) {
	var req tempEditRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.SlideID == "" || req.Content == nil {
		writeValidationError(w, h.logger, "slide_id and content are required", "slide_id", req.SlideID)
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.SetTempEdit(req.SlideID, req.Content)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *PresenterHandler) ClearTempEdit(w http.ResponseWriter, r *http.Request) {
	slideID := mux.Vars(r)["slideID"]

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.ClearTempEdit(slideID)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// SetLogoDefault replaces the liturgy-wide logo configuration.
// PUT /api/presenter/{id}/logo
func (h *PresenterHandler) SetLogoDefault(w http.ResponseWriter, r *http.Request) {
	var cfg domain.LogoConfig
	if !decodeJSON(w, r, h.logger, &cfg) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.SetLogoDefault(cfg)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type logoOverrideRequest struct {
	SlideIndex int                  `json:"slide_index"`
	Override   *domain.LogoOverride `json:"override"`
}

// SetLogoOverride overrides logo fields for one slide.
// POST /api/presenter/{id}/logo/override
func (h *PresenterHandler) SetLogoOverride(w http.ResponseWriter, r *http.Request) {
	var req logoOverrideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Override == nil {
		writeValidationError(w, h.logger, "override is required", "override", nil)
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.SetLogoOverride(req.SlideIndex, req.Override)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *PresenterHandler) ClearLogoOverride(w http.ResponseWriter, r *http.Request) {
	var req logoOverrideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.ClearLogoOverride(req.SlideIndex)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type addOverlayResponse struct {
	ID       string              `json:"id"`
	Accepted bool                `json:"accepted"`
	Snapshot *presenter.Snapshot `json:"snapshot,omitempty"`
}

// AddTextOverlay adds a caption overlay. The session caps overlays at the
// configured limit; past the cap the request is acknowledged but rejected.
// POST /api/presenter/{id}/overlays
func (h *PresenterHandler) AddTextOverlay(w http.ResponseWriter, r *http.Request) {
	var overlay domain.TextOverlay
	if !decodeJSON(w, r, h.logger, &overlay) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	id := session.AddTextOverlay(overlay)
	if id == "" {
		h.logger.Debug("Overlay rejected at cap",
			zap.Int("limit", constants.PresenterLimits.MaxTextOverlays))
		writeJSON(w, http.StatusOK, addOverlayResponse{Accepted: false})
		return
	}

	snap := session.Snapshot()
	writeJSON(w, http.StatusCreated, addOverlayResponse{ID: id, Accepted: true, Snapshot: &snap})
}

func (h *PresenterHandler) UpdateTextOverlay(w http.ResponseWriter, r *http.Request) {
	overlayID := mux.Vars(r)["overlayID"]

	var overlay domain.TextOverlay
	if !decodeJSON(w, r, h.logger, &overlay) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.UpdateTextOverlay(overlayID, overlay)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *PresenterHandler) RemoveTextOverlay(w http.ResponseWriter, r *http.Request) {
	overlayID := mux.Vars(r)["overlayID"]

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.RemoveTextOverlay(overlayID)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type overlayOverrideRequest struct {
	SlideIndex int                         `json:"slide_index"`
	Override   *domain.TextOverlayOverride `json:"override"`
}

// SetOverlayOverride overrides an overlay's text/visibility on one slide.
// POST /api/presenter/{id}/overlays/{overlayID}/override
func (h *PresenterHandler) SetOverlayOverride(w http.ResponseWriter, r *http.Request) {
	overlayID := mux.Vars(r)["overlayID"]

	var req overlayOverrideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.SetTextOverlayOverride(req.SlideIndex, overlayID, req.Override)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// DuplicateSlide inserts a copy after the given index.
// POST /api/presenter/{id}/slides/duplicate
func (h *PresenterHandler) DuplicateSlide(w http.ResponseWriter, r *http.Request) {
	var req gotoSlideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.DuplicateSlide(req.Index)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// DeleteSlide removes the slide at the given index from the session.
// POST /api/presenter/{id}/slides/delete
func (h *PresenterHandler) DeleteSlide(w http.ResponseWriter, r *http.Request) {
	var req gotoSlideRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.DeleteSlide(req.Index)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

type propRequest struct {
	PropID string `json:"prop_id"`
}

func (h *PresenterHandler) ShowProp(w http.ResponseWriter, r *http.Request) {
	var req propRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.ShowProp(req.PropID)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (h *PresenterHandler) HideProp(w http.ResponseWriter, r *http.Request) {
	var req propRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	session := h.session(w, r)
	if session == nil {
		return
	}

	session.HideProp(req.PropID)
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// Subscribe upgrades to a websocket and streams snapshots until the client
// disconnects or the session ends.
// GET /ws/presenter/{id}
func (h *PresenterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	liturgyID := mux.Vars(r)["id"]

	session, err := h.manager.Session(r.Context(), liturgyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if session == nil {
		writeNotFound(w, h.logger, "liturgy", liturgyID)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := h.hub.Register(liturgyID, conn)

	// initial state so the client renders before the first mutation
	client.Send(session.Snapshot())

	h.logger.Info("Presenter client subscribed",
		zap.String("liturgy_id", liturgyID),
		zap.Int("clients", h.hub.ClientCount(liturgyID)),
	)
}
