package server

import (
	"context"
	"net/http"

	"github.com/casaiglesia/casa-server/internal/domain"
	"github.com/casaiglesia/casa-server/internal/service/songimport"
	"github.com/casaiglesia/casa-server/internal/util"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type SongStore interface {
	Create(ctx context.Context, song *domain.Song) (*domain.Song, error)
	FindByID(ctx context.Context, id string) (*domain.Song, error)
	Search(ctx context.Context, q string, limit int) ([]*domain.Song, error)
	UpdateVideoURL(ctx context.Context, id, videoURL string) error
	Delete(ctx context.Context, id string) error
}

type SongImporter interface {
	Import(ctx context.Context, path string) (*songimport.ImportedSong, error)
}

type VideoSearcher interface {
	SearchSongVideos(ctx context.Context, title, author string) ([]*domain.SongVideo, error)
}

type SongHandler struct {
	store    SongStore
	importer SongImporter
	videos   VideoSearcher
	logger   *zap.Logger
}

// NewSongHandler wires the catalog endpoints. importer and videos may be nil
// when the hymnal URL or YouTube key is not configured; the matching
// endpoints then answer 503.
func NewSongHandler(store SongStore, importer SongImporter, videos VideoSearcher, logger *zap.Logger) *SongHandler {
	return &SongHandler{store: store, importer: importer, videos: videos, logger: logger}
}

func (h *SongHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/songs", h.CreateSong).Methods("POST")
	r.HandleFunc("/api/songs", h.SearchSongs).Methods("GET")
	r.HandleFunc("/api/songs/import", h.ImportSong).Methods("POST")
	r.HandleFunc("/api/songs/{id}", h.GetSong).Methods("GET")
	r.HandleFunc("/api/songs/{id}", h.DeleteSong).Methods("DELETE")
	r.HandleFunc("/api/songs/{id}/videos", h.FindVideos).Methods("GET")
	r.HandleFunc("/api/songs/{id}/video", h.SetVideo).Methods("PUT")
}

// CreateSong adds a song to the catalog.
// POST /api/songs
func (h *SongHandler) CreateSong(w http.ResponseWriter, r *http.Request) {
	var song domain.Song
	if !decodeJSON(w, r, h.logger, &song) {
		return
	}

	if song.Title == "" {
		writeValidationError(w, h.logger, "title is required", "title", song.Title)
		return
	}
	if len(song.Sections) == 0 {
		writeValidationError(w, h.logger, "at least one lyrics section is required", "sections", nil)
		return
	}
	if song.Slug == "" {
		song.Slug = util.Slugify(song.Title)
	}

	created, err := h.store.Create(r.Context(), &song)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// SearchSongs searches the catalog by title or lyrics.
// GET /api/songs?q=...&limit=N
func (h *SongHandler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 25)

	songs, err := h.store.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, songs)
}

func (h *SongHandler) GetSong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	song, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if song == nil {
		writeNotFound(w, h.logger, "song", id)
		return
	}

	writeJSON(w, http.StatusOK, song)
}

func (h *SongHandler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.Delete(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type importSongRequest struct {
	Path string `json:"path"`
	Save bool   `json:"save"`
}

// ImportSong fetches a hymnal page and returns the parsed draft. With
// save=true the draft goes straight into the catalog.
// POST /api/songs/import
func (h *SongHandler) ImportSong(w http.ResponseWriter, r *http.Request) {
	if h.importer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "hymnal import is not configured"})
		return
	}

	var req importSongRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.Path == "" {
		writeValidationError(w, h.logger, "path is required", "path", req.Path)
		return
	}

	draft, err := h.importer.Import(r.Context(), req.Path)
	if err != nil {
		if songimport.IsStructureError(err) {
			h.logger.Warn("Hymnal page not recognized", zap.String("path", req.Path), zap.Error(err))
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	if !req.Save {
		writeJSON(w, http.StatusOK, draft)
		return
	}

	song := &domain.Song{
		Slug:      util.Slugify(draft.Title),
		Title:     draft.Title,
		Author:    draft.Author,
		Sections:  draft.Sections,
		SourceURL: draft.SourceURL,
	}
	created, err := h.store.Create(r.Context(), song)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// FindVideos resolves backing video candidates for a song.
// GET /api/songs/{id}/videos
func (h *SongHandler) FindVideos(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "video search is not configured"})
		return
	}

	id := mux.Vars(r)["id"]

	song, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if song == nil {
		writeNotFound(w, h.logger, "song", id)
		return
	}

	videos, err := h.videos.SearchSongVideos(r.Context(), song.Title, song.Author)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, videos)
}

type setVideoRequest struct {
	VideoURL string `json:"video_url"`
}

// SetVideo pins the chosen backing video on the song.
// PUT /api/songs/{id}/video
func (h *SongHandler) SetVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req setVideoRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}
	if req.VideoURL == "" {
		writeValidationError(w, h.logger, "video_url is required", "video_url", req.VideoURL)
		return
	}

	if err := h.store.UpdateVideoURL(r.Context(), id, req.VideoURL); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}
