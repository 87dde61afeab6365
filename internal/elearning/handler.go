// internal/elearning/handler.go
package elearning

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the e-learning endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.handleDashboard)

	r.Get("/videos", h.handleListVideos)
	r.Post("/videos", h.handleAddVideo)
	r.Get("/videos/{resourceID}", h.handleGetVideo)

	r.Get("/audios", h.handleListAudios)
	r.Post("/audios", h.handleAddAudio)
	r.Get("/audios/{resourceID}", h.handleGetAudio)

	r.Get("/exam-papers", h.handleListExamPapers)
	r.Post("/exam-papers", h.handleAddExamPaper)

	r.Get("/marking-schemes", h.handleListMarkingSchemes)
	r.Post("/marking-schemes", h.handleAddMarkingScheme)

	r.Delete("/{resourceType}/{resourceID}", h.handleDeactivate)

	r.Get("/announcements", h.handleListAnnouncements)
	r.Post("/announcements", h.handleCreateAnnouncement)
}

func filterFromQuery(r *http.Request) Filter {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	return Filter{
		Level:    r.URL.Query().Get("level"),
		ExamCode: r.URL.Query().Get("exam_code"),
		Search:   r.URL.Query().Get("search"),
		Year:     year,
	}
}

// studentFromQuery extracts the optional student identity used for
// progress logging and dashboard personalization.
func studentFromQuery(r *http.Request) *uuid.UUID {
	raw := r.URL.Query().Get("student_id")
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.Dashboard(r.Context(), studentFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) handleListVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := h.service.ListVideos(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *Handler) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource ID", http.StatusBadRequest)
		return
	}

	video, err := h.service.GetVideo(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if student := studentFromQuery(r); student != nil {
		h.service.LogProgress(r.Context(), *student, "video", id, "view")
	}
	writeJSON(w, http.StatusOK, video)
}

func (h *Handler) handleAddVideo(w http.ResponseWriter, r *http.Request) {
	var req Video
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	video, err := h.service.AddVideo(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, video)
}

func (h *Handler) handleListAudios(w http.ResponseWriter, r *http.Request) {
	audios, err := h.service.ListAudios(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, audios)
}

func (h *Handler) handleGetAudio(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource ID", http.StatusBadRequest)
		return
	}

	audio, err := h.service.GetAudio(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if student := studentFromQuery(r); student != nil {
		h.service.LogProgress(r.Context(), *student, "audio", id, "view")
	}
	writeJSON(w, http.StatusOK, audio)
}

func (h *Handler) handleAddAudio(w http.ResponseWriter, r *http.Request) {
	var req Audio
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	audio, err := h.service.AddAudio(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, audio)
}

func (h *Handler) handleListExamPapers(w http.ResponseWriter, r *http.Request) {
	papers, err := h.service.ListExamPapers(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, papers)
}

func (h *Handler) handleAddExamPaper(w http.ResponseWriter, r *http.Request) {
	var req ExamPaper
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	paper, err := h.service.AddExamPaper(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, paper)
}

func (h *Handler) handleListMarkingSchemes(w http.ResponseWriter, r *http.Request) {
	schemes, err := h.service.ListMarkingSchemes(r.Context(), filterFromQuery(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schemes)
}

func (h *Handler) handleAddMarkingScheme(w http.ResponseWriter, r *http.Request) {
	var req MarkingScheme
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	scheme, err := h.service.AddMarkingScheme(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, scheme)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "resourceID"))
	if err != nil {
		http.Error(w, "invalid resource ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "resourceType"), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	announcements, err := h.service.ListAnnouncements(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, announcements)
}

func (h *Handler) handleCreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	announcement, err := h.service.CreateAnnouncement(r.Context(), req.Title, req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, announcement)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrResourceNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
