// Package server exposes the analysis pipeline over HTTP: job creation,
// status polling, and artifact retrieval. Creation is gated by the owner's
// usage entitlement and hands the job to the queue without waiting on it.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/madalingavanarescu/competeai/internal/model"
	"github.com/madalingavanarescu/competeai/internal/orchestrator"
	"github.com/madalingavanarescu/competeai/internal/store"
)

// Server handles the HTTP API.
type Server struct {
	store        store.Store
	queue        *orchestrator.Queue
	entitlements Entitlements
}

func New(st store.Store, queue *orchestrator.Queue, entitlements Entitlements) *Server {
	return &Server{
		store:        st,
		queue:        queue,
		entitlements: entitlements,
	}
}

// Router builds the chi route tree.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Owner-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/", s.handleList)
		r.Get("/{jobID}", s.handleGet)
		r.Get("/{jobID}/content", s.handleContent)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createRequest struct {
	Website     string `json:"website"`
	CompanyName string `json:"company_name"`
}

type jobResponse struct {
	ID          string           `json:"id"`
	Website     string           `json:"website"`
	CompanyName string           `json:"company_name"`
	Status      model.JobStatus  `json:"status"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Counts      *store.JobCounts `json:"counts,omitempty"`
	Confidence  model.Confidence `json:"confidence,omitempty"`
}

func toJobResponse(job *model.AnalysisJob) jobResponse {
	return jobResponse{
		ID:          job.ID,
		Website:     job.Website,
		CompanyName: job.CompanyName,
		Status:      job.Status,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFrom(r)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Website == "" {
		respondError(w, http.StatusBadRequest, "website is required")
		return
	}
	if req.CompanyName == "" {
		respondError(w, http.StatusBadRequest, "company_name is required")
		return
	}

	if err := s.entitlements.CanStartAnalysis(r.Context(), ownerID); err != nil {
		if errors.Is(err, ErrLimitExceeded) {
			respondError(w, http.StatusPaymentRequired, "monthly analysis limit reached")
			return
		}
		zap.L().Error("entitlement check failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	job, err := s.store.CreateJob(r.Context(), ownerID, req.Website, req.CompanyName)
	if err != nil {
		zap.L().Error("create job failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.queue.Submit(job.ID); err != nil {
		// The job row exists but will never run; mark it failed so the
		// owner is not left polling forever.
		if updateErr := s.store.UpdateJobStatus(r.Context(), job.ID, model.JobStatusFailed, "analysis queue unavailable"); updateErr != nil {
			zap.L().Error("failed to mark unqueued job", zap.String("job_id", job.ID), zap.Error(updateErr))
		}
		respondError(w, http.StatusServiceUnavailable, "analysis queue is full, try again later")
		return
	}

	respondJSON(w, http.StatusAccepted, toJobResponse(job))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.ListJobs(r.Context(), store.JobFilter{
		OwnerID: ownerFrom(r),
		Limit:   50,
	})
	if err != nil {
		zap.L().Error("list jobs failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		zap.L().Error("get job failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := toJobResponse(job)
	if job.Status == model.JobStatusCompleted {
		counts, err := s.store.GetJobCounts(r.Context(), jobID)
		if err != nil {
			zap.L().Error("get job counts failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp.Counts = counts
		resp.Confidence = model.ComputeConfidence(counts.Competitors, counts.WithInsights, counts.Angles)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	contentType := model.ContentType(r.URL.Query().Get("type"))
	if contentType != "" && !validContentType(contentType) {
		respondError(w, http.StatusBadRequest, "unknown content type")
		return
	}

	if _, err := s.store.GetJob(r.Context(), jobID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "analysis not found")
			return
		}
		zap.L().Error("get job failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	contents, err := s.store.ListContent(r.Context(), jobID, contentType)
	if err != nil {
		zap.L().Error("list content failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, contents)
}

func validContentType(ct model.ContentType) bool {
	for _, known := range model.AllContentTypes {
		if ct == known {
			return true
		}
	}
	return false
}

// ownerFrom extracts the caller identity. Authentication itself lives at the
// edge; this trusts the forwarded header and falls back to an anonymous
// owner for unauthenticated local use.
func ownerFrom(r *http.Request) string {
	if owner := r.Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	return "anonymous"
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encode response failed", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
