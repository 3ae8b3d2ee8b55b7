package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/usecase/discovery"
)

const defaultBatchSize = 10

// Discoverer запускает подбор для профиля.
type Discoverer interface {
	DiscoverForProfile(ctx context.Context, profileID string, prefs domain.DiscoveryPreferences) domain.DiscoveryResult
}

// Dispatcher ставит отложенные задачи подбора.
type Dispatcher interface {
	Dispatch(ctx context.Context, job domain.DiscoveryJob) (domain.DiscoveryJob, bool, error)
}

// Handler обслуживает HTTP API подбора и очереди.
type Handler struct {
	discovery  Discoverer
	dispatcher Dispatcher
	queue      domain.CandidateQueue
	exclusions domain.ExclusionStore
	maxAge     time.Duration
	maxDistKm  float64
	validate   *validator.Validate
	log        zerolog.Logger
}

// NewHandler создаёт обработчики. dispatcher и exclusions могут быть nil:
// соответствующие маршруты отвечают 503. defaultMaxDistanceKm подставляется,
// когда запрос не задаёт радиус; ноль оставляет значение домена.
func NewHandler(
	discovery Discoverer,
	dispatcher Dispatcher,
	queue domain.CandidateQueue,
	exclusions domain.ExclusionStore,
	defaultMaxDistanceKm float64,
	defaultMaxAge time.Duration,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		discovery:  discovery,
		dispatcher: dispatcher,
		queue:      queue,
		exclusions: exclusions,
		maxAge:     defaultMaxAge,
		maxDistKm:  defaultMaxDistanceKm,
		validate:   validator.New(),
		log:        logger.With().Str("component", "httpapi").Logger(),
	}
}

// Routes регистрирует маршруты.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/profiles/{id}/discover", h.discover)
		r.Post("/profiles/{id}/discover/async", h.discoverAsync)
		r.Post("/owners/{owner}/dismiss/{profile}", h.dismiss)

		r.Get("/queue/batch", h.nextBatch)
		r.Get("/queue/stats", h.stats)
		r.Post("/queue/expire", h.expire)
		r.Delete("/queue/{profile}", h.remove)
		r.Delete("/queue", h.clear)
	})
}

func (h *Handler) basePreferences() domain.DiscoveryPreferences {
	prefs := domain.DefaultPreferences()
	if h.maxDistKm > 0 {
		prefs.MaxDistanceKm = h.maxDistKm
	}
	return prefs
}

func (h *Handler) discover(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeDiscover(w, r)
	if !ok {
		return
	}
	res := h.discovery.DiscoverForProfile(r.Context(), chi.URLParam(r, "id"), req.preferences(h.basePreferences()))
	if !res.OK() {
		reason := discovery.FailureReason(res.Err)
		writeJSONStatus(w, failureStatus(reason), failureResponse{
			Error:     res.Err.Error(),
			Reason:    reason,
			RequestID: res.RequestID,
		})
		return
	}
	resp := discoverResponse{RequestID: res.RequestID, Profiles: res.Profiles, Scores: res.Scores}
	if resp.Profiles == nil {
		resp.Profiles = []domain.Profile{}
		resp.Scores = []domain.ProfileScore{}
	}
	writeJSON(w, resp)
}

func (h *Handler) discoverAsync(w http.ResponseWriter, r *http.Request) {
	if h.dispatcher == nil {
		writeError(w, http.StatusServiceUnavailable, "async discovery is disabled")
		return
	}
	req, ok := h.decodeDiscover(w, r)
	if !ok {
		return
	}
	job, queued, err := h.dispatcher.Dispatch(r.Context(), req.job(chi.URLParam(r, "id"), h.basePreferences()))
	if err != nil {
		if errors.Is(err, discovery.ErrEmptyProfile) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("httpapi: не удалось поставить задачу подбора")
		writeError(w, http.StatusInternalServerError, "failed to enqueue discovery")
		return
	}
	writeJSONStatus(w, http.StatusAccepted, jobResponse{JobID: job.ID, Queued: queued})
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	if h.exclusions == nil {
		writeError(w, http.StatusServiceUnavailable, "exclusions are disabled")
		return
	}
	owner, profile := chi.URLParam(r, "owner"), chi.URLParam(r, "profile")
	if err := h.exclusions.Exclude(r.Context(), owner, profile); err != nil {
		h.log.Error().Err(err).Str("owner", owner).Str("profile", profile).Msg("httpapi: не удалось скрыть профиль")
		writeError(w, http.StatusInternalServerError, "failed to dismiss profile")
		return
	}
	h.queue.Remove(profile)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) nextBatch(w http.ResponseWriter, r *http.Request) {
	q := batchQuery{Size: defaultBatchSize}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		q.Size = size
	}
	if err := h.validate.Struct(q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profiles := h.queue.NextBatch(q.Size)
	metrics.ObserveBatch(len(profiles))
	writeJSON(w, batchResponse{Profiles: profiles})
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, h.queue.Stats())
}

func (h *Handler) expire(w http.ResponseWriter, r *http.Request) {
	maxAge := h.maxAge
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "max_age must be a non-negative duration")
			return
		}
		maxAge = parsed
	}
	removed := h.queue.Expire(maxAge)
	metrics.ObserveExpired(removed)
	writeJSON(w, expireResponse{Removed: removed})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	h.queue.Remove(chi.URLParam(r, "profile"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clear(w http.ResponseWriter, _ *http.Request) {
	h.queue.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeDiscover(w http.ResponseWriter, r *http.Request) (discoverRequest, bool) {
	defer r.Body.Close()
	var req discoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func failureStatus(reason string) int {
	switch reason {
	case "not_found":
		return http.StatusNotFound
	case "upstream":
		return http.StatusBadGateway
	case "canceled":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, failureResponse{Error: msg})
}
