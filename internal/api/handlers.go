package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/campaign-optimizer/internal/cache"
	"github.com/ignite/campaign-optimizer/internal/engine"
	"github.com/ignite/campaign-optimizer/internal/segmentation"
	"github.com/ignite/campaign-optimizer/internal/storage"
)

// DecisionLog persists batch outputs. Implemented by the Postgres repository;
// nil disables persistence.
type DecisionLog interface {
	RecordBatch(ctx context.Context, result *engine.BatchResult) error
}

// Handlers carries the decision engine and its optional collaborators. Cache,
// archive and decision log may each be nil; a batch run then skips that sink.
type Handlers struct {
	engine  *engine.Engine
	cache   *cache.ResultCache
	archive *storage.Storage
	log     DecisionLog
}

// NewHandlers creates the API handler set.
func NewHandlers(eng *engine.Engine, resultCache *cache.ResultCache, archive *storage.Storage, decisionLog DecisionLog) *Handlers {
	return &Handlers{engine: eng, cache: resultCache, archive: archive, log: decisionLog}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"campaigns": h.engine.Store().CampaignCount(),
		"customers": h.engine.Store().CustomerCount(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}

// IngestMetrics accepts a campaign metrics snapshot and overwrites any
// previous snapshot for the same campaign.
func (h *Handlers) IngestMetrics(w http.ResponseWriter, r *http.Request) {
	var snap engine.MetricSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, "invalid snapshot payload")
		return
	}
	if snap.CampaignID == "" {
		writeError(w, http.StatusBadRequest, "campaign_id is required")
		return
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}

	h.engine.Store().PutCampaign(&snap)
	if h.cache != nil {
		if err := h.cache.PutSnapshot(r.Context(), &snap); err != nil {
			log.Printf("[api] snapshot cache write failed: %v", err)
		}
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"campaign_id": snap.CampaignID})
}

// IngestCustomer accepts a customer profile and overwrites any previous
// profile for the same customer.
func (h *Handlers) IngestCustomer(w http.ResponseWriter, r *http.Request) {
	var profile segmentation.CustomerProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile payload")
		return
	}
	if err := segmentation.ValidateProfile(&profile); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.engine.Store().PutCustomer(&profile)
	writeJSON(w, http.StatusAccepted, map[string]string{"customer_id": profile.CustomerID})
}

// GetCampaign returns the latest stored snapshot for one campaign.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	snap, err := h.engine.Store().Campaign(chi.URLParam(r, "id"))
	if errors.Is(err, engine.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListRules returns the active rule set in evaluation order.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Rules())
}

// RunBatch executes one decision pass and fans the result out to the cache,
// archive and decision log. Sink failures are logged, not fatal: the result
// still returns to the caller.
func (h *Handlers) RunBatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.RunBatch(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.PersistBatch(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

// PersistBatch fans a batch result out to the configured sinks. Failures are
// logged, not returned: a sink outage must not discard decisions already
// made.
func (h *Handlers) PersistBatch(ctx context.Context, result *engine.BatchResult) {
	if h.cache != nil {
		if err := h.cache.PutBatch(ctx, result); err != nil {
			log.Printf("[api] batch cache write failed: %v", err)
		}
	}
	if h.archive != nil {
		if err := h.archive.ArchiveBatch(ctx, result); err != nil {
			log.Printf("[api] batch archive failed: %v", err)
		}
	}
	if h.log != nil {
		if err := h.log.RecordBatch(ctx, result); err != nil {
			log.Printf("[api] decision log write failed: %v", err)
		}
	}
}

// LatestResult returns the most recent batch result, preferring the engine's
// in-memory copy and falling back to the cache after a restart.
func (h *Handlers) LatestResult(w http.ResponseWriter, r *http.Request) {
	if result := h.engine.LastResult(); result != nil {
		writeJSON(w, http.StatusOK, result)
		return
	}
	if h.cache != nil {
		result, err := h.cache.LatestBatch(r.Context())
		if err == nil {
			writeJSON(w, http.StatusOK, result)
			return
		}
		if !errors.Is(err, engine.ErrNotFound) {
			log.Printf("[api] batch cache read failed: %v", err)
		}
	}
	writeError(w, http.StatusNotFound, "no batch has run yet")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
