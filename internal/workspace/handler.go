package workspace

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/busfleet/opsproxy/internal/cache"
	"github.com/busfleet/opsproxy/internal/telemetry/metrics"
	"github.com/busfleet/opsproxy/pkg"
)

// Handler proxies dashboard reads/writes to the upstream workspace.
// Reads consult the response cache first; every write invalidates the
// affected cache portion before the response is written, so a read
// right after a write is guaranteed fresh.
type Handler struct {
	gateway Gateway
	cache   *cache.ResponseCache
	metrics *metrics.Manager
}

func NewHandler(
	gateway Gateway,
	responseCache *cache.ResponseCache,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		gateway: gateway,
		cache:   responseCache,
		metrics: metricsManager,
	}
}

func (handler *Handler) HandleQueryDatabase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	databaseID := vars["id"]
	if databaseID == "" {
		pkg.WriteJSONError(w, "database id missing", http.StatusBadRequest)
		return
	}

	cacheKey := cache.DatabaseKey(databaseID)
	if payload, found := handler.cache.Get(cacheKey); found {
		log.Tracef("returning cached result for database %s", databaseID)
		handler.metrics.CounterCacheHits.Inc()
		pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payload)
		return
	}
	handler.metrics.CounterCacheMisses.Inc()

	filter, err := io.ReadAll(r.Body)
	if err != nil {
		pkg.WriteJSONError(w, "read request body", http.StatusBadRequest)
		return
	}

	payload, err := handler.gateway.QueryDatabase(r.Context(), databaseID, filter)
	if err != nil {
		handler.writeUpstreamError(w, err)
		return
	}

	handler.cache.Put(cacheKey, payload)
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payload)
}

func (handler *Handler) HandleCreatePage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		pkg.WriteJSONError(w, "read request body", http.StatusBadRequest)
		return
	}

	payload, err := handler.gateway.CreatePage(r.Context(), body)
	if err != nil {
		handler.writeUpstreamError(w, err)
		return
	}

	// invalidate the parent collection before responding, so the
	// caller's follow-up read cannot observe the pre-write payload
	var createReq struct {
		Parent struct {
			DatabaseID string `json:"database_id"`
		} `json:"parent"`
	}
	if err := json.Unmarshal(body, &createReq); err == nil && createReq.Parent.DatabaseID != "" {
		handler.cache.Invalidate(cache.DatabaseKey(createReq.Parent.DatabaseID))
	} else {
		handler.cache.Invalidate(cache.DatabaseKeyPrefix)
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payload)
}

func (handler *Handler) HandleUpdatePage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pageID := vars["id"]
	if pageID == "" {
		pkg.WriteJSONError(w, "page id missing", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		pkg.WriteJSONError(w, "read request body", http.StatusBadRequest)
		return
	}

	payload, err := handler.gateway.UpdatePage(r.Context(), pageID, body)
	if err != nil {
		handler.writeUpstreamError(w, err)
		return
	}

	// a page update can affect any cached query result
	handler.cache.Invalidate(cache.DatabaseKeyPrefix)

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, payload)
}

func (handler *Handler) HandleClearCache(w http.ResponseWriter, r *http.Request) {
	handler.cache.Clear()
	pkg.WriteJSONResponseOK(w, `{"success":true,"message":"cache cleared"}`)
}

func (handler *Handler) writeUpstreamError(w http.ResponseWriter, err error) {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) {
		pkg.WriteJSONError(w, upstreamErr.Message, upstreamErr.StatusCode)
		return
	}
	log.Errorf("upstream call failed: %s", err)
	pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
}
