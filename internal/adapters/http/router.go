// Package httpadapter exposes the ingestion and question answering
// pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ivmelnik/groundfetch/internal/core/domain"
	"github.com/ivmelnik/groundfetch/internal/core/ports"
	"github.com/ivmelnik/groundfetch/internal/observability/metrics"
)

const serviceName = "groundfetch-api"

// Options carries traffic-control settings for the public surface.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueTimeout   time.Duration
}

type Router struct {
	opts      Options
	ingest    ports.DocumentIngestor
	docs      ports.DocumentReader
	rebuilder ports.IndexRebuilder
	qa        ports.QuestionAnswerer
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	opts Options,
	ingest ports.DocumentIngestor,
	docs ports.DocumentReader,
	rebuilder ports.IndexRebuilder,
	qa ports.QuestionAnswerer,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		opts:      opts,
		ingest:    ingest,
		docs:      docs,
		rebuilder: rebuilder,
		qa:        qa,
		metrics:   m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/index/rebuild", rt.rebuildIndex)
	mux.HandleFunc("/v1/qa/query", rt.answerQuestion)
	mux.HandleFunc("/v1/qa/explore", rt.exploreCorpus)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	queueTimeout := rt.opts.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = 5 * time.Second
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxConcurrent, queueTimeout)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingest.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) rebuildIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	start := time.Now()
	stats, err := rt.rebuilder.Rebuild(r.Context())
	if rt.metrics != nil {
		chunks := 0
		if stats != nil {
			chunks = stats.Chunks
		}
		rt.metrics.RecordIndexRebuild(serviceName, chunks, time.Since(start), err)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) answerQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	result, err := rt.qa.Answer(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordQAObservation(serviceName, "query", len(result.Evidence), time.Since(start))
		rt.metrics.RecordSelfCheckPasses(serviceName, "query", result.Attempts)
		if result.RerankUsedFallback {
			rt.metrics.RecordRerankFallback(serviceName)
		}
		if result.Answer == domain.FallbackAnswer {
			rt.metrics.RecordFallbackAnswer(serviceName, "query")
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) exploreCorpus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	start := time.Now()
	exploration, err := rt.qa.Explore(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordQAObservation(serviceName, "explore", len(exploration.Questions), time.Since(start))
	}
	writeJSON(w, http.StatusOK, exploration)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
