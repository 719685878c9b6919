// Package server exposes extraction, crawling and search over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"metafilter/internal/catalog"
	"metafilter/internal/crawler"
	"metafilter/internal/filter"
	"metafilter/internal/ioformats"
	"metafilter/internal/models"
)

const maxHTMLBody = 5 << 20

type crawlReq struct {
	URL string `json:"url"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

type crawlResp struct {
	ID     string              `json:"id"`
	Result *models.CrawlResult `json:"result"`
}

type searchResp struct {
	Query   string           `json:"query"`
	Terms   int              `json:"terms"`
	Count   int              `json:"count"`
	Results []*catalog.Entry `json:"results"`
}

type Server struct {
	batch     *crawler.Batch
	extractor crawler.Extractor
	catalog   *catalog.Catalog
	logger    *slog.Logger
}

func New(batch *crawler.Batch, extractor crawler.Extractor, cat *catalog.Catalog, logger *slog.Logger) *Server {
	return &Server{batch: batch, extractor: extractor, catalog: cat, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "records": s.catalog.Len()})
	})
	mux.HandleFunc("POST /extract", s.handleExtract)
	mux.HandleFunc("POST /crawl", s.handleCrawl)
	mux.HandleFunc("POST /crawl/batch", s.handleBatch)
	mux.HandleFunc("POST /crawl/upload", s.handleUpload)
	mux.HandleFunc("GET /records", s.handleList)
	mux.HandleFunc("POST /records", s.handleCreate)
	mux.HandleFunc("GET /records/{id}", s.handleGet)
	mux.HandleFunc("DELETE /records/{id}", s.handleDelete)
	mux.HandleFunc("GET /search", s.handleSearch)
	return logRequest(s.logger, mux)
}

// POST /extract  (raw HTML body)
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	md, err := s.extractor.Extract(http.MaxBytesReader(w, r.Body, maxHTMLBody), r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, md)
}

// POST /crawl  { "url": "https://..." }
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	res, err := s.batch.One(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	e := s.catalog.Add(res.Meta)
	writeJSON(w, http.StatusOK, crawlResp{ID: e.ID, Result: &res})
}

// POST /crawl/batch  { "urls": ["https://...", "..."] }
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	outcomes := s.batch.Run(r.Context(), req.URLs)
	for _, o := range outcomes {
		s.store(o)
	}
	writeJSON(w, http.StatusOK, outcomes)
}

// POST /crawl/upload (multipart file=...) -> NDJSON stream
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "multipart parse error")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part 'file' required")
		return
	}
	defer f.Close()

	urls, err := ioformats.DecodeURLs(f, filepath.Ext(hdr.Filename))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	s.batch.Stream(r.Context(), urls, func(o models.CrawlOutcome) {
		s.store(o)
		_ = enc.Encode(o)
		if flusher != nil {
			flusher.Flush()
		}
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.List())
}

// POST /records  (Metadata JSON)
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var md models.Metadata
	if err := json.NewDecoder(r.Body).Decode(&md); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeJSON(w, http.StatusCreated, s.catalog.Add(md))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.catalog.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.catalog.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /search?q=...
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results := s.catalog.Search(q)
	writeJSON(w, http.StatusOK, searchResp{
		Query:   q,
		Terms:   len(filter.Terms(q)),
		Count:   len(results),
		Results: results,
	})
}

func (s *Server) store(o models.CrawlOutcome) {
	if o.Result != nil {
		s.catalog.Add(o.Result.Meta)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func logRequest(l *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		l.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
