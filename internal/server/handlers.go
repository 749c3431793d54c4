package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/qadesk/internal/agent"
	"github.com/hyperjump/qadesk/internal/guardrail"
	"github.com/hyperjump/qadesk/internal/indexer"
	"github.com/hyperjump/qadesk/internal/models"
	"github.com/hyperjump/qadesk/internal/qa"
	"github.com/hyperjump/qadesk/internal/storage"
	"github.com/hyperjump/qadesk/internal/store"
	"go.uber.org/zap"
)

const (
	uploadField       = "files"
	multipartMemory   = 32 << 20
	defaultSearchSize = 10
	maxListLimit      = 1000
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.config.Server.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[uploadField]
	if len(files) == 0 {
		s.respondError(w, http.StatusBadRequest, "no files uploaded (field \"files\")")
		return
	}
	for _, fh := range files {
		if !indexer.ExtensionAllowed(filepath.Ext(fh.Filename), s.config.Ingest.Extensions) {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", fh.Filename))
			return
		}
	}

	docs := make([]*models.Document, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		path, err := s.deps.Uploads.Save(fh.Filename, f, 0)
		_ = f.Close()
		if err != nil {
			s.logger.Error("upload save failed", zap.String("filename", fh.Filename), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.logger.Debug("upload saved", zap.String("filename", fh.Filename), zap.String("path", path))
		doc, err := s.deps.Indexer.Ingest(r.Context(), indexer.Source{Path: path, Title: filepath.Base(fh.Filename)}, 0)
		if err != nil {
			s.logger.Error("upload ingestion failed", zap.String("filename", fh.Filename), zap.Error(err))
			s.respondError(w, statusFor(err), err.Error())
			return
		}
		docs = append(docs, doc)
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{
		Message:   fmt.Sprintf("%d document(s) uploaded and indexed.", len(docs)),
		Documents: docs,
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("query request", zap.String("question", req.Question),
		zap.Bool("use_agent", req.UseAgent), zap.String("agent_type", req.AgentType))
	res, err := s.deps.Engine.Query(r.Context(), &req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("query failed", zap.Error(err))
		}
		s.respondError(w, status, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, res.Body())
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	k, err := intParam(r, "k", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if maxK := s.config.Retrieval.MaxK; maxK > 0 && k > maxK {
		k = maxK
	}
	chunks, err := s.deps.Store.Retrieve(r.Context(), q, k)
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.RetrieveResponse{Query: q, Chunks: chunks})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Keyword == nil {
		s.respondError(w, http.StatusNotImplemented, "keyword search not enabled")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(r, "limit", defaultSearchSize)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fuzzy, _ := strconv.ParseBool(r.URL.Query().Get("fuzzy"))
	out, err := KeywordSearch(r.Context(), s.deps, q, limit, fuzzy)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"query": q, "hits": out})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	docs, err := s.deps.Catalog.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Catalog.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, statusFor(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := CollectStatus(r.Context(), s.deps, s.config)
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var banned *guardrail.BannedTermError
	switch {
	case errors.As(err, &banned),
		errors.Is(err, models.ErrInvalidRequest),
		errors.Is(err, qa.ErrUnknownAgent):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrEmptyIndex):
		return http.StatusConflict
	case errors.Is(err, agent.ErrNoContext),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
