package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/poiesic/minirag/answer"
	"github.com/poiesic/minirag/ingestion"
	"github.com/poiesic/minirag/session"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ingest request", "source", req.Source, "chars", len(req.Text))
	s.ingest(w, r, req.Text, req.Source)
}

func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	name := filepath.Base(header.Filename)
	text, err := ingestion.LoadBytes(name, data)
	if err != nil {
		s.logger.Warn("could not extract upload", "file", name, "err", err)
		s.respondError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	s.logger.Debug("ingest file request", "file", name, "bytes", len(data))
	s.ingest(w, r, text, name)
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, text, source string) {
	result, err := s.session.Ingest(r.Context(), text, source)
	if err != nil {
		if errors.Is(err, ingestion.ErrEmptyInput) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("ingestion failed", "source", source, "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	status := http.StatusCreated
	if result.Skipped {
		status = http.StatusOK
	}
	s.respondJSON(w, status, ingestResponse{Source: result.Source, Chunks: result.Chunks, Skipped: result.Skipped})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("query request", "question", req.Question)

	result, err := s.session.Ask(r.Context(), req.Question)
	switch {
	case err == nil:
	case errors.Is(err, answer.ErrEmptyQuestion):
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, session.ErrNothingIndexed):
		s.respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, answer.ErrInvalidCitation):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.logger.Error("query failed", "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, newQueryResponse(result))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Clear(r.Context()); err != nil {
		s.logger.Error("clear failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.counter.Count(r.Context())
	if err != nil {
		s.logger.Error("status: count chunks failed", "err", err)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, statusResponse{CurrentSource: s.session.CurrentSource(), Chunks: count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("could not write response", "err", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}
