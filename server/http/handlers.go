package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/w-h-a/faqchat/config"
	"github.com/w-h-a/faqchat/embedder"
	"github.com/w-h-a/faqchat/engine"
	"github.com/w-h-a/faqchat/generator"
	"github.com/w-h-a/faqchat/index"
)

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response struct {
		Text    string       `json:"text"`
		Sources []sourceView `json:"sources,omitempty"`
	} `json:"response"`
}

type sourceView struct {
	Kind  string  `json:"kind"`
	Text  string  `json:"text"`
	Score float32 `json:"score"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Query) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "Query is required",
		})
		return
	}

	answer, err := s.engine.Answer(r.Context(), req.Query, nil)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidQuery) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: "Query is required",
			})
			return
		}

		s.options.Logger.ErrorContext(r.Context(), "failed to process query", "error", err)

		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process query",
			Details: err.Error(),
			Type:    classify(err),
		})
		return
	}

	var rsp chatResponse
	rsp.Response.Text = answer.Text
	for _, src := range answer.Sources {
		rsp.Response.Sources = append(rsp.Response.Sources, sourceView{
			Kind:  src.Metadata.Kind,
			Text:  src.Text,
			Score: src.Score,
		})
	}

	writeJSON(w, http.StatusOK, rsp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: "No index configured",
		})
		return
	}

	stats, err := s.index.Stats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to describe index",
			Details: err.Error(),
			Type:    classify(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":      stats.Count,
		"dimension":  stats.Dimension,
		"namespaces": stats.Namespaces,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error: "Method not allowed",
	})
}

// classify maps an error chain to the taxonomy tag clients see.
func classify(err error) string {
	var (
		configErr     *config.Error
		embedErr      *embedder.Error
		indexErr      *index.Error
		generatorErr  *generator.Error
		retrievalErr  *engine.RetrievalError
		completionErr *engine.CompletionError
	)

	switch {
	case errors.As(err, &configErr):
		return "ConfigurationError"
	case errors.As(err, &retrievalErr):
		if errors.As(err, &embedErr) {
			return "EmbeddingFailure"
		}
		return "RetrievalFailure"
	case errors.As(err, &completionErr), errors.As(err, &generatorErr):
		return "CompletionFailure"
	case errors.As(err, &embedErr):
		return "EmbeddingFailure"
	case errors.As(err, &indexErr):
		return "IndexFailure"
	default:
		return "Error"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
