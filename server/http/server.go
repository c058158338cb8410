// Package http exposes the chat service over a thin JSON boundary:
// one POST endpoint per query, plus stats and health probes. All
// conversation state lives client-side; the server is stateless.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/w-h-a/faqchat/engine"
	"github.com/w-h-a/faqchat/generator"
	"github.com/w-h-a/faqchat/index"
)

// Engine is the slice of the query engine the server needs.
type Engine interface {
	Answer(ctx context.Context, query string, history []generator.Message) (*engine.Answer, error)
}

type Server struct {
	options Options
	engine  Engine
	index   index.Index
	server  *http.Server
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/api/chat", s.handleChat).Methods(http.MethodPost)
	router.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)

	var handler http.Handler = router
	for i := len(s.options.Middleware) - 1; i >= 0; i-- {
		handler = s.options.Middleware[i](handler)
	}

	return handler
}

func (s *Server) Run() error {
	s.server = &http.Server{
		Addr:              s.options.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.options.Logger.Info("http server listening", "address", s.options.Address)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func NewServer(e Engine, idx index.Index, opts ...Option) *Server {
	if e == nil {
		panic("engine is required")
	}

	return &Server{
		options: NewOptions(opts...),
		engine:  e,
		index:   idx,
	}
}
