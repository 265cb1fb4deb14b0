// Package server wires the gateway's handlers, middleware, and provider
// clients into one http.Handler.
package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/parley-ai/parley/pkg/core/completion"
	"github.com/parley-ai/parley/pkg/core/voice/stt"
	"github.com/parley-ai/parley/pkg/core/voice/tts"
	"github.com/parley-ai/parley/pkg/gateway/config"
	"github.com/parley-ai/parley/pkg/gateway/handlers"
	"github.com/parley-ai/parley/pkg/gateway/mw"
	"github.com/parley-ai/parley/pkg/gateway/store"
	"github.com/parley-ai/parley/pkg/gateway/tools"
	"github.com/parley-ai/parley/pkg/gateway/tools/adapters/exa"
	"github.com/parley-ai/parley/pkg/gateway/turn"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux
	store  *store.Store
}

// New assembles the gateway. The store is optional; passing nil disables the
// CRUD surface and turn persistence but leaves /api/converse fully working.
func New(cfg config.Config, st *store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: 10 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	groq := completion.NewGroq(cfg.GroqAPIKey)

	var cartesia *tts.CartesiaDialer
	if cfg.CartesiaEndpoint != "" {
		cartesia = tts.NewCartesiaWithEndpoint(cfg.CartesiaAPIKey, cfg.CartesiaEndpoint)
	} else {
		cartesia = tts.NewCartesia(cfg.CartesiaAPIKey)
	}

	orchestrator := &turn.Orchestrator{
		Completion:  groq,
		Transcriber: stt.NewGroq(cfg.GroqAPIKey),
		Speech:      cartesia,
		Tools: &tools.Builder{
			Exa:                 exa.NewClient(cfg.ExaAPIKey, cfg.ExaBaseURL, httpClient),
			Remote:              tools.NewMCPClient(httpClient),
			Logger:              logger,
			MaxKnowledgeResults: cfg.MaxKnowledgeResults,
		},
		Logger:        logger,
		MaxToolRounds: cfg.MaxToolRounds,
		ASRModel:      cfg.ASRModel,
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		store:  st,
	}
	s.routes(orchestrator)
	return s
}

func (s *Server) routes(orchestrator *turn.Orchestrator) {
	s.mux.Handle("/healthz", handlers.HealthHandler{})

	s.mux.Handle("/api/converse", handlers.ConverseHandler{
		Config:       s.cfg,
		Orchestrator: orchestrator,
		Store:        s.store,
		Logger:       s.logger,
	})
	s.mux.Handle("/api/agents", handlers.AgentsHandler{Store: s.store, Logger: s.logger})
	s.mux.Handle("/api/agents/", handlers.AgentsHandler{Store: s.store, Logger: s.logger})
	s.mux.Handle("/api/conversations", handlers.ConversationsHandler{Store: s.store, Logger: s.logger})
	s.mux.Handle("/api/conversations/", handlers.ConversationsHandler{Store: s.store, Logger: s.logger})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg.CORSAllowedOrigins, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}
