// Package api serves the trainer's JSON HTTP API.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/clashroyale"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/simulator"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"go.uber.org/zap"
)

// Config wires the API's dependencies.
type Config struct {
	Store    storage.Store
	Accounts *auth.Accounts
	Sessions *auth.Sessions
	// Tokens may be nil to disable bearer tokens.
	Tokens         *auth.Tokens
	Cookies        auth.CookiePolicy
	Games          *simulator.Registry
	ClashRoyale    *clashroyale.Client
	AllowedOrigins []string
	Now            func() time.Time
	IDGenerator    func() (string, error)
	Logger         *zap.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	store       storage.Store
	accounts    *auth.Accounts
	sessions    *auth.Sessions
	tokens      *auth.Tokens
	cookies     auth.CookiePolicy
	games       *simulator.Registry
	clashRoyale *clashroyale.Client
	authn       *auth.Authenticator
	origins     []string
	now         func() time.Time
	newID       func() (string, error)
	logger      *zap.Logger
	errs        errorWriter
}

// New validates cfg and builds a Server.
func New(cfg Config) (*Server, error) {
	switch {
	case cfg.Store == nil:
		return nil, errors.New("api: store is required")
	case cfg.Accounts == nil:
		return nil, errors.New("api: accounts are required")
	case cfg.Sessions == nil:
		return nil, errors.New("api: sessions are required")
	case cfg.Games == nil:
		return nil, errors.New("api: game registry is required")
	case cfg.ClashRoyale == nil:
		return nil, errors.New("api: clash royale client is required")
	}
	s := &Server{
		store:       cfg.Store,
		accounts:    cfg.Accounts,
		sessions:    cfg.Sessions,
		tokens:      cfg.Tokens,
		cookies:     cfg.Cookies,
		games:       cfg.Games,
		clashRoyale: cfg.ClashRoyale,
		origins:     cfg.AllowedOrigins,
		now:         cfg.Now,
		newID:       cfg.IDGenerator,
		logger:      logging.OrNop(cfg.Logger),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = id.NewID
	}
	s.errs = errorWriter{logger: s.logger}
	s.authn = auth.NewAuthenticator(s.sessions, s.tokens, s.store, s.errs.write, s.logger)
	return s, nil
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.register(mux)
	return Chain(mux,
		RecoverPanic(s.logger),
		Trace(),
		CORS(s.origins),
		Locale(),
		s.authn.Middleware,
		RequestLog(s.logger),
	)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.errs.write(w, r, err)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	if err := WriteJSON(w, status, payload); err != nil {
		s.logger.Debug("write response", zap.Error(err))
	}
}
