// Package server assembles and runs the trainer HTTP service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/platform/timeouts"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/api"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/clashroyale"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/simulator"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// devSecretBytes sizes the throwaway signing secret used in dev mode.
const devSecretBytes = 32

// Config holds everything the server needs at startup.
type Config struct {
	HTTPAddr    string
	DatabaseURL string
	DBPath      string
	// Dev relaxes production requirements such as SESSION_SECRET.
	Dev           bool
	SessionSecret string

	ClashRoyaleAPIKey string
	ClashRoyaleAPIURL string

	CookieSecure   bool
	CookieSameSite string
	SessionTTL     time.Duration
	TokenTTL       time.Duration
	AllowedOrigins []string

	AdminEmail    string
	AdminPassword string

	CleanupInterval time.Duration
	SweepInterval   time.Duration

	Logger *zap.Logger
}

// Server hosts the trainer API.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      storage.Store
	sessions   *auth.Sessions
	games      *simulator.Registry
	cfg        Config
	logger     *zap.Logger
	closeOnce  sync.Once
}

// New opens the store, applies boot-time setup, and binds the listener.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := logging.OrNop(cfg.Logger)

	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret == "" {
		if !cfg.Dev {
			return nil, errors.New("SESSION_SECRET is required outside dev mode")
		}
		generated, err := id.NewToken(devSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate dev secret: %w", err)
		}
		logger.Warn("SESSION_SECRET not set; using a random secret, bearer tokens will not survive restarts")
		secret = generated
	}
	tokens, err := auth.NewTokens(secret, cfg.TokenTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	sameSite, err := auth.ParseSameSite(cfg.CookieSameSite)
	if err != nil {
		return nil, err
	}
	cookies := auth.CookiePolicy{Secure: cfg.CookieSecure, SameSite: sameSite}

	store, err := OpenStore(ctx, cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	logger.Info("storage ready", zap.String("backend", Backend(cfg.DatabaseURL)))

	accounts := auth.NewAccounts(store, nil, nil)
	if err := ensureAdmin(ctx, accounts, cfg, logger); err != nil {
		_ = store.Close()
		return nil, err
	}

	sessions := auth.NewSessions(store, auth.SessionsConfig{TTL: cfg.SessionTTL, Logger: logger})
	games := simulator.NewRegistry(simulator.RegistryConfig{Logger: logger})
	crClient := clashroyale.New(clashroyale.Config{
		BaseURL: cfg.ClashRoyaleAPIURL,
		APIKey:  cfg.ClashRoyaleAPIKey,
		Logger:  logger,
	})
	if !crClient.Configured() {
		logger.Warn("CLASH_ROYALE_API_KEY not set; proxy routes will fail")
	}

	apiServer, err := api.New(api.Config{
		Store:          store,
		Accounts:       accounts,
		Sessions:       sessions,
		Tokens:         tokens,
		Cookies:        cookies,
		Games:          games,
		ClashRoyale:    crClient,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on %s: %w", cfg.HTTPAddr, err)
	}

	return &Server{
		listener: listener,
		httpServer: &http.Server{
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          zap.NewStdLog(logger),
		},
		store:    store,
		sessions: sessions,
		games:    games,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func ensureAdmin(ctx context.Context, accounts *auth.Accounts, cfg Config, logger *zap.Logger) error {
	email := strings.TrimSpace(cfg.AdminEmail)
	if email == "" || cfg.AdminPassword == "" {
		return nil
	}
	admin, changed, err := accounts.EnsureAdmin(ctx, email, cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if changed {
		logger.Info("admin account ready", zap.String("user_id", admin.ID), zap.String("email", admin.Email))
	}
	return nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve runs the HTTP server and background loops until ctx ends or one of
// them fails, then shuts everything down.
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("http server listening", zap.String("addr", s.Addr()))
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return s.sessions.Run(groupCtx, s.cfg.CleanupInterval)
	})
	group.Go(func() error {
		return s.games.Run(groupCtx, s.cfg.SweepInterval)
	})
	return group.Wait()
}

// Close releases the listener and the store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				s.logger.Warn("close store", zap.Error(err))
			}
		}
	})
}

// Run creates and serves a server until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}
