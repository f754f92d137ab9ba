// Package server hosts the local HTTP service: route registration, CORS for
// the rendered file:// pages, the request body cap, and the configuration
// file watcher.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/app"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/home"
	"github.com/ktanaka/promptdeck/internal/server/endpoints"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// maxRequestBody caps every request: the largest accepted image plus headroom
// for the surrounding multipart framing.
const maxRequestBody = history.MaxImageBytes + 200_000

// portScanRange is how many consecutive ports are probed when the preferred
// one is taken.
const portScanRange = 200

// Server is the promptdeck HTTP server. It binds a loopback listener at
// construction time so the final port is known before any page is rendered.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	port       int

	app        *app.State
	configPath string
	logger     *slog.Logger

	services         *svcctx.Services
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// PreferredPort is the first port tried on 127.0.0.1.
	PreferredPort int
	// App is the coordinator shared with the endpoints.
	App *app.State
	// Home is the resolved application directory.
	Home *home.Dir
	// ConfigPath, when set, is watched for external edits.
	ConfigPath string
	// Logger is the structured logger to use.
	Logger *slog.Logger
}

// New creates a new Server, binding the listener immediately. The bound port
// is recorded on the coordinator so rendered pages point at the right origin.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	listener, port, err := bindListener(cfg.PreferredPort)
	if err != nil {
		return nil, err
	}
	cfg.App.SetPort(port)

	s := &Server{
		listener:   listener,
		port:       port,
		app:        cfg.App,
		configPath: cfg.ConfigPath,
		logger:     cfg.Logger,
		services: &svcctx.Services{
			App:    cfg.App,
			Home:   cfg.Home,
			Logger: cfg.Logger,
		},
	}

	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux)

	s.httpServer = &http.Server{
		Handler:      s.withServices(s.withCORS(s.withBodyLimit(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Port returns the bound port.
func (s *Server) Port() int {
	return s.port
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// Start serves HTTP on the bound listener. It blocks until the context is
// cancelled or an error occurs. Rendered pages are refreshed first so they
// carry the bound port.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.app.RegenerateViews(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to render history pages: %w", err)
	}

	watcher, err := s.watchConfig()
	if err != nil {
		s.logger.Warn("config watcher unavailable", "error", err)
	} else if watcher != nil {
		defer watcher.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "url", s.URL())
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// watchConfig reloads the configuration store when the file changes on disk,
// so hand edits show up on the next snapshot. Editors typically replace the
// file, so the parent directory is watched and events filtered by name.
func (s *Server) watchConfig() (*fsnotify.Watcher, error) {
	if s.configPath == "" {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		watcher.Close()
		return nil, err
	}

	target := filepath.Base(s.configPath)
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := s.app.ReloadConfig(); err != nil {
					s.logger.Warn("config reload failed", "error", err)
					continue
				}
				s.logger.Info("config reloaded", "path", s.configPath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "error", err)
			}
		}
	}()
	return watcher, nil
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := svcctx.WithServices(r.Context(), s.services)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withCORS admits the rendered file:// pages (origin "null") and the local UI
// origins, nothing else.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"null": true,
		fmt.Sprintf("http://127.0.0.1:%d", s.port): true,
		fmt.Sprintf("http://localhost:%d", s.port): true,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withBodyLimit caps request bodies at the upload ceiling.
func (s *Server) withBodyLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

// bindListener binds the first free loopback port starting at preferred.
func bindListener(preferred int) (net.Listener, int, error) {
	for offset := 0; offset < portScanRange; offset++ {
		port := preferred + offset
		if port < 1 || port > 65535 {
			continue
		}
		listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err == nil {
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("failed to bind a port in %d..%d", preferred, preferred+portScanRange-1)
}
