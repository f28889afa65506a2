// Package server exposes the compiler over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/r9s-ai/xcompile/internal/logx"
	"github.com/r9s-ai/xcompile/pkg/bindlang"
	"github.com/r9s-ai/xcompile/pkg/config"
	"github.com/r9s-ai/xcompile/pkg/xcompile"
)

const shutdownTimeout = 5 * time.Second

// Server is the configured HTTP service.
type Server struct {
	httpServer  *http.Server
	logger      *log.Logger
	accessClose io.Closer
}

// New builds the service from cfg. HTTP/2 without TLS is accepted alongside
// HTTP/1.1.
func New(cfg *config.Config, reg *bindlang.Registry, logger *log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: nil config")
	}
	if reg == nil {
		return nil, errors.New("server: nil registry")
	}
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	opts := RouterOptions{
		Compiler:     xcompile.New(xcompile.WithRegistry(reg), xcompile.WithLogger(logger)),
		Registry:     reg,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	var accessClose io.Closer
	if cfg.Logging.AccessLog {
		format := cfg.Logging.AccessLogFormat
		if strings.TrimSpace(format) == "" {
			format = logx.DefaultAccessLogFormat
		}
		f, err := logx.CompileAccessLogFormat(format)
		if err != nil {
			return nil, fmt.Errorf("compile access_log_format: %w", err)
		}
		l, closer, color, err := openAccessLogger(cfg)
		if err != nil {
			return nil, fmt.Errorf("init access log: %w", err)
		}
		opts.AccessFormat = f
		opts.AccessLogger = l
		opts.AccessColor = color
		accessClose = closer
	}

	if strings.EqualFold(cfg.Logging.Level, "debug") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := NewRouter(opts)
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Server.Listen,
			Handler:           h2c.NewHandler(engine, &http2.Server{}),
			ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
			ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeoutMs) * time.Millisecond,
			WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutMs) * time.Millisecond,
			ErrorLog:          logger,
		},
		logger:      logger,
		accessClose: accessClose,
	}, nil
}

// openAccessLogger writes to logging.access_log_path when set and to stdout
// otherwise. Color is only used on stdout.
func openAccessLogger(cfg *config.Config) (*log.Logger, io.Closer, bool, error) {
	path := cfg.Resolve(cfg.Logging.AccessLogPath)
	if path == "" {
		return log.New(os.Stdout, "", 0), nil, logx.UseColor(os.Stdout, cfg.Logging.Color), nil
	}
	dir := filepath.Dir(path)
	if strings.TrimSpace(dir) != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, false, err
		}
	}
	// #nosec G304 -- access_log_path comes from trusted config/env.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, false, err
	}
	return log.New(f, "", 0), f, false, nil
}

// Close releases the access log file, if any.
func (s *Server) Close() error {
	if s == nil || s.accessClose == nil {
		return nil
	}
	return s.accessClose.Close()
}

// Handler returns the root handler, h2c included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	s.logger.Printf("xcompile listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	s.logger.Printf("xcompile stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}
