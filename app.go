// Copyright 2025 The Strata Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package strata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// noopLogger discards everything. It backs Logger() when no logger is
// configured, so call sites never need a nil check.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// App is the application boundary: it owns the middleware list, creates a
// fresh Context per request, runs the composed chain, translates chain
// errors into HTTP responses, and writes the buffered response to the
// wire. It implements http.Handler, so it plugs into any net/http server.
//
// Add middleware before serving traffic; the chain is composed once, on
// first request.
type App struct {
	cfg    config
	stack  []Middleware
	entry  Middleware
	freeze sync.Once
}

// New creates an application with the given options.
//
// Example:
//
//	app, err := strata.New(strata.WithLogger(slog.Default()))
//	if err != nil {
//	    return err
//	}
//	app.Use(requestid.New(), accesslog.New())
//	app.Use(router.Routes(), router.AllowedMethods())
func New(opts ...Option) (*App, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &App{cfg: *cfg}, nil
}

// MustNew creates an application and panics on invalid configuration.
func MustNew(opts ...Option) *App {
	app, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("strata: %v", err))
	}
	return app
}

// Logger returns the application's base logger.
func (a *App) Logger() *slog.Logger {
	return a.cfg.logger
}

// Use appends middleware to the application chain in execution order.
func (a *App) Use(mw ...Middleware) *App {
	a.stack = append(a.stack, mw...)
	return a
}

// UseHandler appends Handler-shaped middleware to the application chain.
func (a *App) UseHandler(handlers ...Handler) *App {
	for _, h := range handlers {
		a.stack = append(a.stack, WrapHandler(h))
	}
	return a
}

// compose freezes the middleware list into the entry function.
func (a *App) compose() Middleware {
	a.freeze.Do(func() {
		a.entry = Compose(a.stack)
	})
	return a.entry
}

// ServeHTTP handles one request: fresh context, run the chain, render any
// error, write the buffered response.
func (a *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := &Context{
		Request:  newRequest(req),
		Response: newResponse(),
		app:      a,
		state:    cloneState(a.cfg.state),
		logger:   a.cfg.logger,
	}

	err := a.run(c)
	if err != nil {
		a.handleError(c, err)
	}

	if finalizeErr := c.Response.finalize(w, c.Request.Method() == http.MethodHead); finalizeErr != nil {
		a.cfg.logger.Error("response write failed",
			"method", c.Request.Method(),
			"path", c.Request.Path(),
			"error", finalizeErr,
		)
	}
}

// run executes the chain, converting panics into errors so a broken
// handler takes down one request, not the server.
func (a *App) run(c *Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			a.cfg.logger.Error("panic recovered",
				"method", c.Request.Method(),
				"path", c.Request.Path(),
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return a.compose()(c, nil)
}

// handleError renders a settled chain error into the buffered response.
// Client errors (status < 500) expose their message; server errors respond
// with the generic status text and keep the details in the logs.
func (a *App) handleError(c *Context, err error) {
	if a.cfg.errorHandler != nil {
		a.cfg.errorHandler(c, err)
		return
	}

	status := statusOf(err)
	message := http.StatusText(status)
	var he *HTTPError
	if errors.As(err, &he) && he.Expose() {
		message = he.Message
	}

	if status >= http.StatusInternalServerError {
		a.cfg.logger.Error("request failed",
			"method", c.Request.Method(),
			"path", c.Request.Path(),
			"status", status,
			"error", err,
		)
	}

	c.Response.SetStatus(status)
	c.Response.SetHeader("Content-Type", "text/plain; charset=utf-8")
	c.Response.SetBodyString(message)
}

// handler returns the wire-facing handler, wrapping for h2c when enabled.
func (a *App) handler() http.Handler {
	if a.cfg.h2c {
		return h2c.NewHandler(a, &http2.Server{})
	}
	return a
}

// Serve runs an HTTP server on addr with graceful shutdown. Canceling the
// context triggers shutdown; pass a context from signal.NotifyContext to
// shut down on SIGINT/SIGTERM.
func (a *App) Serve(ctx context.Context, addr string) error {
	server := a.newServer(addr)
	return a.runServer(ctx, server, server.ListenAndServe, "HTTP")
}

// ServeTLS runs an HTTPS server on addr with graceful shutdown.
func (a *App) ServeTLS(ctx context.Context, addr, certFile, keyFile string) error {
	server := a.newServer(addr)
	return a.runServer(ctx, server, func() error {
		return server.ListenAndServeTLS(certFile, keyFile)
	}, "HTTPS")
}

// newServer builds an http.Server from the configured timeouts.
func (a *App) newServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           a.handler(),
		ReadTimeout:       a.cfg.server.readTimeout,
		ReadHeaderTimeout: a.cfg.server.readHeaderTimeout,
		WriteTimeout:      a.cfg.server.writeTimeout,
		IdleTimeout:       a.cfg.server.idleTimeout,
		MaxHeaderBytes:    a.cfg.server.maxHeaderBytes,
	}
}

// runServer starts the server in a goroutine and blocks until the context
// is canceled or the server fails, then shuts down gracefully within the
// configured shutdown timeout.
func (a *App) runServer(ctx context.Context, server *http.Server, start func() error, protocol string) error {
	serverErr := make(chan error, 1)
	go func() {
		a.cfg.logger.Info("server starting", "address", server.Addr, "protocol", protocol)
		if err := start(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("%s server failed: %w", protocol, err)
		}
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		a.cfg.logger.Info("server shutting down", "protocol", protocol, "reason", ctx.Err())
	}

	// The parent ctx is already canceled; a fresh context bounds how long
	// the graceful drain may take.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.server.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%s server forced to shutdown: %w", protocol, err)
	}
	a.cfg.logger.Info("server exited", "protocol", protocol)
	return nil
}
