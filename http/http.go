// Copyright (c) 2025 The quickserve Authors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http provides an HTTP/HTTPS server which implements the
// app.Runtime interface. A Runtime listens on a single port, serving
// either plaintext HTTP or, when certificate and private key files are
// configured, HTTPS. Endpoints are registered up front via options and
// served by a method aware mux with deterministic 404, 405 and OPTIONS
// fallbacks.
package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/quickserve/quickserve/endpoint"
	"github.com/quickserve/quickserve/internal/try"
	"github.com/quickserve/quickserve/mux"
	"github.com/quickserve/quickserve/pkg/health"
	"github.com/quickserve/quickserve/pkg/noop"
	"github.com/quickserve/quickserve/pkg/slogfield"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// DefaultServerHeader is the Server response header value used when
// none is configured.
const DefaultServerHeader = "quickserve"

type runtimeOptions struct {
	port       uint
	logHandler slog.Handler

	muxOptions    []mux.Option
	registrations []registration

	tlsConfig *tls.Config
	certFile  string
	keyFile   string

	serverHeader   string
	defaultHeaders http.Header

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	readiness health.Metric
	liveness  health.Metric
}

type registration struct {
	method  mux.Method
	pattern string
	build   func(*runtimeOptions) http.Handler
}

// RuntimeOption defines a configuration option for Runtime.
type RuntimeOption func(*runtimeOptions)

// ListenOnPort will configure the HTTP server to listen on the given port.
//
// Default port is 8080.
func ListenOnPort(port uint) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.port = port
	}
}

// LogHandler configures the underlying slog.Handler used for all
// server and endpoint logging.
func LogHandler(h slog.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.logHandler = h
	}
}

// Handle registers a http.Handler for the given method and path pattern.
func Handle(method mux.Method, pattern string, h http.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.registrations = append(ro.registrations, registration{
			method:  method,
			pattern: pattern,
			build: func(*runtimeOptions) http.Handler {
				return h
			},
		})
	}
}

// HandleFunc registers a http.HandlerFunc for the given method and path pattern.
func HandleFunc(method mux.Method, pattern string, f func(http.ResponseWriter, *http.Request)) RuntimeOption {
	return Handle(method, pattern, http.HandlerFunc(f))
}

// RegisterEndpoint registers an endpoint.Handler for the given method
// and path pattern. The handler is adapted with endpoint.NewHandler
// and inherits the runtime log handler unless overridden via opts.
func RegisterEndpoint(method mux.Method, pattern string, h endpoint.Handler, opts ...endpoint.HandlerOption) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.registrations = append(ro.registrations, registration{
			method:  method,
			pattern: pattern,
			build: func(ros *runtimeOptions) http.Handler {
				opts := append([]endpoint.HandlerOption{endpoint.LogHandler(ros.logHandler)}, opts...)
				return endpoint.NewHandler(h, opts...)
			},
		})
	}
}

// NotFoundHandler overrides the handler used for requests
// that match no registered path.
func NotFoundHandler(h http.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.muxOptions = append(ro.muxOptions, mux.NotFoundHandler(h))
	}
}

// MethodNotAllowedHandler overrides the handler used for requests
// that match a registered path but none of its methods.
func MethodNotAllowedHandler(h http.Handler) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.muxOptions = append(ro.muxOptions, mux.MethodNotAllowedHandler(h))
	}
}

// DisableAutoOptions disables the automatic handling of OPTIONS
// requests for registered paths.
func DisableAutoOptions() RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.muxOptions = append(ro.muxOptions, mux.DisableAutoOptions())
	}
}

// TLSConfig configures the server to serve HTTPS with the given
// tls.Config. It takes precedence over TLSWithFiles.
func TLSConfig(cfg *tls.Config) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.tlsConfig = cfg
	}
}

// TLSWithFiles configures the server to serve HTTPS using the
// certificate and private key read from the given PEM files. The files
// are loaded when Run is called, before any socket is bound, so a bad
// path or malformed material fails with a TLSMaterialError and leaves
// nothing listening.
func TLSWithFiles(certFile, keyFile string) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.certFile = certFile
		ro.keyFile = keyFile
	}
}

// ServerHeader overrides the value of the Server header set
// on every response. Setting it to the empty string suppresses
// the header entirely.
func ServerHeader(banner string) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.serverHeader = banner
	}
}

// DefaultHeader sets a header on every response before the endpoint
// handler runs. Handlers can still override it.
func DefaultHeader(key, value string) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.defaultHeaders.Set(key, value)
	}
}

// ReadTimeout sets the maximum duration for reading an entire request.
func ReadTimeout(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.readTimeout = d
	}
}

// WriteTimeout sets the maximum duration before timing out response writes.
func WriteTimeout(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.writeTimeout = d
	}
}

// IdleTimeout sets the maximum time to wait for the next request on a
// keep-alive connection.
func IdleTimeout(d time.Duration) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.idleTimeout = d
	}
}

// Readiness registers the health.Metric reported by the
// "/health/readiness" endpoint.
func Readiness(m health.Metric) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.readiness = m
	}
}

// Liveness registers the health.Metric reported by the
// "/health/liveness" endpoint.
func Liveness(m health.Metric) RuntimeOption {
	return func(ro *runtimeOptions) {
		ro.liveness = m
	}
}

// Runtime is an HTTP/HTTPS server runtime.
type Runtime struct {
	port   uint
	listen func(string, string) (net.Listener, error)

	log *slog.Logger

	tlsConfig *tls.Config
	certFile  string
	keyFile   string

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration

	h http.Handler

	started *health.Binary
}

// NewRuntime initializes a Runtime.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	ros := &runtimeOptions{
		port:           8080,
		logHandler:     noop.LogHandler{},
		serverHeader:   DefaultServerHeader,
		defaultHeaders: make(http.Header),
		liveness:       &health.Binary{},
		readiness:      &health.Binary{},
	}
	for _, opt := range opts {
		opt(ros)
	}

	started := &health.Binary{}
	log := slog.New(ros.logHandler)

	m := mux.New(ros.muxOptions...)
	registerEndpoint(m, mux.MethodGet, "/health/startup", health.NewHandler(started))
	registerEndpoint(m, mux.MethodGet, "/health/liveness", health.NewHandler(ros.liveness))
	registerEndpoint(m, mux.MethodGet, "/health/readiness", health.NewHandler(ros.readiness))
	for _, reg := range ros.registrations {
		registerEndpoint(m, reg.method, reg.pattern, reg.build(ros))
	}

	var h http.Handler = m
	h = recoverHandler(h, log)
	h = defaultHeadersHandler(h, ros.serverHeader, ros.defaultHeaders)
	h = logHandler(h, log)

	return &Runtime{
		port:         ros.port,
		listen:       net.Listen,
		log:          log,
		tlsConfig:    ros.tlsConfig,
		certFile:     ros.certFile,
		keyFile:      ros.keyFile,
		readTimeout:  ros.readTimeout,
		writeTimeout: ros.writeTimeout,
		idleTimeout:  ros.idleTimeout,
		h:            h,
		started:      started,
	}
}

// Run implements the app.Runtime interface. It blocks serving requests
// until ctx is cancelled or the server fails, then gracefully shuts down.
func (rt *Runtime) Run(ctx context.Context) error {
	tlsConfig, err := rt.loadTLSConfig()
	if err != nil {
		rt.log.Error("failed to load tls material", slogfield.Error(err))
		return err
	}

	addr := fmt.Sprintf(":%d", rt.port)
	ls, err := rt.listen("tcp", addr)
	if err != nil {
		rt.log.Error("failed to listen for connections", slogfield.Error(err))
		return BindError{Addr: addr, Cause: err}
	}
	scheme := "http"
	if tlsConfig != nil {
		scheme = "https"
		ls = tls.NewListener(ls, tlsConfig)
	}

	s := &http.Server{
		Handler: otelhttp.NewHandler(
			rt.h,
			"server",
			otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		),
		ReadTimeout:  rt.readTimeout,
		WriteTimeout: rt.writeTimeout,
		IdleTimeout:  rt.idleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		defer rt.log.Info("shut down service")

		rt.log.Info("shutting down service")
		return s.Shutdown(ctx)
	})
	g.Go(func() error {
		rt.started.Set(true)
		rt.log.Info(
			"started service",
			slogfield.String("scheme", scheme),
			slogfield.String("addr", ls.Addr().String()),
		)
		return s.Serve(ls)
	})

	err = g.Wait()
	if err == nil || err == http.ErrServerClosed {
		return nil
	}
	rt.log.Error("service encountered unexpected error", slogfield.Error(err))
	return err
}

func (rt *Runtime) loadTLSConfig() (*tls.Config, error) {
	if rt.tlsConfig != nil {
		cfg := rt.tlsConfig.Clone()
		if len(cfg.NextProtos) == 0 {
			cfg.NextProtos = []string{"h2", "http/1.1"}
		}
		return cfg, nil
	}
	if rt.certFile == "" && rt.keyFile == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(rt.certFile, rt.keyFile)
	if err != nil {
		return nil, TLSMaterialError{
			CertFile: rt.certFile,
			KeyFile:  rt.keyFile,
			Cause:    err,
		}
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{"h2", "http/1.1"},
	}, nil
}

func registerEndpoint(m *mux.Mux, method mux.Method, pattern string, h http.Handler) {
	m.Handle(
		method,
		pattern,
		otelhttp.WithRouteTag(pattern, h),
	)
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// recoverHandler isolates handler panics to the request being served.
// endpoint.Handler panics are already recovered before reaching here,
// this covers raw http.Handlers.
func recoverHandler(h http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw, ok := w.(*statusRecorder)
		if !ok {
			sw = &statusRecorder{ResponseWriter: w}
		}
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			err := try.PanicError{Value: v}
			log.Error(
				"handler panicked",
				slogfield.String("method", r.Method),
				slogfield.String("path", r.URL.Path),
				slogfield.Error(err),
			)
			if sw.statusCode == 0 {
				http.Error(sw, "Server Error", http.StatusInternalServerError)
			}
		}()
		h.ServeHTTP(sw, r)
	})
}

func defaultHeadersHandler(h http.Handler, serverHeader string, headers http.Header) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		if serverHeader != "" {
			header.Set("Server", serverHeader)
		}
		for key, vals := range headers {
			header[key] = vals
		}
		h.ServeHTTP(w, r)
	})
}

func logHandler(h http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		h.ServeHTTP(sw, r)

		statusCode := sw.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		log.Info(
			"handled request",
			slogfield.String("method", r.Method),
			slogfield.String("path", r.URL.Path),
			slogfield.String("remote_addr", r.RemoteAddr),
			slogfield.Int("status_code", statusCode),
			slogfield.Duration("duration", time.Since(start)),
		)
	})
}
