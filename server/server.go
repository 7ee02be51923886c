// Copyright 2020 Stafi Protocol
// SPDX-License-Identifier: LGPL-3.0-only

package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ChainSafe/log15"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var ShutdownTimeout = 5 * time.Second

// unmatchedRoute is the route label of requests no route matched.
const unmatchedRoute = "unmatched"

var requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dashboard",
	Name:      "http_requests_total",
	Help:      "HTTP requests by route and status code.",
}, []string{"method", "route", "code"})

// RegisterMetrics adds the server collectors to reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	if err := reg.Register(requestsTotal); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
			return err
		}
	}
	return nil
}

type Options struct {
	Listen       string
	AllowOrigins []string
	RateRPS      float64
	RateBurst    int
}

type Server struct {
	opts     Options
	backend  Backend
	gatherer prometheus.Gatherer
	limiter  *rateLimiter
	srv      *http.Server
	log      log15.Logger
	sysErr   chan<- error
}

func NewServer(opts Options, backend Backend, gatherer prometheus.Gatherer, log log15.Logger, sysErr chan<- error) *Server {
	if len(opts.AllowOrigins) == 0 {
		opts.AllowOrigins = []string{"*"}
	}
	s := &Server{
		opts:     opts,
		backend:  backend,
		gatherer: gatherer,
		limiter:  newRateLimiter(opts.RateRPS, opts.RateBurst),
		log:      log,
		sysErr:   sysErr,
	}
	s.srv = &http.Server{
		Addr:              opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the routes of the dashboard.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.countRequests)

	r.Get("/", s.handleIndex)
	r.Route("/favicon.ico", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/networks", s.handleNetworks)
		r.Get("/state", s.handleState)
		r.Get("/state/ws", s.handleStateStream)
		r.Put("/signer", s.handleSigner)
		r.Put("/action", s.handleAction)
		r.Get("/msa", s.handleGetMsa)
		r.Get("/capacity", s.handleCapacity)
		r.Get("/tx/{id}", s.handleTxHistory)
		r.Get("/tx/{id}/ws", s.handleTxStream)

		r.Group(func(r chi.Router) {
			r.Use(s.limiter.middleware)
			r.Post("/connect", s.handleConnect)
			r.Post("/msa", s.handleCreateMsa)
			r.Post("/provider", s.handleCreateProvider)
			r.Post("/keys", s.handleAddControlKey)
			r.Post("/stake", s.handleStake)
		})
	})
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working through the recorder.
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer cannot hijack")
	}
	w.code = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := unmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.code)).Inc()
	})
}

// Start listens on the configured address and serves in the background.
// Serve errors after startup are reported on sysErr.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.log.Info("dashboard listening", "addr", ln.Addr().String())
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", "err", err)
			if s.sysErr != nil {
				s.sysErr <- err
			}
		}
	}()
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.log.Warn("Failed to stop the server gracefully", "err", err)
	}
}
