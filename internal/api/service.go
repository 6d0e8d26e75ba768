package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

//go:generate mockgen -destination=mock_monitor_test.go -package=api github.com/dmdmdm-nz/netmond/internal/netmon Monitor

const shutdownTimeout = 5 * time.Second

// Service represents the HTTP server for the API
type Service struct {
	address string
	port    int
	monitor netmon.Monitor
	limiter *rate.Limiter

	mu     sync.Mutex
	server *http.Server
	closed bool
}

func NewService(host string, port int, monitor netmon.Monitor, requestsPerSecond float64) *Service {
	return &Service{
		address: host,
		port:    port,
		monitor: monitor,
		limiter: NewRateLimiter(requestsPerSecond),
	}
}

// Start serves the API until ctx is cancelled or Close is called.
func (s *Service) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.address, s.port)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server := s.server
	s.mu.Unlock()

	log.Infof("Starting netmond API service at %s", addr)
	defer log.Info("Stopping netmond API service")

	stop := context.AfterFunc(ctx, func() { _ = s.Close() })
	defer stop()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving API on %s: %w", addr, err)
	}
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return s.server.Close()
	}
	return nil
}

// Handler returns the API routes wrapped in logging and rate limiting.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-s.monitor.Enumerated():
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "Enumeration in progress", http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("GET /capabilities", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, NewCapabilitiesInfo(s.monitor))
	})
	mux.HandleFunc("GET /interfaces", func(w http.ResponseWriter, r *http.Request) {
		ifaces := s.monitor.NetworkInterfaces()
		infos := make([]InterfaceInfo, 0, len(ifaces))
		for _, iface := range ifaces {
			infos = append(infos, NewInterfaceInfo(iface))
		}
		writeJSON(w, http.StatusOK, infos)
	})
	mux.HandleFunc("GET /interfaces/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		iface, err := s.monitor.NetworkInterface(name)
		if errors.Is(err, netmon.ErrInterfaceNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorInfo{Error: fmt.Sprintf("interface %q not found", name)})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorInfo{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, NewInterfaceInfo(iface))
	})
	mux.HandleFunc("GET /ws/events", func(w http.ResponseWriter, r *http.Request) {
		StreamEvents(s.monitor, w, r)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return logRequests(rateLimit(s.limiter, mux))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
}
