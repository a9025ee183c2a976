// Package healthz serves the unauthenticated liveness/readiness endpoints
// spec.md §6/§9 call for on the port one above the RPC listener. Modeled on
// cuemby-warren/pkg/api/health.go's http.ServeMux-based health server.
package healthz

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubernetes-sigs/blixt/internal/log"
)

var logger = log.For("healthz")

// ReadyChecker reports whether the loader has finished attaching the
// classifiers and opening the shared maps. internal/dataplane/loader's
// supervisor implements this.
type ReadyChecker interface {
	Ready() (bool, string)
}

// Server serves /healthz (always 200 once the process is up), /readyz
// (delegates to a ReadyChecker) and /metrics (Prometheus).
type Server struct {
	http  *http.Server
	ready ReadyChecker
}

// NewServer builds a Server; ready may be nil, in which case /readyz always
// reports healthy.
func NewServer(ready ReadyChecker) *Server {
	s := &Server{ready: ready}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.Handle("/metrics", promhttp.Handler())

	s.http = &http.Server{Handler: mux}
	return s
}

// Start listens on addr and blocks until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.WithField("addr", addr).Info("healthz server listening")
	err = s.http.Serve(lis)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	return s.http.Close()
}

type statusResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, true, "")
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil {
		writeStatus(w, true, "")
		return
	}
	ok, reason := s.ready.Ready()
	writeStatus(w, ok, reason)
}

func writeStatus(w http.ResponseWriter, ok bool, reason string) {
	w.Header().Set("Content-Type", "application/json")
	resp := statusResponse{Status: "ok"}
	if !ok {
		resp.Status = "unavailable"
		resp.Reason = reason
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
