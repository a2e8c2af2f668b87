package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/aeroglyph/voxelcast/internal/logging"
)

// Server exposes a Recorder's accumulated state over HTTP: a
// *http.Server behind a ServeMux, started in a goroutine and shut down
// on context cancellation.
type Server struct {
	address  string
	recorder *Recorder
	server   *http.Server
}

// NewServer creates a Server bound to address, serving recorder's state.
func NewServer(address string, recorder *Recorder) *Server {
	s := &Server{address: address, recorder: recorder}
	s.server = &http.Server{Addr: address, Handler: s.routes()}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/detections", s.handleDetections)
	mux.HandleFunc("/api/tracks", s.handleTracks)
	mux.HandleFunc("/chart/occupancy", s.handleOccupancyChart)
	mux.HandleFunc("/chart/speed", s.handleSpeedChart)
	return mux
}

// Start begins serving in a goroutine and blocks until ctx is
// cancelled, at which point it shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		logging.Logf("monitor: listening on %s", s.address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("monitor: server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Logf("monitor: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Logf("monitor: graceful shutdown failed: %v, forcing close", err)
		return s.server.Close()
	}
	return nil
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleDetections(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.recorder.Detections())
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.recorder.Tracks())
}

func (s *Server) handleOccupancyChart(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderOccupancyHeatMap(w, s.recorder.Detections()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render occupancy chart: %v", err))
	}
}

func (s *Server) handleSpeedChart(w http.ResponseWriter, r *http.Request) {
	trackID := r.URL.Query().Get("track_id")
	if trackID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing 'track_id' parameter")
		return
	}
	samples := s.recorder.SpeedHistory(trackID)
	if len(samples) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no speed history for track")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := renderSpeedHistory(w, trackID, samples); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("render speed chart: %v", err))
	}
}
