// Package controlhttp exposes the chrono's transport controls and destination table
// over HTTP.
package controlhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/leandrodaf/midichrono/internal/engine"
	"github.com/leandrodaf/midichrono/internal/surface"
	"github.com/leandrodaf/midichrono/sdk/contracts"
	"github.com/rs/cors"
)

const shutdownTimeout = 5 * time.Second

// Destinations is the destination table the server edits.
type Destinations interface {
	List() []surface.Row
	Set(index int, clock, mtc bool) error
}

// Server routes control requests to a chrono and a destination table.
type Server struct {
	logger contracts.Logger
	chrono contracts.Chrono
	dests  Destinations
	router *mux.Router
}

// State is the JSON form of contracts.Snapshot.
type State struct {
	State    string `json:"state"`
	Tick     uint64 `json:"tick"`
	TimeCode string `json:"timecode"`
	Rate     string `json:"rate"`
	BarBeat  string `json:"barbeat"`
	Tempo    int    `json:"tempo"`
}

type seekRequest struct {
	Tick *uint64 `json:"tick"`
}

type tempoRequest struct {
	BPM int `json:"bpm"`
}

type destinationRequest struct {
	Clock bool `json:"clock"`
	MTC   bool `json:"mtc"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// New builds the router.
func New(logger contracts.Logger, chrono contracts.Chrono, dests Destinations) *Server {
	s := &Server{
		logger: logger,
		chrono: chrono,
		dests:  dests,
		router: mux.NewRouter().StrictSlash(true),
	}
	s.router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/transport/start", s.transport(chrono.Start)).Methods(http.MethodPost)
	s.router.HandleFunc("/transport/stop", s.transport(chrono.Stop)).Methods(http.MethodPost)
	s.router.HandleFunc("/transport/rewind", s.transport(chrono.Rewind)).Methods(http.MethodPost)
	s.router.HandleFunc("/transport/seek", s.handleSeek).Methods(http.MethodPost)
	s.router.HandleFunc("/transport/tempo", s.handleTempo).Methods(http.MethodPut)
	s.router.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet)
	s.router.HandleFunc("/destinations/{index:[0-9]+}", s.handleDestination).Methods(http.MethodPut)
	return s
}

// Handler returns the router wrapped in a permissive CORS policy.
func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(s.router)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("control surface listening", s.logger.Field().String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) transport(op func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := op(); err != nil {
			s.fail(w, err)
			return
		}
		s.writeState(w)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeState(w)
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Tick == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"tick\": n}"})
		return
	}
	if err := s.chrono.Seek(*req.Tick); err != nil {
		s.fail(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handleTempo(w http.ResponseWriter, r *http.Request) {
	var req tempoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"bpm\": n}"})
		return
	}
	if err := s.chrono.SetTempo(req.BPM); err != nil {
		s.fail(w, err)
		return
	}
	s.writeState(w)
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dests.List())
}

func (s *Server) handleDestination(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var req destinationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "body must be {\"clock\": bool, \"mtc\": bool}"})
		return
	}
	if err := s.dests.Set(index, req.Clock, req.MTC); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.dests.List())
}

func (s *Server) writeState(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, NewState(s.chrono.Snapshot()))
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("control request failed", s.logger.Field().Error("error", err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidTempo), errors.Is(err, engine.ErrSeekOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, surface.ErrUnknownDevice):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewState converts a snapshot for the wire.
func NewState(snap contracts.Snapshot) State {
	return State{
		State:    snap.State.String(),
		Tick:     snap.Tick,
		TimeCode: snap.Code.String(),
		Rate:     snap.Code.Rate.String(),
		BarBeat:  snap.BarBeat.String(),
		Tempo:    snap.Tempo,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
