package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/light-meter/db"
	"github.com/thatsimonsguy/light-meter/internal/adjust"
	"github.com/thatsimonsguy/light-meter/internal/display"
	"github.com/thatsimonsguy/light-meter/internal/model"
	"github.com/thatsimonsguy/light-meter/internal/tables"
	"github.com/thatsimonsguy/light-meter/internal/telemetry"
)

// Submitter queues an event for the control loop.
type Submitter interface {
	Submit(ctx context.Context, ev adjust.Event) error
}

type Server struct {
	meter     display.Snapshotter
	submitter Submitter
	matrix    adjust.Matrix
	db        *sql.DB // optional reading log
}

type ExposureResponse struct {
	Reading telemetry.Payload `json:"reading"`
	View    display.View      `json:"view"`
}

type SettingsResponse struct {
	ISO      string         `json:"iso"`
	Aperture string         `json:"aperture"`
	Shutter  string         `json:"shutter"`
	NDFilter string         `json:"nd_filter"`
	Metering string         `json:"metering"`
	Mode     string         `json:"mode"`
	Adjust   string         `json:"adjust"`
	Raw      model.Settings `json:"raw"`
}

type EventRequest struct {
	Event string `json:"event"`
}

type ReadingResponse struct {
	ID       int64    `json:"id"`
	TakenAt  string   `json:"taken_at"`
	Lux      float64  `json:"lux"`
	EV       *float64 `json:"ev"`
	Output   *float64 `json:"output"`
	Mode     string   `json:"mode"`
	Metering string   `json:"metering"`
	Valid    bool     `json:"valid"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(meter display.Snapshotter, submitter Submitter, matrix adjust.Matrix, database *sql.DB) *Server {
	return &Server{
		meter:     meter,
		submitter: submitter,
		matrix:    matrix,
		db:        database,
	}
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/exposure", s.handleExposure)
	mux.HandleFunc("/api/settings", s.handleSettings)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/api/readings", s.handleReadings)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Info().Str("address", addr).Msg("Starting REST API server")

	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleExposure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	snap := s.meter.Snapshot()
	s.writeJSON(w, http.StatusOK, ExposureResponse{
		Reading: telemetry.NewPayload(snap.Reading, snap.Settings),
		View:    display.Build(snap, s.matrix),
	})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	st := s.meter.Snapshot().Settings
	s.writeJSON(w, http.StatusOK, SettingsFor(st))
}

// SettingsFor renders the settings with their display labels.
func SettingsFor(st model.Settings) SettingsResponse {
	return SettingsResponse{
		ISO:      tables.ISO.Label(st.ISOIndex),
		Aperture: "f/" + tables.Aperture.Label(st.ApertureIndex),
		Shutter:  tables.Shutter.Label(st.ShutterIndex),
		NDFilter: tables.NDFilter.Label(st.NDFilterIndex),
		Metering: tables.MeteringLabel(st.Metering),
		Mode:     st.Mode.String(),
		Adjust:   st.Adjust.String(),
		Raw:      st,
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	ev, err := adjust.ParseEvent(req.Event)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.submitter.Submit(r.Context(), ev); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	log.Info().Str("event", ev.String()).Msg("Event queued via API")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleReadings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if s.db == nil {
		s.writeError(w, http.StatusNotFound, "Reading log disabled")
		return
	}

	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	rows, err := db.RecentReadings(s.db, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get readings")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := make([]ReadingResponse, 0, len(rows))
	for _, row := range rows {
		rr := ReadingResponse{
			ID:       row.ID,
			TakenAt:  row.TakenAt.Format("2006-01-02T15:04:05.000Z07:00"),
			Lux:      row.Lux,
			Mode:     row.Mode,
			Metering: row.Metering,
			Valid:    row.Valid,
		}
		if row.EV.Valid {
			rr.EV = &row.EV.Float64
		}
		if row.Output.Valid {
			rr.Output = &row.Output.Float64
		}
		response = append(response, rr)
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
