package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/ruhestand-sim/internal/montecarlo"
)

// progressMessage is one frame of the Monte Carlo progress stream.
type progressMessage struct {
	RunID     string             `json:"runId"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Done      bool               `json:"done"`
	Report    *montecarlo.Report `json:"report,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// handleMonteCarloProgress upgrades the connection and streams scenario
// completion counts while a run is in flight, followed by one final
// frame carrying the reduced report.
func (s *Server) handleMonteCarloProgress(w http.ResponseWriter, r *http.Request) {
	var req runMonteCarloRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	runID := uuid.New().String()
	progress := make(chan progressMessage, 64)

	go func() {
		report, runErr := montecarlo.Run(req.Portfolio, req.Strategy, montecarlo.Config{
			NumSimulations:  req.NumSimulations,
			YearsToSimulate: req.YearsToSimulate,
			Returns:         req.Returns,
			Inflations:      req.Inflations,
			Progress: func(completed, total int) {
				progress <- progressMessage{RunID: runID, Completed: completed, Total: total}
			},
		}, s.engCfg)

		if runErr != nil {
			progress <- progressMessage{RunID: runID, Done: true, Error: runErr.Error()}
		} else {
			progress <- progressMessage{RunID: runID, Done: true, Report: &report}
		}
		close(progress)
	}()

	for msg := range progress {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			s.log.Debug().Err(err).Msg("progress stream write failed, client likely gone")
			return
		}
		if msg.Done {
			break
		}
	}

	conn.Close(websocket.StatusNormalClosure, "monte carlo run complete")
}
