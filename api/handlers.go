package api

import (
	"fmt"
	"math"
	"net/http"

	"medinsight/adapters/pk"
	"medinsight/adapters/stats/engine"
	"medinsight/app"
	"medinsight/domain/core"
	"medinsight/domain/medication"
	"medinsight/domain/stats"
	apperrors "medinsight/internal/errors"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenerateReport runs the full analysis pipeline. Sparse or degenerate
// history is a 200 whose dataQuality section says so.
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req app.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.service.GenerateReport(r.Context(), req)
	if err != nil {
		s.writeError(w, statusForError(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

type concentrationSeriesRequest struct {
	Medication   medication.Medication `json:"medication"`
	Doses        []medication.Dose     `json:"doses"`
	Timestamps   []core.Timestamp      `json:"timestamps"`
	Mode         pk.Mode               `json:"mode,omitempty"`
	BodyWeightKg float64               `json:"bodyWeightKg,omitempty"`
}

type concentrationSeriesResponse struct {
	Samples []*float64 `json:"samples"`
}

// handleConcentrationSeries samples the concentration curve at the supplied
// timestamps. Undefined trend samples come back as JSON nulls.
func (s *Server) handleConcentrationSeries(w http.ResponseWriter, r *http.Request) {
	var req concentrationSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	switch req.Mode {
	case "", pk.ModeInstant, pk.ModeTrend:
	default:
		s.writeError(w, http.StatusBadRequest,
			apperrors.InvalidInput(fmt.Sprintf("unknown sampling mode %q", req.Mode)))
		return
	}

	samples := pk.SampleSeries(req.Medication, req.Doses, req.Timestamps, req.Mode, req.BodyWeightKg)
	s.writeJSON(w, http.StatusOK, concentrationSeriesResponse{Samples: nullableSamples(samples)})
}

type concentrationProfileRequest struct {
	Medication   medication.Medication `json:"medication"`
	Doses        []medication.Dose     `json:"doses"`
	From         core.Timestamp        `json:"from"`
	To           core.Timestamp        `json:"to"`
	BodyWeightKg float64               `json:"bodyWeightKg,omitempty"`
}

func (s *Server) handleConcentrationProfile(w http.ResponseWriter, r *http.Request) {
	var req concentrationProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	window := core.Window{From: req.From, To: req.To}
	if !window.IsValid() {
		s.writeError(w, http.StatusBadRequest,
			apperrors.InvalidInput("from and to must both be set, with from before to"))
		return
	}

	s.writeJSON(w, http.StatusOK, pk.Profile(req.Medication, req.Doses, window, req.BodyWeightKg))
}

// Series cells are nullable on the wire: null marks a missing observation
// and maps onto NaN, which the engine drops pairwise.
type correlateRequest struct {
	X      []*float64   `json:"x"`
	Y      []*float64   `json:"y"`
	Method stats.Method `json:"method,omitempty"`
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	var req correlateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !validMethod(req.Method) {
		s.writeError(w, http.StatusBadRequest,
			apperrors.InvalidInput(fmt.Sprintf("unknown correlation method %q", req.Method)))
		return
	}

	result := engine.Correlate(floatsFromNullable(req.X), floatsFromNullable(req.Y), req.Method)
	s.writeJSON(w, http.StatusOK, result)
}

type crossCorrelateRequest struct {
	A          []*float64   `json:"a"`
	B          []*float64   `json:"b"`
	MaxLag     int          `json:"maxLag"`
	MinPairs   int          `json:"minPairs,omitempty"`
	Method     stats.Method `json:"method,omitempty"`
	UseChanges bool         `json:"useChanges,omitempty"`
}

type crossCorrelateResponse struct {
	Points []stats.CrossCorrelationPoint `json:"points"`
}

func (s *Server) handleCrossCorrelate(w http.ResponseWriter, r *http.Request) {
	var req crossCorrelateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.MaxLag < 0 {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("maxLag must not be negative"))
		return
	}
	if !validMethod(req.Method) {
		s.writeError(w, http.StatusBadRequest,
			apperrors.InvalidInput(fmt.Sprintf("unknown correlation method %q", req.Method)))
		return
	}

	points := engine.CrossCorrelate(floatsFromNullable(req.A), floatsFromNullable(req.B), req.MaxLag,
		stats.CrossCorrelationOptions{
			Method:     req.Method,
			UseChanges: req.UseChanges,
			MinPairs:   req.MinPairs,
		})
	s.writeJSON(w, http.StatusOK, crossCorrelateResponse{Points: points})
}

func validMethod(m stats.Method) bool {
	switch m {
	case "", stats.MethodPearson, stats.MethodSpearman:
		return true
	default:
		return false
	}
}

func floatsFromNullable(in []*float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		if v == nil {
			out[i] = math.NaN()
		} else {
			out[i] = *v
		}
	}
	return out
}

func nullableSamples(in []float64) []*float64 {
	out := make([]*float64, len(in))
	for i := range in {
		if pk.IsUndefined(in[i]) {
			continue
		}
		v := in[i]
		out[i] = &v
	}
	return out
}
