package http

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	applog "github.com/RDL-Tech-Solutions/jurus-sub003/internal/log"
	"github.com/RDL-Tech-Solutions/jurus-sub003/internal/simulation"
)

// handleSimulate runs one deterministic compound-interest scenario.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var input simulation.Input
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := simulation.Simulate(input)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Simulation completed",
		applog.FieldPeriods, input.Periods(),
		"annual_rate_percent", input.AnnualRatePercent,
		"consider_inflation", input.ConsiderInflation)
	writeJSON(w, http.StatusOK, result)
}

type sensitivityRequest struct {
	Input     simulation.Input `json:"input"`
	Parameter string           `json:"parameter"`
	Offsets   []float64        `json:"offsets,omitempty"`
}

// handleSensitivity perturbs one input parameter across percentage offsets
// and reports elasticity and risk tier.
func (s *Server) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	var req sensitivityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := simulation.AnalyzeSensitivity(req.Input, req.Parameter, req.Offsets)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Sensitivity analysis completed",
		"parameter", req.Parameter,
		"scenarios", len(result.Scenarios),
		"risk_tier", result.RiskTier)
	writeJSON(w, http.StatusOK, result)
}

type monteCarloRequest struct {
	Input   simulation.Input             `json:"input"`
	Options simulation.MonteCarloOptions `json:"options"`
}

// handleMonteCarlo stress-tests a scenario with randomized rate and
// contribution noise. The trial count is capped by configuration to bound
// request latency; workers default to the configured shard count so that
// results for a given seed stay reproducible across requests.
func (s *Server) handleMonteCarlo(w http.ResponseWriter, r *http.Request) {
	var req monteCarloRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Options.Trials > s.monteCarloMaxTrials {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Errorf("trial count %d exceeds the maximum of %d", req.Options.Trials, s.monteCarloMaxTrials))
		return
	}
	if req.Options.Workers == 0 {
		req.Options.Workers = s.monteCarloWorkers
	}
	if req.Options.Seed == 0 {
		req.Options.Seed = randomSeed()
	}

	result, err := simulation.SampleMonteCarlo(r.Context(), req.Input, req.Options)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Monte Carlo sampling completed",
		applog.FieldTrials, result.TrialCount,
		"rate_stddev", result.RateStdDev,
		"loss_probability", result.Stats.LossProbability)
	writeJSON(w, http.StatusOK, result)
}

// randomSeed draws a seed for requests that do not pin one, so seed-less
// calls sample freshly instead of replaying the zero-seed sequence.
func randomSeed() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
