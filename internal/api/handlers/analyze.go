package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/wonny/aegis-analytics/internal/analysis"
	"github.com/wonny/aegis-analytics/internal/contracts"
	"github.com/wonny/aegis-analytics/internal/runconfig"
	"github.com/wonny/aegis-analytics/pkg/logger"
)

// AnalyzeHandler runs analyses on request
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalyzeHandler struct {
	runner  *analysis.Runner
	dataDir string // CSV sides resolve under this directory, empty rejects them
	logger  *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler
func NewAnalyzeHandler(runner *analysis.Runner, dataDir string, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		runner:  runner,
		dataDir: dataDir,
		logger:  log,
	}
}

// AnalyzeResponse wraps a run result with the hash of its request
type AnalyzeResponse struct {
	ConfigHash string `json:"config_hash"`
	*analysis.Result
}

// Analyze runs one synchronous analysis. The body is a run spec in JSON form.
// POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var cfg runconfig.Config
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := runconfig.Validate(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// 요청 원문 기준 해시 (서버 경로 치환 전)
	hash, err := runconfig.Hash(&cfg)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to hash request")
		return
	}
	if err := h.confineCSV("portfolio", cfg.Portfolio.CSV); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.confineCSV("benchmark", cfg.Benchmark.CSV); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := cfg.ToRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.runner.Run(ctx, req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("Analysis failed")
		}
		respondError(w, status, h.hideDataDir(err.Error()))
		return
	}

	for side, desc := range result.Inputs {
		result.Inputs[side] = h.hideDataDir(desc)
	}
	respondJSON(w, http.StatusOK, AnalyzeResponse{ConfigHash: hash, Result: result})
}

// confineCSV rewrites a CSV side's path to a file inside the data directory.
// Absolute paths and paths escaping the directory are refused.
func (h *AnalyzeHandler) confineCSV(side string, src *runconfig.CSVSource) error {
	if src == nil {
		return nil
	}
	if h.dataDir == "" {
		return fmt.Errorf("%s: csv inputs are not enabled on this server", side)
	}

	rel := filepath.Clean(filepath.FromSlash(src.Path))
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" ||
		rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%s: csv path must be relative to the data directory", side)
	}

	src.Path = filepath.Join(h.dataDir, rel)
	return nil
}

// hideDataDir strips the server-side data directory from client messages
func (h *AnalyzeHandler) hideDataDir(msg string) string {
	if h.dataDir == "" {
		return msg
	}
	return strings.ReplaceAll(msg, filepath.Clean(h.dataDir)+string(filepath.Separator), "")
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrWeightValidation),
		errors.Is(err, contracts.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrDataUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
