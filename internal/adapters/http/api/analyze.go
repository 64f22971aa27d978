package api

import (
	"fmt"
	"net/http"

	"github.com/okian/dxrating/internal/adapters/feed"
	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/domain/chart"
)

// AnalyzeHandler handles rating analysis requests.
type AnalyzeHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps Dependencies, maxBodyBytes int64) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// analyzeRequest mirrors the OpenAPI schema for POST /analyze.
type analyzeRequest struct {
	PlayerName              string        `json:"player_name"`
	Version                 string        `json:"version"`
	Region                  string        `json:"region"`
	Records                 []feed.Record `json:"records"`
	ExcludeUnknownSongs     bool          `json:"exclude_unknown_songs"`
	RecommendMinAchievement float64       `json:"recommend_min_achievement"`
}

func (a analyzeRequest) toService() (service.AnalyzeRequest, error) {
	if a.RecommendMinAchievement < 0 {
		return service.AnalyzeRequest{}, fmt.Errorf("%w: recommend_min_achievement must not be negative", ErrBadRequest)
	}
	records := make([]chart.Record, 0, len(a.Records))
	for i, raw := range a.Records {
		rec, err := raw.Record()
		if err != nil {
			return service.AnalyzeRequest{}, fmt.Errorf("%w: records[%d]: %w", ErrBadRequest, i, err)
		}
		records = append(records, rec)
	}
	return service.AnalyzeRequest{
		PlayerName:              a.PlayerName,
		Version:                 a.Version,
		Region:                  a.Region,
		Records:                 records,
		ExcludeUnknownSongs:     a.ExcludeUnknownSongs,
		RecommendMinAchievement: a.RecommendMinAchievement,
	}, nil
}

// HandleAnalyze handles POST /analyze requests.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var body analyzeRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &body); err != nil {
		writeServiceError(w, err)
		return
	}
	req, err := body.toService()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	res, err := h.deps.Analyze(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
