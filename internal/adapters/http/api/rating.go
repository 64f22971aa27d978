package api

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"

	service "github.com/okian/dxrating/internal/app"
	"github.com/okian/dxrating/internal/domain/recommend"
)

// RatingHandler serves the rating math endpoints.
type RatingHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps Dependencies, maxBodyBytes int64) *RatingHandler {
	return &RatingHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

type ratingRequest struct {
	Level       *float64 `json:"level"`
	Achievement *float64 `json:"achievement"`
}

type ratingResponse struct {
	Rating            float64 `json:"rating"`
	RankTitle         string  `json:"rank_title"`
	CappedAchievement float64 `json:"capped_achievement"`
}

type ratingRangeRequest struct {
	Level     *float64 `json:"level"`
	RankTitle string   `json:"rank_title"`
}

type ratingRangeResponse struct {
	MinRating int    `json:"min_rating"`
	MaxRating int    `json:"max_rating"`
	RankTitle string `json:"rank_title"`
}

type recommendedLevelsRequest struct {
	Rating         *float64 `json:"rating"`
	MinAchievement float64  `json:"min_achievement"`
}

type recommendedLevelsResponse struct {
	Target int                     `json:"target"`
	Tiers  []recommend.TierEntries `json:"tiers"`
}

// HandleRanks handles GET /ranks requests.
func (h *RatingHandler) HandleRanks(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Ranks())
}

// HandleRating handles POST /rating requests.
func (h *RatingHandler) HandleRating(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req ratingRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Level == nil || req.Achievement == nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: level and achievement are required", ErrBadRequest))
		return
	}
	d, err := h.deps.Rating(r.Context(), *req.Level, *req.Achievement)
	if err != nil {
		// an achievement outside every tier is a bad request, not a missing resource
		if errors.Is(err, service.ErrRankNotFound) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingResponse{
		Rating:            d.Rating,
		RankTitle:         d.RankTitle,
		CappedAchievement: d.CappedAchievement,
	})
}

// HandleRatingRange handles POST /rating-range requests.
func (h *RatingHandler) HandleRatingRange(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req ratingRangeRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Level == nil || strings.TrimSpace(req.RankTitle) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: level and rank_title are required", ErrBadRequest))
		return
	}
	rr, err := h.deps.RatingRange(r.Context(), *req.Level, req.RankTitle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratingRangeResponse{
		MinRating: rr.MinRating,
		MaxRating: rr.MaxRating,
		RankTitle: rr.RankTitle,
	})
}

// HandleRecommendedLevels handles POST /recommended-levels requests.
func (h *RatingHandler) HandleRecommendedLevels(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var req recommendedLevelsRequest
	if err := decodeBody(w, r, h.maxBodyBytes, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	if req.Rating == nil || math.IsNaN(*req.Rating) || req.MinAchievement < 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: rating is required", ErrBadRequest))
		return
	}
	tiers := h.deps.RecommendedLevels(r.Context(), *req.Rating, req.MinAchievement)
	writeJSON(w, http.StatusOK, recommendedLevelsResponse{
		Target: int(math.Floor(*req.Rating)),
		Tiers:  tiers,
	})
}
