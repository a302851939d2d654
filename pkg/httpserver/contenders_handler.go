package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

// ContendersSource exposes the most recent ranked scan result. The app
// updates it at the end of each cycle.
type ContendersSource interface {
	LastContenders() ([]*types.Contender, time.Time)
}

// ContendersHandler handles HTTP requests for ranked contender data.
type ContendersHandler struct {
	source ContendersSource
	logger *zap.Logger
}

// NewContendersHandler creates a new contenders handler.
func NewContendersHandler(source ContendersSource, logger *zap.Logger) *ContendersHandler {
	return &ContendersHandler{
		source: source,
		logger: logger,
	}
}

// ContenderLeg represents one leg of a contender in the API response.
type ContenderLeg struct {
	Date     string  `json:"date"`
	Right    string  `json:"right"`
	Strike   float64 `json:"strike"`
	MidPrice float64 `json:"mid_price"`
	Side     string  `json:"side"`
}

// ContenderSummary represents one ranked contender in the API response.
type ContenderSummary struct {
	ID         string         `json:"id"`
	Strategy   string         `json:"strategy"`
	ArbValue   float64        `json:"arb_value"`
	AvgAskSize float64        `json:"avg_ask_size"`
	Expiration string         `json:"expiration"`
	RankScore  float64        `json:"rank_score"`
	Legs       []ContenderLeg `json:"legs"`
}

// ContendersResponse represents the HTTP response for contender data.
type ContendersResponse struct {
	ScannedAt  time.Time          `json:"scanned_at"`
	Count      int                `json:"count"`
	Contenders []ContenderSummary `json:"contenders"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandleContenders handles GET /api/contenders requests.
func (h *ContendersHandler) HandleContenders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contenders, scannedAt := h.source.LastContenders()
	if scannedAt.IsZero() {
		h.writeError(w, "no scan completed yet", http.StatusNotFound)
		return
	}

	summaries := make([]ContenderSummary, 0, len(contenders))
	for _, c := range contenders {
		legs := make([]ContenderLeg, 0, len(c.Legs))
		for i, leg := range c.Legs {
			legs = append(legs, ContenderLeg{
				Date:     leg.Date,
				Right:    string(leg.Right),
				Strike:   leg.Strike,
				MidPrice: leg.MidPrice,
				Side:     c.LegSide(i),
			})
		}

		summaries = append(summaries, ContenderSummary{
			ID:         c.ID,
			Strategy:   string(c.Strategy),
			ArbValue:   c.ArbValue,
			AvgAskSize: c.AvgAskSize,
			Expiration: c.Expiration,
			RankScore:  c.RankScore,
			Legs:       legs,
		})
	}

	response := ContendersResponse{
		ScannedAt:  scannedAt,
		Count:      len(summaries),
		Contenders: summaries,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *ContendersHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{Error: message}
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
