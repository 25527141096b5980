package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/rollstitch/backend/internal/adjusted"
	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/multiple"
	"github.com/wonny/rollstitch/backend/internal/rollconfig"
	"github.com/wonny/rollstitch/backend/internal/source"
	"github.com/wonny/rollstitch/backend/pkg/logger"
)

// InstrumentHandler serves persisted series per instrument
// ⭐ SSOT: 시계열 조회 API 핸들러는 이 구조체에서만
type InstrumentHandler struct {
	store  contracts.SeriesStore
	config *rollconfig.Config
	logger *logger.Logger
}

// NewInstrumentHandler creates a new instrument handler
func NewInstrumentHandler(store contracts.SeriesStore, cfg *rollconfig.Config, log *logger.Logger) *InstrumentHandler {
	return &InstrumentHandler{
		store:  store,
		config: cfg,
		logger: log,
	}
}

// InstrumentInfo is one entry of the instrument list
type InstrumentInfo struct {
	Code         string `json:"code"`
	Description  string `json:"description,omitempty"`
	AssetClass   string `json:"asset_class,omitempty"`
	Currency     string `json:"currency,omitempty"`
	StitchMethod string `json:"stitch_method,omitempty"`
}

// List returns the configured instruments
// GET /api/instruments
func (h *InstrumentHandler) List(w http.ResponseWriter, r *http.Request) {
	codes := h.config.Codes()
	out := make([]InstrumentInfo, 0, len(codes))
	for _, code := range codes {
		inst, _ := h.config.Instrument(code)
		out = append(out, InstrumentInfo{
			Code:         code,
			Description:  inst.Description,
			AssetClass:   inst.AssetClass,
			Currency:     inst.Currency,
			StitchMethod: inst.StitchMethod,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

// GetRollCalendar returns the roll calendar of an instrument
// GET /api/instruments/{code}/roll-calendar
func (h *InstrumentHandler) GetRollCalendar(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}

	schedule, err := h.store.GetRollCalendar(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithInstrument(code).Error("Failed to get roll calendar")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve roll calendar")
		return
	}
	if schedule.Empty() {
		respondError(w, http.StatusNotFound, "No roll calendar for "+code)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := source.WriteRollCalendar(w, schedule); err != nil {
			h.logger.WithError(err).Warn("Failed to write CSV")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"instrument": code,
		"rolls":      schedule.Events,
	})
}

// GetMultiplePrices returns the multiple price rows of an instrument
// GET /api/instruments/{code}/multiple-prices?from=&to=&format=csv
func (h *InstrumentHandler) GetMultiplePrices(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	series, err := h.store.GetMultiplePrices(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithInstrument(code).Error("Failed to get multiple prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve multiple prices")
		return
	}
	if series.Empty() {
		respondError(w, http.StatusNotFound, "No multiple prices for "+code)
		return
	}

	filtered := &contracts.MultiplePriceSeries{Rows: make([]contracts.MultiplePriceRow, 0, series.Len())}
	for _, row := range series.Rows {
		if inRange(row.Date, from, to) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := source.WriteMultiplePrices(w, filtered); err != nil {
			h.logger.WithError(err).Warn("Failed to write CSV")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"instrument": code,
		"rows":       filtered.Rows,
	})
}

// GetAdjustedPrices returns the back-adjusted series of an instrument
// GET /api/instruments/{code}/adjusted-prices?from=&to=&format=csv
func (h *InstrumentHandler) GetAdjustedPrices(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	series, err := h.store.GetAdjustedPrices(r.Context(), code)
	if err != nil {
		h.logger.WithError(err).WithInstrument(code).Error("Failed to get adjusted prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve adjusted prices")
		return
	}
	if series.Empty() {
		respondError(w, http.StatusNotFound, "No adjusted prices for "+code)
		return
	}

	filtered := &contracts.AdjustedPriceSeries{Points: make([]contracts.AdjustedPoint, 0, series.Len())}
	for _, p := range series.Points {
		if inRange(p.Date, from, to) {
			filtered.Points = append(filtered.Points, p)
		}
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		if err := source.WriteAdjustedPrices(w, filtered); err != nil {
			h.logger.WithError(err).Warn("Failed to write CSV")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"instrument": code,
		"points":     filtered.Points,
	})
}

// QualityReport bundles the validation reports of both series
type QualityReport struct {
	Instrument string          `json:"instrument"`
	Multiple   multiple.Report `json:"multiple"`
	Adjusted   adjusted.Report `json:"adjusted"`
}

// GetReport validates the persisted series of an instrument
// GET /api/instruments/{code}/report
func (h *InstrumentHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	code, ok := h.code(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	mp, err := h.store.GetMultiplePrices(ctx, code)
	if err != nil {
		h.logger.WithError(err).WithInstrument(code).Error("Failed to get multiple prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve multiple prices")
		return
	}
	adj, err := h.store.GetAdjustedPrices(ctx, code)
	if err != nil {
		h.logger.WithError(err).WithInstrument(code).Error("Failed to get adjusted prices")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve adjusted prices")
		return
	}
	if mp.Empty() && adj.Empty() {
		respondError(w, http.StatusNotFound, "No series for "+code)
		return
	}

	respondJSON(w, http.StatusOK, QualityReport{
		Instrument: code,
		Multiple:   multiple.Validate(mp),
		Adjusted:   adjusted.Validate(adj),
	})
}

// code extracts {code} and rejects instruments that are not configured
func (h *InstrumentHandler) code(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := mux.Vars(r)["code"]
	if _, ok := h.config.Instrument(code); !ok {
		respondError(w, http.StatusNotFound, "Unknown instrument "+code)
		return "", false
	}
	return code, true
}
