package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dojolog/dojolog/internal/rest"
	"github.com/dojolog/dojolog/internal/utils"
	"github.com/dojolog/dojolog/pkg/entry"
	"github.com/dojolog/dojolog/pkg/rhythm"
	"github.com/dojolog/dojolog/pkg/timerange"
)

type MetricDTO struct {
	Value   *float64 `json:"value"`
	Defined bool     `json:"defined"`
	Reason  string   `json:"reason,omitempty"`
}

type AggregateDTO struct {
	From               string         `json:"from"`
	To                 string         `json:"to"`
	EntryCount         int            `json:"entryCount"`
	TotalLoad          MetricDTO      `json:"totalLoad"`
	UndefinedLoadCount int            `json:"undefinedLoadCount"`
	TotalVolume        MetricDTO      `json:"totalVolume"`
	SessionCount       MetricDTO      `json:"sessionCount"`
	ActiveDays         MetricDTO      `json:"activeDays"`
	RestDays           MetricDTO      `json:"restDays"`
	UnloggedDays       MetricDTO      `json:"unloggedDays"`
	RestRatio          MetricDTO      `json:"restRatio"`
	AvgRPE             MetricDTO      `json:"avgRpe"`
	HardSessions       MetricDTO      `json:"hardSessions"`
	LongestActive      MetricDTO      `json:"longestActiveStreak"`
	LongestRest        MetricDTO      `json:"longestRestStreak"`
	MaxGapDays         MetricDTO      `json:"maxGapDays"`
	SessionsByActivity map[string]int `json:"sessionsByActivity"`
}

type ComparisonDTO struct {
	Baseline      MetricDTO `json:"baseline"`
	Current       MetricDTO `json:"current"`
	Delta         MetricDTO `json:"delta"`
	PercentChange MetricDTO `json:"percentChange"`
}

type ReportDTO struct {
	Primary     AggregateDTO             `json:"primary"`
	Comparison  *AggregateDTO            `json:"comparison,omitempty"`
	Comparisons map[string]ComparisonDTO `json:"comparisons,omitempty"`
}

type WeekSummaryDTO struct {
	WeekID    string                   `json:"weekId"`
	Aggregate AggregateDTO             `json:"aggregate"`
	Deltas    map[string]ComparisonDTO `json:"deltas"`
}

type WeeklyReportDTO struct {
	Range string           `json:"range"`
	From  string           `json:"from"`
	To    string           `json:"to"`
	Weeks []WeekSummaryDTO `json:"weeks"`
}

type Handler struct {
	service  Service
	renderer Renderer
	clock    utils.Clock
}

func NewHandler(service Service, renderer Renderer) *Handler {
	return &Handler{service: service, renderer: renderer, clock: &utils.SystemClock{}}
}

// GetReport serves GET /api/report. The window comes either from explicit
// from/to dates or from a canonical range name around an anchor date.
// compare=previous sets the baseline to the equal-span preceding window;
// explicit compareFrom/compareTo select an arbitrary one.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	window, ok := h.resolveWindow(w, r)
	if !ok {
		return
	}

	var comparison *rhythm.Window
	switch {
	case query.Get("compare") == "previous":
		prev := window.Previous()
		comparison = &prev
	case query.Get("compareFrom") != "" || query.Get("compareTo") != "":
		from, err := time.ParseInLocation(entry.DateFormat, query.Get("compareFrom"), time.UTC)
		if err != nil {
			writeBadRequest(w, "Invalid compareFrom date", "compareFrom must be in YYYY-MM-DD format")
			return
		}
		to, err := time.ParseInLocation(entry.DateFormat, query.Get("compareTo"), time.UTC)
		if err != nil {
			writeBadRequest(w, "Invalid compareTo date", "compareTo must be in YYYY-MM-DD format")
			return
		}
		cw, err := rhythm.NewWindow(from, to)
		if err != nil {
			writeBadRequest(w, "Invalid comparison window", err.Error())
			return
		}
		comparison = &cw
	}

	opts := rhythm.CompareOptions{RateNormalized: query.Get("rateNormalized") == "true"}

	report, err := h.service.BuildReport(r.Context(), window, comparison, opts)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.renderer.RenderReport(report)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if _, err := w.Write([]byte(csv)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reportToDTO(report)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetWeeklyReport serves GET /api/report/weekly.
func (h *Handler) GetWeeklyReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rangeType, err := timerange.ParseRangeType(query.Get("range"))
	if err != nil {
		writeBadRequest(w, "Invalid range", "range must be one of 1w, 1m, 3m, 6m")
		return
	}

	anchor := h.clock.Now()
	if dateStr := query.Get("date"); dateStr != "" {
		anchor, err = time.ParseInLocation(entry.DateFormat, dateStr, time.UTC)
		if err != nil {
			writeBadRequest(w, "Invalid date format", "date must be in YYYY-MM-DD format")
			return
		}
	}

	var activity *entry.ActivityType
	if activityStr := query.Get("activity"); activityStr != "" {
		parsed, err := entry.ParseActivityType(activityStr)
		if err != nil {
			writeBadRequest(w, "Invalid activity", err.Error())
			return
		}
		activity = &parsed
	}

	weekly, err := h.service.BuildWeeklyReport(r.Context(), rangeType, anchor, activity)
	if err != nil {
		if errors.Is(err, timerange.ErrUnknownRange) {
			writeBadRequest(w, "Invalid range", err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.Header.Get("Accept") == "text/csv" {
		csv, err := h.renderer.RenderWeekly(weekly)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if _, err := w.Write([]byte(csv)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(weeklyToDTO(weekly)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) resolveWindow(w http.ResponseWriter, r *http.Request) (rhythm.Window, bool) {
	query := r.URL.Query()

	if rangeStr := query.Get("range"); rangeStr != "" {
		rangeType, err := timerange.ParseRangeType(rangeStr)
		if err != nil {
			writeBadRequest(w, "Invalid range", "range must be one of 1w, 1m, 3m, 6m")
			return rhythm.Window{}, false
		}
		anchor := h.clock.Now()
		if dateStr := query.Get("date"); dateStr != "" {
			anchor, err = time.ParseInLocation(entry.DateFormat, dateStr, time.UTC)
			if err != nil {
				writeBadRequest(w, "Invalid date format", "date must be in YYYY-MM-DD format")
				return rhythm.Window{}, false
			}
		}
		window, err := timerange.Resolve(rangeType, anchor)
		if err != nil {
			writeBadRequest(w, "Invalid range", err.Error())
			return rhythm.Window{}, false
		}
		return window, true
	}

	from, err := time.ParseInLocation(entry.DateFormat, query.Get("from"), time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid from date", "from must be in YYYY-MM-DD format")
		return rhythm.Window{}, false
	}
	to, err := time.ParseInLocation(entry.DateFormat, query.Get("to"), time.UTC)
	if err != nil {
		writeBadRequest(w, "Invalid to date", "to must be in YYYY-MM-DD format")
		return rhythm.Window{}, false
	}
	window, err := rhythm.NewWindow(from, to)
	if err != nil {
		writeBadRequest(w, "Invalid window", err.Error())
		return rhythm.Window{}, false
	}
	return window, true
}

func reportToDTO(report Report) ReportDTO {
	dto := ReportDTO{Primary: aggregateToDTO(report.Primary)}
	if report.Comparison != nil {
		comparison := aggregateToDTO(*report.Comparison)
		dto.Comparison = &comparison
		dto.Comparisons = comparisonsToDTO(report.Comparisons)
	}
	return dto
}

func weeklyToDTO(weekly WeeklyReport) WeeklyReportDTO {
	dto := WeeklyReportDTO{
		Range: string(weekly.Range),
		From:  weekly.Window.Start.Format(entry.DateFormat),
		To:    weekly.Window.End.Format(entry.DateFormat),
		Weeks: make([]WeekSummaryDTO, 0, len(weekly.Weeks)),
	}
	for _, week := range weekly.Weeks {
		dto.Weeks = append(dto.Weeks, WeekSummaryDTO{
			WeekID:    week.WeekID,
			Aggregate: aggregateToDTO(week.Aggregate),
			Deltas:    comparisonsToDTO(week.Deltas),
		})
	}
	return dto
}

func comparisonsToDTO(comparisons map[rhythm.MetricKind]rhythm.Comparison) map[string]ComparisonDTO {
	dtos := make(map[string]ComparisonDTO, len(comparisons))
	for kind, cmp := range comparisons {
		dtos[string(kind)] = ComparisonDTO{
			Baseline:      metricToDTO(cmp.Baseline),
			Current:       metricToDTO(cmp.Current),
			Delta:         metricToDTO(cmp.Delta),
			PercentChange: metricToDTO(cmp.PercentChange),
		}
	}
	return dtos
}

func aggregateToDTO(agg rhythm.Aggregate) AggregateDTO {
	byActivity := make(map[string]int, len(agg.SessionsByActivity))
	for activity, count := range agg.SessionsByActivity {
		byActivity[string(activity)] = count
	}
	return AggregateDTO{
		From:               agg.Window.Start.Format(entry.DateFormat),
		To:                 agg.Window.End.Format(entry.DateFormat),
		EntryCount:         agg.EntryCount,
		TotalLoad:          metricToDTO(agg.TotalLoad),
		UndefinedLoadCount: agg.UndefinedLoadCount,
		TotalVolume:        metricToDTO(agg.TotalVolume),
		SessionCount:       metricToDTO(agg.SessionCount),
		ActiveDays:         metricToDTO(agg.ActiveDays),
		RestDays:           metricToDTO(agg.RestDays),
		UnloggedDays:       metricToDTO(agg.UnloggedDays),
		RestRatio:          metricToDTO(agg.RestRatio),
		AvgRPE:             metricToDTO(agg.AvgRPE),
		HardSessions:       metricToDTO(agg.HardSessions),
		LongestActive:      metricToDTO(agg.LongestActiveStreak),
		LongestRest:        metricToDTO(agg.LongestRestStreak),
		MaxGapDays:         metricToDTO(agg.MaxGapDays),
		SessionsByActivity: byActivity,
	}
}

func metricToDTO(m rhythm.Metric) MetricDTO {
	if !m.Defined {
		return MetricDTO{Reason: string(m.Reason)}
	}
	amount := m.Amount
	return MetricDTO{Value: &amount, Defined: true}
}

func writeBadRequest(w http.ResponseWriter, msg string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: msg, Details: details})
}
