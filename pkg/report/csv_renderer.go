package report

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/dojolog/dojolog/pkg/rhythm"
	log "github.com/sirupsen/logrus"
)

// Placeholder is what an undefined value renders as. Never zero, never blank.
const Placeholder = "—"

type Renderer interface {
	RenderReport(report Report) (string, error)
	RenderWeekly(weekly WeeklyReport) (string, error)
}

type CsvRendererImpl struct {
}

func NewCsvRenderer() *CsvRendererImpl {
	return &CsvRendererImpl{}
}

// RenderReport renders one row per metric: primary value, comparison value,
// delta and percent change. Undefined cells carry the placeholder.
func (r *CsvRendererImpl) RenderReport(report Report) (string, error) {
	data := [][]string{{"metric", "value", "comparison", "delta", "percentChange"}}

	for _, kind := range rhythm.MetricKinds {
		primary, err := report.Primary.Metric(kind)
		if err != nil {
			return "", err
		}
		row := []string{string(kind), formatMetric(primary)}

		if report.Comparison != nil {
			comparison, err := report.Comparison.Metric(kind)
			if err != nil {
				return "", err
			}
			cmp := report.Comparisons[kind]
			row = append(row, formatMetric(comparison), formatMetric(cmp.Delta), formatPercent(cmp.PercentChange))
		} else {
			row = append(row, Placeholder, Placeholder, Placeholder)
		}
		data = append(data, row)
	}

	return writeCsv(data)
}

// RenderWeekly renders one row per ISO week.
func (r *CsvRendererImpl) RenderWeekly(weekly WeeklyReport) (string, error) {
	data := [][]string{{
		"week", "sessions", "volume", "load", "avgRpe", "hardSessions",
		"activeDays", "restDays", "unloggedDays", "deltaSessions", "deltaVolume", "deltaLoad",
	}}

	for _, week := range weekly.Weeks {
		agg := week.Aggregate
		data = append(data, []string{
			week.WeekID,
			formatMetric(agg.SessionCount),
			formatMetric(agg.TotalVolume),
			formatMetric(agg.TotalLoad),
			formatMetric(agg.AvgRPE),
			formatMetric(agg.HardSessions),
			formatMetric(agg.ActiveDays),
			formatMetric(agg.RestDays),
			formatMetric(agg.UnloggedDays),
			formatMetric(week.Deltas[rhythm.MetricSessionCount].Delta),
			formatMetric(week.Deltas[rhythm.MetricTotalVolume].Delta),
			formatMetric(week.Deltas[rhythm.MetricTotalLoad].Delta),
		})
	}

	return writeCsv(data)
}

func writeCsv(data [][]string) (string, error) {
	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		if err := writer.Write(row); err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func formatMetric(m rhythm.Metric) string {
	if !m.Defined {
		return Placeholder
	}
	return strconv.FormatFloat(m.Amount, 'f', -1, 64)
}

func formatPercent(m rhythm.Metric) string {
	if !m.Defined {
		return Placeholder
	}
	return strconv.FormatFloat(m.Amount*100, 'f', 1, 64) + "%"
}
