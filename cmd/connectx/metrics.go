package main

//
// Metrics summary
//

import (
	"fmt"
	"io"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
)

// printMetrics writes a line for each counter and histogram sample,
// sorted by metric name and labels.
func printMetrics(w io.Writer, families []*dto.MetricFamily) {
	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := formatLabels(metric.GetLabel())
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s{%s} %.0f",
					family.GetName(), labels, metric.GetCounter().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s{%s} count=%d sum=%.3f",
					family.GetName(), labels, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

func formatLabels(pairs []*dto.LabelPair) string {
	var out []string
	for _, pair := range pairs {
		out = append(out, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
	}
	return strings.Join(out, ",")
}
