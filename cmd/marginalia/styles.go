package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/phroun/marginalia"
)

var (
	colorAccent  = lipgloss.Color("#3b82f6")
	colorSuccess = lipgloss.Color("#10b981")
	colorWarning = lipgloss.Color("#f59e0b")
	colorError   = lipgloss.Color("#ef4444")
	colorMuted   = lipgloss.Color("#6b7280")
)

var styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Mark    lipgloss.Style
	Fading  lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Mark:    lipgloss.NewStyle().Reverse(true),
	Fading:  lipgloss.NewStyle().Underline(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

// authorStyle colors text with an indicator color.
func authorStyle(c marginalia.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(string(c)))
}

// statusStyle picks a style for a moderation status.
func statusStyle(s marginalia.Status) lipgloss.Style {
	switch s {
	case marginalia.StatusApproved:
		return styles.Success
	case marginalia.StatusDenied:
		return styles.Error
	default:
		return styles.Warning
	}
}

// strategyLabel renders a resolution strategy, flagging inexact matches.
func strategyLabel(res marginalia.Resolution) string {
	if !res.OK {
		return styles.Error.Render("orphaned")
	}
	label := res.Range.Strategy.String()
	if !res.Range.Strategy.Exact() {
		return styles.Warning.Render(fmt.Sprintf("%s (distance %d)", label, res.Range.Distance))
	}
	return styles.Success.Render(label)
}

// printFrame writes one line per comment and one per placed indicator.
func printFrame(w io.Writer, comments []marginalia.Comment, frame marginalia.Frame, color marginalia.ColorFunc) {
	fmt.Fprintln(w, styles.Title.Render("Comments"))
	for i, res := range frame.Resolutions {
		c := comments[i]
		id := authorStyle(color(c.AuthorID)).Render(c.ID)
		if c.Anchor == nil {
			fmt.Fprintf(w, "  %s %s\n", id, styles.Muted.Render("(no anchor)"))
			continue
		}
		span := fmt.Sprintf("%d-%d", c.Anchor.Start, c.Anchor.End)
		if res.OK {
			span = fmt.Sprintf("%d-%d -> %d-%d", c.Anchor.Start, c.Anchor.End, res.Range.Start, res.Range.End)
		}
		fmt.Fprintf(w, "  %s %-8s %-20s %s %q\n",
			id, statusStyle(c.Status).Render(c.Status.String()), span, strategyLabel(res), c.Anchor.Text)
	}

	fmt.Fprintln(w, styles.Title.Render("Margin"))
	for _, p := range frame.Placements {
		ind := p.Indicator
		marker := authorStyle(ind.PrimaryColor()).Render("●")
		fmt.Fprintf(w, "  %s y=%-6.0f offset=%-5d %s %s\n",
			marker, p.Y, ind.Position, statusStyle(ind.PrimaryStatus()).Render(ind.PrimaryStatus().String()),
			strings.Join(ind.CommentIDs, ","))
	}
	if len(frame.Orphaned) > 0 {
		fmt.Fprintln(w, styles.Error.Render("Orphaned: "+strings.Join(frame.Orphaned, ", ")))
	}
}

// printMetrics writes every counter and histogram sample in the registry.
func printMetrics(w io.Writer, reg *prometheus.Registry) {
	if reg == nil {
		return
	}
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintln(w, styles.Error.Render("gather metrics: "+err.Error()))
		return
	}

	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, metricLine(mf, m))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, styles.Box.Render(styles.Title.Render("Metrics")+"\n"+strings.Join(lines, "\n")))
}

func metricLine(mf *dto.MetricFamily, m *dto.Metric) string {
	var labels []string
	for _, lp := range m.GetLabel() {
		labels = append(labels, lp.GetName()+"="+lp.GetValue())
	}
	name := mf.GetName()
	if len(labels) > 0 {
		name += "{" + strings.Join(labels, ",") + "}"
	}

	switch mf.GetType() {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%s %g", name, m.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum())
	default:
		return name
	}
}
