package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/idmigrate/component"
)

// Result is one labelled value in the run summary.
type Result struct {
	Label string
	Value string
	OK    bool
}

// Summary tracks and displays the startup and the result of a task.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	taskDuration    time.Duration
	results         []Result
}

// NewSummary creates a new summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		results:     make([]Result, 0),
	}
}

// SetStartupDuration records the time spent starting components.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// SetTaskDuration records the time spent in the task.
func (s *Summary) SetTaskDuration(d time.Duration) {
	s.taskDuration = d
}

// AddResult appends a line to the run section.
func (s *Summary) AddResult(label string, value any, ok bool) {
	s.results = append(s.results, Result{Label: label, Value: fmt.Sprint(value), OK: ok})
}

// Results returns the recorded result lines.
func (s *Summary) Results() []Result {
	return s.results
}

// DisplayInfrastructure prints the started components and their live health.
func (s *Summary) DisplayInfrastructure(w io.Writer, registry *component.Registry) {
	fmt.Fprintf(w, "\n🚀 %s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())
	if registry == nil {
		return
	}

	descriptions := registry.Descriptions()
	if len(descriptions) > 0 {
		fmt.Fprintf(w, "\n📊 Infrastructure\n")
		for i, d := range descriptions {
			fmt.Fprintf(w, "   %s %s [%s]: %s\n", treePrefix(i, len(descriptions)), d.Name, d.Type, d.Details)
		}
	}

	health := registry.HealthAll(context.Background())
	if len(health) > 0 {
		fmt.Fprintf(w, "\n🏥 Health Check\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = fmt.Sprintf(" (%s)", h.Message)
			}
			fmt.Fprintf(w, "   %s %s %s: %s%s\n", treePrefix(i, len(health)),
				healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}
	fmt.Fprintln(w)
}

// DisplayResults prints the run section recorded with AddResult.
func (s *Summary) DisplayResults(w io.Writer) {
	if len(s.results) == 0 {
		return
	}

	fmt.Fprintf(w, "\n📋 Run (%.2fs)\n", s.taskDuration.Seconds())
	allOK := true
	for i, r := range s.results {
		icon := "✅"
		if !r.OK {
			icon = "❌"
			allOK = false
		}
		fmt.Fprintf(w, "   %s %s %-14s %v\n", treePrefix(i, len(s.results)), icon, r.Label+":", r.Value)
	}
	if allOK {
		fmt.Fprintf(w, "\n✅ Completed\n\n")
	} else {
		fmt.Fprintf(w, "\n⚠️  Completed with problems\n\n")
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
