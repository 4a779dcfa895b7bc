// Package report renders per-skill evaluation sections and folds individual
// results into a run-level summary. It is a pure formatting and accumulation
// layer over already-validated data; no errors originate here.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mguinada/agent-skills/pkg/judge"
	"github.com/mguinada/agent-skills/pkg/validator"
)

// Entry pairs one skill package with its validation result and, in LLM mode,
// the judge's evaluation.
type Entry struct {
	Name       string
	Result     *validator.Result
	Evaluation *judge.Evaluation
}

// Summary holds the run-level counters for the closing section
type Summary struct {
	Total        int
	PassedCount  int
	FailedCount  int
	AverageScore float64
	Passed       bool
}

// Aggregator accumulates per-skill entries over one CLI invocation
type Aggregator struct {
	entries []Entry
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add folds one skill's results into the run
func (a *Aggregator) Add(name string, result *validator.Result, eval *judge.Evaluation) {
	a.entries = append(a.entries, Entry{Name: name, Result: result, Evaluation: eval})
}

// Entries returns the accumulated entries in insertion order.
func (a *Aggregator) Entries() []Entry {
	return a.entries
}

// Summary computes the run-level counters. The average is only computed when
// at least one skill was evaluated.
func (a *Aggregator) Summary() Summary {
	s := Summary{Total: len(a.entries)}

	total := 0
	for _, entry := range a.entries {
		if entry.Result.Passed {
			s.PassedCount++
		} else {
			s.FailedCount++
		}
		total += entry.Result.Score
	}

	if s.Total > 0 {
		s.AverageScore = float64(total) / float64(s.Total)
	}
	s.Passed = s.FailedCount == 0

	return s
}

var (
	titleColor = color.New(color.Bold)
	passColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	failColor  = color.New(color.FgRed, color.Bold)
	faintColor = color.New(color.Faint)
)

// WriteResult renders one skill's validation section
func WriteResult(w io.Writer, name string, result *validator.Result) {
	titleColor.Fprintf(w, "Skill: %s\n", name)

	for _, check := range result.Checks {
		switch check.Status {
		case validator.StatusPass:
			passColor.Fprintf(w, "  ✓ %s: %s\n", check.Name, check.Message)
		case validator.StatusWarn:
			warnColor.Fprintf(w, "  ⚠ %s: %s\n", check.Name, check.Message)
		case validator.StatusFail:
			failColor.Fprintf(w, "  ✗ %s: %s\n", check.Name, check.Message)
		}
	}

	verdict := "PASSED"
	verdictColor := passColor
	if !result.Passed {
		verdict = "FAILED"
		verdictColor = failColor
	}
	verdictColor.Fprintf(w, "  %s", verdict)
	fmt.Fprintf(w, " (score: %d/100)\n", result.Score)
}

// WriteEvaluation renders the judge's section for one skill
func WriteEvaluation(w io.Writer, eval *judge.Evaluation) {
	titleColor.Fprintln(w, "LLM evaluation:")

	writeCategory(w, "description", eval.Description)
	writeCategory(w, "content", eval.Content)
	writeCategory(w, "structure", eval.Structure)

	fmt.Fprintf(w, "  overall: %.1f/100\n", eval.OverallScore)
	if eval.Assessment != "" {
		fmt.Fprintf(w, "  assessment: %s\n", eval.Assessment)
	}
	for _, suggestion := range eval.Suggestions {
		faintColor.Fprintf(w, "  - %s\n", suggestion)
	}
}

func writeCategory(w io.Writer, name string, category judge.Category) {
	fmt.Fprintf(w, "  %s: %d/100", name, category.Score)
	if category.Feedback != "" {
		faintColor.Fprintf(w, " - %s", category.Feedback)
	}
	fmt.Fprintln(w)
}

// WriteSummary renders the closing run-level section
func WriteSummary(w io.Writer, s Summary) {
	titleColor.Fprintln(w, "Summary")
	titleColor.Fprintln(w, strings.Repeat("-", len("Summary")))
	fmt.Fprintf(w, "  skills evaluated: %d\n", s.Total)
	passColor.Fprintf(w, "  passed: %d\n", s.PassedCount)
	if s.FailedCount > 0 {
		failColor.Fprintf(w, "  failed: %d\n", s.FailedCount)
	} else {
		fmt.Fprintf(w, "  failed: %d\n", s.FailedCount)
	}
	if s.Total > 0 {
		fmt.Fprintf(w, "  average score: %.1f/100\n", s.AverageScore)
	}

	if s.Passed {
		passColor.Fprintln(w, "  all skills passed")
	} else {
		failColor.Fprintln(w, "  some skills failed")
	}
}
