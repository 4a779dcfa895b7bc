// Package validator applies the structural rulebook to a parsed skill
// document. Every outcome is data: parse failures, missing fields, and
// content heuristics all become checks on a ValidationResult, so callers
// never handle validation errors directly.
package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mguinada/agent-skills/pkg/frontmatter"
)

// Status classifies a single check outcome
type Status string

const (
	// StatusPass indicates the check succeeded
	StatusPass Status = "pass"
	// StatusWarn indicates a non-fatal shortcoming
	StatusWarn Status = "warn"
	// StatusFail indicates a rulebook violation
	StatusFail Status = "fail"
)

// Mode selects how much of the rulebook runs
type Mode int

const (
	// ModeLint runs the field checks only
	ModeLint Mode = iota
	// ModeReview additionally runs the content heuristics
	ModeReview
)

const (
	failPenalty  = 20
	warnPenalty  = 5
	minBodyLines = 20
)

// RequiredFields must be present in the header; absence is a failure.
var RequiredFields = []string{"name", "description", "version", "tags"}

// RecommendedFields should be present in the header; absence is a warning.
var RecommendedFields = []string{"author"}

var triggerPhrases = []string{"use when", "use this skill", "triggers on", "when the user"}

var stepHeadingRe = regexp.MustCompile(`(?i)\b(step|phase|stage)s?\b`)

// Check is one named rulebook outcome
type Check struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Result holds the ordered checks for one skill document together with the
// derived verdict and score.
type Result struct {
	Checks []Check `json:"checks"`
	Passed bool    `json:"passed"`
	Score  int     `json:"score"`
}

// Run parses raw document text and validates it. Parse failures are folded
// into the result as a single failing check rather than returned as errors.
func Run(content string, mode Mode) *Result {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return FromError(err)
	}
	return Validate(doc, mode)
}

// FromError converts a parse or read failure into a failing result.
func FromError(err error) *Result {
	checks := []Check{{Name: "document", Status: StatusFail, Message: err.Error()}}
	return newResult(checks)
}

// Validate applies the rulebook to an already parsed document. Check order is
// significant for reporting: required fields, then recommended fields, then
// content heuristics.
func Validate(doc *frontmatter.Document, mode Mode) *Result {
	var checks []Check

	for _, field := range RequiredFields {
		if doc.Has(field) {
			checks = append(checks, Check{field, StatusPass, fmt.Sprintf("required field '%s' is present", field)})
		} else {
			checks = append(checks, Check{field, StatusFail, fmt.Sprintf("required field '%s' is missing", field)})
		}
	}

	for _, field := range RecommendedFields {
		if doc.Has(field) {
			checks = append(checks, Check{field, StatusPass, fmt.Sprintf("recommended field '%s' is present", field)})
		} else {
			checks = append(checks, Check{field, StatusWarn, fmt.Sprintf("recommended field '%s' is missing", field)})
		}
	}

	if mode == ModeReview {
		checks = append(checks, heuristicChecks(doc)...)
	}

	return newResult(checks)
}

// newResult derives the verdict and score from the check list. The score is
// a pure sum: 100 minus fixed penalties per fail and warn, floored at 0.
func newResult(checks []Check) *Result {
	score := 100
	passed := true

	for _, check := range checks {
		switch check.Status {
		case StatusFail:
			score -= failPenalty
			passed = false
		case StatusWarn:
			score -= warnPenalty
		}
	}

	if score < 0 {
		score = 0
	}

	return &Result{Checks: checks, Passed: passed, Score: score}
}

// bodyFacts summarizes the markdown features the heuristics look for
type bodyFacts struct {
	fencedCodeBlocks int
	orderedLists     int
	stepHeadings     int
	lineCount        int
}

func heuristicChecks(doc *frontmatter.Document) []Check {
	facts := analyzeBody(doc.Body)
	var checks []Check

	if facts.fencedCodeBlocks > 0 || strings.Contains(strings.ToLower(doc.Body), "example") {
		checks = append(checks, Check{"examples", StatusPass, "body contains a code block or examples"})
	} else {
		checks = append(checks, Check{"examples", StatusWarn, "body has no code blocks or examples"})
	}

	if facts.orderedLists > 0 || facts.stepHeadings > 0 {
		checks = append(checks, Check{"structure", StatusPass, "body has step-by-step structure"})
	} else {
		checks = append(checks, Check{"structure", StatusWarn, "body has no numbered steps or step/phase/stage headings"})
	}

	description := strings.ToLower(doc.String("description"))
	if hasTriggerPhrase(description) {
		checks = append(checks, Check{"trigger-phrase", StatusPass, "description states when to use the skill"})
	} else {
		checks = append(checks, Check{"trigger-phrase", StatusWarn, "description lacks a trigger phrase such as 'use when'"})
	}

	if facts.lineCount >= minBodyLines {
		checks = append(checks, Check{"body-length", StatusPass, fmt.Sprintf("body has %d lines", facts.lineCount)})
	} else {
		checks = append(checks, Check{"body-length", StatusWarn, fmt.Sprintf("body has only %d lines (minimum %d)", facts.lineCount, minBodyLines)})
	}

	return checks
}

func hasTriggerPhrase(description string) bool {
	for _, phrase := range triggerPhrases {
		if strings.Contains(description, phrase) {
			return true
		}
	}
	return false
}

// analyzeBody parses the body as markdown and walks the AST for the features
// the heuristics care about.
func analyzeBody(body string) bodyFacts {
	facts := bodyFacts{}
	if body == "" {
		return facts
	}

	facts.lineCount = len(strings.Split(body, "\n"))

	source := []byte(body)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.FencedCodeBlock:
			facts.fencedCodeBlocks++
		case *ast.List:
			if node.IsOrdered() {
				facts.orderedLists++
			}
		case *ast.Heading:
			if stepHeadingRe.MatchString(nodeText(node, source)) {
				facts.stepHeadings++
			}
		}
		return ast.WalkContinue, nil
	})

	return facts
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
		}
	}
	return sb.String()
}
