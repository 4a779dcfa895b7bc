package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/mguinada/agent-skills/pkg/frontmatter"
	"github.com/mguinada/agent-skills/pkg/judge"
	"github.com/mguinada/agent-skills/pkg/presenter"
	"github.com/mguinada/agent-skills/pkg/report"
	"github.com/mguinada/agent-skills/pkg/skills"
	"github.com/mguinada/agent-skills/pkg/validator"
)

// parseMode maps the optional second CLI argument to a validation mode and
// whether the LLM judge runs. The llm mode builds on the review checks.
func parseMode(arg string) (validator.Mode, bool, error) {
	switch arg {
	case "":
		return validator.ModeLint, false, nil
	case "review":
		return validator.ModeReview, false, nil
	case "llm":
		return validator.ModeReview, true, nil
	}
	return 0, false, errors.Errorf("unknown mode '%s' (expected 'review' or 'llm')", arg)
}

// judgeConfig assembles the judge settings from configuration. Validation of
// required values happens in judge.NewClient.
func judgeConfig() judge.Config {
	return judge.Config{
		BaseURL: viper.GetString("judge.base_url"),
		APIKey:  viper.GetString("judge.api_key"),
		Model:   viper.GetString("judge.model"),
	}
}

// runEval is the dispatcher: it discovers packages, selects the evaluation
// mode, runs the pipeline per package, and returns the process exit code.
func runEval(ctx context.Context, args []string) int {
	discovery := skills.NewDiscovery(skills.WithRoot(viper.GetString("skills.dir")))

	packages, err := discovery.Packages()
	if err != nil {
		presenter.Error(err, "Failed to discover skill packages")
		return 1
	}

	if len(args) == 0 {
		renderList(presenter.Output(), packages)
		return 0
	}

	target := args[0]
	modeArg := ""
	if len(args) == 2 {
		modeArg = args[1]
	}

	mode, useJudge, err := parseMode(modeArg)
	if err != nil {
		presenter.Error(err, "Invalid arguments")
		return 1
	}

	selected := packages
	if target != "all" {
		pkg, found := skills.Lookup(packages, target)
		if !found {
			presenter.Error(errors.Errorf("skill '%s' not found", target), "Unknown skill")
			presenter.Info("Available skills: " + strings.Join(skills.Names(packages), ", "))
			return 1
		}
		selected = []skills.Package{pkg}
	}

	// A missing judge configuration aborts LLM mode, but the rule-based
	// results are still produced and printed
	var evaluator judge.Evaluator
	var configErr error
	if useJudge {
		evaluator, configErr = judge.NewClient(judgeConfig())
		if configErr != nil {
			presenter.Error(configErr, "LLM evaluation unavailable")
		}
	}

	agg := report.NewAggregator()
	out := presenter.Output()

	for i, pkg := range selected {
		if i > 0 {
			presenter.Separator()
		}

		result, doc := evaluatePackage(pkg, mode)
		report.WriteResult(out, pkg.Name, result)

		var eval *judge.Evaluation
		if useJudge && configErr == nil {
			// A judge failure is reported per package and never aborts the run
			eval = judgePackage(ctx, evaluator, pkg, doc)
			if eval != nil {
				report.WriteEvaluation(out, eval)
			}
		}

		agg.Add(pkg.Name, result, eval)
	}

	summary := agg.Summary()
	if target == "all" {
		presenter.Separator()
		report.WriteSummary(out, summary)
	}

	if !summary.Passed || configErr != nil {
		return 1
	}
	return 0
}

// evaluatePackage reads and validates one package's skill document. Read and
// parse failures become failing results, never errors. The parsed document is
// returned for the judge when available.
func evaluatePackage(pkg skills.Package, mode validator.Mode) (*validator.Result, *frontmatter.Document) {
	content, err := pkg.ReadDocument()
	if err != nil {
		return validator.FromError(err), nil
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return validator.FromError(err), nil
	}

	return validator.Validate(doc, mode), doc
}

func judgePackage(ctx context.Context, evaluator judge.Evaluator, pkg skills.Package, doc *frontmatter.Document) *judge.Evaluation {
	if doc == nil {
		presenter.Warning(fmt.Sprintf("Skipping LLM evaluation for '%s': document could not be parsed", pkg.Name))
		return nil
	}

	eval, err := evaluator.Evaluate(ctx, doc)
	if err != nil {
		presenter.Error(err, fmt.Sprintf("LLM evaluation failed for '%s'", pkg.Name))
		return nil
	}

	return eval
}

// renderList prints the discovered packages as a table. Descriptions are
// read best-effort; a package whose document is missing or malformed is
// still listed.
func renderList(w io.Writer, packages []skills.Package) {
	if len(packages) == 0 {
		fmt.Fprintln(w, "No skill packages found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIRECTORY\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t---------\t-----------")

	for _, pkg := range packages {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", pkg.Name, pkg.Dir, packageDescription(pkg))
	}
	tw.Flush()
}

func packageDescription(pkg skills.Package) string {
	content, err := pkg.ReadDocument()
	if err != nil {
		return "-"
	}

	doc, err := frontmatter.Parse(content)
	if err != nil {
		return "-"
	}

	description := doc.String("description")
	if description == "" {
		return "-"
	}
	if len(description) > 60 {
		description = description[:57] + "..."
	}
	return description
}
