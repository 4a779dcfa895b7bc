package judge

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/mguinada/agent-skills/pkg/frontmatter"
)

const systemPrompt = `You are an expert reviewer of AI agent skill documents. ` +
	`You rate how well a skill document would guide a coding agent. ` +
	`Respond with a single JSON object and nothing else.`

// promptTemplate asks for four named 1-3 ratings per category plus free-text
// feedback, an overall assessment, and improvement suggestions, as one JSON
// object matching the Evaluation schema.
var promptTemplate = template.Must(template.New("judge").Parse(`Evaluate the following AI agent skill document.

Skill name: {{.Name}}
Description: {{.Description}}
{{- if .Tags}}
Tags: {{.Tags}}
{{- end}}

--- DOCUMENT BODY ---
{{.Body}}
--- END DOCUMENT BODY ---

Rate each criterion from 1 (poor) to 3 (excellent) and reply with exactly this JSON structure:

{
  "description": {
    "criteria": {"clarity": 0, "trigger_coverage": 0, "specificity": 0, "conciseness": 0},
    "feedback": "one or two sentences on the description"
  },
  "content": {
    "criteria": {"actionability": 0, "examples": 0, "completeness": 0, "accuracy": 0},
    "feedback": "one or two sentences on the instructions"
  },
  "structure": {
    "criteria": {"organization": 0, "headings": 0, "progressive_flow": 0, "formatting": 0},
    "feedback": "one or two sentences on the document structure"
  },
  "assessment": "overall assessment of the skill in a short paragraph",
  "suggestions": ["concrete improvement", "another concrete improvement"]
}

Criteria meaning:
- description: clarity of purpose, coverage of trigger conditions, specificity, conciseness
- content: actionable instructions, worked examples, completeness, technical accuracy
- structure: logical organization, useful headings, progressive disclosure, markdown formatting`))

type promptData struct {
	Name        string
	Description string
	Tags        string
	Body        string
}

// renderPrompt substitutes the document's header fields and body into the
// evaluation instruction template.
func renderPrompt(doc *frontmatter.Document) (string, error) {
	data := promptData{
		Name:        doc.String("name"),
		Description: doc.String("description"),
		Tags:        strings.Join(doc.List("tags"), ", "),
		Body:        doc.Body,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "failed to execute prompt template")
	}

	return buf.String(), nil
}
