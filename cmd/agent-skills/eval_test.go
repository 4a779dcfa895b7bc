package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mguinada/agent-skills/pkg/frontmatter"
	"github.com/mguinada/agent-skills/pkg/judge"
	"github.com/mguinada/agent-skills/pkg/presenter"
	"github.com/mguinada/agent-skills/pkg/skills"
	"github.com/mguinada/agent-skills/pkg/validator"
)

func init() {
	color.NoColor = true
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		arg      string
		mode     validator.Mode
		useJudge bool
		wantErr  bool
	}{
		{"", validator.ModeLint, false, false},
		{"review", validator.ModeReview, false, false},
		{"llm", validator.ModeReview, true, false},
		{"bogus", 0, false, true},
	}

	for _, tt := range tests {
		t.Run("arg "+tt.arg, func(t *testing.T) {
			mode, useJudge, err := parseMode(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
			assert.Equal(t, tt.useJudge, useJudge)
		})
	}
}

func writeSkill(t *testing.T, root, name, content string) skills.Package {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	docPath := filepath.Join(dir, skills.DocumentFileName)
	require.NoError(t, os.WriteFile(docPath, []byte(content), 0o644))
	return skills.Package{Name: name, Dir: dir, DocPath: docPath}
}

func TestEvaluatePackage(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("valid document", func(t *testing.T) {
		pkg := writeSkill(t, tmpDir, "valid", "---\nname: valid\ndescription: \"Use when testing\"\nversion: 1.0.0\ntags: [a]\nauthor: me\n---\nbody\n")

		result, doc := evaluatePackage(pkg, validator.ModeLint)
		require.NotNil(t, doc)
		assert.True(t, result.Passed)
		assert.Equal(t, 100, result.Score)
	})

	t.Run("missing document", func(t *testing.T) {
		pkg := skills.Package{Name: "ghost", DocPath: filepath.Join(tmpDir, "ghost", "SKILL.md")}

		result, doc := evaluatePackage(pkg, validator.ModeLint)
		assert.Nil(t, doc)
		assert.False(t, result.Passed)
		require.Len(t, result.Checks, 1)
		assert.Equal(t, validator.StatusFail, result.Checks[0].Status)
	})

	t.Run("no metadata block", func(t *testing.T) {
		pkg := writeSkill(t, tmpDir, "headless", "# just markdown\n")

		result, doc := evaluatePackage(pkg, validator.ModeLint)
		assert.Nil(t, doc)
		assert.False(t, result.Passed)
		assert.Contains(t, result.Checks[0].Message, "no metadata block found")
	})
}

type stubEvaluator struct {
	eval *judge.Evaluation
	err  error
}

func (s *stubEvaluator) Evaluate(_ context.Context, _ *frontmatter.Document) (*judge.Evaluation, error) {
	return s.eval, s.err
}

func TestJudgePackage(t *testing.T) {
	doc, err := frontmatter.Parse("---\nname: x\n---\nbody\n")
	require.NoError(t, err)
	pkg := skills.Package{Name: "x"}

	t.Run("success", func(t *testing.T) {
		expected := &judge.Evaluation{Assessment: "fine"}
		eval := judgePackage(context.Background(), &stubEvaluator{eval: expected}, pkg, doc)
		assert.Equal(t, expected, eval)
	})

	t.Run("judge error is swallowed", func(t *testing.T) {
		eval := judgePackage(context.Background(), &stubEvaluator{err: errors.New("boom")}, pkg, doc)
		assert.Nil(t, eval)
	})

	t.Run("unparsable document is skipped", func(t *testing.T) {
		eval := judgePackage(context.Background(), &stubEvaluator{}, pkg, nil)
		assert.Nil(t, eval)
	})
}

func TestRenderList(t *testing.T) {
	tmpDir := t.TempDir()
	good := writeSkill(t, tmpDir, "good", "---\nname: good\ndescription: A fine skill\n---\nbody\n")
	broken := writeSkill(t, tmpDir, "broken", "no frontmatter here\n")

	var buf bytes.Buffer
	renderList(&buf, []skills.Package{broken, good})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "good")
	assert.Contains(t, out, "A fine skill")
	assert.Contains(t, out, "broken")
	assert.Contains(t, out, "-")
}

func TestRenderListEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderList(&buf, nil)
	assert.Contains(t, buf.String(), "No skill packages found")
}

func TestJudgeConfigDefaults(t *testing.T) {
	t.Setenv("AGENT_SKILLS_JUDGE_BASE_URL", "")
	t.Setenv("AGENT_SKILLS_JUDGE_API_KEY", "")
	t.Setenv("AGENT_SKILLS_JUDGE_MODEL", "")
	setJudgeConfig(t, "", "")

	cfg := judgeConfig()
	assert.Empty(t, cfg.BaseURL)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, judge.DefaultModel, cfg.Model)
}

// capturePresenter routes the default presenter to buffers for the duration
// of a test so dispatcher output can be asserted on.
func capturePresenter(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	previous := presenter.SetDefault(presenter.NewWithOptions(&out, &errOut, presenter.ColorNever))
	t.Cleanup(func() { presenter.SetDefault(previous) })
	return &out, &errOut
}

func setSkillsDir(t *testing.T, dir string) {
	t.Helper()
	viper.Set("skills.dir", dir)
	t.Cleanup(func() { viper.Set("skills.dir", skills.DefaultRoot) })
}

func setJudgeConfig(t *testing.T, baseURL, apiKey string) {
	t.Helper()
	viper.Set("judge.base_url", baseURL)
	viper.Set("judge.api_key", apiKey)
	t.Cleanup(func() {
		viper.Set("judge.base_url", "")
		viper.Set("judge.api_key", "")
	})
}

// judgeServer speaks just enough of the chat completion API to return a
// fixed all-threes evaluation.
func judgeServer(t *testing.T) *httptest.Server {
	t.Helper()
	const evaluation = `{
		"description": {"criteria": {"clarity": 3, "trigger_coverage": 3, "specificity": 3, "conciseness": 3}},
		"content": {"criteria": {"actionability": 3, "examples": 3, "completeness": 3, "accuracy": 3}},
		"structure": {"criteria": {"organization": 3, "headings": 3, "progressive_flow": 3, "formatting": 3}},
		"assessment": "Excellent.",
		"suggestions": []
	}`
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id": "cmpl-1", "object": "chat.completion", "choices": [{"index": 0, "message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}]}`, evaluation)
	}))
}

const passingSkillDoc = "---\nname: good\ndescription: \"Use when testing\"\nversion: 1.0.0\ntags: [a]\nauthor: me\n---\nbody\n"
const failingSkillDoc = "---\nname: bad\ndescription: d\nversion: 1.0.0\nauthor: me\n---\nbody\n"

func TestRunEvalListMode(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "good", passingSkillDoc)
	setSkillsDir(t, tmpDir)
	out, _ := capturePresenter(t)

	code := runEval(context.Background(), nil)

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "good")
}

func TestRunEvalUnknownSkill(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "good", passingSkillDoc)
	setSkillsDir(t, tmpDir)
	out, errOut := capturePresenter(t)

	code := runEval(context.Background(), []string{"nonexistent"})

	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "skill 'nonexistent' not found")
	assert.Contains(t, out.String(), "Available skills: good")
	assert.NotContains(t, out.String(), "Skill:", "nothing is evaluated for an unknown name")
}

func TestRunEvalSingleSkill(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "good", passingSkillDoc)
	writeSkill(t, tmpDir, "bad", failingSkillDoc)
	setSkillsDir(t, tmpDir)

	t.Run("passing skill exits 0", func(t *testing.T) {
		out, _ := capturePresenter(t)
		code := runEval(context.Background(), []string{"good"})
		assert.Equal(t, 0, code)
		assert.Contains(t, out.String(), "PASSED (score: 100/100)")
	})

	t.Run("failing skill exits 1", func(t *testing.T) {
		out, _ := capturePresenter(t)
		code := runEval(context.Background(), []string{"bad"})
		assert.Equal(t, 1, code)
		assert.Contains(t, out.String(), "FAILED")
	})

	t.Run("invalid mode exits 1", func(t *testing.T) {
		_, errOut := capturePresenter(t)
		code := runEval(context.Background(), []string{"good", "bogus"})
		assert.Equal(t, 1, code)
		assert.Contains(t, errOut.String(), "unknown mode")
	})
}

func TestRunEvalAllMode(t *testing.T) {
	t.Run("exits 1 when any package fails", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "good", passingSkillDoc)
		writeSkill(t, tmpDir, "bad", failingSkillDoc)
		setSkillsDir(t, tmpDir)
		out, _ := capturePresenter(t)

		code := runEval(context.Background(), []string{"all"})

		assert.Equal(t, 1, code)
		assert.Contains(t, out.String(), "skills evaluated: 2")
		assert.Contains(t, out.String(), "some skills failed")
	})

	t.Run("exits 0 when every package passes", func(t *testing.T) {
		tmpDir := t.TempDir()
		writeSkill(t, tmpDir, "good", passingSkillDoc)
		writeSkill(t, tmpDir, "other", passingSkillDoc)
		setSkillsDir(t, tmpDir)
		out, _ := capturePresenter(t)

		code := runEval(context.Background(), []string{"all"})

		assert.Equal(t, 0, code)
		assert.Contains(t, out.String(), "all skills passed")
	})
}

func TestRunEvalLLMMode(t *testing.T) {
	tmpDir := t.TempDir()
	writeSkill(t, tmpDir, "good", passingSkillDoc)

	t.Run("missing judge config exits 1 but still validates", func(t *testing.T) {
		setSkillsDir(t, tmpDir)
		setJudgeConfig(t, "", "")
		out, errOut := capturePresenter(t)

		code := runEval(context.Background(), []string{"good", "llm"})

		assert.Equal(t, 1, code, "missing judge config forces a failing exit")
		assert.Contains(t, errOut.String(), "LLM evaluation unavailable")
		assert.Contains(t, errOut.String(), "must be configured")
		assert.Contains(t, out.String(), "Skill: good", "validator section is still printed")
	})

	t.Run("configured judge is reported and exits 0", func(t *testing.T) {
		srv := judgeServer(t)
		defer srv.Close()

		setSkillsDir(t, tmpDir)
		setJudgeConfig(t, srv.URL+"/v1", "test-key")
		out, _ := capturePresenter(t)

		code := runEval(context.Background(), []string{"good", "llm"})

		assert.Equal(t, 0, code)
		assert.Contains(t, out.String(), "LLM evaluation:")
		assert.Contains(t, out.String(), "overall: 100.0/100")
	})

	t.Run("judge failure does not change the exit code", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": {"message": "overloaded", "type": "server_error"}}`)
		}))
		defer srv.Close()

		setSkillsDir(t, tmpDir)
		setJudgeConfig(t, srv.URL+"/v1", "test-key")
		out, errOut := capturePresenter(t)

		code := runEval(context.Background(), []string{"good", "llm"})

		assert.Equal(t, 0, code, "exit reflects the validator verdict only")
		assert.Contains(t, errOut.String(), "LLM evaluation failed for 'good'")
		assert.Contains(t, out.String(), "PASSED")
	})
}
