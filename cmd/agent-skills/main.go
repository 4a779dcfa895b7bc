package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mguinada/agent-skills/pkg/judge"
	"github.com/mguinada/agent-skills/pkg/logger"
	"github.com/mguinada/agent-skills/pkg/presenter"
	"github.com/mguinada/agent-skills/pkg/skills"
)

func init() {
	// Environment variables: AGENT_SKILLS_JUDGE_BASE_URL, AGENT_SKILLS_JUDGE_API_KEY, ...
	viper.SetEnvPrefix("AGENT_SKILLS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Optional settings file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.agent-skills")
	viper.AddConfigPath(".")

	viper.SetDefault("skills.dir", skills.DefaultRoot)
	viper.SetDefault("judge.model", judge.DefaultModel)

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "agent-skills [skill-name|all] [review|llm]",
	Short: "Lint and evaluate AI agent skill packages",
	Long: `agent-skills inspects the skill packages in this repository.

With no arguments it lists the discovered packages. Given a skill name (or
'all') it validates the package's SKILL.md against the structural rulebook.
A second argument selects the evaluation mode:

  review  adds content heuristics to the lint checks
  llm     additionally submits the document to the configured LLM judge

Examples:
  agent-skills
  agent-skills conventional-commits
  agent-skills conventional-commits review
  agent-skills all llm`,
	Args: cobra.MaximumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if level := viper.GetString("log_level"); level != "" {
			if err := logger.SetLogLevel(level); err != nil {
				presenter.Warning("Invalid log level '" + level + "', using default")
			}
		}
		presenter.SetQuiet(viper.GetBool("quiet"))

		if code := runEval(cmd.Context(), args); code != 0 {
			os.Exit(code)
		}
	},
}

func main() {
	rootCmd.PersistentFlags().String("skills-dir", "", "Directory containing the skill packages (overrides config)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-essential output")

	viper.BindPFlag("skills.dir", rootCmd.PersistentFlags().Lookup("skills-dir"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		presenter.Error(err, "")
		os.Exit(1)
	}
}
