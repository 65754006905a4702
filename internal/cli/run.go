package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forgeworks/genforge/internal/checks"
	"github.com/forgeworks/genforge/internal/config"
	"github.com/forgeworks/genforge/internal/correct"
	"github.com/forgeworks/genforge/internal/db"
	"github.com/forgeworks/genforge/internal/executor"
	"github.com/forgeworks/genforge/internal/generate"
	"github.com/forgeworks/genforge/internal/orchestrator"
	"github.com/forgeworks/genforge/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured pipeline end to end",
	RunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if errs := config.Validate(cfg); len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "config: %s\n", e)
			}
			return fmt.Errorf("config has %d validation error(s)", len(errs))
		}

		store, err := session.DefaultStore()
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}

		database := openEventLog(cmd)
		if database != nil {
			defer database.Close()
		}

		client, err := buildClient(cmd, &cfg.Pipeline.Generation)
		if err != nil {
			return err
		}
		if client != nil {
			defer client.Close()
		}

		exec := executor.New(executor.Options{
			Client:        client,
			Engine:        correct.NewEngine(),
			Checker:       checks.NewRunner(&checks.ExecRunner{}),
			Store:         store,
			Events:        database,
			MaxIterations: cfg.Pipeline.Correction.MaxIterations,
			MaxTokens:     cfg.Pipeline.Generation.MaxTokens,
			Temperature:   cfg.Pipeline.Generation.Temperature,
			ResolveChecks: checkResolver(cfg),
		})
		exec.SetProgress(cmd.ErrOrStderr())

		orch := orchestrator.New(orchestrator.Options{
			Exec:   exec,
			Store:  store,
			Events: database,
		})
		orch.SetProgress(cmd.ErrOrStderr())

		initialContext, err := mergeContext(cfg.Pipeline.Context, runContextPairs)
		if err != nil {
			return err
		}

		sess, err := orch.Start(cfg.Pipeline.Name, phaseDefinitions(cfg), initialContext)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session %s: pipeline %q (%d phases)\n",
			sess.ID, sess.Pipeline, len(sess.Phases))

		outcome, runErr := orch.Run(cmd.Context(), sess)
		printOutcome(cmd, outcome)
		return runErr
	},
}

var (
	runContextPairs []string
	runFallbackOnly bool
)

func init() {
	runCmd.Flags().StringVarP(&configFile, "file", "f", "", "path to pipeline config file")
	runCmd.Flags().StringArrayVar(&runContextPairs, "set", nil, "context override key=value (repeatable)")
	runCmd.Flags().BoolVar(&runFallbackOnly, "fallback", false, "skip the remote collaborator and use the deterministic generator")
}

// buildClient picks the collaborator from config. A missing API key is not
// fatal: the run proceeds on the fallback generator.
func buildClient(cmd *cobra.Command, gen *config.Generation) (generate.Client, error) {
	if runFallbackOnly || gen.Provider == "fallback" {
		return nil, nil
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "GEMINI_API_KEY not set; using fallback generator")
		return nil, nil
	}
	client, err := generate.NewGeminiClient(cmd.Context(), gen.Model)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return client, nil
}

// openEventLog opens and migrates the SQLite event log. Failure degrades to
// running without one.
func openEventLog(cmd *cobra.Command) *db.DB {
	path, err := db.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "event log disabled: %v\n", err)
		return nil
	}
	database, err := db.Open(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "event log disabled: %v\n", err)
		return nil
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		fmt.Fprintf(cmd.ErrOrStderr(), "event log disabled: %v\n", err)
		return nil
	}
	return database
}

// checkResolver maps configured check names onto runner configs.
func checkResolver(cfg *config.Config) func(names []string) []checks.CheckConfig {
	return func(names []string) []checks.CheckConfig {
		var out []checks.CheckConfig
		for _, name := range names {
			c, ok := cfg.Pipeline.Checks[name]
			if !ok {
				continue
			}
			timeout, _ := time.ParseDuration(c.Timeout)
			out = append(out, checks.CheckConfig{
				Name:       name,
				Command:    c.Command,
				Parser:     c.Parser,
				Timeout:    timeout,
				AutoFix:    c.AutoFix,
				FixCommand: c.FixCommand,
			})
		}
		return out
	}
}

func phaseDefinitions(cfg *config.Config) []session.PhaseDefinition {
	defs := make([]session.PhaseDefinition, len(cfg.Pipeline.Phases))
	for i, ph := range cfg.Pipeline.Phases {
		defs[i] = session.PhaseDefinition{
			Name:        ph.ID,
			Description: ph.Description,
			DependsOn:   ph.DependsOn,
			Outputs:     ph.Outputs,
			Template:    ph.PromptTemplate,
			Checks:      ph.Checks,
		}
	}
	return defs
}

func mergeContext(base map[string]string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(base)+len(pairs))
	for k, v := range base {
		out[k] = v
	}
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set value %q, want key=value", p)
		}
		out[k] = v
	}
	return out, nil
}

func printOutcome(cmd *cobra.Command, out *orchestrator.Outcome) {
	if out == nil {
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nSession %s: %s\n", out.SessionID, out.Status)
	for _, r := range out.Results {
		fmt.Fprintf(w, "  %-20s %-10s %4dms  %d file(s)",
			r.Phase, r.Status, r.Metrics.DurationMs, r.Metrics.Files)
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s", r.Error)
		}
		fmt.Fprintln(w)
	}
	if out.Status == session.StatusCompleted {
		fmt.Fprintf(w, "Total: %d file(s), %d line(s), %d test(s), est. coverage %.1f%%\n",
			out.Metrics.TotalFiles, out.Metrics.TotalLines,
			out.Metrics.GeneratedTests, out.Metrics.EstimatedCoverage)
	}
}
