package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sonata-project/devkit/config"
	"github.com/sonata-project/devkit/internal/api"
	"github.com/sonata-project/devkit/internal/conflicts"
	"github.com/sonata-project/devkit/internal/db"
	"github.com/sonata-project/devkit/internal/report"
)

var applyFlag bool

var commentCmd = &cobra.Command{
	Use:     "comment-non-mergeable-pull-requests",
	Aliases: []string{"merge-conflicts"},
	Short:   "Comments non-mergeable pull requests, asking the author to solve conflicts",
	Long: `Scan the open pull requests of every configured project and ask the
authors of conflicting ones to rebase. A reminder is only posted again
once new commits were pushed after the previous one.

Without --apply nothing is written, the pull requests that would be
reminded are only listed.`,
	Args: cobra.NoArgs,
	RunE: runComment,
}

func init() {
	commentCmd.Flags().BoolVar(&applyFlag, "apply", false, "Post comments and labels instead of a dry run")
	rootCmd.AddCommand(commentCmd)
}

func runComment(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	projects, err := cfg.Registry()
	if err != nil {
		return fmt.Errorf("loading projects: %w", err)
	}

	client, err := newForgeClient(cfg)
	if err != nil {
		return fmt.Errorf("creating GitHub client: %w", err)
	}

	var recorder conflicts.Recorder
	database, runID := openHistory(cfg, log)
	if database != nil {
		defer database.Close()
		recorder = database.Recorder(runID)
	}

	reporter := report.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
	reporter.Title("Comment non-mergeable pull requests")

	if !applyFlag {
		log.Infow("dry run, pass --apply to comment and label", "projects", len(projects))
	}

	scanner := conflicts.NewScanner(client, cfg.BotLogin, reporter, recorder, log)
	summary := scanner.Run(cmd.Context(), projects, applyFlag)

	if database != nil {
		stats := db.RunStats{Projects: summary.Projects, Failed: summary.Failed, Flagged: summary.Flagged}
		if err := database.FinishRun(runID, stats); err != nil {
			log.Warnw("failed to store run", "run", runID, "error", err)
		}
	}

	// Per-project failures were reported above and never fail the process.
	return nil
}

func newForgeClient(cfg *config.Config) (*api.GitHubClient, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	opts := []api.Option{api.WithRequestTimeout(timeout)}
	if cfg.APIURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.APIURL))
	}
	if cfg.UseGraphQL {
		opts = append(opts, api.WithPullRequestLister(api.NewGraphQLClient(cfg.GitHubToken, cfg.GraphQLURL, timeout)))
	}

	return api.NewGitHubClient(cfg.GitHubToken, opts...)
}

// openHistory opens the run history. The scan does not depend on it, so
// failures only disable recording.
func openHistory(cfg *config.Config, log *zap.SugaredLogger) (*db.DB, string) {
	database, err := db.New(cfg.DatabasePath)
	if err != nil {
		log.Warnw("run history disabled", "path", cfg.DatabasePath, "error", err)
		return nil, ""
	}

	if err := database.Initialize(); err != nil {
		log.Warnw("run history disabled", "path", cfg.DatabasePath, "error", err)
		database.Close()
		return nil, ""
	}

	runID, err := database.StartRun(applyFlag)
	if err != nil {
		log.Warnw("run history disabled", "path", cfg.DatabasePath, "error", err)
		database.Close()
		return nil, ""
	}

	return database, runID
}
