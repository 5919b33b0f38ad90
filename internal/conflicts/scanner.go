package conflicts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sonata-project/devkit/internal/api"
	"github.com/sonata-project/devkit/internal/models"
)

// Reader is the read side of the forge
type Reader interface {
	ListOpenPullRequests(ctx context.Context, repo models.Repository) ([]models.PullRequest, error)
	GetPullRequest(ctx context.Context, repo models.Repository, number int) (models.PullRequest, error)
	ListIssueComments(ctx context.Context, repo models.Repository, number int) ([]models.Comment, error)
	LatestCommit(ctx context.Context, repo models.Repository, number int) (models.Commit, error)
}

// Forge is everything the scanner needs from the forge
type Forge interface {
	Reader
	Writer
}

// Reporter prints scan progress for humans
type Reporter interface {
	Section(title string)
	Text(line string)
	Error(message string)
}

// Recorder keeps an audit trail of flagged pull requests
type Recorder interface {
	RecordReminder(project models.Project, pr models.PullRequest, result models.ActionResult) error
}

// Summary counts what happened during a run
type Summary struct {
	Projects int
	Failed   int
	Flagged  int
	Applied  int
	Skipped  int
}

// Scanner walks every configured project looking for conflicting pull requests
type Scanner struct {
	forge     Forge
	evaluator Evaluator
	actuator  *Actuator
	reporter  Reporter
	recorder  Recorder
	log       *zap.SugaredLogger
}

// NewScanner creates a new scanner. recorder may be nil.
func NewScanner(forge Forge, botLogin string, reporter Reporter, recorder Recorder, log *zap.SugaredLogger) *Scanner {
	return &Scanner{
		forge:     forge,
		evaluator: Evaluator{BotLogin: botLogin},
		actuator:  NewActuator(forge, log),
		reporter:  reporter,
		recorder:  recorder,
		log:       log,
	}
}

// Run scans projects one after another. A failing project is reported and
// the run moves on to the next one.
func (s *Scanner) Run(ctx context.Context, projects []models.Project, apply bool) Summary {
	var summary Summary

	for _, project := range projects {
		if err := ctx.Err(); err != nil {
			s.log.Warnw("scan interrupted", "remaining", len(projects)-summary.Projects, "error", err)
			break
		}

		summary.Projects++
		s.reporter.Section(project.Name)

		if err := s.scanProject(ctx, project, apply, &summary); err != nil {
			summary.Failed++
			s.reporter.Error(fmt.Sprintf("Failed with message: %s", err))
			s.log.Errorw("project scan failed",
				"project", project.Name,
				"repository", project.Repository.FullName(),
				"kind", api.KindOf(err),
				"error", err,
			)
		}
	}

	s.log.Infow("scan finished",
		"projects", summary.Projects,
		"failed", summary.Failed,
		"flagged", summary.Flagged,
		"applied", summary.Applied,
		"skipped", summary.Skipped,
		"apply", apply,
	)
	return summary
}

func (s *Scanner) scanProject(ctx context.Context, project models.Project, apply bool, summary *Summary) error {
	repo := project.Repository

	prs, err := s.forge.ListOpenPullRequests(ctx, repo)
	if err != nil {
		return err
	}

	s.log.Debugw("open pull requests fetched", "repository", repo.FullName(), "count", len(prs))

	for _, pr := range prs {
		err := s.checkPullRequest(ctx, project, pr, apply, summary)
		if api.IsData(err) {
			summary.Skipped++
			s.log.Warnw("skipping pull request with malformed forge data",
				"repository", repo.FullName(),
				"number", pr.Number,
				"error", err,
			)
			continue
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Scanner) checkPullRequest(ctx context.Context, project models.Project, pr models.PullRequest, apply bool, summary *Summary) error {
	repo := project.Repository

	if pr.NeedsDetail {
		detailed, err := s.forge.GetPullRequest(ctx, repo, pr.Number)
		if err != nil {
			return err
		}
		pr = detailed
	}

	if Classify(pr) != Eligible {
		return nil
	}

	comments, err := s.forge.ListIssueComments(ctx, repo, pr.Number)
	if err != nil {
		return err
	}

	var lastCommit *models.Commit
	commit, err := s.forge.LatestCommit(ctx, repo, pr.Number)
	switch {
	case err == nil:
		lastCommit = &commit
	case api.IsNotFound(err):
		s.log.Warnw("pull request has no commits, reminding anyway",
			"repository", repo.FullName(),
			"number", pr.Number,
		)
	default:
		return err
	}

	if !s.evaluator.IsReminderDue(comments, lastCommit) {
		return nil
	}

	result, err := s.actuator.Act(ctx, repo, pr, apply)
	if err != nil {
		return err
	}

	summary.Flagged++
	if result == models.ActionApplied {
		summary.Applied++
	}

	s.reporter.Text(fmt.Sprintf("#%d - %s", pr.Number, pr.Title))

	if s.recorder != nil {
		if err := s.recorder.RecordReminder(project, pr, result); err != nil {
			s.log.Warnw("failed to record reminder", "number", pr.Number, "error", err)
		}
	}

	return nil
}
