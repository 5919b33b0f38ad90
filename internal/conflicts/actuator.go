package conflicts

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sonata-project/devkit/internal/models"
)

// ReminderBody is posted on every conflicting pull request
const ReminderBody = "Could you please rebase your PR and fix merge conflicts?"

// Writer is the write side of the forge
type Writer interface {
	CreateComment(ctx context.Context, repo models.Repository, number int, body string) error
	AddLabel(ctx context.Context, repo models.Repository, number int, label models.Label) error
}

// Actuator posts the reminder and labels the pull request
type Actuator struct {
	writer Writer
	log    *zap.SugaredLogger
}

// NewActuator creates an actuator writing through w
func NewActuator(w Writer, log *zap.SugaredLogger) *Actuator {
	return &Actuator{writer: w, log: log}
}

// Act performs the reminder when apply is set. The comment goes first so the
// author gets feedback even when labeling fails afterwards.
func (a *Actuator) Act(ctx context.Context, repo models.Repository, pr models.PullRequest, apply bool) (models.ActionResult, error) {
	if !apply {
		return models.ActionDryRun, nil
	}

	if err := a.writer.CreateComment(ctx, repo, pr.Number, ReminderBody); err != nil {
		return models.ActionSkipped, fmt.Errorf("failed to comment on #%d: %w", pr.Number, err)
	}

	if err := a.writer.AddLabel(ctx, repo, pr.Number, models.LabelPendingAuthor); err != nil {
		a.log.Warnw("comment posted but labeling failed",
			"repository", repo.FullName(),
			"number", pr.Number,
			"label", models.LabelPendingAuthor,
			"error", err,
		)
	}

	return models.ActionApplied, nil
}
