package conflicts

import (
	"strings"
	"time"

	"github.com/sonata-project/devkit/internal/models"
)

// Evaluator decides whether the bot should speak again on a pull request
type Evaluator struct {
	BotLogin string
}

// LastBotComment returns the creation time of the bot's most recent comment
func (e Evaluator) LastBotComment(comments []models.Comment) (time.Time, bool) {
	var (
		latest time.Time
		found  bool
	)
	for _, c := range comments {
		if !strings.EqualFold(c.Author, e.BotLogin) {
			continue
		}
		if !found || c.CreatedAt.After(latest) {
			latest = c.CreatedAt
			found = true
		}
	}
	return latest.UTC(), found
}

// IsReminderDue reports whether a reminder should be posted. A nil lastCommit
// means the pull request has no commits, in which case the reminder is due.
func (e Evaluator) IsReminderDue(comments []models.Comment, lastCommit *models.Commit) bool {
	prior, ok := e.LastBotComment(comments)
	if !ok || lastCommit == nil {
		return true
	}
	// equal timestamps mean nothing was pushed since the last reminder
	return prior.Before(lastCommit.CommittedAt.UTC())
}
