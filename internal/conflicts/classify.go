// Package conflicts finds open pull requests with merge conflicts and asks
// their authors to rebase.
package conflicts

import "github.com/sonata-project/devkit/internal/models"

// Eligibility says whether a pull request enters reminder processing
type Eligibility int

const (
	NotEligible Eligibility = iota
	Eligible
)

// Classify only accepts pull requests the forge reports as conflicting.
// An unknown mergeable state is still being computed and is never a conflict.
func Classify(pr models.PullRequest) Eligibility {
	if pr.Mergeable == models.MergeableConflicting {
		return Eligible
	}
	return NotEligible
}
