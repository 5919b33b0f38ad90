package models

import (
	"fmt"
	"strings"
	"time"
)

// Repository identifies a repository on the forge
type Repository struct {
	Owner string
	Name  string
}

// FullName returns the repository in the format "owner/name"
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

func (r Repository) String() string {
	return r.FullName()
}

// ParseRepository parses a repository string in the format "owner/name"
func ParseRepository(repoStr string) (Repository, error) {
	parts := strings.Split(repoStr, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Repository{}, fmt.Errorf("invalid repository format, expected 'owner/name', got '%s'", repoStr)
	}
	return Repository{Owner: parts[0], Name: parts[1]}, nil
}

// Project is a monitored repository as listed in the configuration
type Project struct {
	Name       string
	Repository Repository
}

// Mergeable is the merge-conflict status computed by the forge
type Mergeable int

const (
	// MergeableUnknown means the forge has not finished computing mergeability
	MergeableUnknown Mergeable = iota
	// MergeableClean means the pull request merges without conflicts
	MergeableClean
	// MergeableConflicting means the pull request has merge conflicts
	MergeableConflicting
)

// MergeableFromBool converts the forge's nullable boolean
func MergeableFromBool(b *bool) Mergeable {
	switch {
	case b == nil:
		return MergeableUnknown
	case *b:
		return MergeableClean
	default:
		return MergeableConflicting
	}
}

func (m Mergeable) String() string {
	switch m {
	case MergeableClean:
		return "mergeable"
	case MergeableConflicting:
		return "conflicting"
	default:
		return "unknown"
	}
}

// PullRequest represents an open pull request
type PullRequest struct {
	Number    int
	Title     string
	Mergeable Mergeable
	// NeedsDetail is set when the listing did not carry the mergeable state
	// and the pull request has to be fetched on its own before classifying.
	NeedsDetail bool
}

// Comment represents an issue comment
type Comment struct {
	Author    string
	CreatedAt time.Time
}

// Commit represents a pull request commit
type Commit struct {
	SHA         string
	CommittedAt time.Time
}

// Label is a tag applied to an issue
type Label string

// LabelPendingAuthor signals that the pull request waits on its author
const LabelPendingAuthor Label = "PendingAuthor"

// ActionResult is the outcome of the reminder step for one pull request
type ActionResult int

const (
	ActionSkipped ActionResult = iota
	ActionApplied
	ActionDryRun
)

func (a ActionResult) String() string {
	switch a {
	case ActionApplied:
		return "applied"
	case ActionDryRun:
		return "dry-run"
	default:
		return "skipped"
	}
}
