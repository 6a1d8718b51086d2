package domain

import (
	"errors"
	"time"
)

// ErrNewsNotFound is returned by repositories when the requested id has no row.
var ErrNewsNotFound = errors.New("news item not found")

// SocialStatus enumerates the distribution lifecycle of a news item.
type SocialStatus string

const (
	StatusPending    SocialStatus = "pending"
	StatusProcessing SocialStatus = "processing"
	StatusCompleted  SocialStatus = "completed"
	StatusPartial    SocialStatus = "partial"
)

// Platform names the supported social targets.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
)

// NewsItem is the persisted news row as seen by the distribution workflow.
// SharedFacebook/SharedInstagram record confirmed publishes; a true flag
// implies the matching link is set.
type NewsItem struct {
	ID              int64
	Content         string
	SocialStatus    SocialStatus
	SharedFacebook  bool
	SharedInstagram bool
	LinkFacebook    *string
	LinkInstagram   *string
	StatusChangedAt time.Time
}

// DistributionRequest carries one distribution trigger. The Share* flags mean
// "attempt this platform"; they are distinct from the persisted result flags
// on NewsItem, which mean "this platform succeeded".
type DistributionRequest struct {
	NewsID         int64
	ImageURLs      []string
	Content        string
	ShareFacebook  bool
	ShareInstagram bool
}

// OutcomeState tags a per-platform publish result.
type OutcomeState int

const (
	OutcomeNotAttempted OutcomeState = iota
	OutcomeSucceeded
	OutcomeFailed
)

// PublishOutcome is the settled result of one platform branch. Exactly one of
// Link/Reason is meaningful, selected by State.
type PublishOutcome struct {
	State  OutcomeState
	Link   string
	Reason string
}

// Succeeded builds a successful outcome carrying the canonical post link.
func Succeeded(link string) PublishOutcome {
	return PublishOutcome{State: OutcomeSucceeded, Link: link}
}

// Failed builds a failed outcome carrying the captured error text.
func Failed(reason string) PublishOutcome {
	return PublishOutcome{State: OutcomeFailed, Reason: reason}
}

// NotAttempted marks a platform that was not requested or was skipped.
func NotAttempted() PublishOutcome {
	return PublishOutcome{State: OutcomeNotAttempted}
}

// DistributionResult summarizes one orchestration run.
type DistributionResult struct {
	NewsID    int64
	Status    SocialStatus
	Facebook  PublishOutcome
	Instagram PublishOutcome
}

// ChangeEvent is the payload fanned out to realtime subscribers after each
// row write. Nil link pointers mean the column is still unset.
type ChangeEvent struct {
	NewsID        int64        `json:"newsId"`
	SocialStatus  SocialStatus `json:"socialStatus"`
	LinkFacebook  *string      `json:"linkFacebook,omitempty"`
	LinkInstagram *string      `json:"linkInstagram,omitempty"`
}

// Preview holds OpenGraph metadata scraped for the admin composer.
type Preview struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURLs   []string `json:"imageUrls"`
}
