package ports

import (
	"context"
	"time"

	"NewsDistributor/internal/domain"
)

// NewsRepository is the status store for news rows touched by distribution.
type NewsRepository interface {
	Get(ctx context.Context, id int64) (domain.NewsItem, error)
	SetStatus(ctx context.Context, id int64, status domain.SocialStatus) error
	MarkShared(ctx context.Context, id int64, platform domain.Platform, link string) error
	ResetStuck(ctx context.Context, olderThan time.Time) ([]int64, error)
}

// ChangeNotifier fans row-change events out to dashboard subscribers.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, event domain.ChangeEvent) error
}

// PreviewSource scrapes OpenGraph metadata for the admin composer.
type PreviewSource interface {
	Fetch(ctx context.Context, pageURL string) (domain.Preview, error)
}

// Scheduler controls when background jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
