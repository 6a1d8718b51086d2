package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"NewsDistributor/internal/domain"
)

func TestSweepResetsOnlyOverAgeProcessingRows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	repo := newFakeRepo(1, 2, 3)
	repo.items[1].SocialStatus = domain.StatusProcessing
	repo.items[1].StatusChangedAt = now.Add(-time.Hour) // stuck
	repo.items[2].SocialStatus = domain.StatusProcessing
	repo.items[2].StatusChangedAt = now.Add(-time.Minute) // still in flight
	repo.items[3].SocialStatus = domain.StatusCompleted
	repo.items[3].StatusChangedAt = now.Add(-time.Hour)

	reaper := NewReaper(nil, repo, 15*time.Minute, nil)
	reaper.Sweep(context.Background(), now)

	if repo.items[1].SocialStatus != domain.StatusPending {
		t.Fatalf("stuck row must be reset to pending, got %s", repo.items[1].SocialStatus)
	}
	if repo.items[2].SocialStatus != domain.StatusProcessing {
		t.Fatalf("in-flight row must be left alone, got %s", repo.items[2].SocialStatus)
	}
	if repo.items[3].SocialStatus != domain.StatusCompleted {
		t.Fatalf("completed row must be left alone, got %s", repo.items[3].SocialStatus)
	}
}

func TestSweepLeavesPlatformColumnsAlone(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	link := "https://fb.com/123"

	repo := newFakeRepo(1)
	repo.items[1].SocialStatus = domain.StatusProcessing
	repo.items[1].StatusChangedAt = now.Add(-time.Hour)
	repo.items[1].SharedFacebook = true
	repo.items[1].LinkFacebook = &link

	reaper := NewReaper(nil, repo, 15*time.Minute, nil)
	reaper.Sweep(context.Background(), now)

	item := repo.items[1]
	if !item.SharedFacebook || item.LinkFacebook == nil || *item.LinkFacebook != link {
		t.Fatalf("reset must not touch platform columns: %+v", item)
	}
}

func TestSweepSwallowsRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	repo.stuckErr = errors.New("db gone")

	reaper := NewReaper(nil, repo, 15*time.Minute, nil)
	// Must not panic and must not mutate anything.
	reaper.Sweep(context.Background(), time.Now())

	if repo.items[1].SocialStatus != domain.StatusPending {
		t.Fatalf("row must be untouched, got %s", repo.items[1].SocialStatus)
	}
}
