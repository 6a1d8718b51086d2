package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/publisher"
)

type fakeRepo struct {
	mu           sync.Mutex
	items        map[int64]*domain.NewsItem
	statusWrites []domain.SocialStatus
	failSet      bool
	stuckErr     error
}

func newFakeRepo(ids ...int64) *fakeRepo {
	items := map[int64]*domain.NewsItem{}
	for _, id := range ids {
		items[id] = &domain.NewsItem{ID: id, SocialStatus: domain.StatusPending}
	}
	return &fakeRepo{items: items}
}

func (r *fakeRepo) Get(_ context.Context, id int64) (domain.NewsItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.NewsItem{}, domain.ErrNewsNotFound
	}
	return *item, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id int64, status domain.SocialStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSet {
		return errors.New("write refused")
	}
	item, ok := r.items[id]
	if !ok {
		return domain.ErrNewsNotFound
	}
	item.SocialStatus = status
	r.statusWrites = append(r.statusWrites, status)
	return nil
}

func (r *fakeRepo) MarkShared(_ context.Context, id int64, platform domain.Platform, link string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.ErrNewsNotFound
	}
	stored := link
	switch platform {
	case domain.PlatformFacebook:
		item.SharedFacebook = true
		item.LinkFacebook = &stored
	case domain.PlatformInstagram:
		item.SharedInstagram = true
		item.LinkInstagram = &stored
	}
	return nil
}

func (r *fakeRepo) ResetStuck(_ context.Context, olderThan time.Time) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stuckErr != nil {
		return nil, r.stuckErr
	}
	var ids []int64
	for id, item := range r.items {
		if item.SocialStatus == domain.StatusProcessing && item.StatusChangedAt.Before(olderThan) {
			item.SocialStatus = domain.StatusPending
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

type fakePublisher struct {
	platform      domain.Platform
	requiresMedia bool
	link          string
	err           error
	panics        bool

	mu    sync.Mutex
	calls int
}

func (p *fakePublisher) Platform() domain.Platform { return p.platform }
func (p *fakePublisher) RequiresMedia() bool       { return p.requiresMedia }

func (p *fakePublisher) Publish(context.Context, string, []string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.panics {
		panic("publisher exploded")
	}
	return p.link, p.err
}

func (p *fakePublisher) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newDistributor(repo *fakeRepo, fb, ig *fakePublisher) *Distributor {
	registry := publisher.NewRegistry()
	if fb != nil {
		registry.Register(fb)
	}
	if ig != nil {
		registry.Register(ig)
	}
	return NewDistributor(DistributorDeps{
		Repository: repo,
		Publishers: registry,
	})
}

func facebookFake() *fakePublisher {
	return &fakePublisher{platform: domain.PlatformFacebook, link: "https://fb.com/123"}
}

func instagramFake() *fakePublisher {
	return &fakePublisher{platform: domain.PlatformInstagram, requiresMedia: true, link: "https://instagram.com/p/abc"}
}

func TestDistributeNoPlatformsRequested(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	fb := facebookFake()
	ig := instagramFake()
	d := newDistributor(repo, fb, ig)

	result, err := d.Distribute(context.Background(), domain.DistributionRequest{NewsID: 1})
	if err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if result.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if result.Facebook.State != domain.OutcomeNotAttempted || result.Instagram.State != domain.OutcomeNotAttempted {
		t.Fatalf("expected both not attempted, got %+v", result)
	}
	if fb.callCount() != 0 || ig.callCount() != 0 {
		t.Fatalf("no publisher should be invoked")
	}

	item := repo.items[1]
	if item.SharedFacebook || item.SharedInstagram || item.LinkFacebook != nil || item.LinkInstagram != nil {
		t.Fatalf("no platform field should be written: %+v", item)
	}
}

func TestDistributeInstagramSkippedWithoutImages(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	fb := facebookFake()
	ig := instagramFake()
	d := newDistributor(repo, fb, ig)

	result, err := d.Distribute(context.Background(), domain.DistributionRequest{
		NewsID:         1,
		Content:        "hello",
		ShareFacebook:  true,
		ShareInstagram: true,
	})
	if err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if ig.callCount() != 0 {
		t.Fatalf("instagram must not be invoked without images")
	}
	if result.Instagram.State != domain.OutcomeNotAttempted {
		t.Fatalf("instagram skip must not count as failure: %+v", result.Instagram)
	}
	if result.Status != domain.StatusCompleted {
		t.Fatalf("status depends only on facebook here, expected completed, got %s", result.Status)
	}
}

func TestDistributePartialOnInstagramFailure(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	fb := facebookFake()
	ig := instagramFake()
	ig.err = errors.New("media rejected")
	d := newDistributor(repo, fb, ig)

	result, err := d.Distribute(context.Background(), domain.DistributionRequest{
		NewsID:         1,
		ImageURLs:      []string{"a.jpg"},
		ShareFacebook:  true,
		ShareInstagram: true,
	})
	if err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if result.Status != domain.StatusPartial {
		t.Fatalf("expected partial, got %s", result.Status)
	}
	if result.Instagram.State != domain.OutcomeFailed || result.Instagram.Reason != "media rejected" {
		t.Fatalf("unexpected instagram outcome: %+v", result.Instagram)
	}

	item := repo.items[1]
	if !item.SharedFacebook || item.LinkFacebook == nil || *item.LinkFacebook != "https://fb.com/123" {
		t.Fatalf("facebook success must be persisted: %+v", item)
	}
	if item.SharedInstagram || item.LinkInstagram != nil {
		t.Fatalf("instagram columns must stay untouched: %+v", item)
	}
	if item.SocialStatus != domain.StatusPartial {
		t.Fatalf("expected persisted partial, got %s", item.SocialStatus)
	}
}

func TestDistributeGoldenScenario(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(42)
	fb := facebookFake()
	ig := instagramFake()
	d := newDistributor(repo, fb, ig)

	result, err := d.Distribute(context.Background(), domain.DistributionRequest{
		NewsID:         42,
		ImageURLs:      []string{"a.jpg"},
		Content:        "Launch!",
		ShareFacebook:  true,
		ShareInstagram: true,
	})
	if err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if result.Status != domain.StatusCompleted {
		t.Fatalf("expected completed, got %s", result.Status)
	}

	item := repo.items[42]
	if item.SocialStatus != domain.StatusCompleted {
		t.Fatalf("expected persisted completed, got %s", item.SocialStatus)
	}
	if !item.SharedFacebook || item.LinkFacebook == nil || *item.LinkFacebook != "https://fb.com/123" {
		t.Fatalf("unexpected facebook columns: %+v", item)
	}
	if !item.SharedInstagram || item.LinkInstagram == nil || *item.LinkInstagram != "https://instagram.com/p/abc" {
		t.Fatalf("unexpected instagram columns: %+v", item)
	}
}

func TestDistributeMissingNews(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	d := newDistributor(repo, facebookFake(), instagramFake())

	_, err := d.Distribute(context.Background(), domain.DistributionRequest{NewsID: 7, ShareFacebook: true})
	if !errors.Is(err, domain.ErrNewsNotFound) {
		t.Fatalf("expected ErrNewsNotFound, got %v", err)
	}
	if len(repo.statusWrites) != 0 {
		t.Fatalf("no status write expected, got %v", repo.statusWrites)
	}
}

func TestDistributeProcessingWrittenBeforeFinal(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	d := newDistributor(repo, facebookFake(), instagramFake())

	if _, err := d.Distribute(context.Background(), domain.DistributionRequest{NewsID: 1, ShareFacebook: true}); err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if len(repo.statusWrites) != 2 {
		t.Fatalf("expected 2 status writes, got %v", repo.statusWrites)
	}
	if repo.statusWrites[0] != domain.StatusProcessing {
		t.Fatalf("first write must be processing, got %s", repo.statusWrites[0])
	}
	if repo.statusWrites[1] != domain.StatusCompleted {
		t.Fatalf("final write must be completed, got %s", repo.statusWrites[1])
	}
}

func TestDistributePanicIsolatedPerPlatform(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	fb := facebookFake()
	fb.panics = true
	ig := instagramFake()
	d := newDistributor(repo, fb, ig)

	result, err := d.Distribute(context.Background(), domain.DistributionRequest{
		NewsID:         1,
		ImageURLs:      []string{"a.jpg"},
		ShareFacebook:  true,
		ShareInstagram: true,
	})
	if err != nil {
		t.Fatalf("Distribute error: %v", err)
	}

	if result.Facebook.State != domain.OutcomeFailed {
		t.Fatalf("facebook panic must surface as failure: %+v", result.Facebook)
	}
	if result.Instagram.State != domain.OutcomeSucceeded {
		t.Fatalf("instagram must still complete: %+v", result.Instagram)
	}
	if result.Status != domain.StatusPartial {
		t.Fatalf("expected partial, got %s", result.Status)
	}
}

func TestDistributeTwiceIsNotIdempotent(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	fb := facebookFake()
	d := newDistributor(repo, fb, instagramFake())
	req := domain.DistributionRequest{NewsID: 1, Content: "again", ShareFacebook: true}

	for i := 0; i < 2; i++ {
		if _, err := d.Distribute(context.Background(), req); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	// Current behavior: a second trigger re-posts and overwrites the link.
	if fb.callCount() != 2 {
		t.Fatalf("expected 2 external posts, got %d", fb.callCount())
	}
	item := repo.items[1]
	if item.LinkFacebook == nil || *item.LinkFacebook != "https://fb.com/123" {
		t.Fatalf("link should reflect the latest post: %+v", item)
	}
}

func TestDistributeProcessingWriteFailureAbortsPublish(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo(1)
	repo.failSet = true
	fb := facebookFake()
	d := newDistributor(repo, fb, instagramFake())

	_, err := d.Distribute(context.Background(), domain.DistributionRequest{NewsID: 1, ShareFacebook: true})
	if err == nil {
		t.Fatalf("expected persistence error")
	}
	if fb.callCount() != 0 {
		t.Fatalf("no publish may happen without a visible processing status")
	}
}
