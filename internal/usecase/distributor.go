package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/ports"
	"NewsDistributor/internal/publisher"
)

// DistributorDeps wires all driven adapters into the distribution workflow.
type DistributorDeps struct {
	Repository ports.NewsRepository
	Publishers *publisher.Registry
	Notifier   ports.ChangeNotifier
	Logger     *slog.Logger
}

// Distributor publishes a news item to the requested social platforms and
// reconciles the per-platform outcomes into one persisted lifecycle status.
type Distributor struct {
	repository ports.NewsRepository
	publishers *publisher.Registry
	notifier   ports.ChangeNotifier
	logger     *slog.Logger
}

// NewDistributor constructs the orchestration component.
func NewDistributor(deps DistributorDeps) *Distributor {
	return &Distributor{
		repository: deps.Repository,
		publishers: deps.Publishers,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Distribute runs one distribution: mark processing, fan out to the requested
// platforms, persist each success, reconcile and persist the final status.
// Re-invoking for the same news id re-posts; there is no dedupe.
func (d *Distributor) Distribute(ctx context.Context, req domain.DistributionRequest) (domain.DistributionResult, error) {
	result := domain.DistributionResult{
		NewsID:    req.NewsID,
		Facebook:  domain.NotAttempted(),
		Instagram: domain.NotAttempted(),
	}

	if _, err := d.repository.Get(ctx, req.NewsID); err != nil {
		return result, fmt.Errorf("load news %d: %w", req.NewsID, err)
	}

	// Visible before any publish begins; listeners may observe it mid-flight.
	if err := d.repository.SetStatus(ctx, req.NewsID, domain.StatusProcessing); err != nil {
		return result, fmt.Errorf("mark processing %d: %w", req.NewsID, err)
	}
	d.notify(ctx, domain.ChangeEvent{NewsID: req.NewsID, SocialStatus: domain.StatusProcessing})

	result.Facebook, result.Instagram = d.settleAll(ctx, req)

	links := map[domain.Platform]*string{}
	for _, settled := range []struct {
		platform domain.Platform
		outcome  domain.PublishOutcome
	}{
		{domain.PlatformFacebook, result.Facebook},
		{domain.PlatformInstagram, result.Instagram},
	} {
		platform, outcome := settled.platform, settled.outcome
		if outcome.State != domain.OutcomeSucceeded {
			continue
		}
		if err := d.repository.MarkShared(ctx, req.NewsID, platform, outcome.Link); err != nil {
			return result, fmt.Errorf("persist %s result for %d: %w", platform, req.NewsID, err)
		}
		link := outcome.Link
		links[platform] = &link
		d.notify(ctx, domain.ChangeEvent{
			NewsID:        req.NewsID,
			SocialStatus:  domain.StatusProcessing,
			LinkFacebook:  links[domain.PlatformFacebook],
			LinkInstagram: links[domain.PlatformInstagram],
		})
	}

	result.Status = reconcile(result.Facebook, result.Instagram)

	if err := d.repository.SetStatus(ctx, req.NewsID, result.Status); err != nil {
		return result, fmt.Errorf("persist final status for %d: %w", req.NewsID, err)
	}
	d.notify(ctx, domain.ChangeEvent{
		NewsID:        req.NewsID,
		SocialStatus:  result.Status,
		LinkFacebook:  links[domain.PlatformFacebook],
		LinkInstagram: links[domain.PlatformInstagram],
	})

	d.info("distribution settled",
		"news_id", req.NewsID,
		"status", result.Status,
		"facebook", stateName(result.Facebook.State),
		"instagram", stateName(result.Instagram.State))

	return result, nil
}

// settleAll launches the requested platform branches concurrently and waits
// for every branch to settle. Each branch captures its own error; one
// platform's fault never cancels or masks the other.
func (d *Distributor) settleAll(ctx context.Context, req domain.DistributionRequest) (facebook, instagram domain.PublishOutcome) {
	facebook = domain.NotAttempted()
	instagram = domain.NotAttempted()

	var wg sync.WaitGroup

	if req.ShareFacebook {
		wg.Add(1)
		go func() {
			defer wg.Done()
			facebook = d.publish(ctx, domain.PlatformFacebook, req)
		}()
	}

	if req.ShareInstagram {
		wg.Add(1)
		go func() {
			defer wg.Done()
			instagram = d.publish(ctx, domain.PlatformInstagram, req)
		}()
	}

	wg.Wait()
	return facebook, instagram
}

func (d *Distributor) publish(ctx context.Context, platform domain.Platform, req domain.DistributionRequest) (outcome domain.PublishOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = domain.Failed(fmt.Sprintf("publisher panic: %v", r))
		}
	}()

	pub, err := d.publishers.Resolve(platform)
	if err != nil {
		return domain.Failed(err.Error())
	}

	if pub.RequiresMedia() && len(req.ImageURLs) == 0 {
		// Requested but impossible without media: silently skipped, not a failure.
		return domain.NotAttempted()
	}

	link, err := pub.Publish(ctx, req.Content, req.ImageURLs)
	if err != nil {
		d.warn("publish failed", "platform", platform, "news_id", req.NewsID, "error", err)
		return domain.Failed(err.Error())
	}

	return domain.Succeeded(link)
}

// reconcile derives the final status: partial iff at least one attempted
// platform failed; a platform never attempted does not count against completion.
func reconcile(outcomes ...domain.PublishOutcome) domain.SocialStatus {
	for _, o := range outcomes {
		if o.State == domain.OutcomeFailed {
			return domain.StatusPartial
		}
	}
	return domain.StatusCompleted
}

func (d *Distributor) notify(ctx context.Context, event domain.ChangeEvent) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.NotifyChange(ctx, event); err != nil {
		d.warn("realtime notify failed", "news_id", event.NewsID, "error", err)
	}
}

func stateName(state domain.OutcomeState) string {
	switch state {
	case domain.OutcomeSucceeded:
		return "succeeded"
	case domain.OutcomeFailed:
		return "failed"
	default:
		return "not_attempted"
	}
}

func (d *Distributor) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}

func (d *Distributor) warn(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Warn(msg, args...)
	}
}
