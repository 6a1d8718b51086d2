package publisher

import (
	"context"
	"fmt"

	"NewsDistributor/internal/domain"
)

// Social captures a single platform publisher (Facebook page, Instagram, etc.).
// Publish resolves to the canonical post link or an error; it never retries.
type Social interface {
	Platform() domain.Platform
	// RequiresMedia reports whether the platform rejects image-less posts.
	RequiresMedia() bool
	Publish(ctx context.Context, content string, imageURLs []string) (string, error)
}

// Registry keeps a mapping from platform names to their publishers.
type Registry struct {
	publishers map[domain.Platform]Social
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{publishers: map[domain.Platform]Social{}}
}

// Register adds or replaces a platform publisher.
func (r *Registry) Register(p Social) {
	if r.publishers == nil {
		r.publishers = map[domain.Platform]Social{}
	}
	r.publishers[p.Platform()] = p
}

// Resolve returns a publisher by platform or an error if it is absent.
func (r *Registry) Resolve(platform domain.Platform) (Social, error) {
	if p, ok := r.publishers[platform]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("publisher %s is not registered", platform)
}
