package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/publisher"
)

// Publisher posts to an Instagram business account via the Graph API
// container flow: create a media container for the image, publish it, then
// look up the permalink. Instagram rejects posts without media.
type Publisher struct {
	apiBase     string
	userID      string
	accessToken string
	client      *http.Client
}

var _ publisher.Social = (*Publisher)(nil)

// NewPublisher registers account credentials. A nil client gets a sane default.
func NewPublisher(apiBase, userID, accessToken string, client *http.Client) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		userID:      userID,
		accessToken: accessToken,
		client:      client,
	}
}

// Platform identifies the publisher inside the registry.
func (p *Publisher) Platform() domain.Platform {
	return domain.PlatformInstagram
}

// RequiresMedia is true: Instagram needs at least one image.
func (p *Publisher) RequiresMedia() bool {
	return true
}

// Publish creates and publishes the media object, preferring the permalink as
// the canonical link and falling back to a descriptor with the media id.
func (p *Publisher) Publish(ctx context.Context, caption string, imageURLs []string) (string, error) {
	if p.userID == "" || p.accessToken == "" {
		return "", fmt.Errorf("instagram publisher misconfigured")
	}
	if len(imageURLs) == 0 {
		return "", fmt.Errorf("instagram requires at least one image")
	}

	creationID, err := p.createContainer(ctx, caption, imageURLs[0])
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	mediaID, err := p.publishContainer(ctx, creationID)
	if err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}

	// The post exists at this point; a failed permalink lookup must not undo it.
	if permalink, err := p.fetchPermalink(ctx, mediaID); err == nil && permalink != "" {
		return permalink, nil
	}

	return "instagram://media/" + mediaID, nil
}

func (p *Publisher) createContainer(ctx context.Context, caption, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("image_url", imageURL)
	form.Set("caption", caption)

	var resp struct {
		ID string `json:"id"`
	}
	if err := p.postForm(ctx, "/"+p.userID+"/media", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("container create returned no id")
	}

	return resp.ID, nil
}

func (p *Publisher) publishContainer(ctx context.Context, creationID string) (string, error) {
	form := url.Values{}
	form.Set("creation_id", creationID)

	var resp struct {
		ID string `json:"id"`
	}
	if err := p.postForm(ctx, "/"+p.userID+"/media_publish", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("media publish returned no id")
	}

	return resp.ID, nil
}

func (p *Publisher) fetchPermalink(ctx context.Context, mediaID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=permalink&access_token=%s",
		p.apiBase, mediaID, url.QueryEscape(p.accessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("permalink lookup: %s", resp.Status)
	}

	var body struct {
		Permalink string `json:"permalink"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return body.Permalink, nil
}

func (p *Publisher) postForm(ctx context.Context, path string, form url.Values, v any) error {
	form.Set("access_token", p.accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph api %s: %s", path, graphError(resp))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func graphError(resp *http.Response) string {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}

	return resp.Status
}
