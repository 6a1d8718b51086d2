package facebook

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

// Publisher posts to a Facebook page via the Graph API. Image-less text posts
// are valid; with images each one is first uploaded unpublished and then
// attached to the feed post.
type Publisher struct {
	apiBase     string
	pageID      string
	accessToken string
	client      *http.Client
}

var _ publisher.Social = (*Publisher)(nil)

// NewPublisher registers page credentials. A nil client gets a sane default.
func NewPublisher(apiBase, pageID, accessToken string, client *http.Client) *Publisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Publisher{
		apiBase:     strings.TrimSuffix(apiBase, "/"),
		pageID:      pageID,
		accessToken: accessToken,
		client:      client,
	}
}

// Platform identifies the publisher inside the registry.
func (p *Publisher) Platform() domain.Platform {
	return domain.PlatformFacebook
}

// RequiresMedia is false: a text-only page post is allowed.
func (p *Publisher) RequiresMedia() bool {
	return false
}

// Publish creates the page post and returns its canonical link.
func (p *Publisher) Publish(ctx context.Context, message string, imageURLs []string) (string, error) {
	if p.pageID == "" || p.accessToken == "" {
		return "", fmt.Errorf("facebook publisher misconfigured")
	}

	form := url.Values{}
	form.Set("message", message)

	for i, imageURL := range imageURLs {
		photoID, err := p.uploadPhoto(ctx, imageURL)
		if err != nil {
			return "", fmt.Errorf("upload photo %s: %w", imageURL, err)
		}
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":"%s"}`, photoID))
	}

	var resp struct {
		ID           string `json:"id"`
		PermalinkURL string `json:"permalink_url"`
	}
	if err := p.postForm(ctx, "/"+p.pageID+"/feed", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("feed post returned no id")
	}

	if resp.PermalinkURL != "" {
		return resp.PermalinkURL, nil
	}
	return "https://facebook.com/" + resp.ID, nil
}

// uploadPhoto stages an image as an unpublished page photo.
func (p *Publisher) uploadPhoto(ctx context.Context, imageURL string) (string, error) {
	form := url.Values{}
	form.Set("url", imageURL)
	form.Set("published", "false")

	var resp struct {
		ID string `json:"id"`
	}
	if err := p.postForm(ctx, "/"+p.pageID+"/photos", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("photo upload returned no id")
	}

	return resp.ID, nil
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

// graphError extracts the Graph API error message, falling back to the status.
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
