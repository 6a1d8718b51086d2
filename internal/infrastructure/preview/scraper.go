package preview

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/ports"
)

// Scraper fetches a page and extracts OpenGraph metadata for the composer.
type Scraper struct {
	client *http.Client
}

var _ ports.PreviewSource = (*Scraper)(nil)

// NewScraper wires an HTTP client; a nil client gets a sane default.
func NewScraper(client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{client: client}
}

// Fetch downloads the page and pulls og:title, og:description and every
// og:image in document order, with the <title> tag as a title fallback.
func (s *Scraper) Fetch(ctx context.Context, pageURL string) (domain.Preview, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return domain.Preview{}, err
	}

	return extractPreview(doc), nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsDistributor/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractPreview(doc *goquery.Document) domain.Preview {
	preview := domain.Preview{
		Title:       metaProperty(doc, "og:title"),
		Description: metaProperty(doc, "og:description"),
	}

	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find(`meta[property="og:image"]`).Each(func(i int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok {
			if trimmed := strings.TrimSpace(content); trimmed != "" {
				preview.ImageURLs = append(preview.ImageURLs, trimmed)
			}
		}
	})

	return preview
}

func metaProperty(doc *goquery.Document, property string) string {
	selector := fmt.Sprintf(`meta[property=%q]`, property)
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}
