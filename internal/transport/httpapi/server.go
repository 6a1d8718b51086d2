package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"NewsDistributor/internal/domain"
	"NewsDistributor/internal/ports"
)

// Distributor is the slice of the orchestrator the API needs.
type Distributor interface {
	Distribute(ctx context.Context, req domain.DistributionRequest) (domain.DistributionResult, error)
}

// Server exposes the distribution trigger and composer helpers over HTTP.
type Server struct {
	distributor Distributor
	previews    ports.PreviewSource
	logger      *slog.Logger
	engine      *gin.Engine
}

// distributionRequest is the trigger body. NewsID is a pointer so a missing
// field is distinguishable from id 0.
type distributionRequest struct {
	NewsID          *int64   `json:"newsId"`
	ImageURLs       []string `json:"imageUrls"`
	Content         string   `json:"content"`
	SharedFacebook  bool     `json:"sharedFacebook"`
	SharedInstagram bool     `json:"sharedInstagram"`
}

type platformResponse struct {
	Success bool   `json:"success"`
	Link    string `json:"link,omitempty"`
	Error   string `json:"error,omitempty"`
}

type distributionResponse struct {
	Success bool                        `json:"success"`
	NewsID  int64                       `json:"newsId"`
	Status  domain.SocialStatus         `json:"status"`
	Results map[string]platformResponse `json:"results"`
}

// NewServer wires routes onto a fresh gin engine.
func NewServer(distributor Distributor, previews ports.PreviewSource, logger *slog.Logger) *Server {
	s := &Server{
		distributor: distributor,
		previews:    previews,
		logger:      logger,
		engine:      gin.New(),
	}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	s.engine.POST("/api/distributions", s.handleDistribute)
	s.engine.GET("/api/preview", s.handlePreview)

	return s
}

// Handler exposes the underlying http.Handler for the server lifecycle.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleDistribute(c *gin.Context) {
	var body distributionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.NewsID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newsId is required"})
		return
	}

	result, err := s.distributor.Distribute(c.Request.Context(), domain.DistributionRequest{
		NewsID:         *body.NewsID,
		ImageURLs:      body.ImageURLs,
		Content:        body.Content,
		ShareFacebook:  body.SharedFacebook,
		ShareInstagram: body.SharedInstagram,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNewsNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "news item not found"})
			return
		}
		s.error("distribution failed", "news_id", *body.NewsID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toResponse(result))
}

func (s *Server) handlePreview(c *gin.Context) {
	pageURL := c.Query("url")
	if pageURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	preview, err := s.previews.Fetch(c.Request.Context(), pageURL)
	if err != nil {
		s.error("preview fetch failed", "url", pageURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// toResponse includes only attempted platforms in results, so a skipped or
// unrequested platform never shows up as a failure.
func toResponse(result domain.DistributionResult) distributionResponse {
	resp := distributionResponse{
		Success: true,
		NewsID:  result.NewsID,
		Status:  result.Status,
		Results: map[string]platformResponse{},
	}

	for platform, outcome := range map[string]domain.PublishOutcome{
		string(domain.PlatformFacebook):  result.Facebook,
		string(domain.PlatformInstagram): result.Instagram,
	} {
		switch outcome.State {
		case domain.OutcomeSucceeded:
			resp.Results[platform] = platformResponse{Success: true, Link: outcome.Link}
		case domain.OutcomeFailed:
			resp.Results[platform] = platformResponse{Success: false, Error: outcome.Reason}
		}
	}

	return resp
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
