package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"news_notifier/internal/domain"
)

const dateLayout = "Jan 02, 2006"

var liveDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Config struct {
	WebhookURL      string
	Timeout         time.Duration
	ArticleBaseURL  string
	ImageHost       string
	Color           int
	BroadcastMarker string
}

// Notifier delivers post notifications to a chat webhook.
type Notifier struct {
	httpClient      *http.Client
	webhookURL      string
	articleBaseURL  string
	imageHost       string
	color           int
	broadcastMarker string
	logger          *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		webhookURL:      cfg.WebhookURL,
		articleBaseURL:  strings.TrimRight(cfg.ArticleBaseURL, "/"),
		imageHost:       strings.TrimRight(cfg.ImageHost, "/"),
		color:           cfg.Color,
		broadcastMarker: cfg.BroadcastMarker,
		logger:          logger.With("notifier", "discord"),
	}
}

// Notify posts a single notification for post.
func (n *Notifier) Notify(ctx context.Context, post *domain.Post) error {
	body, err := json.Marshal(n.BuildMessage(post))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	n.logger.Debug("delivered notification", "post_id", post.ID, "name", post.Name)

	return nil
}

// BuildMessage formats post as a webhook payload with a single embed.
func (n *Notifier) BuildMessage(post *domain.Post) Message {
	msg := Message{
		Embeds: []Embed{{
			Title:       post.Name,
			URL:         n.ArticleURL(post),
			Description: post.Summary,
			Color:       n.color,
			Fields: []EmbedField{
				{Name: "Category", Value: post.Category, Inline: true},
				{Name: "Date", Value: FormatDate(post.LiveDate), Inline: true},
			},
			Thumbnail: Thumbnail{URL: n.ThumbnailURL(post.ImageThumbnail)},
		}},
	}

	if post.IsUrgent() {
		msg.Content = n.broadcastMarker
	}

	return msg
}

func (n *Notifier) ArticleURL(post *domain.Post) string {
	return fmt.Sprintf("%s/%s/%s", n.articleBaseURL, post.Category, post.ID)
}

// ThumbnailURL resolves a host-relative thumbnail path against the image host.
func (n *Notifier) ThumbnailURL(path string) string {
	if strings.HasPrefix(path, "/") {
		return n.imageHost + path
	}
	return path
}

// FormatDate renders a feed timestamp as "Jan 02, 2006". Unrecognised
// values are returned unchanged.
func FormatDate(raw string) string {
	value := strings.TrimSpace(raw)
	for _, layout := range liveDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(dateLayout)
		}
	}
	return raw
}
