package providers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultNewsBaseURL = "https://newsapi.org/v2"
	newsQuery          = "weather climate forecast"
	newsPageSize       = "10"
)

// Article is one weather-related news headline.
type Article struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"urlToImage,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"publishedAt"`
}

// NewsConfig configures a NewsClient.
type NewsConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	// RateLimitCooldown is how long to back off after a 429.
	RateLimitCooldown time.Duration
}

// NewsClient fetches weather headlines from NewsAPI.
type NewsClient struct {
	client   *resty.Client
	apiKey   string
	cooldown time.Duration
	now      func() time.Time
}

func NewNewsClient(cfg NewsConfig) *NewsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNewsBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RateLimitCooldown <= 0 {
		cfg.RateLimitCooldown = 12 * time.Hour
	}
	return &NewsClient{
		client:   resty.New().SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).SetTimeout(cfg.Timeout),
		apiKey:   cfg.APIKey,
		cooldown: cfg.RateLimitCooldown,
		now:      time.Now,
	}
}

// Headlines returns the latest English weather and climate articles.
// A 429 yields a RateLimitedError whose RetryAt is now plus the configured cool-down.
func (n *NewsClient) Headlines(ctx context.Context) ([]Article, error) {
	if n.apiKey == "" {
		return nil, &weather.ProviderError{StatusCode: http.StatusUnauthorized, Message: "news " + errMissingAPIKey.Error()}
	}

	var payload struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Articles []struct {
			Source struct {
				Name string `json:"name"`
			} `json:"source"`
			Title       string    `json:"title"`
			Description string    `json:"description"`
			URL         string    `json:"url"`
			URLToImage  string    `json:"urlToImage"`
			PublishedAt time.Time `json:"publishedAt"`
		} `json:"articles"`
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":        newsQuery,
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": newsPageSize,
		}).
		SetHeader("X-Api-Key", n.apiKey).
		SetResult(&payload).
		SetError(&payload).
		Get("/everything")
	if err != nil {
		return nil, &weather.NetworkError{Err: stripURL(err)}
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return nil, &weather.RateLimitedError{RetryAt: n.now().Add(n.cooldown)}
	}
	if !resp.IsSuccess() || payload.Status == "error" {
		msg := payload.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return nil, &weather.ProviderError{StatusCode: resp.StatusCode(), Message: msg}
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		articles = append(articles, Article{
			Title:       StripHTML(a.Title),
			Description: StripHTML(a.Description),
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt.UTC(),
		})
	}
	return articles, nil
}

// StripHTML returns the text content of an HTML fragment with whitespace collapsed.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tokenType := z.Next()
		switch tokenType {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return strings.Join(strings.Fields(sb.String()), " ")
			}
			return strings.Join(strings.Fields(fragment), " ")
		case html.TextToken:
			sb.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			sb.WriteByte(' ')
		}
	}
}
