package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"interlocutor/internal/resilience/circuitbreaker"
	"interlocutor/internal/resilience/retry"
)

// ContentExtractor retrieves an article page and extracts its readable text.
// Extraction uses the Readability algorithm first and falls back to a plain
// paragraph scrape when Readability finds nothing usable.
//
// Thread safety: ContentExtractor is safe for concurrent use.
type ContentExtractor struct {
	client   *http.Client
	cfg      FetchConfig
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg retry.Config
}

// NewContentExtractor creates a ContentExtractor sharing the adapter's HTTP
// client so redirect and timeout policy stay consistent.
func NewContentExtractor(client *http.Client, cfg FetchConfig) *ContentExtractor {
	return &ContentExtractor{
		client:   client,
		cfg:      cfg,
		breaker:  circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		retryCfg: retry.ContentFetchConfig(),
	}
}

// Extract fetches the page at urlStr and returns its readable text. An empty
// result with a nil error means the page had no extractable article text.
func (e *ContentExtractor) Extract(ctx context.Context, urlStr string) (string, error) {
	var text string
	retryErr := retry.WithBackoff(ctx, e.retryCfg, func() error {
		result, err := e.breaker.Execute(func() (interface{}, error) {
			return e.doExtract(ctx, urlStr)
		})
		if err != nil {
			return err
		}
		text = result.(string)
		return nil
	})
	if retryErr != nil {
		return "", retryErr
	}
	return text, nil
}

func (e *ContentExtractor) doExtract(ctx context.Context, urlStr string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request %q: %w", urlStr, err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", urlStr, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	limitedReader := io.LimitReader(resp.Body, e.cfg.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return "", fmt.Errorf("read body %q: %w", urlStr, err)
	}
	if int64(len(htmlBytes)) > e.cfg.MaxBodySize {
		return "", fmt.Errorf("response for %q exceeds %d bytes", urlStr, e.cfg.MaxBodySize)
	}

	// Readability wants the final URL after redirects for relative links.
	pageURL, _ := url.Parse(urlStr)
	if resp.Request != nil && resp.Request.URL != nil {
		pageURL = resp.Request.URL
	}

	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return collapseWhitespace(article.TextContent), nil
	}

	slog.Debug("readability found no content, falling back to paragraph scrape",
		slog.String("url", urlStr))
	return paragraphScrape(htmlBytes)
}

// paragraphScrape is the fallback extraction: drop non-content elements and
// join the remaining paragraph text.
func paragraphScrape(htmlBytes []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if t := strings.TrimSpace(sel.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return collapseWhitespace(strings.Join(parts, "\n\n")), nil
}

// collapseWhitespace trims each line and drops runs of blank lines so token
// normalization downstream sees stable input.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
