// Package discovery finds the syndication feed advertised by a web page.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/thinkscotty/briefing/internal/models"
)

// ErrNoFeed is returned when the page advertises no RSS, Atom or JSON feed.
var ErrNoFeed = errors.New("no feed link found")

// Feed is a feed link found on a page.
type Feed struct {
	URL   string
	Type  string
	Title string
}

// mimeTypes maps <link type> values to backend feed types.
var mimeTypes = map[string]string{
	"application/rss+xml":   models.FeedTypeRSS,
	"application/atom+xml":  models.FeedTypeAtom,
	"application/feed+json": models.FeedTypeJSON,
	"application/json":      models.FeedTypeJSON,
}

type Discoverer struct {
	userAgent string
	timeout   time.Duration
}

func New(userAgent string, timeout time.Duration) *Discoverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discoverer{userAgent: userAgent, timeout: timeout}
}

// Discover visits pageURL and returns the first advertised feed link,
// resolved against the page URL.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) (Feed, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Feed{}, fmt.Errorf("invalid page URL %q", pageURL)
	}

	c := colly.NewCollector(
		colly.UserAgent(d.userAgent),
		colly.MaxDepth(0),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(d.timeout)

	var (
		mu       sync.Mutex
		found    Feed
		pageName string
		visitErr error
	)

	c.OnHTML("head title", func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if pageName == "" {
			pageName = strings.TrimSpace(e.Text)
		}
	})

	c.OnHTML(`link[rel="alternate"]`, func(e *colly.HTMLElement) {
		mu.Lock()
		defer mu.Unlock()
		if found.URL != "" {
			return
		}
		typ, ok := mimeTypes[strings.ToLower(strings.TrimSpace(e.Attr("type")))]
		href := strings.TrimSpace(e.Attr("href"))
		if !ok || href == "" {
			return
		}
		found = Feed{
			URL:   resolveURL(pageURL, href),
			Type:  typ,
			Title: strings.TrimSpace(e.Attr("title")),
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		defer mu.Unlock()
		visitErr = fmt.Errorf("fetch %s: %w", pageURL, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return Feed{}, fmt.Errorf("visit %s: %w", pageURL, err)
	}
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if visitErr != nil {
		return Feed{}, visitErr
	}
	if found.URL == "" {
		return Feed{}, ErrNoFeed
	}
	if found.Title == "" {
		found.Title = pageName
	}
	return found, nil
}

// resolveURL resolves a potentially relative href against a base URL.
func resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}
