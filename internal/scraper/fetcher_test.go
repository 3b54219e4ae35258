package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestFetchSetsStartAndParses(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{20: indeedPage(cardsWithPrefix("a", 2), true)}}
	fetcher := NewPageFetcher(nav, "https://www.indeed.com/jobs")
	params := url.Values{"q": {"golang"}}

	doc, err := fetcher.Fetch(context.Background(), params, 20)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := doc.Find(".cardOutline").Length(); got != 2 {
		t.Fatalf("expected 2 cards, got %d", got)
	}
	if params.Get("start") != "20" {
		t.Fatalf("start = %q, want 20", params.Get("start"))
	}
	if len(nav.urls) != 1 || !strings.HasPrefix(nav.urls[0], "https://www.indeed.com/jobs?") {
		t.Fatalf("unexpected navigations: %v", nav.urls)
	}
}

func TestFetchReturnsErrorPagesAsIs(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{0: `<html><title>Blocked</title></html>`}}
	doc, err := NewPageFetcher(nav, "https://example.com/jobs").Fetch(context.Background(), url.Values{}, 0)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if doc.Find("title").Text() != "Blocked" {
		t.Fatalf("expected markup returned unchanged")
	}
}

func TestFetchPropagatesDriverError(t *testing.T) {
	boom := errors.New("net::ERR_TIMED_OUT")
	nav := &fakeNavigator{failStart: 0, failErr: boom}

	_, err := NewPageFetcher(nav, "https://example.com/jobs").Fetch(context.Background(), url.Values{}, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("Fetch() error = %v, want wrapped driver error", err)
	}
}

func TestFetchRejectsNegativeOffset(t *testing.T) {
	nav := &fakeNavigator{}
	_, err := NewPageFetcher(nav, "https://example.com/jobs").Fetch(context.Background(), url.Values{}, -1)
	if !errors.Is(err, ErrNegativeOffset) {
		t.Fatalf("Fetch() error = %v, want ErrNegativeOffset", err)
	}
	if len(nav.urls) != 0 {
		t.Fatalf("expected no navigation, got %v", nav.urls)
	}
}
