package scraper

import (
	"context"
	"errors"
	"io"
	"net/url"
	"reflect"
	"testing"

	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/rs/zerolog"
)

func newTestPaginator(nav Navigator, opts PaginatorOptions) *Paginator {
	return NewPaginator(Indeed(""), nav, zerolog.New(io.Discard), opts)
}

func TestCollectEndToEnd(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{
		0:  indeedPage(cardsWithPrefix("p1_", 10), true),
		10: indeedPage(cardsWithPrefix("p2_", 5), true),
		20: indeedPage(nil, false),
	}}
	filter := models.SearchFilter{Keywords: "devops", Limit: 10, PostedBy: 3}

	pages, err := newTestPaginator(nav, PaginatorOptions{}).Collect(context.Background(), filter)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if len(pages[0].Jobs) != 10 || len(pages[1].Jobs) != 5 {
		t.Fatalf("page sizes = %d, %d, want 10, 5", len(pages[0].Jobs), len(pages[1].Jobs))
	}
	if !reflect.DeepEqual(nav.starts, []int{0, 10, 20}) {
		t.Fatalf("starts = %v, want [0 10 20]", nav.starts)
	}
	for i, page := range pages {
		if page.Index != i || page.Offset != i*10 {
			t.Fatalf("page %d has index %d offset %d", i, page.Index, page.Offset)
		}
	}

	first, err := url.Parse(nav.urls[0])
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	query := first.Query()
	if query.Get("q") != "devops" || query.Get("limit") != "10" || query.Get("fromage") != "3" {
		t.Fatalf("unexpected query: %v", query)
	}
}

func TestCollectDiscardsLastPage(t *testing.T) {
	// The final page still carries cards but no next link.
	nav := &fakeNavigator{pages: map[int]string{
		0:  indeedPage(cardsWithPrefix("a", 3), true),
		5:  indeedPage(cardsWithPrefix("b", 3), true),
		10: indeedPage(cardsWithPrefix("c", 3), false),
	}}
	filter := models.SearchFilter{Keywords: "go", Limit: 5}

	pages, err := newTestPaginator(nav, PaginatorOptions{}).Collect(context.Background(), filter)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(nav.starts) != 3 {
		t.Fatalf("expected 3 fetches, got %d", len(nav.starts))
	}
	if len(pages) != 2 {
		t.Fatalf("expected N-1 = 2 pages, got %d", len(pages))
	}
	for _, page := range pages {
		if _, ok := page.Jobs["indeed_c0"]; ok {
			t.Fatalf("last page records must not be returned")
		}
	}
}

func TestCollectSinglePageWithoutNext(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{0: indeedPage(cardsWithPrefix("a", 4), false)}}

	pages, err := newTestPaginator(nav, PaginatorOptions{}).Collect(context.Background(), models.SearchFilter{Keywords: "go"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pages) != 0 {
		t.Fatalf("expected no pages, got %d", len(pages))
	}
}

func TestCollectIncludeLastPage(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{
		0:  indeedPage(cardsWithPrefix("a", 2), true),
		50: indeedPage(cardsWithPrefix("b", 1), false),
	}}

	pages, err := newTestPaginator(nav, PaginatorOptions{IncludeLastPage: true}).Collect(context.Background(), models.SearchFilter{Keywords: "go"})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if _, ok := pages[1].Jobs["indeed_b0"]; !ok {
		t.Fatalf("expected last page records, got %v", pages[1].Jobs)
	}
	if !reflect.DeepEqual(nav.starts, []int{0, 50}) {
		t.Fatalf("starts = %v, want [0 50]", nav.starts)
	}
}

func TestCollectMaxPages(t *testing.T) {
	nav := &fakeNavigator{pages: map[int]string{
		0:  indeedPage(cardsWithPrefix("a", 1), true),
		10: indeedPage(cardsWithPrefix("b", 1), true),
		20: indeedPage(cardsWithPrefix("c", 1), true),
	}}

	pages, err := newTestPaginator(nav, PaginatorOptions{MaxPages: 2}).Collect(context.Background(), models.SearchFilter{Keywords: "go", Limit: 10})
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(pages) != 2 || len(nav.starts) != 2 {
		t.Fatalf("pages = %d fetches = %d, want 2 and 2", len(pages), len(nav.starts))
	}
}

func TestCollectReturnsPartialPagesOnError(t *testing.T) {
	boom := errors.New("browser crashed")
	nav := &fakeNavigator{
		pages:     map[int]string{0: indeedPage(cardsWithPrefix("a", 2), true)},
		failStart: 10,
		failErr:   boom,
	}

	pages, err := newTestPaginator(nav, PaginatorOptions{}).Collect(context.Background(), models.SearchFilter{Keywords: "go", Limit: 10})
	if !errors.Is(err, boom) {
		t.Fatalf("Collect() error = %v, want %v", err, boom)
	}
	if len(pages) != 1 || len(pages[0].Jobs) != 2 {
		t.Fatalf("expected the first page to survive, got %+v", pages)
	}
}

func TestCollectRequiresKeywords(t *testing.T) {
	nav := &fakeNavigator{}
	_, err := newTestPaginator(nav, PaginatorOptions{}).Collect(context.Background(), models.SearchFilter{Keywords: "  "})
	if !errors.Is(err, models.ErrKeywordsRequired) {
		t.Fatalf("Collect() error = %v, want ErrKeywordsRequired", err)
	}
	if len(nav.urls) != 0 {
		t.Fatalf("expected no navigation, got %v", nav.urls)
	}
}

func TestCollectStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nav := &fakeNavigator{}

	_, err := newTestPaginator(nav, PaginatorOptions{}).Collect(ctx, models.SearchFilter{Keywords: "go"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Collect() error = %v, want context.Canceled", err)
	}
}

func TestDrifted(t *testing.T) {
	if drifted(models.ExtractStats{Cards: 2, EmptyFields: map[string]int{FieldMetadata: 1}}) {
		t.Fatalf("partial gaps should not count as drift")
	}
	if !drifted(models.ExtractStats{Cards: 2, EmptyFields: map[string]int{FieldTitle: 2}}) {
		t.Fatalf("field missing on every card should count as drift")
	}
	if !drifted(models.ExtractStats{Cards: 1, MissingID: 1}) {
		t.Fatalf("missing ids should count as drift")
	}
}
