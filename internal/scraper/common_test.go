package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse document: %v", err)
	}
	return doc
}

func indeedCard(id string, title string) string {
	return fmt.Sprintf(`
<div class="cardOutline tapItem %s result">
  <h2 class="jobTitle"><span>%s</span></h2>
  <span class="companyName">Acme</span>
  <div class="companyLocation">Remote</div>
  <div class="job-snippet"><ul><li>Build pipelines</li></ul></div>
  <div class="metadata">Full-time</div>
  <span class="indeedApply">Easily apply</span>
</div>`, id, title)
}

func indeedPage(cards []string, next bool) string {
	nav := ""
	if next {
		nav = `<nav><a data-testid="pagination-page-next" href="#">Next</a></nav>`
	}
	return fmt.Sprintf(`<!doctype html>
<html><body>
<div class="jobsearch-ResultsList">%s</div>
%s
</body></html>`, strings.Join(cards, "\n"), nav)
}

func cardsWithPrefix(prefix string, n int) []string {
	cards := make([]string, 0, n)
	for i := 0; i < n; i++ {
		cards = append(cards, indeedCard(fmt.Sprintf("job_%s%d", prefix, i), fmt.Sprintf("Engineer %d", i)))
	}
	return cards
}

// fakeNavigator serves canned markup keyed by the start parameter.
type fakeNavigator struct {
	pages     map[int]string
	failStart int
	failErr   error

	urls    []string
	starts  []int
	current string
}

func (f *fakeNavigator) Navigate(_ context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return err
	}
	start, err := strconv.Atoi(u.Query().Get("start"))
	if err != nil {
		return err
	}
	f.urls = append(f.urls, target)
	f.starts = append(f.starts, start)
	if f.failErr != nil && start == f.failStart {
		return f.failErr
	}
	f.current = f.pages[start]
	return nil
}

func (f *fakeNavigator) PageSource(_ context.Context) (string, error) {
	return f.current, nil
}
