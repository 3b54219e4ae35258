package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var ErrNegativeOffset = errors.New("offset must not be negative")

// Navigator is the part of a page driver the fetcher needs.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
	PageSource(ctx context.Context) (string, error)
}

// PageFetcher loads one results page per call. It does not inspect the
// markup, so error pages come back as ordinary documents.
type PageFetcher struct {
	nav     Navigator
	baseURL string
}

func NewPageFetcher(nav Navigator, baseURL string) *PageFetcher {
	return &PageFetcher{nav: nav, baseURL: baseURL}
}

// Fetch sets start=offset on params and loads the resulting URL.
func (f *PageFetcher) Fetch(ctx context.Context, params url.Values, offset int) (*goquery.Document, error) {
	if offset < 0 {
		return nil, ErrNegativeOffset
	}
	params.Set("start", strconv.Itoa(offset))
	target := SearchURL(f.baseURL, params)

	if err := f.nav.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
	}
	source, err := f.nav.PageSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch page at offset %d: %w", offset, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("parse page at offset %d: %w", offset, err)
	}
	return doc, nil
}
