package scraper

import (
	"context"

	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/rs/zerolog"
)

type PaginatorOptions struct {
	// IncludeLastPage extracts the page without a next link instead of
	// discarding it.
	IncludeLastPage bool
	// MaxPages caps the number of pages returned; 0 means no cap.
	MaxPages int
	Currency CurrencyFormatter
}

// Paginator walks a site's result pages until one has no next link. A
// Paginator must not run Collect concurrently; it shares one driver.
type Paginator struct {
	site    Site
	fetcher *PageFetcher
	opts    PaginatorOptions
	logger  zerolog.Logger
}

func NewPaginator(site Site, nav Navigator, logger zerolog.Logger, opts PaginatorOptions) *Paginator {
	return &Paginator{
		site:    site,
		fetcher: NewPageFetcher(nav, site.BaseURL),
		opts:    opts,
		logger:  logger.With().Str("site", site.Name).Logger(),
	}
}

// Collect returns the extracted pages in fetch order. On a fetch error it
// returns the pages gathered so far along with the error.
func (p *Paginator) Collect(ctx context.Context, filter models.SearchFilter) ([]models.Page, error) {
	filter = filter.Normalized()
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	params := BuildQuery(filter, p.opts.Currency)
	var pages []models.Page

	for offset := 0; ; offset += filter.Limit {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		if p.opts.MaxPages > 0 && len(pages) >= p.opts.MaxPages {
			p.logger.Debug().Int("pages", len(pages)).Msg("page cap reached")
			return pages, nil
		}

		doc, err := p.fetcher.Fetch(ctx, params, offset)
		if err != nil {
			return pages, err
		}

		last := !HasNextPage(doc, p.site)
		if last && !p.opts.IncludeLastPage {
			p.logger.Debug().Int("offset", offset).Msg("no next page")
			return pages, nil
		}

		jobs, stats := ExtractPage(doc, p.site)
		page := models.Page{Index: len(pages), Offset: offset, Jobs: jobs, Stats: stats}
		pages = append(pages, page)
		p.logPage(page)

		if last {
			return pages, nil
		}
	}
}

func (p *Paginator) logPage(page models.Page) {
	event := p.logger.Debug()
	if drifted(page.Stats) {
		event = p.logger.Warn()
	}
	fields := zerolog.Dict()
	for field, count := range page.Stats.EmptyFields {
		fields = fields.Int(field, count)
	}
	event.
		Int("page", page.Index).
		Int("offset", page.Offset).
		Int("cards", page.Stats.Cards).
		Int("jobs", len(page.Jobs)).
		Int("missing_id", page.Stats.MissingID).
		Int("duplicates", page.Stats.Duplicates).
		Dict("empty_fields", fields).
		Msg("page extracted")
}

// drifted reports cards that lost their id or a field no card filled.
func drifted(stats models.ExtractStats) bool {
	if stats.MissingID > 0 {
		return true
	}
	for _, count := range stats.EmptyFields {
		if stats.Cards > 0 && count == stats.Cards {
			return true
		}
	}
	return false
}
