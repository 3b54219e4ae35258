package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jimezsa/jobcrawl/internal/config"
	"github.com/jimezsa/jobcrawl/internal/driver"
	"github.com/jimezsa/jobcrawl/internal/export"
	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/jimezsa/jobcrawl/internal/network"
	"github.com/jimezsa/jobcrawl/internal/scraper"
	"github.com/jimezsa/jobcrawl/internal/seen"
	"github.com/jimezsa/jobcrawl/internal/store"
	"github.com/muesli/termenv"
)

type SearchCmd struct {
	Query string `arg:"" optional:"" help:"Search keywords (comma-separated). Optional when --query-file is provided."`
	SearchOptions
}

type SearchOptions struct {
	Site        string  `help:"Job site profile." env:"JOBCRAWL_SITE"`
	Location    string  `help:"Job location." env:"JOBCRAWL_DEFAULT_LOCATION"`
	Country     string  `help:"Country code for the site's regional domain." env:"JOBCRAWL_DEFAULT_COUNTRY"`
	Limit       int     `help:"Results per page." env:"JOBCRAWL_DEFAULT_LIMIT"`
	PostedBy    int     `name:"posted-by" help:"Only jobs posted in the last N days."`
	Radius      int     `help:"Search radius in miles, snapped to the nearest supported value."`
	Remote      bool    `help:"Remote-only roles."`
	Salary      float64 `help:"Minimum salary, appended to the query."`
	MaxPages    int     `name:"max-pages" help:"Stop after N pages (0 = until the last page)."`
	IncludeLast bool    `name:"include-last" help:"Also extract the final page (the one without a next link)."`
	Driver      string  `help:"Page driver: playwright or http." env:"JOBCRAWL_DRIVER"`
	Format      string  `help:"Output format: csv, tsv, json, md, table." enum:",csv,tsv,json,md,table" default:""`
	Links       string  `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output      string  `name:"output" short:"o" help:"Write output to a file."`
	Proxies     string  `help:"Comma-separated proxy URLs." env:"JOBCRAWL_PROXIES"`
	QueryFile   string  `help:"Path to JSON file with queries (top-level string array or object with job_titles array)."`
	Seen        string  `help:"Path to seen jobs JSON file."`
	NewOnly     bool    `help:"Output only unseen jobs (requires --seen)."`
	NewOut      string  `help:"Write unseen jobs JSON to a file (requires --seen)."`
	SeenUpdate  bool    `help:"Merge newly discovered unseen jobs into the --seen file after the search (requires --seen)."`
	Store       bool    `help:"Save results to the database."`
	DatabaseURL string  `name:"database-url" help:"PostgreSQL connection string." env:"JOBCRAWL_DATABASE_URL"`
	UserID      int     `name:"user-id" help:"Link saved jobs to this user (requires --store)."`
}

const maxQueries = 10

// newDriver is swapped in tests.
var newDriver = driver.New

func (s *SearchCmd) Run(ctx *Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runSearch(runCtx, ctx, s.Query, s.SearchOptions)
}

func runSearch(runCtx context.Context, ctx *Context, query string, opts SearchOptions) error {
	if err := validateSearchOptions(opts); err != nil {
		return err
	}

	queries, err := resolveQueries(query, opts.QueryFile)
	if err != nil {
		return err
	}

	outputPath := strings.TrimSpace(opts.Output)
	if err := checkPaths(outputPath, opts); err != nil {
		return err
	}

	cfg := ctx.Config
	site, err := scraper.Lookup(firstNonEmpty(opts.Site, cfg.Site), firstNonEmpty(opts.Country, cfg.DefaultCountry))
	if err != nil {
		return err
	}
	money, err := scraper.NewCurrencyFormatter(cfg.Locale, cfg.Currency)
	if err != nil {
		return err
	}

	baseFilter := models.SearchFilter{
		Location: firstNonEmpty(opts.Location, cfg.DefaultLocation),
		Limit:    defaultInt(opts.Limit, cfg.DefaultLimit),
		PostedBy: defaultInt(opts.PostedBy, cfg.DefaultPostedBy),
		Radius:   opts.Radius,
		Remote:   opts.Remote,
		Salary:   opts.Salary,
	}

	proxies, err := config.LoadProxies(opts.Proxies)
	if err != nil {
		return err
	}

	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, 10*time.Minute)
		if err != nil {
			return err
		}
	}

	drv, err := newDriver(models.DriverConfig{
		Backend:   firstNonEmpty(opts.Driver, cfg.Driver),
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		Proxies:   proxies,
		Timeout:   cfg.Timeout(),
	}, rotator)
	if err != nil {
		return fmt.Errorf("start driver: %w", err)
	}
	defer drv.Close()

	logger := ctx.Logger.With().Str("run_id", uuid.NewString()).Logger()
	paginator := scraper.NewPaginator(site, drv, logger, scraper.PaginatorOptions{
		IncludeLastPage: opts.IncludeLast,
		MaxPages:        opts.MaxPages,
		Currency:        money,
	})

	stopIndicator := startSearchIndicator(ctx)
	pages, searchErr := collectQueries(runCtx, paginator, baseFilter, queries)
	if stopIndicator != nil {
		stopIndicator()
	}
	if searchErr != nil && len(pages) == 0 {
		return searchErr
	}
	if searchErr != nil {
		logger.Warn().Err(searchErr).Int("pages", len(pages)).Msg("search stopped early; keeping partial results")
	}

	outputPages := pages
	var unseenJobs []models.JobRecord
	if strings.TrimSpace(opts.Seen) != "" {
		seenJobs, err := seen.ReadJobsAllowMissing(opts.Seen)
		if err != nil {
			return fmt.Errorf("read --seen: %w", err)
		}
		unseenPages := seen.FilterPages(pages, seenJobs)
		unseenJobs = models.Records(unseenPages)
		if opts.NewOnly {
			outputPages = unseenPages
		}
	}

	if strings.TrimSpace(opts.NewOut) != "" {
		if err := seen.WriteJobs(opts.NewOut, unseenJobs); err != nil {
			return fmt.Errorf("write --new-out: %w", err)
		}
	}

	if err := writePages(ctx, opts, outputPath, outputPages, site.JobURL); err != nil {
		return err
	}

	if opts.SeenUpdate {
		if err := updateSeenHistory(opts.Seen, unseenJobs); err != nil {
			return err
		}
	}

	if opts.Store {
		dsn := firstNonEmpty(opts.DatabaseURL, cfg.DatabaseURL)
		saved, err := persistPages(runCtx, dsn, site, pages, opts.UserID)
		if err != nil {
			return errors.Join(searchErr, err)
		}
		logger.Info().Int("jobs", saved).Msg("saved to database")
	}

	printSearchSummary(ctx, outputPages)
	return searchErr
}

func validateSearchOptions(opts SearchOptions) error {
	hasSeen := strings.TrimSpace(opts.Seen) != ""
	if opts.NewOnly && !hasSeen {
		return fmt.Errorf("--new-only requires --seen")
	}
	if strings.TrimSpace(opts.NewOut) != "" && !hasSeen {
		return fmt.Errorf("--new-out requires --seen")
	}
	if opts.SeenUpdate && !hasSeen {
		return fmt.Errorf("--seen-update requires --seen")
	}
	if opts.UserID != 0 && !opts.Store {
		return fmt.Errorf("--user-id requires --store")
	}
	if opts.MaxPages < 0 {
		return fmt.Errorf("--max-pages must not be negative")
	}
	return nil
}

func checkPaths(outputPath string, opts SearchOptions) error {
	if strings.TrimSpace(opts.NewOut) != "" && pathsEqual(outputPath, opts.NewOut) {
		return fmt.Errorf("--new-out path must differ from --output")
	}
	if strings.TrimSpace(opts.Seen) != "" && pathsEqual(outputPath, opts.Seen) {
		return fmt.Errorf("--output path must differ from --seen")
	}
	if strings.TrimSpace(opts.NewOut) != "" && pathsEqual(opts.NewOut, opts.Seen) {
		return fmt.Errorf("--new-out path must differ from --seen")
	}
	return nil
}

// collectQueries runs one paginated search per query. Records already
// returned for an earlier query are dropped from later pages. The first
// error stops the run and is returned with every page gathered so far.
func collectQueries(runCtx context.Context, paginator *scraper.Paginator, base models.SearchFilter, queries []string) ([]models.Page, error) {
	var pages []models.Page
	for _, query := range queries {
		filter := base
		filter.Keywords = query

		queryPages, err := paginator.Collect(runCtx, filter)
		for i := range queryPages {
			queryPages[i].Query = query
		}
		pages = mergeUniquePages(pages, queryPages)
		if err != nil {
			return pages, fmt.Errorf("search %q: %w", query, err)
		}
	}
	return pages, nil
}

func mergeUniquePages(existing []models.Page, incoming []models.Page) []models.Page {
	if len(incoming) == 0 {
		return existing
	}
	if len(existing) == 0 {
		return incoming
	}
	return append(existing, seen.FilterPages(incoming, models.Records(existing))...)
}

func writePages(ctx *Context, opts SearchOptions, outputPath string, pages []models.Page, linkFor func(models.JobRecord) string) error {
	format, err := resolveFormat(ctx, opts, outputPath)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if outputPath != "" {
		file, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(opts.Links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	return export.WritePages(writer, pages, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   colorEnabled && isTTY(writer),
		LinkStyle:    linkStyle,
		LinkFor:      linkFor,
	})
}

// persistPages records the run as a scrape task and upserts every record.
// When userID is set each saved job is linked to that user.
func persistPages(runCtx context.Context, dsn string, site scraper.Site, pages []models.Page, userID int) (int, error) {
	if strings.TrimSpace(dsn) == "" {
		return 0, fmt.Errorf("--store requires --database-url or JOBCRAWL_DATABASE_URL")
	}

	st, err := store.Open(runCtx, dsn)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	if err := st.Migrate(runCtx); err != nil {
		return 0, err
	}

	var owner *int
	if userID > 0 {
		owner = &userID
	}
	task, err := st.CreateTask(runCtx, owner, store.TaskScrape)
	if err != nil {
		return 0, err
	}
	scrape, err := st.CreateScrape(runCtx, &task.ID)
	if err != nil {
		return 0, err
	}

	ids, err := st.SaveJobs(runCtx, scrape.ID, models.Records(pages), site.Name, site.JobURL)
	if err != nil {
		return 0, err
	}
	if owner != nil {
		for _, id := range ids {
			if err := st.LinkUserJob(runCtx, userID, id, store.NoMatch); err != nil {
				return len(ids), err
			}
		}
	}
	return len(ids), nil
}

func pathsEqual(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil {
		return absA == absB
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func updateSeenHistory(seenPath string, inputJobs []models.JobRecord) error {
	seenJobs, err := seen.ReadJobsAllowMissing(seenPath)
	if err != nil {
		return fmt.Errorf("read --seen: %w", err)
	}

	mergedJobs, _ := seen.Merge(seenJobs, inputJobs)
	if err := seen.WriteJobs(seenPath, mergedJobs); err != nil {
		return fmt.Errorf("write --seen: %w", err)
	}

	return nil
}

func printSearchSummary(ctx *Context, pages []models.Page) {
	if ctx == nil || ctx.Err == nil {
		return
	}
	_, _ = fmt.Fprintf(ctx.Err, "%s\n", formatSearchSummary(pages))
}

func formatSearchSummary(pages []models.Page) string {
	if len(pages) == 0 {
		return "summary: pages=0 jobs=0"
	}

	var jobs, missing, duplicates int
	sizes := make([]string, 0, len(pages))
	for _, page := range pages {
		jobs += len(page.Jobs)
		missing += page.Stats.MissingID
		duplicates += page.Stats.Duplicates
		sizes = append(sizes, fmt.Sprintf("%d", len(page.Jobs)))
	}

	summary := fmt.Sprintf("summary: pages=%d jobs=%d per_page=%s", len(pages), jobs, strings.Join(sizes, ","))
	if missing > 0 {
		summary += fmt.Sprintf(" missing_id=%d", missing)
	}
	if duplicates > 0 {
		summary += fmt.Sprintf(" duplicates=%d", duplicates)
	}
	return summary
}

func parseQueries(raw string) ([]string, error) {
	return mergeAndNormalizeQueries(splitQueries(raw), nil)
}

func resolveQueries(raw string, queryFile string) ([]string, error) {
	positionalQueries := splitQueries(raw)
	var fileQueries []string
	if strings.TrimSpace(queryFile) != "" {
		var err error
		fileQueries, err = loadQueriesFromJSON(queryFile)
		if err != nil {
			return nil, err
		}
	}
	return mergeAndNormalizeQueries(positionalQueries, fileQueries)
}

func splitQueries(raw string) []string {
	parts := strings.Split(raw, ",")
	queries := make([]string, 0, len(parts))

	for _, part := range parts {
		query := strings.TrimSpace(part)
		if query == "" {
			continue
		}
		queries = append(queries, query)
	}

	return queries
}

func mergeAndNormalizeQueries(primary []string, secondary []string) ([]string, error) {
	queries := make([]string, 0, len(primary)+len(secondary))
	seenQueries := make(map[string]struct{}, len(primary)+len(secondary))

	appendUnique := func(rawQuery string) {
		query := strings.TrimSpace(rawQuery)
		if query == "" {
			return
		}
		normalized := strings.ToLower(query)
		if _, exists := seenQueries[normalized]; exists {
			return
		}
		seenQueries[normalized] = struct{}{}
		queries = append(queries, query)
	}

	for _, query := range primary {
		appendUnique(query)
	}
	for _, query := range secondary {
		appendUnique(query)
	}

	if len(queries) == 0 {
		return nil, models.ErrKeywordsRequired
	}
	if len(queries) > maxQueries {
		return nil, fmt.Errorf("too many queries: max %d", maxQueries)
	}

	return queries, nil
}

func loadQueriesFromJSON(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read --query-file %q: %w", path, err)
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("parse --query-file %q: %w", path, err)
	}

	switch value := decoded.(type) {
	case []any:
		return parseStringArray(value, path, "root array")
	case map[string]any:
		rawTitles, ok := value["job_titles"]
		if !ok {
			return nil, fmt.Errorf("invalid --query-file %q: expected top-level string array or object with \"job_titles\" string array", path)
		}
		titles, ok := rawTitles.([]any)
		if !ok {
			return nil, fmt.Errorf("invalid --query-file %q: field \"job_titles\" must be an array of strings", path)
		}
		return parseStringArray(titles, path, "job_titles")
	default:
		return nil, fmt.Errorf("invalid --query-file %q: expected top-level string array or object with \"job_titles\" string array", path)
	}
}

func parseStringArray(values []any, path string, fieldName string) ([]string, error) {
	queries := make([]string, 0, len(values))
	for idx, rawValue := range values {
		query, ok := rawValue.(string)
		if !ok {
			return nil, fmt.Errorf("invalid --query-file %q: %s[%d] must be a string", path, fieldName, idx)
		}
		query = strings.TrimSpace(query)
		if query == "" {
			continue
		}
		queries = append(queries, query)
	}
	return queries, nil
}

func resolveFormat(ctx *Context, opts SearchOptions, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if opts.Format != "" {
		return export.ParseFormat(opts.Format)
	}
	if outputPath == "" && isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func defaultInt(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching... %ds %s", seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
