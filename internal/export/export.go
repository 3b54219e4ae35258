package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/jobcrawl/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
	// LinkFor resolves a record's listing URL; nil leaves the url column empty.
	LinkFor func(models.JobRecord) string
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

// row is one record with the page it came from.
type row struct {
	page int
	job  models.JobRecord
	url  string
}

func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "tsv":
		return FormatTSV, nil
	case "table", "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", value)
	}
}

// WritePages writes every record of pages in the requested format. JSON keeps
// the page structure; the other formats emit one line per record.
func WritePages(w io.Writer, pages []models.Page, format Format, opts WriteOptions) error {
	if format == FormatJSON {
		return writeJSON(w, pages)
	}

	rows := flatten(pages, opts.LinkFor)
	switch format {
	case FormatCSV:
		return writeCSV(w, rows, ',')
	case FormatTSV:
		return writeCSV(w, rows, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, rows)
	default:
		return writeTable(w, rows, opts)
	}
}

func flatten(pages []models.Page, linkFor func(models.JobRecord) string) []row {
	var rows []row
	for _, page := range pages {
		for _, id := range page.SortedIDs() {
			job := page.Jobs[id]
			r := row{page: page.Index, job: job}
			if linkFor != nil {
				r.url = linkFor(job)
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func writeJSON(w io.Writer, pages []models.Page) error {
	if pages == nil {
		pages = []models.Page{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(pages)
}

func writeCSV(w io.Writer, rows []row, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writer.Write(csvRow(r)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, rows []row, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(tableRow(r, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, rows []row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, r := range rows {
		job := r.job
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", safe(job.Title), safe(job.Company)),
			fmt.Sprintf("  ID: %s", safe(job.ID)),
			fmt.Sprintf("  Page: %d", r.page),
			fmt.Sprintf("  Location: %s", safe(job.Location)),
			fmt.Sprintf("  Site: %s", safe(job.Site)),
		}
		if link := safe(r.url); link != "" {
			lines = append(lines, fmt.Sprintf("  URL: [Open listing](<%s>)", link))
		}
		if job.EasyApply != "" {
			lines = append(lines, "  Easy apply: yes")
		}
		if job.Metadata != "" {
			lines = append(lines, fmt.Sprintf("  Details: %s", safe(job.Metadata)))
		}
		if job.Snippet != "" {
			lines = append(lines, fmt.Sprintf("  Summary: %s", safe(job.Snippet)))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"page",
		"id",
		"site",
		"title",
		"company",
		"location",
		"url",
		"easy_apply",
		"metadata",
		"job_snippet",
	}
}

func csvRow(r row) []string {
	job := r.job
	return []string{
		strconv.Itoa(r.page),
		job.ID,
		job.Site,
		job.Title,
		job.Company,
		job.Location,
		r.url,
		job.EasyApply,
		job.Metadata,
		job.Snippet,
	}
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func tableHeader() []string {
	return []string{
		"page",
		"id",
		"title",
		"company",
		"location",
		"url",
	}
}

func tableRow(r row, output *termenv.Output, opts WriteOptions) []string {
	const linkColor = "#87CEEB"

	link := safe(r.url)
	displayURL := "-"
	if link != "" {
		displayURL = link
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(link)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(link, displayURL)
		}
	}
	return []string{
		strconv.Itoa(r.page),
		safe(r.job.ID),
		safe(r.job.Title),
		safe(r.job.Company),
		safe(r.job.Location),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
			if parsed.RawQuery != "" {
				label += "?" + parsed.RawQuery
			}
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
