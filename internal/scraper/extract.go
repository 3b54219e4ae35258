package scraper

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcrawl/internal/models"
)

// HasNextPage reports whether the page offers a link to further results.
func HasNextPage(doc *goquery.Document, site Site) bool {
	return doc.Find(site.NextSelector).Length() > 0
}

// ExtractPage builds one record per job card, keyed by job id. Cards without
// an id are skipped; a repeated id keeps the later card.
func ExtractPage(doc *goquery.Document, site Site) (map[string]models.JobRecord, models.ExtractStats) {
	jobs := map[string]models.JobRecord{}
	stats := models.ExtractStats{EmptyFields: map[string]int{}}

	doc.Find(site.CardSelector).Each(func(_ int, card *goquery.Selection) {
		stats.Cards++

		job, empty := extractJob(card, site)
		for _, field := range empty {
			stats.EmptyFields[field]++
		}
		if job.ID == "" {
			stats.MissingID++
			return
		}
		if _, exists := jobs[job.ID]; exists {
			stats.Duplicates++
		}
		jobs[job.ID] = job
	})

	if len(stats.EmptyFields) == 0 {
		stats.EmptyFields = nil
	}
	return jobs, stats
}

func extractJob(card *goquery.Selection, site Site) (models.JobRecord, []string) {
	job := models.JobRecord{Site: site.Name}
	var empty []string

	for _, mapping := range site.Fields {
		value := ""
		if match := card.Find("." + mapping.Class).First(); match.Length() > 0 {
			value = cleanText(match.Text())
		}
		if value == "" {
			empty = append(empty, mapping.Field)
		}
		setField(&job, mapping.Field, value)
	}

	if site.ID != nil {
		if id, ok := site.ID.ID(card); ok {
			job.ID = id
		}
	}
	return job, empty
}

func setField(job *models.JobRecord, field string, value string) {
	switch field {
	case FieldTitle:
		job.Title = value
	case FieldCompany:
		job.Company = value
	case FieldLocation:
		job.Location = value
	case FieldSnippet:
		job.Snippet = value
	case FieldMetadata:
		job.Metadata = value
	case FieldEasyApply:
		job.EasyApply = value
	}
}

func cleanText(value string) string {
	value = html.UnescapeString(value)
	return strings.Join(strings.Fields(value), " ")
}
