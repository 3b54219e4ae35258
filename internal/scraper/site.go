package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jimezsa/jobcrawl/internal/models"
)

const SiteIndeed = "indeed"

var ErrUnknownSite = errors.New("unknown site")

// FieldMapping binds a CSS class found inside a job card to a record field.
type FieldMapping struct {
	Class string
	Field string
}

const (
	FieldTitle     = "title"
	FieldCompany   = "company"
	FieldLocation  = "location"
	FieldSnippet   = "job_snippet"
	FieldMetadata  = "metadata"
	FieldEasyApply = "easy_apply"
)

// IDStrategy derives a stable job identifier from a card element.
type IDStrategy interface {
	ID(card *goquery.Selection) (string, bool)
}

// IDFunc adapts a plain function to IDStrategy.
type IDFunc func(card *goquery.Selection) (string, bool)

func (f IDFunc) ID(card *goquery.Selection) (string, bool) {
	return f(card)
}

// ClassMarkerID picks the first class containing Marker and rewrites every
// occurrence of Old in it to New.
type ClassMarkerID struct {
	Marker string
	Old    string
	New    string
}

func (c ClassMarkerID) ID(card *goquery.Selection) (string, bool) {
	for _, class := range strings.Fields(card.AttrOr("class", "")) {
		if strings.Contains(class, c.Marker) {
			return strings.ReplaceAll(class, c.Old, c.New), true
		}
	}
	return "", false
}

// Site describes where a job board keeps its results and how its cards are
// laid out.
type Site struct {
	Name         string
	BaseURL      string
	CardSelector string
	NextSelector string
	Fields       []FieldMapping
	ID           IDStrategy
	// ViewURL is a format string taking the id without IDPrefix.
	ViewURL  string
	IDPrefix string
}

// JobURL links a record back to its listing, or returns "" when the site has
// no listing URL pattern.
func (s Site) JobURL(job models.JobRecord) string {
	if s.ViewURL == "" || job.ID == "" {
		return ""
	}
	key := strings.TrimPrefix(job.ID, s.IDPrefix)
	if key == "" {
		return ""
	}
	return fmt.Sprintf(s.ViewURL, url.QueryEscape(key))
}

func Indeed(country string) Site {
	return Site{
		Name:         SiteIndeed,
		BaseURL:      baseIndeedURL(country) + "/jobs",
		CardSelector: ".jobsearch-ResultsList .cardOutline",
		NextSelector: "[data-testid='pagination-page-next']",
		Fields: []FieldMapping{
			{Class: "jobTitle", Field: FieldTitle},
			{Class: "companyName", Field: FieldCompany},
			{Class: "companyLocation", Field: FieldLocation},
			{Class: "job-snippet", Field: FieldSnippet},
			{Class: "metadata", Field: FieldMetadata},
			{Class: "indeedApply", Field: FieldEasyApply},
		},
		ID:       ClassMarkerID{Marker: "job_", Old: "job", New: SiteIndeed},
		ViewURL:  baseIndeedURL(country) + "/viewjob?jk=%s",
		IDPrefix: SiteIndeed + "_",
	}
}

func baseIndeedURL(country string) string {
	country = strings.TrimSpace(strings.ToLower(country))
	if country == "" || country == "usa" || country == "us" {
		return "https://www.indeed.com"
	}
	return fmt.Sprintf("https://%s.indeed.com", country)
}

var sites = map[string]func(country string) Site{
	SiteIndeed: Indeed,
}

// Lookup returns the profile registered under name.
func Lookup(name string, country string) (Site, error) {
	name = NormalizeSite(name)
	build, ok := sites[name]
	if !ok {
		return Site{}, fmt.Errorf("%w: %s", ErrUnknownSite, name)
	}
	return build(country), nil
}

// Names lists the registered site names.
func Names() []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	return names
}

func NormalizeSite(site string) string {
	site = strings.ToLower(strings.TrimSpace(site))
	site = strings.TrimPrefix(site, "www.")
	site = strings.TrimSuffix(site, ".com")
	return site
}
