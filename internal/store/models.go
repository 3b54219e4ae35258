package store

import (
	"strings"
	"time"

	"github.com/jimezsa/jobcrawl/internal/models"
)

const (
	TaskScrape = "scrape"
	NoMatch    = -1.0
)

type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	HashPass string `json:"-"`
	Resume   string `json:"resume"`
}

type Task struct {
	ID        int       `json:"id"`
	UserID    *int      `json:"user_id,omitempty"`
	TaskType  string    `json:"task_type"`
	CreatedAt time.Time `json:"created_at"`
}

type Scrape struct {
	ID        int       `json:"id"`
	TaskID    *int      `json:"task_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Job struct {
	ID          int     `json:"id"`
	ScrapeID    *int    `json:"scrape_id,omitempty"`
	JobSiteID   string  `json:"job_site_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    *string `json:"location,omitempty"`
	Salary      *string `json:"salary,omitempty"`
	Remote      bool    `json:"remote"`
	Match       float64 `json:"match"`
	URL         string  `json:"url"`
	ApplyURL    string  `json:"apply_url"`
	Site        string  `json:"site"`
	Provider    string  `json:"provider"`
	Viewed      bool    `json:"viewed"`
	Applied     bool    `json:"applied"`
}

type UserJobLink struct {
	JobID        int     `json:"job_id"`
	UserID       int     `json:"user_id"`
	MatchPercent float64 `json:"match_percent"`
	Visited      bool    `json:"visited"`
	Applied      bool    `json:"applied"`
}

// URLFunc resolves the listing URL of a scraped record.
type URLFunc func(models.JobRecord) string

// JobFromRecord maps a scraped card onto a jobs row. The card snippet and
// metadata become the description.
func JobFromRecord(record models.JobRecord, provider string, link URLFunc) Job {
	job := Job{
		JobSiteID:   record.ID,
		Title:       record.Title,
		Description: joinNonEmpty("\n", record.Snippet, record.Metadata),
		Remote:      strings.Contains(strings.ToLower(record.Location), "remote"),
		Match:       NoMatch,
		Site:        record.Site,
		Provider:    provider,
	}
	if link != nil {
		job.URL = link(record)
	}
	if record.Location != "" {
		location := record.Location
		job.Location = &location
	}
	if record.EasyApply != "" {
		job.ApplyURL = job.URL
	}
	return job
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, sep)
}
