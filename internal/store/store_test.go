package store

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jimezsa/jobcrawl/internal/models"
)

func TestJobFromRecord(t *testing.T) {
	record := models.JobRecord{
		ID:        "indeed_8f2c1a",
		Site:      "indeed",
		Title:     "DevOps Engineer",
		Company:   "Acme",
		Location:  "Remote in Austin, TX",
		Snippet:   "Own CI/CD",
		Metadata:  "Full-time",
		EasyApply: "Easily apply",
	}

	link := func(r models.JobRecord) string {
		return "https://www.indeed.com/viewjob?jk=" + strings.TrimPrefix(r.ID, "indeed_")
	}
	job := JobFromRecord(record, "playwright", link)
	if job.JobSiteID != "indeed_8f2c1a" || job.Site != "indeed" || job.Provider != "playwright" {
		t.Fatalf("unexpected identity fields: %+v", job)
	}
	if job.Description != "Own CI/CD\nFull-time" {
		t.Fatalf("Description = %q", job.Description)
	}
	if !job.Remote {
		t.Fatalf("expected remote job")
	}
	if job.Location == nil || *job.Location != record.Location {
		t.Fatalf("Location = %v", job.Location)
	}
	if job.URL != "https://www.indeed.com/viewjob?jk=8f2c1a" || job.ApplyURL != job.URL {
		t.Fatalf("URL = %q ApplyURL = %q", job.URL, job.ApplyURL)
	}
	if job.Match != NoMatch {
		t.Fatalf("Match = %v, want %v", job.Match, NoMatch)
	}
}

func TestJobFromRecordSparse(t *testing.T) {
	job := JobFromRecord(models.JobRecord{ID: "x1", Site: "other", Title: "SRE"}, "http", nil)
	if job.Location != nil || job.URL != "" || job.ApplyURL != "" || job.Remote {
		t.Fatalf("unexpected optional fields: %+v", job)
	}
	if job.Description != "" {
		t.Fatalf("Description = %q, want empty", job.Description)
	}
}

func TestClampLimit(t *testing.T) {
	cases := []struct{ in, want int }{{0, 20}, {-3, 20}, {50, 50}, {500, 200}}
	for _, tc := range cases {
		if got := clampLimit(tc.in, 20, 200); got != tc.want {
			t.Fatalf("clampLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"users", "tasks", "scrapes", "jobs", "user_job_links"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("schema missing table %s", table)
		}
	}
}

// TestStoreRoundTrip runs against a live database when JOBCRAWL_TEST_DATABASE_URL is set.
func TestStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("JOBCRAWL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("JOBCRAWL_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	st, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	user, err := st.CreateUser(ctx, "roundtrip-"+uuid.NewString()+"@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	task, err := st.CreateTask(ctx, &user.ID, TaskScrape)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	scrape, err := st.CreateScrape(ctx, &task.ID)
	if err != nil {
		t.Fatalf("CreateScrape() error = %v", err)
	}

	records := []models.JobRecord{{ID: "indeed_" + uuid.NewString(), Site: "indeed", Title: "SRE"}}
	ids, err := st.SaveJobs(ctx, scrape.ID, records, "test", nil)
	if err != nil {
		t.Fatalf("SaveJobs() error = %v", err)
	}
	again, err := st.SaveJobs(ctx, scrape.ID, records, "test", nil)
	if err != nil {
		t.Fatalf("SaveJobs() (2nd) error = %v", err)
	}
	if ids[0] != again[0] {
		t.Fatalf("upsert created a new row: %d != %d", ids[0], again[0])
	}

	if err := st.LinkUserJob(ctx, user.ID, ids[0], 0.8); err != nil {
		t.Fatalf("LinkUserJob() error = %v", err)
	}
	if err := st.MarkApplied(ctx, user.ID, ids[0]); err != nil {
		t.Fatalf("MarkApplied() error = %v", err)
	}
}
