package seen

import (
	"strings"

	"github.com/jimezsa/jobcrawl/internal/models"
)

const keySeparator = "::"

// DiffStats captures stats for A-B unseen filtering.
type DiffStats struct {
	TotalNew    int
	TotalSeen   int
	InvalidNew  int
	InvalidSeen int
	Unseen      int
}

// InvalidSkipped returns the total invalid records skipped during comparison.
func (s DiffStats) InvalidSkipped() int {
	return s.InvalidNew + s.InvalidSeen
}

// MergeStats captures stats for seen history updates.
type MergeStats struct {
	TotalSeen    int
	TotalInput   int
	InvalidSeen  int
	InvalidInput int
	Added        int
	TotalOut     int
}

// InvalidSkipped returns the total invalid records skipped during merge.
func (s MergeStats) InvalidSkipped() int {
	return s.InvalidSeen + s.InvalidInput
}

func Normalize(value string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(value)))
	return strings.Join(fields, " ")
}

// Key identifies a record by site and job id, falling back to title and
// company when the id is missing.
func Key(job models.JobRecord) (string, bool) {
	site := Normalize(job.Site)
	if id := strings.TrimSpace(job.ID); id != "" {
		return site + keySeparator + id, true
	}
	title := Normalize(job.Title)
	company := Normalize(job.Company)
	if title == "" || company == "" {
		return "", false
	}
	return site + keySeparator + title + keySeparator + company, true
}

// Diff returns unseen jobs from newJobs using existing seenJobs keys.
func Diff(newJobs []models.JobRecord, seenJobs []models.JobRecord) ([]models.JobRecord, DiffStats) {
	stats := DiffStats{
		TotalNew:  len(newJobs),
		TotalSeen: len(seenJobs),
	}

	seenKeys, invalid := keySet(seenJobs)
	stats.InvalidSeen = invalid

	newKeys := make(map[string]struct{}, len(newJobs))
	unseen := make([]models.JobRecord, 0, len(newJobs))
	for _, job := range newJobs {
		key, ok := Key(job)
		if !ok {
			stats.InvalidNew++
			continue
		}
		if _, exists := newKeys[key]; exists {
			continue
		}
		newKeys[key] = struct{}{}
		if _, exists := seenKeys[key]; exists {
			continue
		}
		unseen = append(unseen, job)
	}

	stats.Unseen = len(unseen)
	return unseen, stats
}

// FilterPages drops records already present in seenJobs, keeping the page
// structure. Pages left empty are kept so page indexes stay stable.
func FilterPages(pages []models.Page, seenJobs []models.JobRecord) []models.Page {
	seenKeys, _ := keySet(seenJobs)
	out := make([]models.Page, 0, len(pages))
	for _, page := range pages {
		filtered := page
		filtered.Jobs = make(map[string]models.JobRecord, len(page.Jobs))
		for id, job := range page.Jobs {
			key, ok := Key(job)
			if !ok {
				continue
			}
			if _, exists := seenKeys[key]; exists {
				continue
			}
			filtered.Jobs[id] = job
		}
		out = append(out, filtered)
	}
	return out
}

// Merge appends unique new jobs into the seen history.
// Existing seen entries win collisions.
func Merge(existingSeen []models.JobRecord, inputJobs []models.JobRecord) ([]models.JobRecord, MergeStats) {
	stats := MergeStats{
		TotalSeen:  len(existingSeen),
		TotalInput: len(inputJobs),
	}

	keys := make(map[string]struct{}, len(existingSeen)+len(inputJobs))
	out := make([]models.JobRecord, 0, len(existingSeen)+len(inputJobs))

	for _, job := range existingSeen {
		key, ok := Key(job)
		if !ok {
			stats.InvalidSeen++
			out = append(out, job)
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, job)
	}

	for _, job := range inputJobs {
		key, ok := Key(job)
		if !ok {
			stats.InvalidInput++
			continue
		}
		if _, exists := keys[key]; exists {
			continue
		}
		keys[key] = struct{}{}
		out = append(out, job)
		stats.Added++
	}

	stats.TotalOut = len(out)
	return out, stats
}

func keySet(jobs []models.JobRecord) (map[string]struct{}, int) {
	keys := make(map[string]struct{}, len(jobs))
	invalid := 0
	for _, job := range jobs {
		key, ok := Key(job)
		if !ok {
			invalid++
			continue
		}
		keys[key] = struct{}{}
	}
	return keys, invalid
}
