package models

// JobRecord is one job card extracted from a results page. Every text field
// is empty when the card has no matching element.
type JobRecord struct {
	ID        string `json:"id"`
	Site      string `json:"site"`
	Title     string `json:"title"`
	Company   string `json:"company"`
	Location  string `json:"location"`
	Snippet   string `json:"job_snippet"`
	Metadata  string `json:"metadata"`
	EasyApply string `json:"easy_apply"`
}

// ExtractStats describes how well a page matched the site's selectors.
type ExtractStats struct {
	Cards       int            `json:"cards"`
	MissingID   int            `json:"missing_id"`
	Duplicates  int            `json:"duplicates"`
	EmptyFields map[string]int `json:"empty_fields,omitempty"`
}

// Page holds the records extracted from one fetched results page, keyed by
// job id.
type Page struct {
	Query  string               `json:"query,omitempty"`
	Index  int                  `json:"index"`
	Offset int                  `json:"offset"`
	Jobs   map[string]JobRecord `json:"jobs"`
	Stats  ExtractStats         `json:"stats"`
}

// Records flattens pages into a single slice, keeping page order and sorting
// ids within a page.
func Records(pages []Page) []JobRecord {
	total := 0
	for _, page := range pages {
		total += len(page.Jobs)
	}
	out := make([]JobRecord, 0, total)
	for _, page := range pages {
		for _, id := range page.SortedIDs() {
			out = append(out, page.Jobs[id])
		}
	}
	return out
}
