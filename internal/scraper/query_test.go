package scraper

import (
	"sort"
	"strings"
	"testing"

	"github.com/jimezsa/jobcrawl/internal/models"
)

func TestBuildQueryBaseKeys(t *testing.T) {
	params := BuildQuery(models.SearchFilter{Keywords: "golang", Location: "New York, NY"}, CurrencyFormatter{})

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	want := []string{"fromage", "l", "limit", "q", "start"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v, want %v", keys, want)
	}

	if params.Get("limit") != "50" || params.Get("fromage") != "3" || params.Get("start") != "0" {
		t.Fatalf("unexpected defaults: %v", params)
	}
	if params.Get("q") != "golang" || params.Get("l") != "New York, NY" {
		t.Fatalf("unexpected q/l: %v", params)
	}
}

func TestBuildQueryOptionalParams(t *testing.T) {
	params := BuildQuery(models.SearchFilter{
		Keywords: "devops",
		Limit:    10,
		PostedBy: 7,
		Radius:   30,
		Remote:   true,
	}, CurrencyFormatter{})

	if params.Get("sc") != RemoteToken {
		t.Fatalf("sc = %q, want %q", params.Get("sc"), RemoteToken)
	}
	if params.Get("radius") != "25" {
		t.Fatalf("radius = %q, want 25", params.Get("radius"))
	}
	if params.Get("limit") != "10" || params.Get("fromage") != "7" {
		t.Fatalf("unexpected limit/fromage: %v", params)
	}
}

func TestBuildQuerySalary(t *testing.T) {
	params := BuildQuery(models.SearchFilter{Keywords: "devops", Salary: 120000}, CurrencyFormatter{})
	q := params.Get("q")
	if !strings.HasPrefix(q, "devops ") {
		t.Fatalf("q = %q, want keywords first", q)
	}
	if !strings.HasSuffix(q, "$120,000.00") {
		t.Fatalf("q = %q, want formatted salary suffix", q)
	}
}

func TestNearestRadius(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, 0},
		{1, 0},
		{3, 5},
		{12, 10},
		{13, 15},
		{20, 15},
		{30, 25},
		{42, 35},
		{43, 50},
		{75, 50},
		{80, 100},
		{500, 100},
	}
	for _, tc := range cases {
		if got := NearestRadius(tc.in); got != tc.want {
			t.Fatalf("NearestRadius(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestSearchURL(t *testing.T) {
	params := BuildQuery(models.SearchFilter{Keywords: "site reliability", Location: "Austin, TX"}, CurrencyFormatter{})
	got := SearchURL(Indeed("").BaseURL, params)
	for _, part := range []string{"https://www.indeed.com/jobs?", "q=site+reliability", "l=Austin%2C+TX", "start=0"} {
		if !strings.Contains(got, part) {
			t.Fatalf("SearchURL() = %q, missing %q", got, part)
		}
	}
}
