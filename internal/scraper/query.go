package scraper

import (
	"net/url"
	"strconv"

	"github.com/jimezsa/jobcrawl/internal/models"
)

// RemoteToken is the sc value Indeed uses for its remote-only filter.
const RemoteToken = "0kf:attr(DSQF7);"

var supportedRadii = []int{0, 5, 10, 15, 25, 35, 50, 100}

// NearestRadius snaps radius to the closest value the search form offers.
// Ties go to the smaller radius.
func NearestRadius(radius int) int {
	best := supportedRadii[0]
	for _, candidate := range supportedRadii[1:] {
		if abs(candidate-radius) < abs(best-radius) {
			best = candidate
		}
	}
	return best
}

// BuildQuery turns a filter into the query parameters for the first page.
// Only start changes between requests.
func BuildQuery(filter models.SearchFilter, money CurrencyFormatter) url.Values {
	filter = filter.Normalized()

	q := filter.Keywords
	if filter.Salary > 0 {
		q += " " + money.Format(filter.Salary)
	}

	values := url.Values{}
	values.Set("q", q)
	values.Set("l", filter.Location)
	values.Set("limit", strconv.Itoa(filter.Limit))
	values.Set("fromage", strconv.Itoa(filter.PostedBy))
	values.Set("start", "0")
	if filter.Radius > 0 {
		values.Set("radius", strconv.Itoa(NearestRadius(filter.Radius)))
	}
	if filter.Remote {
		values.Set("sc", RemoteToken)
	}
	return values
}

// SearchURL joins base and the encoded parameters.
func SearchURL(base string, params url.Values) string {
	return base + "?" + params.Encode()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
