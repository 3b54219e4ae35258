package models

import (
	"errors"
	"strings"
)

const (
	DefaultLimit    = 50
	DefaultPostedBy = 3
)

var ErrKeywordsRequired = errors.New("keywords are required")

// SearchFilter captures the caller's search inputs. It is read once when the
// query parameters are built and never mutated afterwards.
type SearchFilter struct {
	Keywords string
	Location string
	Limit    int
	PostedBy int
	Radius   int
	Remote   bool
	Salary   float64
}

// Normalized returns a copy with defaults applied and text trimmed.
func (f SearchFilter) Normalized() SearchFilter {
	f.Keywords = strings.TrimSpace(f.Keywords)
	f.Location = strings.TrimSpace(f.Location)
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.PostedBy <= 0 {
		f.PostedBy = DefaultPostedBy
	}
	if f.Radius < 0 {
		f.Radius = 0
	}
	if f.Salary < 0 {
		f.Salary = 0
	}
	return f
}

func (f SearchFilter) Validate() error {
	if strings.TrimSpace(f.Keywords) == "" {
		return ErrKeywordsRequired
	}
	return nil
}
