package models

import "time"

// DriverConfig contains runtime options shared by page drivers.
type DriverConfig struct {
	Backend    string
	Headless   bool
	UserAgent  string
	Proxies    []string
	Timeout    time.Duration
	UserAgents []string
}
