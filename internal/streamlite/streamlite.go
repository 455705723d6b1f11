// Package streamlite streams reference terms out of external BrAPI
// databases.
package streamlite

import (
	"errors"
	"strings"
)

// Errors returned by Fetch. Both are partial failures: the terms emitted
// before the error are valid.
var (
	// ErrUnsupportedVersion is returned when a record type cannot be read
	// in the database's BrAPI version
	ErrUnsupportedVersion = errors.New("unsupported BrAPI version")

	// ErrFetch is returned when paging a record type fails part way
	ErrFetch = errors.New("fetch failed")
)

// Defaults applied to databases that leave the paging knobs unset
const (
	DefaultPageSize  = 1000
	DefaultCallLimit = 5
	DefaultVersion   = "v1.3"
)

// Database describes an external BrAPI server
type Database struct {
	Name      string `toml:"name" json:"name,omitempty"`
	Address   string `toml:"address" json:"address"`
	Version   string `toml:"version" json:"version,omitempty"`
	AuthToken string `toml:"auth_token" json:"auth_token,omitempty"`

	// CallLimit bounds the concurrent page requests
	CallLimit int `toml:"call_limit" json:"call_limit,omitempty"`
	PageSize  int `toml:"page_size" json:"page_size,omitempty"`

	// RequestsPerSecond throttles requests when positive
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second,omitempty"`

	// Params are sent with every request and scope the corpus
	Params map[string]string `toml:"params" json:"params,omitempty"`
}

// Public returns a copy of the database safe to show to clients
func (d Database) Public() Database {
	d.AuthToken = ""
	return d
}

// Major returns the major BrAPI version, "v1" or "v2", or "" when unknown.
// An empty version falls back to the address suffix and then the default.
func (d Database) Major() string {
	v := strings.ToLower(strings.TrimSpace(d.Version))
	if v == "" {
		addr := strings.ToLower(strings.TrimRight(d.Address, "/"))
		switch {
		case strings.HasSuffix(addr, "/v2"):
			v = "v2"
		case strings.HasSuffix(addr, "/v1"):
			v = "v1"
		default:
			v = DefaultVersion
		}
	}
	switch {
	case strings.HasPrefix(v, "v1"):
		return "v1"
	case strings.HasPrefix(v, "v2"):
		return "v2"
	}
	return ""
}

func (d Database) pageSize() int {
	if d.PageSize > 0 {
		return d.PageSize
	}
	return DefaultPageSize
}

func (d Database) callLimit() int {
	if d.CallLimit > 0 {
		return d.CallLimit
	}
	return DefaultCallLimit
}
