// Package remote is a client for the shared provider catalog service.
package remote

import (
	"errors"
	"fmt"

	"github.com/runger/selact/internal/provider"
)

// ErrRemote is wrapped by every error the service reports in its envelope.
var ErrRemote = errors.New("remote catalog error")

// APIError is a response whose envelope code is non-zero.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote catalog: %s (code %d)", e.Message, e.Code)
}

func (e *APIError) Unwrap() error { return ErrRemote }

// Provider is a catalog entry as the service returns it. It is read-only.
type Provider struct {
	ProviderID    int64  `json:"providerId"`
	Label         string `json:"label"`
	Homepage      string `json:"homepage"`
	Icon          string `json:"icon"`
	Tag           string `json:"tag"`
	Link          string `json:"link"`
	UsageCount    int64  `json:"usageCount"`
	ObsoleteCount int64  `json:"obsoleteCount"`
}

// Score is the popularity rank the service sorts by.
func (p Provider) Score() int64 {
	return p.UsageCount - p.ObsoleteCount
}

// ToLocal converts p into a local search provider with the given visibility.
func (p Provider) ToLocal(bubble, panel bool) provider.Provider {
	return provider.Provider{
		ProviderID: p.ProviderID,
		Label:      p.Label,
		Homepage:   p.Homepage,
		Icon:       p.Icon,
		Tag:        p.Tag,
		Bubble:     bubble,
		Panel:      panel,
		Kind:       provider.KindSearch,
		Payload:    provider.Payload{Link: p.Link},
	}
}

// Query selects a page of the catalog. Page is 1-based.
type Query struct {
	Keyword  string
	Tag      string
	Page     int
	PageSize int
}

// Key identifies the query independent of the page.
func (q Query) Key() string {
	return q.Keyword + "\x00" + q.Tag
}

// Page is one page of search results.
type Page struct {
	Providers []Provider `json:"providers"`
	HasMore   bool       `json:"hasMore"`
}

// Submission is the body of a publish request.
type Submission struct {
	Label    string `json:"label"`
	Homepage string `json:"homepage"`
	Icon     string `json:"icon"`
	Tag      string `json:"tag"`
	Link     string `json:"link"`
}

// envelope is the response wrapper used by every endpoint.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}
