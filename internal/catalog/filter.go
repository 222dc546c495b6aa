package catalog

import (
	"strings"

	"github.com/runger/selact/internal/provider"
)

// All matches any value in a Filter field.
const All = "all"

// Display values for Filter.Display.
const (
	DisplayAll    = All
	DisplayBubble = "bubble"
	DisplayPanel  = "panel"
)

// Filter narrows the catalog in the editor. Empty fields behave like All.
type Filter struct {
	Term    string // Case-insensitive substring of label or homepage
	Kind    string // Provider kind or All
	Tag     string // Group tag or All; untagged providers match TagOther
	Display string // all, bubble, or panel
}

// Match reports whether p passes the filter.
func (f Filter) Match(p provider.Provider) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Term)); term != "" {
		if !strings.Contains(strings.ToLower(p.Label), term) &&
			!strings.Contains(strings.ToLower(p.Homepage), term) {
			return false
		}
	}
	if f.Kind != "" && f.Kind != All && string(p.Kind) != f.Kind {
		return false
	}
	if f.Tag != "" && f.Tag != All && p.Group() != f.Tag {
		return false
	}
	switch f.Display {
	case DisplayBubble:
		return p.Bubble
	case DisplayPanel:
		return p.Panel
	}
	return true
}

// Apply returns the providers matching f in catalog order, paired with
// their index in the full catalog so edits can be written back.
func (f Filter) Apply(providers []provider.Provider) ([]provider.Provider, []int) {
	var out []provider.Provider
	var idx []int
	for i, p := range providers {
		if f.Match(p) {
			out = append(out, p)
			idx = append(idx, i)
		}
	}
	return out, idx
}

// Tags returns the distinct non-empty tags in discovery order.
func Tags(providers []provider.Provider) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, p := range providers {
		if p.Tag == "" || seen[p.Tag] {
			continue
		}
		seen[p.Tag] = true
		tags = append(tags, p.Tag)
	}
	return tags
}
