// Package provider defines the action provider record shared by the catalog,
// the dispatcher, and the persisted store.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder is the token in a search link replaced with the selected text.
const Placeholder = "{selectedText}"

// Kind identifies what a provider does when dispatched
type Kind string

const (
	KindSearch Kind = "search" // Open a URL built from the link template
	KindMenu   Kind = "menu"   // Expand the bubble into the panel
	KindCopy   Kind = "copy"   // Write the selection to the clipboard
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSearch, KindMenu, KindCopy:
		return true
	default:
		return false
	}
}

var (
	// ErrUnknownKind is returned for a provider whose kind is not search, menu, or copy.
	ErrUnknownKind = errors.New("unknown provider kind")

	// ErrKindMismatch is returned when an update does not apply to the provider's kind.
	ErrKindMismatch = errors.New("update does not apply to provider kind")
)

// Payload carries the kind-specific data of a provider. Link is only
// meaningful for search providers. SelectedText and Source are injected at
// projection time and are not meaningful once persisted.
type Payload struct {
	Link         string `json:"link,omitempty"`
	SelectedText string `json:"selectedText"`
	Source       string `json:"source"`
}

// Provider is a configured action bound to a label and icon.
// The JSON shape matches the extension's local storage records so catalogs
// exported from the browser round-trip unchanged.
type Provider struct {
	ProviderID int64   `json:"providerId,omitempty"`
	Label      string  `json:"label"`
	Homepage   string  `json:"homepage"`
	Icon       string  `json:"icon"`
	Tag        string  `json:"tag,omitempty"`
	Bubble     bool    `json:"bubble"`
	Panel      bool    `json:"panel"`
	Order      *int    `json:"order,omitempty"`
	Kind       Kind    `json:"type"`
	Payload    Payload `json:"payload"`
}

// Key is the legacy composite identity of a provider (label + kind + tag).
// It is only used to match records that predate provider IDs.
type Key struct {
	Label string
	Kind  Kind
	Tag   string
}

// Key returns the composite key of p. The tag is taken as stored, so a
// record without a tag only matches another record without a tag.
func (p Provider) Key() Key {
	return Key{Label: p.Label, Kind: p.Kind, Tag: p.Tag}
}

// HasID reports whether p carries a provider ID (local or remote).
func (p Provider) HasID() bool {
	return p.ProviderID != 0
}

// Group returns the tag p is grouped under; an absent tag maps to TagOther.
func (p Provider) Group() string {
	tag := strings.TrimSpace(p.Tag)
	if tag == "" {
		return TagOther
	}
	return tag
}

// Clone returns a deep copy of p.
func (p Provider) Clone() Provider {
	if p.Order != nil {
		o := *p.Order
		p.Order = &o
	}
	return p
}

// WithContext returns a copy of p with the live selection injected into its payload.
func (p Provider) WithContext(selectedText, source string) Provider {
	c := p.Clone()
	c.Payload.SelectedText = selectedText
	c.Payload.Source = source
	return c
}

// Validate checks the fields dispatch relies on.
func (p Provider) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, p.Kind)
	}
	if p.Kind == KindSearch && p.Payload.Link == "" {
		return fmt.Errorf("search provider %q has no link", p.Label)
	}
	return nil
}

// IntPtr returns a pointer to v, for populating Order.
func IntPtr(v int) *int {
	return &v
}

// Index returns the position of the provider with the given ID, or -1.
func Index(list []Provider, id int64) int {
	if id == 0 {
		return -1
	}
	for i := range list {
		if list[i].ProviderID == id {
			return i
		}
	}
	return -1
}

// CloneAll deep-copies a provider list.
func CloneAll(list []Provider) []Provider {
	if list == nil {
		return nil
	}
	out := make([]Provider, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}
