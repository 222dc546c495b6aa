package provider

import (
	"fmt"
	"strings"
)

// Update is a single typed edit to a provider. The set of updates is closed:
// each one knows which kinds it applies to, so a payload can never take a
// shape that contradicts the provider's kind.
type Update interface {
	apply(p *Provider) error
}

// SetLabel replaces the display label.
type SetLabel string

func (u SetLabel) apply(p *Provider) error {
	label := strings.TrimSpace(string(u))
	if label == "" {
		return fmt.Errorf("label must not be empty")
	}
	p.Label = label
	return nil
}

// SetIcon replaces the icon (a URL or data URI).
type SetIcon string

func (u SetIcon) apply(p *Provider) error {
	p.Icon = string(u)
	return nil
}

// SetHomepage replaces the homepage URL.
type SetHomepage string

func (u SetHomepage) apply(p *Provider) error {
	p.Homepage = strings.TrimSpace(string(u))
	return nil
}

// SetTag replaces the grouping tag. An empty tag groups under TagOther.
type SetTag string

func (u SetTag) apply(p *Provider) error {
	p.Tag = strings.TrimSpace(string(u))
	return nil
}

// SetVisibility sets which surfaces show the provider.
type SetVisibility struct {
	Bubble bool
	Panel  bool
}

func (u SetVisibility) apply(p *Provider) error {
	p.Bubble = u.Bubble
	p.Panel = u.Panel
	return nil
}

// SetSearchLink replaces the link template of a search provider.
type SetSearchLink string

func (u SetSearchLink) apply(p *Provider) error {
	if p.Kind != KindSearch {
		return fmt.Errorf("%w: link on %s provider", ErrKindMismatch, p.Kind)
	}
	p.Payload.Link = string(u)
	return nil
}

// SetKind changes the provider kind. Switching away from search drops the link.
type SetKind Kind

func (u SetKind) apply(p *Provider) error {
	k := Kind(u)
	if !k.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, k)
	}
	if k != KindSearch {
		p.Payload.Link = ""
	}
	p.Kind = k
	return nil
}

// Apply returns a copy of p with all updates applied in order. If any update
// fails, p is returned unchanged along with the error.
func Apply(p Provider, updates ...Update) (Provider, error) {
	c := p.Clone()
	for _, u := range updates {
		if err := u.apply(&c); err != nil {
			return p, err
		}
	}
	return c, nil
}
