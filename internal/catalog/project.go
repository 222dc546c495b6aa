// Package catalog derives the bubble and panel views from the persisted
// provider list. Every function here is pure: inputs are never mutated and
// the results can be recomputed on every selection change.
package catalog

import (
	"sort"

	"github.com/runger/selact/internal/provider"
)

// Context is the live selection injected into every projected provider.
type Context struct {
	Text   string // Normalized selected text
	Source string // Address of the current page
}

// Group is one tag section of the panel surface.
type Group struct {
	Tag       string              `json:"tag"`
	Display   string              `json:"display"`
	Providers []provider.Provider `json:"providers"`
}

// Projection is the renderable view of the catalog.
type Projection struct {
	Bubble []provider.Provider `json:"bubble"`
	Panel  []Group             `json:"panel"`
}

// Project computes both surfaces from the catalog and the persisted group order.
func Project(providers []provider.Provider, groupOrder []string, ctx Context) Projection {
	return Projection{
		Bubble: BubbleList(providers, ctx),
		Panel:  PanelGroups(providers, groupOrder, ctx),
	}
}

// BubbleList returns the bubble-visible providers: those with an explicit
// order first, ascending, then the unordered ones in catalog order. Equal
// orders keep their catalog order.
func BubbleList(providers []provider.Provider, ctx Context) []provider.Provider {
	out := make([]provider.Provider, 0, len(providers))
	for _, p := range providers {
		if p.Bubble {
			out = append(out, p.WithContext(ctx.Text, ctx.Source))
		}
	}
	SortByOrder(out)
	return out
}

// SortByOrder stably sorts list in place by the Order field, nil last.
func SortByOrder(list []provider.Provider) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i].Order, list[j].Order
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// PanelGroups returns the panel-visible providers grouped by tag. Groups named
// in groupOrder come first in that sequence; the remaining groups follow in
// lexical order. Within a group providers keep their catalog order.
func PanelGroups(providers []provider.Provider, groupOrder []string, ctx Context) []Group {
	byTag := make(map[string][]provider.Provider)
	for _, p := range providers {
		if !p.Panel {
			continue
		}
		tag := p.Group()
		byTag[tag] = append(byTag[tag], p.WithContext(ctx.Text, ctx.Source))
	}
	if len(byTag) == 0 {
		return []Group{}
	}

	present := make(map[string]bool, len(byTag))
	for tag := range byTag {
		present[tag] = true
	}
	keys := orderTags(present, groupOrder)

	groups := make([]Group, 0, len(keys))
	for _, tag := range keys {
		groups = append(groups, Group{
			Tag:       tag,
			Display:   provider.DisplayTag(tag),
			Providers: byTag[tag],
		})
	}
	return groups
}

// GroupTags returns the panel group tags in display order, the same order
// PanelGroups uses. Group reorder indices refer to this list.
func GroupTags(providers []provider.Provider, groupOrder []string) []string {
	present := make(map[string]bool)
	for _, p := range providers {
		if p.Panel {
			present[p.Group()] = true
		}
	}
	return orderTags(present, groupOrder)
}

// orderTags lists the present tags: those named in groupOrder first, in that
// sequence, then the rest sorted.
func orderTags(present map[string]bool, groupOrder []string) []string {
	keys := make([]string, 0, len(present))
	placed := make(map[string]bool, len(present))
	for _, tag := range groupOrder {
		if present[tag] && !placed[tag] {
			keys = append(keys, tag)
			placed[tag] = true
		}
	}
	var rest []string
	for tag := range present {
		if !placed[tag] {
			rest = append(rest, tag)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}
