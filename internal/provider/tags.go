package provider

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TagOther is the group for providers with no tag.
const TagOther = "other"

// KnownTags is the bounded tag vocabulary offered by the catalog editor.
// Providers may also carry arbitrary custom tags.
var KnownTags = []string{
	"general",
	"translation",
	"cloud",
	"knowledge",
	"map",
	"image",
	"social",
	"news",
	"technology",
	"shopping",
	"music",
	"video",
	TagOther,
}

var titleCaser = cases.Title(language.Und)

// IsKnownTag reports whether tag is part of KnownTags.
func IsKnownTag(tag string) bool {
	for _, t := range KnownTags {
		if t == tag {
			return true
		}
	}
	return false
}

// DisplayTag returns the display name for a tag. Known tags are title-cased,
// custom tags are returned as entered, and an empty tag displays as "Other".
func DisplayTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		tag = TagOther
	}
	if IsKnownTag(tag) {
		return titleCaser.String(tag)
	}
	return tag
}
