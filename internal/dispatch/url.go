package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/runger/selact/internal/provider"
)

const upperhex = "0123456789ABCDEF"

// keepInURI are the bytes EncodeURI leaves as-is besides ASCII letters and
// digits: URI reserved characters and the unreserved marks.
const keepInURI = ";,/?:@&=+$-_.!~*'()#"

// EncodeURI percent-encodes s the way a browser's encodeURI does: reserved
// URI characters survive, so a selection that is itself a URL stays openable,
// while spaces, non-ASCII and other unsafe bytes are escaped as UTF-8.
func EncodeURI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIByte(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func isURIByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte(keepInURI, c) >= 0
}

// BuildSearchURL substitutes every placeholder in template with the encoded
// selection. It is applied exactly once per dispatch.
func BuildSearchURL(template, selected string) string {
	return strings.ReplaceAll(template, provider.Placeholder, EncodeURI(selected))
}

// validateOpenable checks that raw parses as an absolute http(s) URL.
func validateOpenable(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}
	return nil
}
