package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchProvider() Provider {
	return Provider{
		ProviderID: 10,
		Label:      "Google",
		Tag:        "general",
		Kind:       KindSearch,
		Payload:    Payload{Link: "https://google.com/search?q=" + Placeholder},
	}
}

func TestApply_Sequence(t *testing.T) {
	t.Parallel()

	got, err := Apply(searchProvider(),
		SetLabel("  DuckDuckGo "),
		SetHomepage("https://duckduckgo.com"),
		SetTag("knowledge"),
		SetVisibility{Bubble: true, Panel: true},
		SetSearchLink("https://duckduckgo.com/?q="+Placeholder),
	)
	require.NoError(t, err)

	assert.Equal(t, "DuckDuckGo", got.Label)
	assert.Equal(t, "https://duckduckgo.com", got.Homepage)
	assert.Equal(t, "knowledge", got.Tag)
	assert.True(t, got.Bubble)
	assert.True(t, got.Panel)
	assert.Equal(t, "https://duckduckgo.com/?q="+Placeholder, got.Payload.Link)
	assert.Equal(t, int64(10), got.ProviderID)
}

func TestApply_SearchLinkOnCopyProviderFails(t *testing.T) {
	t.Parallel()

	p := Provider{Label: "Copy", Kind: KindCopy}
	got, err := Apply(p, SetLabel("Clip"), SetSearchLink("https://x"))

	require.ErrorIs(t, err, ErrKindMismatch)
	assert.Equal(t, p, got, "failed apply leaves provider unchanged")
}

func TestApply_SetKindDropsLink(t *testing.T) {
	t.Parallel()

	got, err := Apply(searchProvider(), SetKind(KindCopy))
	require.NoError(t, err)
	assert.Equal(t, KindCopy, got.Kind)
	assert.Empty(t, got.Payload.Link)

	_, err = Apply(searchProvider(), SetKind("teleport"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestApply_EmptyLabelRejected(t *testing.T) {
	t.Parallel()

	_, err := Apply(searchProvider(), SetLabel("   "))
	assert.Error(t, err)
}
