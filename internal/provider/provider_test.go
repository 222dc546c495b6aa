package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_GroupDefaultsToOther(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TagOther, Provider{}.Group())
	assert.Equal(t, TagOther, Provider{Tag: "  "}.Group())
	assert.Equal(t, "news", Provider{Tag: "news"}.Group())
}

func TestProvider_DecodeLegacyRecord(t *testing.T) {
	t.Parallel()

	// A record from before IDs, order, and tags existed.
	raw := `{"label":"Bing","homepage":"https://bing.com","icon":"","bubble":true,"panel":false,
		"type":"search","payload":{"link":"https://bing.com/search?q={selectedText}","selectedText":"","source":""}}`

	var p Provider
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.False(t, p.HasID())
	assert.Nil(t, p.Order)
	assert.Equal(t, TagOther, p.Group())
	assert.Equal(t, KindSearch, p.Kind)
	assert.NoError(t, p.Validate())
}

func TestProvider_CloneIsDeep(t *testing.T) {
	t.Parallel()

	p := Provider{Label: "a", Order: IntPtr(3)}
	c := p.Clone()
	*c.Order = 9

	assert.Equal(t, 3, *p.Order)
}

func TestProvider_WithContextDoesNotMutate(t *testing.T) {
	t.Parallel()

	p := Provider{Label: "a", Kind: KindCopy}
	injected := p.WithContext("hello", "https://example.com")

	assert.Equal(t, "hello", injected.Payload.SelectedText)
	assert.Equal(t, "https://example.com", injected.Payload.Source)
	assert.Empty(t, p.Payload.SelectedText)
	assert.Empty(t, p.Payload.Source)
}

func TestProvider_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		p       Provider
		wantErr bool
	}{
		{"search with link", Provider{Kind: KindSearch, Payload: Payload{Link: "https://x/" + Placeholder}}, false},
		{"search without link", Provider{Kind: KindSearch}, true},
		{"menu", Provider{Kind: KindMenu}, false},
		{"copy", Provider{Kind: KindCopy}, false},
		{"empty kind", Provider{}, true},
		{"bogus kind", Provider{Kind: "launch"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	list := []Provider{{ProviderID: 4}, {ProviderID: 0}, {ProviderID: -2}}
	assert.Equal(t, 0, Index(list, 4))
	assert.Equal(t, 2, Index(list, -2))
	assert.Equal(t, -1, Index(list, 0), "zero never matches legacy records")
	assert.Equal(t, -1, Index(list, 7))
}

func TestNewLocalID_StrictlyDecreasingAndNegative(t *testing.T) {
	t.Parallel()

	prev := NewLocalID()
	require.True(t, IsLocalID(prev))
	for i := 0; i < 1000; i++ {
		next := NewLocalID()
		require.Less(t, next, prev)
		prev = next
	}
}

func TestBuiltins(t *testing.T) {
	t.Parallel()

	b := Builtins()
	require.Len(t, b, 2)
	assert.Equal(t, KindSearch, b[0].Kind)
	assert.Equal(t, Placeholder, b[0].Payload.Link)
	assert.Equal(t, KindMenu, b[1].Kind)
	assert.NotEqual(t, b[0].ProviderID, b[1].ProviderID)
	for _, p := range b {
		assert.NoError(t, p.Validate())
		assert.True(t, IsLocalID(p.ProviderID))
	}
}

func TestDisplayTag(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Translation", DisplayTag("translation"))
	assert.Equal(t, "Other", DisplayTag(""))
	assert.Equal(t, "my stuff", DisplayTag("my stuff"))
}
