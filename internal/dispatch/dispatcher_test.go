package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/selact/internal/provider"
)

func searchProvider(link, text string) provider.Provider {
	return provider.Provider{
		ProviderID: 7,
		Label:      "X",
		Kind:       provider.KindSearch,
		Payload:    provider.Payload{Link: link, SelectedText: text},
	}
}

func TestDispatch_Search(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	res, err := d.Dispatch(context.Background(), searchProvider("https://x.com/s?q={selectedText}", "hello world"), "a1")
	require.NoError(t, err)

	assert.Equal(t, "https://x.com/s?q=hello%20world", res.URL)
	assert.Equal(t, []string{"https://x.com/s?q=hello%20world"}, host.Opened)
	assert.True(t, res.Cleared)
	assert.Equal(t, 1, host.Clears)
}

func TestDispatch_SearchReplacesEveryPlaceholder(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	res, err := d.Dispatch(context.Background(), searchProvider("https://x.com/{selectedText}?q={selectedText}", "go"), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://x.com/go?q=go", res.URL)
}

func TestDispatch_LinkBuiltinOpensSelection(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	res, err := d.Dispatch(context.Background(), searchProvider(provider.Placeholder, "https://go.dev/doc?x=1#top"), "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://go.dev/doc?x=1#top", res.URL)
}

func TestDispatch_SearchRejectsNonURL(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	_, err := d.Dispatch(context.Background(), searchProvider(provider.Placeholder, "just words"), "a1")
	require.ErrorIs(t, err, ErrInvalidURL)
	assert.Empty(t, host.Opened)
	assert.Zero(t, host.Clears)
}

func TestDispatch_Copy(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	p := provider.Provider{Label: "Copy", Kind: provider.KindCopy, Payload: provider.Payload{SelectedText: "abc"}}
	res, err := d.Dispatch(context.Background(), p, "a1")
	require.NoError(t, err)

	assert.Equal(t, "abc", res.Copied)
	assert.Equal(t, []string{"abc"}, host.Copied)
	assert.Equal(t, 1, host.Clears)
}

func TestDispatch_Menu(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	var expanded []string
	d := New(host, func(p provider.Provider) { expanded = append(expanded, p.Label) })

	p := provider.Provider{Label: "Menu", Kind: provider.KindMenu, Payload: provider.Payload{SelectedText: "abc"}}
	res, err := d.Dispatch(context.Background(), p, "a1")
	require.NoError(t, err)

	assert.True(t, res.Expanded)
	assert.Equal(t, []string{"Menu"}, expanded)
	assert.Zero(t, host.Clears, "menu keeps the selection")
}

func TestDispatch_NoSelection(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)

	_, err := d.Dispatch(context.Background(), searchProvider("https://x.com/?q={selectedText}", ""), "a1")
	require.ErrorIs(t, err, ErrNoSelection)

	_, err = d.Dispatch(context.Background(), provider.Provider{Kind: provider.KindCopy}, "a2")
	require.ErrorIs(t, err, ErrNoSelection)

	assert.Empty(t, host.Opened)
	assert.Empty(t, host.Copied)
}

func TestDispatch_MissingActivation(t *testing.T) {
	t.Parallel()

	d := New(&RecordingHost{}, nil)
	_, err := d.Dispatch(context.Background(), searchProvider("https://x.com/?q={selectedText}", "a"), "")
	require.ErrorIs(t, err, ErrMissingActivation)
}

func TestDispatch_UnknownKind(t *testing.T) {
	t.Parallel()

	d := New(&RecordingHost{}, nil)
	_, err := d.Dispatch(context.Background(), provider.Provider{Kind: "teleport"}, "a1")
	require.ErrorIs(t, err, provider.ErrUnknownKind)
}

func TestDispatch_AtMostOncePerActivation(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)
	p := searchProvider("https://x.com/?q={selectedText}", "go")

	first, err := d.Dispatch(context.Background(), p, "press-1")
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	second, err := d.Dispatch(context.Background(), p, "press-1")
	require.NoError(t, err)
	assert.True(t, second.Duplicate)

	_, err = d.Dispatch(context.Background(), p, "press-2")
	require.NoError(t, err)

	assert.Len(t, host.Opened, 2)
}

func TestDispatch_AtMostOnceConcurrent(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)
	p := searchProvider("https://x.com/?q={selectedText}", "go")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Dispatch(context.Background(), p, "same")
		}()
	}
	wg.Wait()

	assert.Len(t, host.Opened, 1)
}

func TestDispatch_ForgetsOldActivations(t *testing.T) {
	t.Parallel()

	host := &RecordingHost{}
	d := New(host, nil)
	p := provider.Provider{Kind: provider.KindMenu}

	_, _ = d.Dispatch(context.Background(), p, "first")
	for i := 0; i < recentActivations; i++ {
		_, _ = d.Dispatch(context.Background(), p, string(rune('a'+i%26))+string(rune('0'+i/26)))
	}

	res, err := d.Dispatch(context.Background(), p, "first")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
}

func TestDispatch_HostFailures(t *testing.T) {
	t.Parallel()

	denied := errors.New("denied")

	t.Run("open", func(t *testing.T) {
		host := &RecordingHost{OpenErr: denied}
		d := New(host, nil)

		_, err := d.Dispatch(context.Background(), searchProvider("https://x.com/?q={selectedText}", "go"), "a1")
		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.ErrorIs(t, err, denied)
		assert.Equal(t, "Could not open a new tab", actionErr.Notice())
		assert.Zero(t, host.Clears, "selection survives a failed action")
	})

	t.Run("copy", func(t *testing.T) {
		host := &RecordingHost{CopyErr: denied}
		d := New(host, nil)

		_, err := d.Dispatch(context.Background(), provider.Provider{Kind: provider.KindCopy, Payload: provider.Payload{SelectedText: "x"}}, "a1")
		var actionErr *ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, "Could not copy to clipboard", actionErr.Notice())
	})

	t.Run("clear failure is not fatal", func(t *testing.T) {
		host := &RecordingHost{ClearErr: denied}
		d := New(host, nil)

		res, err := d.Dispatch(context.Background(), provider.Provider{Kind: provider.KindCopy, Payload: provider.Payload{SelectedText: "x"}}, "a1")
		require.NoError(t, err)
		assert.False(t, res.Cleared)
		assert.Equal(t, []string{"x"}, host.Copied)
	})
}

func TestEncodeURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "hello%20world"},
		{"a+b=c&d", "a+b=c&d"},
		{"100%", "100%25"},
		{"caf\u00e9", "caf%C3%A9"},
		{"<tag>", "%3Ctag%3E"},
		{"https://go.dev/#x", "https://go.dev/#x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EncodeURI(tt.in), tt.in)
	}
}
