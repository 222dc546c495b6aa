package provider

// Icons for the built-in providers (lucide "link" and "ellipsis").
const (
	linkIcon = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIyNCIgaGVpZ2h0PSIyNCIgdmlld0JveD0iMCAwIDI0IDI0IiBmaWxsPSJub25lIiBzdHJva2U9ImN1cnJlbnRDb2xvciIgc3Ryb2tlLXdpZHRoPSIyIj48cGF0aCBkPSJNMTAgMTNhNSA1IDAgMCAwIDcuNTQuNTRsMy0zYTUgNSAwIDAgMC03LjA3LTcuMDdsLTEuNzIgMS43MSIvPjxwYXRoIGQ9Ik0xNCAxMWE1IDUgMCAwIDAtNy41NC0uNTRsLTMgM2E1IDUgMCAwIDAgNy4wNyA3LjA3bDEuNzEtMS43MSIvPjwvc3ZnPg=="
	menuIcon = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHdpZHRoPSIyNCIgaGVpZ2h0PSIyNCIgdmlld0JveD0iMCAwIDI0IDI0IiBmaWxsPSJub25lIiBzdHJva2U9ImN1cnJlbnRDb2xvciIgc3Ryb2tlLXdpZHRoPSIyIj48Y2lyY2xlIGN4PSIxMiIgY3k9IjEyIiByPSIxIi8+PGNpcmNsZSBjeD0iMTkiIGN5PSIxMiIgcj0iMSIvPjxjaXJjbGUgY3g9IjUiIGN5PSIxMiIgcj0iMSIvPjwvc3ZnPg=="
)

// Builtins returns the providers a fresh catalog starts with: one that opens
// the selection itself as a link, and one that expands into the panel.
// Each call mints new local IDs.
func Builtins() []Provider {
	return []Provider{
		{
			ProviderID: NewLocalID(),
			Label:      "Link",
			Icon:       linkIcon,
			Tag:        "general",
			Bubble:     true,
			Kind:       KindSearch,
			Payload:    Payload{Link: Placeholder},
		},
		{
			ProviderID: NewLocalID(),
			Label:      "Menu",
			Icon:       menuIcon,
			Tag:        "general",
			Bubble:     true,
			Kind:       KindMenu,
		},
	}
}

// NewEmpty returns the blank search provider the editor creates on demand.
func NewEmpty() Provider {
	return Provider{
		ProviderID: NewLocalID(),
		Label:      "New item",
		Kind:       KindSearch,
	}
}
