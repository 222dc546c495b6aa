package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/runger/selact/internal/provider"
)

// editFlags are shared by add and edit. Only flags set on the command line
// become updates.
type editFlags struct {
	label    string
	icon     string
	homepage string
	tag      string
	kind     string
	link     string
	bubble   bool
	panel    bool
}

var (
	addOpts  editFlags
	editOpts editFlags
)

var addCmd = &cobra.Command{
	Use:     "add",
	Short:   "Add a provider to the local catalog",
	GroupID: groupCore,
	Long: `Add a provider at the top of the local catalog.

A new provider is a search provider labelled "New item" that is shown on
neither surface until --bubble or --panel is given.

Examples:
  selact add --label Wikipedia --homepage https://wikipedia.org \
    --link 'https://wikipedia.org/wiki/{selectedText}' --tag knowledge --bubble --panel
  selact add --kind copy --label Copy --bubble`,
	Args: cobra.NoArgs,
	RunE: runAdd,
}

var editCmd = &cobra.Command{
	Use:     "edit <provider-id>",
	Short:   "Change a provider in the local catalog",
	GroupID: groupCore,
	Long: `Change fields of one provider. Flags that are not given keep their value.

--link only applies to search providers; changing --kind away from search
drops the link.

Examples:
  selact edit 42 --label "Maps" --tag map
  selact edit -- -1 --panel=false`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	bindEditFlags(addCmd.Flags(), &addOpts)
	bindEditFlags(editCmd.Flags(), &editOpts)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
}

func bindEditFlags(fs *pflag.FlagSet, f *editFlags) {
	fs.StringVar(&f.label, "label", "", "Display label")
	fs.StringVar(&f.icon, "icon", "", "Icon URL or data URI")
	fs.StringVar(&f.homepage, "homepage", "", "Homepage URL")
	fs.StringVar(&f.tag, "tag", "", "Group tag (empty groups under other)")
	fs.StringVar(&f.kind, "kind", "", "Provider kind: search, menu, or copy")
	fs.StringVar(&f.link, "link", "", "Search link containing "+provider.Placeholder)
	fs.BoolVar(&f.bubble, "bubble", false, "Show in the bubble")
	fs.BoolVar(&f.panel, "panel", false, "Show in the panel")
}

// updates turns the flags set on fs into provider updates for p. Kind is
// applied before link so a kind change and a new link can be given together.
func (f editFlags) updates(fs *pflag.FlagSet, p provider.Provider) []provider.Update {
	var ups []provider.Update
	if fs.Changed("kind") {
		ups = append(ups, provider.SetKind(f.kind))
	}
	if fs.Changed("label") {
		ups = append(ups, provider.SetLabel(f.label))
	}
	if fs.Changed("icon") {
		ups = append(ups, provider.SetIcon(f.icon))
	}
	if fs.Changed("homepage") {
		ups = append(ups, provider.SetHomepage(f.homepage))
	}
	if fs.Changed("tag") {
		ups = append(ups, provider.SetTag(f.tag))
	}
	if fs.Changed("link") {
		ups = append(ups, provider.SetSearchLink(f.link))
	}
	if fs.Changed("bubble") || fs.Changed("panel") {
		vis := provider.SetVisibility{Bubble: p.Bubble, Panel: p.Panel}
		if fs.Changed("bubble") {
			vis.Bubble = f.bubble
		}
		if fs.Changed("panel") {
			vis.Panel = f.panel
		}
		ups = append(ups, vis)
	}
	return ups
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	p, err := a.engine.CreateEmpty(ctx)
	if err != nil {
		return err
	}
	if ups := addOpts.updates(cmd.Flags(), p); len(ups) > 0 {
		updated, err := a.engine.UpdateProvider(ctx, p.ProviderID, ups...)
		if err != nil {
			if rmErr := a.engine.Remove(ctx, p.ProviderID); rmErr != nil {
				a.logger.Warn("failed to roll back new provider", "provider_id", p.ProviderID, "error", rmErr)
			}
			return err
		}
		p = updated
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d %s\n", p.ProviderID, p.Label)
	return nil
}

func runEdit(cmd *cobra.Command, args []string) error {
	id, err := parseProviderID(args[0])
	if err != nil {
		return err
	}
	a, err := openApp(appOptions{offline: true})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	list, err := a.engine.Providers(ctx)
	if err != nil {
		return err
	}
	i := provider.Index(list, id)
	if i < 0 {
		return fmt.Errorf("unknown provider %d", id)
	}
	ups := editOpts.updates(cmd.Flags(), list[i])
	if len(ups) == 0 {
		return fmt.Errorf("nothing to change")
	}
	p, err := a.engine.UpdateProvider(ctx, id, ups...)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %d %s\n", p.ProviderID, p.Label)
	return nil
}
