package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var (
	tenantName    string
	tenantWebsite string
	tenantSenders []string
	sendersClear  bool
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage helpdesk tenants",
	Long: `A tenant owns a knowledge-base namespace and the mailbox
<slug>@<helpdesk domain>. Slugs hold lowercase letters, digits and
hyphens.`,
}

var tenantAddCmd = &cobra.Command{
	Use:   "add <slug>",
	Short: "Create a tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantAdd,
}

var tenantPersonalCmd = &cobra.Command{
	Use:   "personal <user-id>",
	Short: "Create the personal tenant for a user",
	Long:  `Creates the tenant "personal-<first 8 characters of the user id>".`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantPersonal,
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	Args:  cobra.NoArgs,
	RunE:  runTenantList,
}

var tenantShowCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one tenant",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantShow,
}

var tenantUpdateCmd = &cobra.Command{
	Use:   "update <slug>",
	Short: "Change a tenant's name or website",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantUpdate,
}

var tenantRemoveCmd = &cobra.Command{
	Use:   "remove <slug>",
	Short: "Delete a tenant",
	Long:  `Deletes the tenant record. Indexed documents are left in the vector store.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantRemove,
}

var tenantSendersCmd = &cobra.Command{
	Use:   "senders <slug> [address]...",
	Short: "Show or replace the accepted senders",
	Long: `With no addresses, prints the allow-list. With addresses, replaces it.
Use --clear to accept mail from everyone.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTenantSenders,
}

var tenantCheckCmd = &cobra.Command{
	Use:   "check <slug>",
	Short: "Check whether a slug is available",
	Args:  cobra.ExactArgs(1),
	RunE:  runTenantCheck,
}

func init() {
	tenantAddCmd.Flags().StringVar(&tenantName, "name", "", "display name (defaults to the slug)")
	tenantAddCmd.Flags().StringVar(&tenantWebsite, "website", "", "organisation website")
	tenantAddCmd.Flags().StringSliceVar(&tenantSenders, "sender", nil, "accepted sender address (repeatable)")
	tenantPersonalCmd.Flags().StringVar(&tenantName, "name", "", "display name")
	tenantUpdateCmd.Flags().StringVar(&tenantName, "name", "", "new display name")
	tenantUpdateCmd.Flags().StringVar(&tenantWebsite, "website", "", "new website")
	tenantSendersCmd.Flags().BoolVar(&sendersClear, "clear", false, "accept every sender")

	tenantCmd.AddCommand(tenantAddCmd, tenantPersonalCmd, tenantListCmd, tenantShowCmd,
		tenantUpdateCmd, tenantRemoveCmd, tenantSendersCmd, tenantCheckCmd)
	rootCmd.AddCommand(tenantCmd)
}

func runTenantAdd(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	t, err := tenantService.Create(cmd.Context(), domain.Tenant{
		Slug:            args[0],
		Name:            tenantName,
		Website:         tenantWebsite,
		AcceptedSenders: tenantSenders,
	})
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return printTenant(cmd, t, "Created tenant")
}

func runTenantPersonal(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	t, err := tenantService.CreatePersonal(cmd.Context(), args[0], tenantName)
	if err != nil {
		return fmt.Errorf("failed to create personal tenant: %w", err)
	}
	return printTenant(cmd, t, "Created tenant")
}

func runTenantList(cmd *cobra.Command, _ []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	tenants, err := tenantService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list tenants: %w", err)
	}
	if jsonOutput {
		return printJSON(cmd, tenantViews(tenants))
	}
	if len(tenants) == 0 {
		cmd.Println("No tenants. Create one with 'helpdesk tenant add <slug>'.")
		return nil
	}

	st := stylesFor(cmd.OutOrStdout())
	for _, t := range tenants {
		cmd.Printf("  %-24s %s\n", st.title(t.Slug), t.Name)
	}
	return nil
}

func runTenantShow(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	t, err := tenantService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}
	return printTenant(cmd, t, "")
}

func runTenantUpdate(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	t, err := tenantService.Update(cmd.Context(), args[0], tenantName, tenantWebsite)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return printTenant(cmd, t, "Updated tenant")
}

func runTenantRemove(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	if err := tenantService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove tenant: %w", err)
	}
	cmd.Printf("Removed tenant %s\n", args[0])
	return nil
}

func runTenantSenders(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	slug, addrs := args[0], args[1:]

	var (
		t   *domain.Tenant
		err error
	)
	switch {
	case sendersClear:
		t, err = tenantService.SetAcceptedSenders(cmd.Context(), slug, nil)
	case len(addrs) > 0:
		t, err = tenantService.SetAcceptedSenders(cmd.Context(), slug, addrs)
	default:
		t, err = tenantService.Get(cmd.Context(), slug)
	}
	if err != nil {
		return fmt.Errorf("failed to update senders: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, t.AcceptedSenders)
	}
	if len(t.AcceptedSenders) == 0 {
		cmd.Println("All senders accepted.")
		return nil
	}
	for _, s := range t.AcceptedSenders {
		cmd.Println(s)
	}
	return nil
}

func runTenantCheck(cmd *cobra.Command, args []string) error {
	if tenantService == nil {
		return notConfigured("tenant")
	}
	available, err := tenantService.CheckSlug(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, map[string]bool{"isAvailable": available})
	}
	st := stylesFor(cmd.OutOrStdout())
	if available {
		cmd.Println(st.success(args[0] + " is available"))
	} else {
		cmd.Println(st.warning(args[0] + " is taken"))
	}
	return nil
}

// tenantView is the JSON shape of a tenant.
type tenantView struct {
	ID              string   `json:"id"`
	Slug            string   `json:"slug"`
	Name            string   `json:"name"`
	Website         string   `json:"website,omitempty"`
	AcceptedSenders []string `json:"acceptedSenders"`
}

func tenantViews(tenants []domain.Tenant) []tenantView {
	out := make([]tenantView, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantView{
			ID:              t.ID,
			Slug:            t.Slug,
			Name:            t.Name,
			Website:         t.Website,
			AcceptedSenders: append([]string{}, t.AcceptedSenders...),
		})
	}
	return out
}

func printTenant(cmd *cobra.Command, t *domain.Tenant, heading string) error {
	if jsonOutput {
		return printJSON(cmd, tenantViews([]domain.Tenant{*t})[0])
	}

	st := stylesFor(cmd.OutOrStdout())
	if heading != "" {
		cmd.Println(st.success(heading + " " + t.Slug))
	}
	cmd.Printf("  Slug:    %s\n", t.Slug)
	cmd.Printf("  Name:    %s\n", t.Name)
	if t.Website != "" {
		cmd.Printf("  Website: %s\n", t.Website)
	}
	senders := "(everyone)"
	if len(t.AcceptedSenders) > 0 {
		senders = strings.Join(t.AcceptedSenders, ", ")
	}
	cmd.Printf("  Senders: %s\n", senders)
	return nil
}
