package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driven/mail/eml"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
	"github.com/custodia-labs/helpdesk/internal/core/ports/driven"
)

var (
	replyEML    string
	replyDryRun bool
)

var replyCmd = &cobra.Command{
	Use:   "reply --eml <file>",
	Short: "Answer a saved email as if it had just arrived",
	Long: `Parses an RFC 5322 .eml file and runs it through the reply pipeline:
tenant lookup from the first recipient, the sender allow-list, the
retrieval tool loop and delivery.

The file is trusted as verified. With --dry-run the reply is printed
instead of being sent, and thread history is not fetched.`,
	Args: cobra.NoArgs,
	RunE: runReply,
}

func init() {
	replyCmd.Flags().StringVar(&replyEML, "eml", "", "path to the .eml file (required)")
	replyCmd.Flags().BoolVar(&replyDryRun, "dry-run", false, "print the reply instead of sending it")
	_ = replyCmd.MarkFlagRequired("eml")
	rootCmd.AddCommand(replyCmd)
}

func runReply(cmd *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(replyEML)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", replyEML, err)
	}
	email, err := eml.Parse(raw)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", replyEML, err)
	}

	svc := replyService
	preview := &previewMailer{cmd: cmd}
	if replyDryRun {
		if replyWith == nil {
			return notConfigured("reply")
		}
		svc = replyWith(preview)
	}
	if svc == nil {
		return notConfigured("reply")
	}

	outcome, err := svc.HandleInbound(cmd.Context(), domain.InboundEvent{Verified: true, Email: *email})
	if err != nil {
		return fmt.Errorf("reply failed: %w", err)
	}
	return printOutcome(cmd, outcome, preview.reply)
}

func printOutcome(cmd *cobra.Command, outcome *domain.ReplyOutcome, preview *domain.OutgoingReply) error {
	if jsonOutput {
		out := struct {
			TurnID   string                `json:"turnId"`
			Status   string                `json:"status"`
			Reason   string                `json:"reason,omitempty"`
			Tenant   string                `json:"tenant,omitempty"`
			Steps    int                   `json:"steps"`
			Searched bool                  `json:"searched"`
			Reply    *domain.OutgoingReply `json:"reply,omitempty"`
		}{
			TurnID:   outcome.TurnID,
			Status:   outcome.Status.String(),
			Tenant:   outcome.TenantSlug,
			Steps:    outcome.Steps,
			Searched: outcome.Searched,
			Reply:    preview,
		}
		if outcome.Reason != nil {
			out.Reason = outcome.Reason.Error()
		}
		return printJSON(cmd, out)
	}

	st := stylesFor(cmd.OutOrStdout())
	switch {
	case outcome.Sent() && preview != nil:
		st.section(cmd, "Reply from "+preview.From)
		cmd.Println(preview.HTML)
		cmd.Println()
		cmd.Println(st.muted(fmt.Sprintf("dry run: %d step(s), searched: %t", outcome.Steps, outcome.Searched)))
	case outcome.Sent():
		cmd.Println(st.success(fmt.Sprintf("Reply sent for %s (%d step(s))", outcome.TenantSlug, outcome.Steps)))
	default:
		msg := "Not answered: " + outcome.Status.String()
		if outcome.Reason != nil {
			msg += " (" + outcome.Reason.Error() + ")"
		}
		cmd.Println(st.warning(msg))
	}
	return nil
}

// previewMailer captures the reply instead of delivering it.
type previewMailer struct {
	cmd   *cobra.Command
	reply *domain.OutgoingReply
}

var _ driven.MailProvider = (*previewMailer)(nil)

func (p *previewMailer) Thread(_ context.Context, _ string) (*domain.Thread, error) {
	return nil, errors.New("thread history is not available in dry runs")
}

func (p *previewMailer) Reply(_ context.Context, _ string, reply domain.OutgoingReply) error {
	p.reply = &reply
	return nil
}
