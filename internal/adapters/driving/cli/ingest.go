package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/watch"
	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <slug> <file>...",
	Short: "Add documents to a tenant's knowledge base",
	Long: `Extracts text from each file, splits it into chunks and upserts them
into the tenant's namespace. Supported formats: PDF, DOCX, plain text,
Markdown, HTML and images (placeholder text only).

Files that fail are listed and skipped; the command fails only when no
file produced a chunk.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}
	slug := args[0]

	files := make([]domain.UploadedFile, 0, len(args)-1)
	for _, path := range args[1:] {
		f, err := watch.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	result, err := ingestService.Ingest(cmd.Context(), slug, files)
	if err != nil {
		var ingestErr *domain.IngestError
		if errors.As(err, &ingestErr) && !jsonOutput {
			st := stylesFor(cmd.ErrOrStderr())
			for _, d := range ingestErr.Details {
				cmd.PrintErrln(st.failure("  x " + d))
			}
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd, result)
	}

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println(st.success(fmt.Sprintf("Ingested %d file(s) into %s: %d chunk(s) upserted",
		result.FilesProcessed, slug, result.Upserted)))
	if len(result.Truncated) > 0 {
		cmd.Println(st.warning("Truncated to the per-file chunk limit: " + strings.Join(result.Truncated, ", ")))
	}
	for _, e := range result.Errors {
		cmd.Println(st.failure("  x " + e))
	}
	return nil
}
