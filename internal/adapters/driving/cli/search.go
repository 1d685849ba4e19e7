package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var (
	searchTopK       int
	searchNoMetadata bool
)

var searchCmd = &cobra.Command{
	Use:   "search <slug> <query>",
	Short: "Search a tenant's knowledge base",
	Long: `Runs the same similarity search the reply agent uses and prints the
ranked chunks. Useful to check what an email would be answered from.`,
	Args: cobra.ExactArgs(2),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", domain.DefaultTopK, "maximum number of results (1-20)")
	searchCmd.Flags().BoolVar(&searchNoMetadata, "no-metadata", false, "omit source metadata")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	topK := searchTopK
	includeMetadata := !searchNoMetadata
	outcome := retrievalService.Search(cmd.Context(), domain.SearchRequest{
		TenantSlug:      args[0],
		Query:           args[1],
		TopK:            &topK,
		IncludeMetadata: &includeMetadata,
	})

	if jsonOutput {
		return printJSON(cmd, outcome)
	}
	if !outcome.Success {
		return errors.New(outcome.Error)
	}
	return outputSearchTable(cmd, outcome)
}

func outputSearchTable(cmd *cobra.Command, outcome domain.SearchOutcome) error {
	st := stylesFor(cmd.OutOrStdout())
	if outcome.TotalResults == 0 {
		cmd.Println(outcome.Message)
		return nil
	}

	cmd.Println(st.title("Results:"))
	cmd.Println()
	for _, r := range outcome.Results {
		label := "chunk"
		if r.Metadata != nil && r.Metadata.FileName != "" {
			label = r.Metadata.FileName
		}
		cmd.Printf("  [%d] %s (%.2f)\n", r.Rank, label, r.Score)
		if r.Metadata != nil {
			cmd.Println("      " + st.muted(chunkPosition(r.Metadata.ChunkIndex, r.Metadata.TotalChunks)))
		}
		cmd.Printf("      %s\n", snippet(r.Content, 160))
		cmd.Println()
	}
	return nil
}

func chunkPosition(index, total int) string {
	if total > 0 {
		return fmt.Sprintf("chunk %d of %d", index+1, total)
	}
	return fmt.Sprintf("chunk %d", index+1)
}

// snippet collapses whitespace and cuts text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
