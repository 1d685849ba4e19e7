package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/core/domain"
)

var expandContext int

var expandCmd = &cobra.Command{
	Use:   "expand <slug> <file> <chunk-index>",
	Short: "Show a chunk with its neighbours",
	Long: `Fetches the chunk at the given 0-based index of a file together with
up to --context chunks on each side, in document order.`,
	Args: cobra.ExactArgs(3),
	RunE: runExpand,
}

func init() {
	expandCmd.Flags().IntVarP(&expandContext, "context", "c", domain.DefaultContextChunks, "neighbours on each side (0-5)")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}
	index, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("chunk index must be a number: %q", args[2])
	}

	contextChunks := expandContext
	outcome := retrievalService.Expand(cmd.Context(), domain.ExpandRequest{
		TenantSlug:    args[0],
		FileName:      args[1],
		ChunkIndex:    index,
		ContextChunks: &contextChunks,
	})

	if jsonOutput {
		return printJSON(cmd, outcome)
	}
	if !outcome.Success {
		return errors.New(outcome.Error)
	}

	st := stylesFor(cmd.OutOrStdout())
	st.section(cmd, fmt.Sprintf("%s (%d chunk(s))", outcome.FileName, outcome.ChunksRetrieved))
	for _, c := range outcome.AllChunks {
		header := fmt.Sprintf("--- chunk %d ---", c.ChunkIndex)
		if c.IsTargetChunk {
			header = st.title(fmt.Sprintf("--- chunk %d (target) ---", c.ChunkIndex))
		} else {
			header = st.muted(header)
		}
		cmd.Println(header)
		cmd.Println(c.Content)
		cmd.Println()
	}
	return nil
}
