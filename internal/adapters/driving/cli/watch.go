package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/helpdesk/internal/adapters/driving/watch"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <slug> <dir>",
	Short: "Ingest files dropped into a folder",
	Long: `Watches a folder and ingests new or changed files into the tenant's
knowledge base once they have been quiet for --debounce. Hidden files and
subdirectories are ignored. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(2),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "ingest files already in the folder first")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}
	w, err := watch.New(ingestService, watch.Config{
		Slug:        args[0],
		Dir:         args[1],
		Debounce:    watchDebounce,
		InitialScan: watchInitial,
	})
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := stylesFor(cmd.OutOrStdout())
	cmd.Println(st.muted("Watching " + args[1] + " (Ctrl-C to stop)"))
	if err := w.Run(ctx); err != nil {
		return err
	}

	stats := w.Stats()
	cmd.Printf("Ingested %d file(s) in %d batch(es), %d chunk(s) upserted, %d error(s)\n",
		stats.Files, stats.Batches, stats.Upserted, stats.Errors)
	return nil
}
