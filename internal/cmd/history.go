package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/masahif/wordcrawler/internal/storage"
)

// lastRunKey is the crawl_meta key holding the id of the latest saved run
const lastRunKey = "last_run_id"

// ErrNoDatabase is returned by history when no database is configured
var ErrNoDatabase = errors.New("no database configured; set --database or database_path")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous crawl runs stored in the database",
	Long: `Lists the crawl runs saved in the run history database, most recent
first. With --run (or --last) the ranked popular words of a single run
are shown instead. --delete removes a run.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0=all)")
	historyCmd.Flags().Int64("run", 0, "Show the words of this run")
	historyCmd.Flags().Bool("last", false, "Show the words of the most recent run")
	historyCmd.Flags().Int64("delete", 0, "Delete this run and its words")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	dbPath := viper.GetString("database_path")
	if dbPath == "" {
		return ErrNoDatabase
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetInt64("run")
	last, _ := cmd.Flags().GetBool("last")
	deleteID, _ := cmd.Flags().GetInt64("delete")

	if deleteID > 0 {
		if err := store.DeleteRun(deleteID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", deleteID)
		return nil
	}

	if last {
		value, err := store.GetMeta(lastRunKey)
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		runID, err = strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", lastRunKey, err)
		}
	}

	if runID > 0 {
		run, err := store.GetRun(runID)
		if err != nil {
			return err
		}
		renderRun(cmd.OutOrStdout(), run)
		return nil
	}

	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	renderRuns(cmd.OutOrStdout(), runs)
	return nil
}

func renderRuns(w io.Writer, runs []storage.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Started", "Duration", "URLs Visited", "Max Depth", "Parallelism", "Implementation", "Start Pages"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Duration,
			run.URLsVisited,
			run.MaxDepth,
			run.Parallelism,
			run.Implementation,
			strings.Join(run.SeedURLs, "\n"),
		})
	}

	t.Render()
}

func renderRun(w io.Writer, run *storage.Run) {
	fmt.Fprintf(w, "Run %d at %s: %d URLs visited in %s\n",
		run.ID, run.StartedAt.Local().Format(time.DateTime), run.URLsVisited, run.Duration)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Rank", "Word", "Count"})
	for i, wc := range run.Words {
		t.AppendRow(table.Row{i + 1, wc.Word, wc.Count})
	}
	t.AppendFooter(table.Row{"", "Total", sumCounts(run)})

	t.Render()
}

func sumCounts(run *storage.Run) int {
	total := 0
	for _, wc := range run.Words {
		total += wc.Count
	}
	return total
}
