// Command leads inspects submissions stored by the sqlite backend.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/leadbot/backend/internal/model/intake"
	"github.com/zhouzirui/leadbot/backend/internal/service/submission"
)

var (
	dbPath     string
	listLimit  int
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:           "leads",
	Short:         "Inspect stored intake submissions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the newest submissions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one submission in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	_ = godotenv.Load()

	defaultDB := os.Getenv("SQLITE_PATH")
	if defaultDB == "" {
		defaultDB = "leads.db"
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to the sqlite database")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum number of submissions")

	rootCmd.AddCommand(listCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openStore() (*submission.SQLiteRecorder, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	return submission.OpenSQLite(dbPath)
}

func runList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	subs, err := store.List(cmd.Context(), listLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), subs)
	}
	return writeTable(cmd.OutOrStdout(), subs)
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sub, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), sub)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), submission.FormatRecord(sub))
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, subs []intake.Submission) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED\tID\tNAME\tPHONE\tTELEGRAM")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.SubmittedAt.Local().Format("2006-01-02 15:04"),
			s.ID, s.Name, s.Phone, s.HandleOrDefault("-"))
	}
	return tw.Flush()
}
