package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recollect-ai/recollect/pkg/archive"
	"github.com/recollect-ai/recollect/pkg/conversation"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the pruned-message archive",
	Long: `Search and count messages that were pruned from conversation memory
into a SQLite archive (serve/mcp --archive-db).

Examples:
  recollect archive search --db recollect-archive.db --query "rate limiting"
  recollect archive stats --db recollect-archive.db`,
}

var archiveSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search archived messages by substring",
	RunE:  runArchiveSearch,
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE:  runArchiveStats,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveStatsCmd)

	archiveCmd.PersistentFlags().String("db", "", "archive database path")
	_ = archiveCmd.MarkPersistentFlagRequired("db")

	archiveSearchCmd.Flags().String("query", "", "substring to search for")
	archiveSearchCmd.Flags().Int("limit", 20, "maximum results")
	_ = archiveSearchCmd.MarkFlagRequired("query")
}

func searchArchive(dbPath, query string, limit int) ([]conversation.Message, error) {
	store, err := archive.Open(dbPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Search(query, limit)
}

func countArchive(dbPath string) (int, error) {
	store, err := archive.Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()
	return store.Count()
}

func runArchiveSearch(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	query, _ := cmd.Flags().GetString("query")
	limit, _ := cmd.Flags().GetInt("limit")

	msgs, err := searchArchive(dbPath, query, limit)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(msgs, "", "  ")
	fmt.Println(string(out))
	return nil
}

func runArchiveStats(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")

	n, err := countArchive(dbPath)
	if err != nil {
		return err
	}

	out, _ := json.MarshalIndent(map[string]int{"archived": n}, "", "  ")
	fmt.Println(string(out))
	return nil
}
