package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/recollect-ai/recollect/pkg/textindex"
)

var indexCmd = &cobra.Command{
	Use:   "index [folder]",
	Short: "Index a codebase folder and search it",
	Long: `Build an in-memory TF-IDF index over recognized source files under a
folder and run a query against it.

Examples:
  recollect index ./src --query "authentication flow"
  recollect index . --query "tfidf cosine" --top-k 5 --chunk-lines 80`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().String("query", "", "search query")
	indexCmd.Flags().Int("max-depth", 4, "maximum directory depth")
	indexCmd.Flags().Int("chunk-lines", 50, "lines per indexed chunk")
	indexCmd.Flags().Int("max-files", 500, "maximum files to index")
	_ = indexCmd.MarkFlagRequired("query")
}

func runIndex(cmd *cobra.Command, args []string) error {
	root := args[0]
	query, _ := cmd.Flags().GetString("query")

	opts := textindex.DefaultFolderOptions()
	if v, _ := cmd.Flags().GetInt("max-depth"); v > 0 {
		opts.MaxDepth = v
	}
	if v, _ := cmd.Flags().GetInt("chunk-lines"); v > 0 {
		opts.ChunkLines = v
	}
	if v, _ := cmd.Flags().GetInt("max-files"); v > 0 {
		opts.MaxFiles = v
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("indexing"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	var files int
	opts.Progress = func(path string) {
		files++
		_ = bar.Add(1)
	}

	ix := textindex.New()
	chunks := ix.IndexFolder(root, opts)
	_ = bar.Finish()

	if chunks == 0 {
		return fmt.Errorf("no indexable files under %s", root)
	}
	fmt.Fprintf(os.Stderr, "indexed %d files (%d chunks)\n", files, chunks)

	topK, _ := cmd.Flags().GetInt("top-k")
	if topK < 1 {
		topK = 3
	}
	results := ix.Search(query, topK)

	out, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(out))
	return nil
}
