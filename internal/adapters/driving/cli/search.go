package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the ingested contracts without generation",
	Long: `Runs hybrid retrieval (BM25 keyword plus semantic vector search) and
prints the fused candidates with scores. Useful for diagnosing what
context a question would retrieve, without spending a model call on
answer generation.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("search service not configured")
	}

	if err := warmIndexes(cmd); err != nil {
		return err
	}

	candidates, err := askService.Retrieve(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(candidates, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputSearchTable(cmd, candidates)
}

func outputSearchTable(cmd *cobra.Command, candidates []domain.RetrievalCandidate) error {
	if len(candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, c := range candidates {
		cmd.Printf("  [%d] %s (%.2f, %s)\n", c.Rank, c.ChunkID, c.Score, c.Source)
		if len(c.Highlights) > 0 {
			cmd.Printf("      %s\n", c.Highlights[0])
		}
		cmd.Println()
	}

	return nil
}
