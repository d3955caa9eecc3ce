package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atheneahq/athenea-cli/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the ingested contracts",
	Long: `Answers a natural-language question using hybrid retrieval over the
ingested corpus. Every factual claim in the answer carries a citation
that has been verified against the retrieved contract text; citations
that cannot be verified are surfaced as warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	if err := warmIndexes(cmd); err != nil {
		return err
	}

	result, err := askService.Ask(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return fmt.Errorf("invalid question: %w", err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, result)
	}
	return outputAskText(cmd, result)
}

func outputAskJSON(cmd *cobra.Command, result *domain.AnswerResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, result *domain.AnswerResult) error {
	cmd.Println(result.AnswerText)
	cmd.Println()

	if len(result.Citations) > 0 {
		cmd.Println("Citations:")
		for i, c := range result.Citations {
			marker := ""
			if c.Fuzzy {
				marker = " (approximate match)"
			}
			cmd.Printf("  [%d] %s: %q%s\n", i+1, c.ChunkID, c.QuotedSpan, marker)
		}
		cmd.Println()
	}

	for _, w := range result.Warnings {
		cmd.Printf("Warning: %s\n", w)
	}

	cmd.Printf("Confidence: %.2f\n", result.Confidence)
	return nil
}
