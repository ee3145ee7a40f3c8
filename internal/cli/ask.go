package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"lexrag/internal/metrics"
	"lexrag/internal/usecase"
)

var (
	askQuery  string
	askOutput string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a legal question",
	Long: `Retrieve precedents for a question, generate an answer and write the
question and answer to a file.

Examples:
  lexrag ask -q "전세 계약이 끝났는데 보증금을 못 받고 있어요"
  lexrag ask -q "음주운전 처벌 기준" -o out/answer.txt`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askOutput, "output", "o", "answer.txt", "answer file")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	var cl closers
	defer cl.Close()

	p, err := newPipeline(cmd.Context(), cfg, metrics.New(), &cl)
	if err != nil {
		return err
	}

	answer, err := p.answer.Ask(cmd.Context(), askQuery, "")
	if err != nil {
		return err
	}

	if err := os.WriteFile(askOutput, []byte(usecase.FormatAnswerFile(answer.Query, answer.Text)), 0644); err != nil {
		return fmt.Errorf("failed to write answer: %w", err)
	}

	fmt.Println(answer.Text)
	fmt.Printf("\nAnswer written to: %s\n", askOutput)
	return nil
}
