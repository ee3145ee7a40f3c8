package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"lexrag/internal/domain"
	"lexrag/internal/prompt"
	"lexrag/internal/usecase"
)

var (
	promptQuery string
	promptDir   string
	promptRAG   string
	promptAPI   string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the answer prompt from dumped retrieval contexts",
	Long: `Render the answer prompt from context_rag.json and context_api.json
written by a previous run with pack.debug_dump_dir set, for manual LLM use.

Examples:
  lexrag prompt --dir-ctx data/debug
  lexrag prompt --rag ctx/context_rag.json -q "다른 질문"`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (default is the one stored in the context)")
	promptCmd.Flags().StringVar(&promptDir, "dir-ctx", "", "directory holding context_rag.json and context_api.json")
	promptCmd.Flags().StringVar(&promptRAG, "rag", "", "vector context JSON file")
	promptCmd.Flags().StringVar(&promptAPI, "api", "", "precedent API context JSON file")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if promptDir == "" {
		promptDir = cfg.Pack.DebugDumpDir
	}
	if promptRAG == "" && promptDir != "" {
		promptRAG = filepath.Join(promptDir, "context_rag.json")
	}
	if promptAPI == "" && promptDir != "" {
		promptAPI = filepath.Join(promptDir, "context_api.json")
	}
	if promptRAG == "" && promptAPI == "" {
		return fmt.Errorf("must specify --dir-ctx, --rag or --api")
	}

	vector, err := readContext(promptRAG)
	if err != nil {
		return err
	}
	external, err := readContext(promptAPI)
	if err != nil {
		return err
	}

	query := promptQuery
	for _, rc := range []*domain.RetrievalContext{vector, external} {
		if query == "" && rc != nil {
			query = rc.Query
		}
	}
	if query == "" {
		return fmt.Errorf("no question given and none stored in the context files")
	}

	pack := usecase.NewPackUseCase(cfg.Pack.MaxContextLen, cfg.Pack.TruncationMarker, nil)
	vectorText, externalText := pack.Pack(vector, external)

	out, err := prompt.Render(prompt.Answer, prompt.AnswerData{
		Query:           query,
		VectorContext:   vectorText,
		ExternalContext: externalText,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// readContext loads a dumped retrieval context. A missing file yields nil.
func readContext(path string) (*domain.RetrievalContext, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read context file: %w", err)
	}
	var rc domain.RetrievalContext
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse context file %s: %w", path, err)
	}
	return &rc, nil
}
