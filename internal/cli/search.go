package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"lexrag/internal/domain"
	"lexrag/internal/metrics"
)

var (
	searchText   string
	searchTopN   int
	searchJSON   bool
	searchNoAPI  bool
	searchNoRAG  bool
	searchRender bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Retrieve precedents for a question without generating an answer",
	Long: `Run query clarification, vector search and the precedent API for a
question and print what was found.

Examples:
  lexrag search -q "임대인이 보증금을 돌려주지 않아요"
  lexrag search -q "명예훼손 성립 요건" --no-api --json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVarP(&searchText, "query", "q", "", "question (required)")
	searchCmd.Flags().IntVarP(&searchTopN, "top-n", "n", 0, "vector results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
	searchCmd.Flags().BoolVar(&searchNoAPI, "no-api", false, "skip the precedent API")
	searchCmd.Flags().BoolVar(&searchNoRAG, "no-rag", false, "skip vector search")
	searchCmd.Flags().BoolVar(&searchRender, "render", false, "print the assembled prompt context instead of a summary")
	searchCmd.MarkFlagRequired("query")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if searchTopN > 0 {
		cfg.Retrieve.TopN = searchTopN
	}
	if searchNoAPI {
		cfg.Retrieve.UseExternal = false
	}
	if searchNoRAG {
		cfg.Retrieve.UseVector = false
	}

	var cl closers
	defer cl.Close()

	p, err := newPipeline(cmd.Context(), cfg, metrics.New(), &cl)
	if err != nil {
		return err
	}

	vector, external, err := p.retrieve.Retrieve(cmd.Context(), searchText)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		output, _ := json.MarshalIndent(map[string]*domain.RetrievalContext{
			"rag": vector,
			"api": external,
		}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if searchRender {
		vectorText, externalText := p.pack.Pack(vector, external)
		fmt.Printf("=== 판례 데이터베이스 ===\n%s\n\n=== 법령정보 API ===\n%s\n", vectorText, externalText)
		return nil
	}

	printContext("Vector index", vector)
	printContext("Precedent API", external)
	return nil
}

func printContext(source string, rc *domain.RetrievalContext) {
	if rc == nil {
		fmt.Printf("%s: disabled\n\n", source)
		return
	}
	fmt.Printf("%s: %d results for: %s\n\n", source, len(rc.Results), rc.ExpandedQuery)
	for i, r := range rc.Results {
		distance := "N/A"
		if r.Distance != nil {
			distance = fmt.Sprintf("%.3f", *r.Distance)
		}
		fmt.Printf("--- [%d] %s %s (distance: %s) ---\n", i+1, r.LawType, r.CaseNumber, distance)
		fmt.Println(r.Title)
		fmt.Println(domain.TruncateRunes(r.Content, 300, "..."))
		fmt.Println()
	}
}
