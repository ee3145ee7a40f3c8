package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"lexrag/internal/metrics"
	"lexrag/internal/server"
	"lexrag/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve question answering and conversation management over HTTP.
POST /update_db rebuilds the vector index from the chunk files.

Examples:
  lexrag serve
  lexrag serve --addr :9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cl closers
	defer cl.Close()

	m := metrics.New()
	p, err := newPipeline(ctx, cfg, m, &cl)
	if err != nil {
		return err
	}
	if p.collection == nil {
		return fmt.Errorf("serve requires retrieve.use_vector: /update_db rebuilds the vector index")
	}

	sessions, err := newSessionStore(ctx, cfg, &cl)
	if err != nil {
		return err
	}
	system, err := systemPrompt(cfg)
	if err != nil {
		return err
	}

	conversations := usecase.NewConversationUseCase(sessions, p.llm, p.answer, system, logger.Named("conversation"))
	indexer := usecase.NewIndexUseCase(p.collection, cfg.Corpus, cfg.Index.PublicRatio, m, logger.Named("index"))

	srv := server.New(conversations, indexer, cfg.Corpus.LawTypes, m, logger.Named("server"))
	return srv.Run(ctx, cfg.Server.Addr)
}
