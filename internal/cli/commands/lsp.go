package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dimc-lang/dimc/internal/cli/config"
	"github.com/dimc-lang/dimc/internal/compiler/pipeline"
	"github.com/dimc-lang/dimc/internal/lsp"
)

// NewLSPCommand creates the LSP command
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the dimc Language Server Protocol (LSP) server.

This command starts an LSP server that provides editor features for
definition files:
  • Diagnostics from every compiler phase
  • Completion of keywords, annotations, prefixes and names
  • Hover with resolved dimensions and magnitudes
  • Go-to-definition and find references
  • Document and workspace symbols

The LSP server communicates via JSON-RPC over stdin/stdout.
It is typically started automatically by your editor.`,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, args []string) error {
	var opts pipeline.Options
	if cfg, err := config.Load(); err == nil {
		opts.RationalExponents = cfg.Build.RationalExponents
	}

	lsp.Version = Version
	server := lsp.NewServer(opts, newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return server.Run(ctx)
}
