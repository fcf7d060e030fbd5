package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mgpai22/vidscribe/internal/metrics"
	"github.com/mgpai22/vidscribe/internal/server"
	"github.com/mgpai22/vidscribe/internal/transcribe"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the upload web server",
	Long: `Serve an upload form on the configured address. Each uploaded file is
transcribed and the resulting SRT file is returned as a download and kept in
the output directory.

Examples:
  vidscribe serve
  vidscribe serve --addr 0.0.0.0:8080 --output-dir /srv/subtitles
  vidscribe serve --config vidscribe.toml -v`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default from config, 127.0.0.1:5000)")
	serveCmd.Flags().String("output-dir", "", "Directory for generated subtitle files")
	serveCmd.Flags().Bool("per-job-dirs", false, "Write each job's subtitles into its own subdirectory")
}

func runServe(cmd *cobra.Command, args []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir, _ := cmd.Flags().GetString("output-dir"); dir != "" {
		cfg.Paths.OutputDir = dir
	}
	if cmd.Flags().Changed("per-job-dirs") {
		cfg.Paths.PerJobDirs, _ = cmd.Flags().GetBool("per-job-dirs")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	orchestrator, err := newOrchestrator(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		UploadLimitMB: cfg.Server.UploadLimitMB,
		ModelSizes:    transcribe.ModelSizes(),
		Devices:       transcribe.Devices(),
		ModelSize:     cfg.Transcription.ModelSize,
		Device:        cfg.Transcription.Device,
	}, orchestrator, newStore(cfg), metrics.New(), logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Infow("Starting server",
		"addr", cfg.Server.Addr,
		"provider", cfg.Transcription.Provider,
		"output_dir", cfg.Paths.OutputDir,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
