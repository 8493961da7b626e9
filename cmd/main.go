package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Britinogn/CourviaShipAPI/internal/app"
	"github.com/Britinogn/CourviaShipAPI/internal/platform/logger"
	"github.com/Britinogn/CourviaShipAPI/internal/services"
)

var (
	log *logger.Logger
	cfg app.Config

	dryRun    bool
	batchSize int
)

var rootCmd = &cobra.Command{
	Use:   "courviaship",
	Short: "CourviaShip shipment tracking API",
	Long: `CourviaShip registers shipments, issues tracking codes and serves
public tracking lookups.

Run without arguments to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, c, err := app.Bootstrap()
		if err != nil {
			return err
		}
		log, cfg = l, c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Sync()
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Migrate(log, cfg)
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair tracking records that drifted from their shipments",
	RunE:  runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report drift without writing")
	reconcileCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Shipments per page (default RECONCILE_BATCH_SIZE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Error("Startup failed", "error", err)
		return err
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error("Server stopped with error", "error", err)
		return err
	}
	log.Info("Server stopped")
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	report, err := app.Reconcile(ctx, log, cfg, services.ReconcileOptions{BatchSize: batchSize, DryRun: dryRun})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(),
		"scanned=%d missing=%d drifted=%d repaired=%d failed=%d dry_run=%t\n",
		report.Scanned, report.Missing, report.Drifted, report.Repaired, report.Failed, dryRun)
	if report.Failed > 0 {
		return fmt.Errorf("%d tracking records could not be repaired", report.Failed)
	}
	return nil
}
