package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhub/aggcoord/app"
	"github.com/gridhub/aggcoord/config"
	"github.com/gridhub/aggcoord/core/model"
	"github.com/gridhub/aggcoord/infra/logger"
)

var (
	startProcessType string
	startBegin       string
	startEnd         string
	startPersist     bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Trigger one aggregation job and wait for completion",
	RunE:  startJob,
}

func init() {
	startCmd.Flags().StringVar(&startProcessType, "process-type", "BalanceFixing", "process type (name or code)")
	startCmd.Flags().StringVar(&startBegin, "begin", "", "interval start (RFC 3339)")
	startCmd.Flags().StringVar(&startEnd, "end", "", "interval end (RFC 3339)")
	startCmd.Flags().BoolVar(&startPersist, "persist", false, "persist the source dataframe")
	rootCmd.AddCommand(startCmd)
}

func startJob(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pt, err := model.ParseProcessType(startProcessType)
	if err != nil {
		return err
	}
	begin, err := time.Parse(time.RFC3339, startBegin)
	if err != nil {
		return fmt.Errorf("parse begin: %w", err)
	}
	end, err := time.Parse(time.RFC3339, startEnd)
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	jobID, err := svc.StartJob(ctx, pt, begin, end, startPersist)
	if err != nil {
		return err
	}
	cmd.Printf("job %s completed\n", jobID)
	return nil
}
