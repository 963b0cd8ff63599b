package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridhub/aggcoord/core/cimxml"
	"github.com/gridhub/aggcoord/core/model"
	"github.com/gridhub/aggcoord/infra/blob"
)

var (
	resultInput       string
	resultOutput      string
	resultProcessType string
	resultBegin       string
	resultEnd         string
	resultReceiver    string
	resultSender      string
)

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Convert a raw result file into CIM XML documents",
	RunE:  convertResult,
}

func init() {
	resultCmd.Flags().StringVar(&resultInput, "input", "", "raw result file")
	resultCmd.Flags().StringVar(&resultOutput, "output", ".", "output directory")
	resultCmd.Flags().StringVar(&resultProcessType, "process-type", "BalanceFixing", "process type (name or code)")
	resultCmd.Flags().StringVar(&resultBegin, "begin", "", "interval start (RFC 3339)")
	resultCmd.Flags().StringVar(&resultEnd, "end", "", "interval end (RFC 3339)")
	resultCmd.Flags().StringVar(&resultReceiver, "receiver", "", "receiver GLN")
	resultCmd.Flags().StringVar(&resultSender, "sender", "5790001330552", "sender GLN")
	rootCmd.AddCommand(resultCmd)
}

func convertResult(cmd *cobra.Command, args []string) error {
	pt, err := model.ParseProcessType(resultProcessType)
	if err != nil {
		return err
	}
	begin, err := time.Parse(time.RFC3339, resultBegin)
	if err != nil {
		return fmt.Errorf("parse begin: %w", err)
	}
	end, err := time.Parse(time.RFC3339, resultEnd)
	if err != nil {
		return fmt.Errorf("parse end: %w", err)
	}

	f, err := os.Open(resultInput)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := blob.DecodeRows(f)
	if err != nil {
		return err
	}

	builder := cimxml.NewBuilder(resultSender, nil)
	docs, err := builder.BuildDocuments(rows, cimxml.RequestContext{
		ProcessType:   pt,
		ReceiverGLN:   resultReceiver,
		IntervalStart: begin,
		IntervalEnd:   end,
	})
	if err != nil {
		return err
	}

	for _, doc := range docs {
		name := filepath.Join(resultOutput, fmt.Sprintf("notify-aggregated-timeseries-%s.xml", doc.MRID))
		out, err := os.Create(name)
		if err != nil {
			return err
		}
		if err := cimxml.WriteDocument(out, doc); err != nil {
			_ = out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		cmd.Printf("wrote %s\n", name)
	}
	return nil
}
