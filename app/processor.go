package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/core/dispatch"
	"github.com/gridhub/aggcoord/core/logger"
	"github.com/gridhub/aggcoord/core/model"
	"github.com/gridhub/aggcoord/infra/blob"
)

// resultProcessor decodes raw result rows and routes them to the dispatch
// engine. It implements coordinator.InputProcessor.
type resultProcessor struct {
	engine *dispatch.Engine
	meta   coordinator.MetadataStore
	log    logger.Logger
}

func (p *resultProcessor) ProcessInput(ctx context.Context, resultName string, r io.Reader, processType model.ProcessType, start, end time.Time, result *coordinator.JobResult) error {
	rows, err := blob.DecodeRows(r)
	if err != nil {
		return fmt.Errorf("decode rows for %s: %w", resultName, err)
	}
	p.log.Infof("decoded %d rows for %s", len(rows), resultName)

	result.State = fmt.Sprintf("Decoded %d rows", len(rows))
	result.UpdatedAt = time.Now().UTC()
	if err := p.meta.UpdateJobResult(ctx, result); err != nil {
		return err
	}

	if err := p.engine.Dispatch(ctx, resultName, rows, processType, start, end); err != nil {
		return err
	}

	result.State = "Dispatched"
	result.UpdatedAt = time.Now().UTC()
	return p.meta.UpdateJobResult(ctx, result)
}
