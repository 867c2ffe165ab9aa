package engine

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/viant/dflow/flow"
)

// Run drives every output file to completion, one goroutine per file
// (spec.md §5's named allowed enrichment: "implementations may adopt
// task-based concurrency per-file but must preserve per-file write
// ordering"). A single file's own chunk sequence stays single-threaded
// and in its declared order; only the set of files runs concurrently.
// Every file's failure is collected rather than the first one winning,
// so a caller sees every broken output file from one call.
func (w *Writer) Run(ctx context.Context, writeNodes []*flow.WriteNode) error {
	var g errgroup.Group
	var mu sync.Mutex
	var errs *multierror.Error
	for _, wn := range writeNodes {
		wn := wn
		g.Go(func() error {
			if err := w.Execute(ctx, wn); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs.ErrorOrNil()
}
