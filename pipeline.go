package epsel

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quenbyak/epsel/deviation"
	"github.com/quenbyak/epsel/diag"
	"github.com/quenbyak/epsel/potential"
	"github.com/quenbyak/epsel/selection"
	"github.com/quenbyak/epsel/structure"
)

// Run streams configurations from src, scores each one's ensemble
// disagreement and returns the selected subset together with the full
// per-configuration diagnostics.
//
// Evaluation failures are recoverable: the offending configuration is
// recorded as a skip and the stream continues. A source read error is
// fatal. Cancelling ctx stops admission of new configurations; evaluations
// already in flight finish, and Run returns the selection over everything
// scored so far with the diagnostics marked truncated, without error.
func (s *Sampler) Run(ctx context.Context, src structure.Source) (*selection.Result, *diag.Diagnostics, error) {
	if !s.state.CompareAndSwap(int32(StateNotStarted), int32(StateStreaming)) {
		return nil, nil, ErrAlreadyRun
	}

	ens, err := s.source.Resolve(ctx)
	if err != nil {
		s.setState(StateFailed)
		return nil, nil, err
	}
	if ens.Size() < 2 {
		s.setState(StateFailed)
		return nil, nil, &deviation.ErrInsufficientEnsemble{Size: ens.Size()}
	}
	if err := selection.ValidateParams(s.lo, s.hi, s.maxN); err != nil {
		s.setState(StateFailed)
		return nil, nil, err
	}

	log := s.opts.logger.WithLabel(ens.Label())
	d := diag.New()

	var (
		mu         sync.Mutex
		candidates []selection.Candidate
		streamed   int
	)

	// The run context only gates admission. Once a configuration is
	// handed to a worker its evaluation runs to completion, so a
	// cancelled run never records ctx.Canceled as a skip.
	evalCtx := context.WithoutCancel(ctx)

	g, gctx := errgroup.WithContext(ctx)
	workers := s.opts.workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	truncated := false
	var srcErr error
	for {
		if ctx.Err() != nil || gctx.Err() != nil {
			truncated = true
			break
		}
		cfg, err := src.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				srcErr = err
			}
			break
		}
		streamed++
		g.Go(func() error {
			rec, ok := s.evaluate(evalCtx, log, ens, cfg, d)
			if !ok {
				return nil
			}
			mu.Lock()
			d.Append(rec)
			if inBand(rec.EpsT, s.lo, s.hi) {
				candidates = append(candidates, selection.Candidate{Config: cfg, Record: rec})
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil && srcErr == nil {
		srcErr = err
	}
	if srcErr != nil {
		s.setState(StateFailed)
		return nil, nil, srcErr
	}
	if truncated {
		d.MarkTruncated()
	}

	s.setState(StateFiltering)
	// Workers append as they finish, so completion order must never leak
	// into the result.
	sortCandidates(candidates)

	s.setState(StateSelecting)
	start := time.Now()
	res, err := selection.Select(candidates, s.lo, s.hi, s.maxN, s.opts.strategy)
	if err != nil {
		s.setState(StateFailed)
		return nil, nil, err
	}
	d.Seal()
	s.setState(StateDone)

	s.opts.metrics.RecordSelect(len(candidates), len(res.Selected), time.Since(start))
	log.LogRunDone(ctx, streamed, len(candidates), len(res.Selected), len(d.Skips()))
	return res, d, nil
}

// evaluate runs the committee over one configuration and scores the
// disagreement. It reports ok=false after recording a skip.
func (s *Sampler) evaluate(ctx context.Context, log *Logger, ens *potential.Ensemble, cfg *structure.Configuration, d *diag.Diagnostics) (deviation.Record, bool) {
	start := time.Now()
	preds, err := s.opts.committee.Evaluate(ctx, ens, cfg)
	s.opts.metrics.RecordEvaluate(ens.Size(), time.Since(start), err)
	if err != nil {
		s.skip(ctx, log, d, cfg.Index(), err)
		return deviation.Record{}, false
	}

	rec, err := deviation.Score(cfg.Index(), preds, s.opts.keepPerAtom)
	if err != nil {
		s.skip(ctx, log, d, cfg.Index(), err)
		return deviation.Record{}, false
	}
	s.opts.metrics.RecordScore(rec.EpsT)
	return rec, true
}

func (s *Sampler) skip(ctx context.Context, log *Logger, d *diag.Diagnostics, index int, err error) {
	d.AppendSkip(index, err)
	s.opts.metrics.RecordSkip(index, err)
	log.LogSkip(ctx, index, err)
}

// inBand reports whether eps falls in the closed interval [lo, hi].
// NaN compares false on both sides and is never admitted.
func inBand(eps, lo, hi float64) bool {
	return eps >= lo && eps <= hi
}

func sortCandidates(cs []selection.Candidate) {
	sort.Slice(cs, func(i, j int) bool {
		return cs[i].Record.Index < cs[j].Record.Index
	})
}
