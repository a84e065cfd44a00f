// Package analyzer wires the parser, process table, follower, classifier and
// aggregator into one run over a primary trace and its children.
package analyzer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Hara602/straceAnalyzer/internal/aggregate"
	"github.com/Hara602/straceAnalyzer/internal/classify"
	"github.com/Hara602/straceAnalyzer/internal/follower"
	"github.com/Hara602/straceAnalyzer/internal/model"
	"github.com/Hara602/straceAnalyzer/internal/parser"
	"github.com/Hara602/straceAnalyzer/internal/process"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Analyzer runs the engine. It holds no state between runs.
type Analyzer struct {
	cfg Config
	log *zap.Logger
}

// New creates an analyzer. A nil logger discards output.
func New(cfg Config, log *zap.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{cfg: cfg, log: log}, nil
}

// item is one applied event waiting to be classified.
type item struct {
	ev  *model.TraceEvent
	eff process.Effect
}

type spawn struct{ parent, child int }

// fileResult is what one worker learned from one trace file.
type fileResult struct {
	diag    model.Diagnostics
	items   []item
	spawned []spawn
	inline  map[int]bool // pids other than the file's own with lines in it
	start   time.Duration
	hasTS   bool
	err     error
}

// run is the state of one Run call.
type run struct {
	*Analyzer
	table      *process.Table
	follower   *follower.Follower
	classifier *classify.Classifier
	agg        *aggregate.Aggregator
	diag       model.Diagnostics
	discovered map[int]bool

	start time.Duration
	hasTS bool
}

// Run ingests primary and every child trace it leads to. Only an unreadable
// primary is fatal. On cancellation the report built so far is returned with
// ctx.Err().
func (a *Analyzer) Run(ctx context.Context, primary string) (*model.Report, error) {
	r := &run{
		Analyzer:   a,
		table:      process.NewTable(),
		follower:   follower.New(primary, a.log),
		classifier: classify.New(),
		agg: aggregate.New(aggregate.Options{
			RollUp: a.cfg.RollUp, Boundary: a.cfg.Boundary, Age: a.cfg.Age,
		}),
		discovered: make(map[int]bool),
	}
	r.table.Seed(r.follower.Primary().PID, a.cfg.InitialCwd)

	for level := r.follower.NextLevel(); len(level) > 0; level = r.follower.NextLevel() {
		var err error
		if a.cfg.Workers > 1 && len(level) > 1 {
			err = r.parallel(ctx, level)
		} else {
			err = r.sequential(ctx, level)
		}
		if err != nil {
			return r.report(), err
		}
	}

	rep := r.report()
	a.log.Info("trace analysis finished",
		zap.Int("files", rep.Diagnostics.FilesIngested),
		zap.Int("directories", len(rep.Directories)),
		zap.Int("lines", rep.Diagnostics.LinesTotal),
		zap.Int("malformed", rep.Diagnostics.LinesMalformed),
		zap.Int("missing_traces", rep.Diagnostics.ProcessesMissingTrace))
	return rep, nil
}

func (r *run) sequential(ctx context.Context, level []follower.Job) error {
	for _, job := range level {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := r.ingest(job, func(_ *fileResult, it item) { r.merge(it) })
		if err := r.finish(job, res); err != nil {
			return err
		}
	}
	return nil
}

// parallel parses a generation of files concurrently, then merges them in
// discovery order so the result does not depend on scheduling.
func (r *run) parallel(ctx context.Context, level []follower.Job) error {
	results := make([]*fileResult, len(level))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, job := range level {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.ingest(job, func(res *fileResult, it item) { res.items = append(res.items, it) })
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, job := range level {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := results[i]
		for _, it := range res.items {
			r.merge(it)
		}
		res.items = nil
		if err := r.finish(job, res); err != nil {
			return err
		}
	}
	return nil
}

// ingest reads one trace file, applying every event to the process table and
// handing it to emit.
func (r *run) ingest(job follower.Job, emit func(*fileResult, item)) *fileResult {
	res := &fileResult{inline: make(map[int]bool)}
	f, err := os.Open(job.Path)
	if err != nil {
		res.err = err
		return res
	}
	defer f.Close()

	log := r.log.With(zap.String("file", job.Path), zap.Int("pid", job.PID))
	log.Debug("ingesting trace")

	p := parser.New(parser.Options{PID: job.PID, Timestamps: r.cfg.Timestamps})
	rd := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := rd.ReadString('\n')
		if line != "" {
			r.line(log, job, p, line, res, emit)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if res.diag.LinesTotal == 0 {
				res.err = err
				return res
			}
			log.Warn("trace read stopped early", zap.Error(err))
			break
		}
	}
	res.diag.LinesSkipped += len(p.Flush())
	return res
}

func (r *run) line(log *zap.Logger, job follower.Job, p *parser.Parser, line string, res *fileResult, emit func(*fileResult, item)) {
	res.diag.LinesTotal++
	out := p.Parse(line)
	switch out.Kind {
	case parser.Skipped:
		res.diag.LinesSkipped++
		return
	case parser.Malformed:
		res.diag.LinesMalformed++
		log.Warn("malformed trace line", zap.Error(out.Err))
		return
	case parser.Pending:
		return
	}

	ev := out.Event
	if ev.HasTimestamp && (!res.hasTS || ev.Timestamp < res.start) {
		res.start, res.hasTS = ev.Timestamp, true
	}
	if !ev.Known {
		res.diag.SyscallsIgnored++
		return
	}
	if ev.PID != job.PID {
		res.inline[ev.PID] = true
	}

	eff := r.table.Apply(ev)
	if eff.Unresolved > 0 {
		res.diag.PathsUnresolved += eff.Unresolved
		log.Debug("path left unresolved", zap.Int("line", ev.Line), zap.String("syscall", ev.Syscall), zap.Error(eff.Err()))
	}
	if eff.UnknownFD {
		res.diag.UnknownFDs++
	}
	if eff.Spawned != 0 {
		res.spawned = append(res.spawned, spawn{parent: ev.PID, child: eff.Spawned})
	}
	emit(res, item{ev: ev, eff: eff})
}

// merge classifies one event and folds its records in. It is the only
// writer of the classifier and the aggregator.
func (r *run) merge(it item) {
	for _, rec := range r.classifier.Classify(it.ev, it.eff) {
		r.agg.Add(rec)
	}
}

// finish accounts for a file once its events are merged and schedules the
// children it cloned.
func (r *run) finish(job follower.Job, res *fileResult) error {
	if res.err != nil {
		if job.Primary {
			return fmt.Errorf("%w: %s: %w", model.ErrFatalIO, job.Path, res.err)
		}
		r.log.Warn("child trace unreadable", zap.String("file", job.Path), zap.Error(res.err))
		r.diag.ProcessesMissingTrace++
		return nil
	}

	r.diag.Merge(res.diag)
	r.diag.FilesIngested++
	if res.hasTS && (!r.hasTS || res.start < r.start) {
		r.start, r.hasTS = res.start, true
	}

	for _, s := range res.spawned {
		if r.discovered[s.child] {
			continue
		}
		r.discovered[s.child] = true
		r.diag.ProcessesDiscovered++
		if res.inline[s.child] {
			r.follower.Known(s.child)
			continue
		}
		if _, err := r.follower.Discover(s.parent, s.child); err != nil {
			if !errors.Is(err, model.ErrMissingChildTrace) {
				return err
			}
			r.diag.ProcessesMissingTrace++
		}
	}
	return nil
}

func (r *run) report() *model.Report {
	return &model.Report{
		Directories: r.agg.Stats(r.start),
		Diagnostics: r.diag,
	}
}
