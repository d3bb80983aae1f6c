// Package translator translates word-processing packages in place through
// a batch translation function.
package translator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerdneilsfield/chatdoc/internal/container"
	"github.com/nerdneilsfield/chatdoc/internal/document"
	"github.com/nerdneilsfield/chatdoc/internal/markup"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Report summarizes a package translation.
type Report struct {
	Parts        []string      `json:"parts"`
	Blocks       int           `json:"blocks"`
	Submitted    int           `json:"submitted"`
	Skipped      int           `json:"skipped"`
	Batches      int           `json:"batches"`
	Failed       int           `json:"failed_batches"`
	Untranslated []int         `json:"untranslated,omitempty"`
	FailedParts  []string      `json:"failed_parts,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Result is the translated package and its report.
type Result struct {
	Data   []byte
	Report Report
}

// Coordinator drives extraction, batching and redistribution.
type Coordinator struct {
	logger *zap.Logger
}

func NewCoordinator(logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{logger: logger}
}

// TranslatePackage translates the package in data and returns the new
// bytes. When some batches fail the result is still returned together with
// a *PartialError.
func (c *Coordinator) TranslatePackage(ctx context.Context, data []byte, fn translation.BatchFunc, opts Options) (*Result, error) {
	pkg, err := container.Open(data)
	if err != nil {
		return nil, err
	}

	report, err := c.Translate(ctx, pkg, fn, opts)
	if err != nil && !IsPartial(err) {
		return nil, err
	}

	out, serr := pkg.Serialize()
	if serr != nil {
		return nil, fmt.Errorf("failed to serialize package: %w", serr)
	}
	return &Result{Data: out, Report: *report}, err
}

// story is one decoded part and its collected blocks.
type story struct {
	part        document.Part
	tree        *markup.Tree
	collections []*document.Collection
}

// batch is a run of submitted block indices and their units.
type batch struct {
	index  int
	blocks []int
	texts  []string
}

// Translate translates pkg in place. Blocks of batches that completed
// before a failure or cancellation stay translated and are written back to
// pkg before the error is returned.
func (c *Coordinator) Translate(ctx context.Context, pkg *container.Package, fn translation.BatchFunc, opts Options) (*Report, error) {
	opts.setDefaults()
	start := time.Now()

	parts, err := document.Parts(pkg, opts.scope())
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var stories []*story
	var all []*document.Collection
	var partFailures []error
	for _, p := range parts {
		data, err := pkg.Part(p.Name)
		if err != nil {
			return nil, err
		}
		tree, err := markup.Decode(data)
		if err != nil {
			perr := &PartError{Part: p.Name, Err: err}
			// without the main body there is nothing to translate
			if p.Kind == document.PartBody {
				return nil, perr
			}
			c.logger.Warn("skipping unreadable part", zap.String("part", p.Name), zap.Error(err))
			report.FailedParts = append(report.FailedParts, p.Name)
			partFailures = append(partFailures, perr)
			continue
		}

		s := &story{part: p, tree: tree}
		for _, b := range document.ExtractBlocks(tree, p.Name) {
			s.collections = append(s.collections, document.Collect(b))
		}
		stories = append(stories, s)
		all = append(all, s.collections...)
		report.Parts = append(report.Parts, p.Name)
	}
	report.Blocks = len(all)

	var submitted []int
	for i, col := range all {
		if col.Blank() {
			report.Skipped++
			continue
		}
		submitted = append(submitted, i)
	}
	report.Submitted = len(submitted)

	var batches []batch
	for i := 0; i < len(submitted); i += opts.BatchSize {
		end := i + opts.BatchSize
		if end > len(submitted) {
			end = len(submitted)
		}
		b := batch{index: len(batches), blocks: submitted[i:end]}
		for _, idx := range b.blocks {
			b.texts = append(b.texts, all[idx].Unit())
		}
		batches = append(batches, b)
	}
	report.Batches = len(batches)

	c.logger.Info("translating package",
		zap.Strings("parts", report.Parts),
		zap.Int("blocks", report.Blocks),
		zap.Int("submitted", report.Submitted),
		zap.Int("batches", report.Batches))

	failures := c.dispatch(ctx, all, batches, fn, opts)

	for _, s := range stories {
		data, err := markup.Encode(s.tree)
		if err != nil {
			return nil, fmt.Errorf("part %s: %w", s.part.Name, err)
		}
		pkg.SetPart(s.part.Name, data)
	}

	report.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("translation canceled: %w", err)
	}
	if len(failures) == 0 && len(partFailures) == 0 {
		c.logger.Info("package translated",
			zap.Int("batches", report.Batches),
			zap.Duration("duration", report.Duration))
		return report, nil
	}

	sort.Slice(failures, func(i, j int) bool { return batchOf(failures[i]) < batchOf(failures[j]) })
	for _, f := range failures {
		report.Untranslated = append(report.Untranslated, blocksOf(f)...)
	}
	sort.Ints(report.Untranslated)
	report.Failed = len(failures)

	c.logger.Warn("package partially translated",
		zap.Int("failed_batches", report.Failed),
		zap.Int("untranslated", len(report.Untranslated)),
		zap.Strings("failed_parts", report.FailedParts),
		zap.Duration("duration", report.Duration))

	return report, &PartialError{
		Untranslated: report.Untranslated,
		FailedParts:  report.FailedParts,
		Errors:       append(partFailures, failures...),
	}
}

// dispatch runs the batches on a worker pool and applies each result as
// soon as it arrives. Results that arrive after cancellation are dropped.
func (c *Coordinator) dispatch(ctx context.Context, all []*document.Collection, batches []batch, fn translation.BatchFunc, opts Options) []error {
	var limiter *rate.Limiter
	if opts.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}

	queue := make(chan batch, len(batches))
	for _, b := range batches {
		queue <- b
	}
	close(queue)

	var (
		mu       sync.Mutex
		failures []error
		done     int
		wg       sync.WaitGroup
	)

	settle := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			failures = append(failures, err)
		}
		done++
		if opts.OnBatch != nil {
			opts.OnBatch(done, len(batches))
		}
	}

	workers := opts.Concurrency
	if workers > len(batches) {
		workers = len(batches)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for b := range queue {
				if ctx.Err() != nil {
					return
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}

				texts := append([]string(nil), b.texts...)

				c.logger.Debug("translating batch",
					zap.Int("worker", workerID),
					zap.Int("batch", b.index),
					zap.Int("texts", len(texts)))

				translated, err := fn(ctx, texts, opts.Hints)
				if ctx.Err() != nil {
					return
				}
				if err != nil {
					c.logger.Warn("batch failed", zap.Int("batch", b.index), zap.Error(err))
					settle(&BatchError{Batch: b.index, Blocks: b.blocks, Err: err})
					continue
				}
				if len(translated) != len(texts) {
					c.logger.Warn("batch result length mismatch",
						zap.Int("batch", b.index),
						zap.Int("want", len(texts)),
						zap.Int("got", len(translated)))
					settle(&ContractViolationError{Batch: b.index, Want: len(texts), Got: len(translated), Blocks: b.blocks})
					continue
				}

				mu.Lock()
				for i, idx := range b.blocks {
					all[idx].Apply(translated[i])
				}
				mu.Unlock()
				settle(nil)
			}
		}(w)
	}
	wg.Wait()

	return failures
}

func batchOf(err error) int {
	switch e := err.(type) {
	case *ContractViolationError:
		return e.Batch
	case *BatchError:
		return e.Batch
	}
	return -1
}

func blocksOf(err error) []int {
	switch e := err.(type) {
	case *ContractViolationError:
		return e.Blocks
	case *BatchError:
		return e.Blocks
	}
	return nil
}
