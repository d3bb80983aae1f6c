package translator

import (
	"github.com/nerdneilsfield/chatdoc/internal/document"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

const DefaultBatchSize = 50

// Options controls a package translation. Start from DefaultOptions; the
// zero value excludes headers and footnotes.
type Options struct {
	BatchSize        int
	IncludeHeaders   bool
	IncludeFootnotes bool
	IncludeComments  bool

	// Hints are forwarded to every batch call unchanged.
	Hints translation.Hints

	// Concurrency is the number of batches in flight. 1 dispatches strictly
	// in order.
	Concurrency int
	// RequestsPerMinute caps batch calls; 0 is unlimited.
	RequestsPerMinute int

	// OnBatch is called after each batch settles, successful or not.
	OnBatch func(done, total int)
}

func DefaultOptions() Options {
	return Options{
		BatchSize:        DefaultBatchSize,
		IncludeHeaders:   true,
		IncludeFootnotes: true,
		Concurrency:      1,
	}
}

func (o *Options) setDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
}

func (o Options) scope() document.Scope {
	return document.Scope{
		Headers:   o.IncludeHeaders,
		Footnotes: o.IncludeFootnotes,
		Comments:  o.IncludeComments,
	}
}
