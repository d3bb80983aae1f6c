package translator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

// ContractViolationError reports a batch whose result did not hold one
// translation per submitted text. Only that batch is left untranslated.
type ContractViolationError struct {
	Batch  int
	Want   int
	Got    int
	Blocks []int
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("batch %d: translation contract violated: sent %d texts, received %d", e.Batch, e.Want, e.Got)
}

func (e *ContractViolationError) Unwrap() error {
	return translation.ErrLengthMismatch
}

// BatchError reports a batch whose translation call failed.
type BatchError struct {
	Batch  int
	Blocks []int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d: %v", e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// PartError reports a story part whose markup could not be decoded.
type PartError struct {
	Part string
	Err  error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part %s: %v", e.Part, e.Err)
}

func (e *PartError) Unwrap() error {
	return e.Err
}

// PartialError is returned alongside the output when some batches failed
// or some parts other than the main body could not be read. Untranslated
// lists the affected block indices in ascending order; FailedParts names
// the parts left as they were.
type PartialError struct {
	Untranslated []int
	FailedParts  []string
	Errors       []error
}

func (e *PartialError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	if len(e.FailedParts) > 0 {
		return fmt.Sprintf("%d blocks left untranslated, %d parts skipped: %s",
			len(e.Untranslated), len(e.FailedParts), strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("%d blocks left untranslated: %s", len(e.Untranslated), strings.Join(msgs, "; "))
}

func (e *PartialError) Unwrap() []error {
	return e.Errors
}

// IsPartial reports whether err is a partial failure, in which case the
// output was still produced.
func IsPartial(err error) bool {
	var pe *PartialError
	return errors.As(err, &pe)
}
