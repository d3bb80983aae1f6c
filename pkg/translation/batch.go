// Package translation defines the batch translation contract used to
// translate documents, and helpers around it.
package translation

import (
	"context"
	"errors"
)

// ErrLengthMismatch is returned when a batch result does not hold exactly
// one translation per input.
var ErrLengthMismatch = errors.New("translation count mismatch")

// Formality values understood by providers that support them.
const (
	FormalityDefault    = ""
	FormalityMore       = "more"
	FormalityLess       = "less"
	FormalityPreferMore = "prefer_more"
	FormalityPreferLess = "prefer_less"
)

// Hints are passed through to the translation capability unchanged.
type Hints struct {
	SourceLang    string            `json:"source_lang,omitempty" mapstructure:"source_lang" yaml:"source_lang"`
	TargetLang    string            `json:"target_lang,omitempty" mapstructure:"target_lang" yaml:"target_lang"`
	Formality     string            `json:"formality,omitempty" mapstructure:"formality" yaml:"formality"`
	MaskProfanity bool              `json:"mask_profanity,omitempty" mapstructure:"mask_profanity" yaml:"mask_profanity"`
	Brevity       bool              `json:"brevity,omitempty" mapstructure:"brevity" yaml:"brevity"`
	Extra         map[string]string `json:"extra,omitempty" mapstructure:"extra" yaml:"extra,omitempty"`
}

// BatchFunc translates texts and returns one result per input, in order.
type BatchFunc func(ctx context.Context, texts []string, hints Hints) ([]string, error)

// BatchTranslator is implemented by providers.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, hints Hints) ([]string, error)
	Name() string
}

// Func returns the BatchFunc of a translator.
func Func(t BatchTranslator) BatchFunc {
	return t.TranslateBatch
}

// Identity returns every text unchanged.
func Identity(_ context.Context, texts []string, _ Hints) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)
	return out, nil
}
