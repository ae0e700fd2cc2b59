// Package chunker splits document text into overlapping spans for embedding.
// All offsets are rune offsets into the input text and a span's Content is
// always the exact rune slice [Start,End), so chunking the same text with the
// same options is byte-identical across runs.
package chunker

import (
	"fmt"
	"strings"

	apperr "github.com/whalekb/whalekb/internal/pkg/errors"
)

type Strategy string

const (
	StrategyFixed     Strategy = "fixed"
	StrategySentence  Strategy = "sentence"
	StrategyParagraph Strategy = "paragraph"
)

// Options selects a strategy and its window. Size and Overlap are rune counts
// for the fixed strategy and unit counts (sentences or paragraphs) otherwise.
type Options struct {
	Strategy Strategy
	Size     int
	Overlap  int
}

type Span struct {
	Index   int
	Content string
	Start   int
	End     int
}

// Split cuts text into ordered spans. Empty or whitespace-only input yields no
// spans and no error; an overlap >= size is a configuration error for every
// strategy.
func Split(text string, opts Options) ([]Span, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperr.ErrInvalidConfiguration, opts.Size)
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Size {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < size %d", apperr.ErrInvalidConfiguration, opts.Overlap, opts.Size)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	runes := []rune(text)
	switch opts.Strategy {
	case StrategyFixed, "":
		return splitFixed(runes, opts.Size, opts.Overlap), nil
	case StrategySentence:
		return groupUnits(runes, splitSentences(runes), opts.Size, opts.Overlap), nil
	case StrategyParagraph:
		return groupUnits(runes, splitParagraphs(runes), opts.Size, opts.Overlap), nil
	default:
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", apperr.ErrInvalidConfiguration, opts.Strategy)
	}
}

func splitFixed(runes []rune, size, overlap int) []Span {
	step := size - overlap
	var spans []Span
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		spans = append(spans, Span{
			Index:   len(spans),
			Content: string(runes[i:end]),
			Start:   i,
			End:     end,
		})
		if end == len(runes) {
			break
		}
	}
	return spans
}

// unit is one sentence or paragraph, as a rune span.
type unit struct {
	start int
	end   int
}

// groupUnits windows size units with overlap units shared between consecutive
// groups. A single unit longer than any size budget still becomes its own
// span; units are never force-split.
func groupUnits(runes []rune, units []unit, size, overlap int) []Span {
	if len(units) == 0 {
		return nil
	}
	step := size - overlap
	var spans []Span
	for i := 0; i < len(units); i += step {
		end := i + size
		if end > len(units) {
			end = len(units)
		}
		start := units[i].start
		stop := units[end-1].end
		spans = append(spans, Span{
			Index:   len(spans),
			Content: string(runes[start:stop]),
			Start:   start,
			End:     stop,
		})
		if end == len(units) {
			break
		}
	}
	return spans
}
