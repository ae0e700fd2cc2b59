// Package extract turns uploaded payloads into plain text for chunking.
package extract

import (
	"fmt"

	"github.com/whalekb/whalekb/internal/model"
)

type Extractor interface {
	Name() string
	Extract(data []byte) (string, error)
}

var extractors = make(map[string]Extractor)

func register(sourceType string, e Extractor) {
	extractors[sourceType] = e
}

// ForSourceType returns the extractor registered for the given document
// source type. URL documents are fetched upstream and extracted as text.
func ForSourceType(sourceType string) (Extractor, error) {
	if sourceType == model.SourceTypeURL {
		sourceType = model.SourceTypeText
	}
	e, ok := extractors[sourceType]
	if !ok {
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
	return e, nil
}
