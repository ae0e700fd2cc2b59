package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/whalekb/whalekb/internal/model"
)

type textExtractor struct{}

func (e *textExtractor) Name() string {
	return "text"
}

func (e *textExtractor) Extract(data []byte) (string, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return strings.TrimSpace(text), nil
}

func init() {
	register(model.SourceTypeText, &textExtractor{})
}
