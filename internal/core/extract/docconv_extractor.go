package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"

	"clauselens/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

// mime types docconv dispatches on.
var binaryTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DocconvExtractor reads plain-text uploads directly and runs pdf/doc/docx
// through docconv. Every other extension is rejected with
// core.ErrUnsupportedType.
type DocconvExtractor struct {
	useReadability bool
}

func NewDocconvExtractor(useReadability bool) *DocconvExtractor {
	return &DocconvExtractor{useReadability: useReadability}
}

func (e *DocconvExtractor) Extract(ctx context.Context, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))

	switch {
	case ext == "txt" || ext == "md":
		return string(data), nil

	case binaryTypes[ext] != "":
		res, err := docconv.Convert(bytes.NewReader(data), binaryTypes[ext], e.useReadability)
		if err != nil {
			return "", fmt.Errorf("docconv %s: %w", ext, err)
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if strings.TrimSpace(res.Body) == "" {
			return "", fmt.Errorf("docconv %s: extracted empty text", ext)
		}
		return res.Body, nil

	default:
		return "", fmt.Errorf("%w: .%s", core.ErrUnsupportedType, ext)
	}
}
