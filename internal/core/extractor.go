package core

import (
	"context"
	"errors"
)

// ErrUnsupportedType is returned for file extensions the product does not
// accept. Callers surface it before any remote call is attempted.
var ErrUnsupportedType = errors.New("unsupported file type")

// DocumentExtractor turns an uploaded file into plain text. The file name's
// extension selects the parsing strategy.
type DocumentExtractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (string, error)
}
