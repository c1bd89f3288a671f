package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"go.uber.org/zap"

	"github.com/coracle/shiftclaim/internal/types"
)

// File reads notifications from a JSON array written by the mail parser. The file is
// opened again on every call and decoded one element at a time.
type File struct {
	Path   string
	logger *zap.Logger
}

// NewFile returns a spool reader for path.
func NewFile(path string, logger *zap.Logger) *File {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{Path: path, logger: logger.Named("notify")}
}

// Notifications streams the spool. A missing file yields nothing. A malformed document
// ends the sequence with one error; a malformed element yields an error and the
// remaining elements are still read.
func (f *File) Notifications(ctx context.Context) iter.Seq2[types.Shift, error] {
	return func(yield func(types.Shift, error) bool) {
		file, err := os.Open(f.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				f.logger.Debug("no notification spool", zap.String("path", f.Path))
				return
			}
			yield(types.Shift{}, fmt.Errorf("failed to open notifications: %w", err))
			return
		}
		defer file.Close()

		dec := json.NewDecoder(file)
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(types.Shift{}, fmt.Errorf("failed to read notifications: %w", err))
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			yield(types.Shift{}, fmt.Errorf("notifications must be a JSON array"))
			return
		}

		for i := 0; dec.More(); i++ {
			if ctx.Err() != nil {
				return
			}
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				yield(types.Shift{}, fmt.Errorf("failed to read notification %d: %w", i, err))
				return
			}
			var n types.Shift
			if err := json.Unmarshal(raw, &n); err != nil {
				if !yield(types.Shift{}, fmt.Errorf("notification %d: %w", i, err)) {
					return
				}
				continue
			}
			shift, err := Normalize(n)
			if err != nil {
				err = fmt.Errorf("notification %d: %w", i, err)
			}
			if !yield(shift, err) {
				return
			}
		}
	}
}
