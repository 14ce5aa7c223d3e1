// Package jsonl reads dataset records from JSON Lines files, one object per line.
package jsonl

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"strings"

	"github.com/oieieio/think-tools/dataset"
	"github.com/oieieio/think-tools/errors"
)

const (
	initialBufferSize = 64 << 10
	maxLineSize       = 32 << 20
	sourceName        = "jsonl"
)

// Ensure Source implements dataset.Source.
var _ dataset.Source = (*Source)(nil)

// Source streams records from a file or reader.
type Source struct {
	path string
	r    io.Reader
}

// Open returns a Source for the file at path. The file is opened when
// iteration starts and closed when it ends.
func Open(path string) *Source {
	return &Source{path: path}
}

// NewReader returns a Source reading from r. A reader can be iterated once.
func NewReader(r io.Reader) *Source {
	return &Source{r: r}
}

// Records implements dataset.Source. Blank lines are skipped.
func (s *Source) Records(ctx context.Context) iter.Seq2[*dataset.Record, error] {
	return func(yield func(*dataset.Record, error) bool) {
		r := s.r
		if r == nil {
			f, err := os.Open(s.path)
			if err != nil {
				yield(nil, convertOpenError(s.path, err))
				return
			}
			defer func() { _ = f.Close() }()
			r = f
		}

		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, initialBufferSize), maxLineSize)

		line := 0
		for scanner.Scan() {
			line++

			if err := ctx.Err(); err != nil {
				yield(nil, errors.NewSourceError(sourceName, 0, err))
				return
			}

			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}

			rec, err := dataset.ParseRecord([]byte(text))
			if err != nil {
				yield(nil, errors.NewSourceError(sourceName, 0, fmt.Errorf("%s line %d: %w", s.name(), line, err)))
				return
			}

			if !yield(rec, nil) {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			yield(nil, errors.NewSourceError(sourceName, 0, fmt.Errorf("read %s: %w", s.name(), err)))
		}
	}
}

func (s *Source) name() string {
	if s.path != "" {
		return s.path
	}
	return "input"
}

func convertOpenError(path string, err error) error {
	if stderrors.Is(err, fs.ErrNotExist) {
		return errors.NewDatasetNotFoundError(sourceName, path, err)
	}
	return errors.NewSourceError(sourceName, 0, err)
}
