package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

// Source produces records lazily. Iteration stops as soon as the consumer
// stops asking; a source must not fetch ahead of what has been requested.
type Source interface {
	Records(ctx context.Context) iter.Seq2[*Record, error]
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) iter.Seq2[*Record, error]

// Records implements Source.
func (f SourceFunc) Records(ctx context.Context) iter.Seq2[*Record, error] {
	return f(ctx)
}

// View prints the first limit records of src to w, each as an "Example i:"
// header followed by one "name: value" line per field.
// It returns the number of records printed. A source that runs out early
// is not an error; a limit of zero or less prints nothing.
func View(ctx context.Context, src Source, limit int, w io.Writer) (int, error) {
	return consume(ctx, src, limit, func(index int, r *Record) error {
		return Render(w, index, r)
	})
}

// ViewJSON writes the first limit records of src to w as JSON Lines,
// one object per record with field order preserved.
func ViewJSON(ctx context.Context, src Source, limit int, w io.Writer) (int, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return consume(ctx, src, limit, func(index int, r *Record) error {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("write record %d: %w", index, err)
		}
		return nil
	})
}

// Render writes a single record with its 1-based index.
func Render(w io.Writer, index int, r *Record) error {
	if _, err := fmt.Fprintf(w, "\nExample %d:\n", index); err != nil {
		return fmt.Errorf("write record %d: %w", index, err)
	}

	for name, v := range r.Fields() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", name, v); err != nil {
			return fmt.Errorf("write record %d: %w", index, err)
		}
	}

	return nil
}

// Collect returns up to limit records from src.
func Collect(ctx context.Context, src Source, limit int) ([]*Record, error) {
	records := make([]*Record, 0, max(limit, 0))
	_, err := consume(ctx, src, limit, func(_ int, r *Record) error {
		records = append(records, r)
		return nil
	})
	return records, err
}

// Offset skips the first n records of src.
func Offset(src Source, n int) Source {
	if n <= 0 {
		return src
	}

	return SourceFunc(func(ctx context.Context) iter.Seq2[*Record, error] {
		return func(yield func(*Record, error) bool) {
			skipped := 0
			for r, err := range src.Records(ctx) {
				if err != nil {
					yield(nil, err)
					return
				}
				if skipped < n {
					skipped++
					continue
				}
				if !yield(r, nil) {
					return
				}
			}
		}
	})
}

// consume feeds at most limit records to fn and stops pulling from the
// source right after the last one.
func consume(ctx context.Context, src Source, limit int, fn func(index int, r *Record) error) (int, error) {
	if limit <= 0 {
		return 0, nil
	}

	n := 0
	for r, err := range src.Records(ctx) {
		if err != nil {
			return n, err
		}

		n++
		if err := fn(n, r); err != nil {
			return n - 1, err
		}

		if n >= limit {
			break
		}
	}

	return n, nil
}
