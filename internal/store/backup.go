package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// ExportAll returns every key with its raw JSON text, suitable for backup.
func ExportAll(ctx context.Context, s Store) (map[string]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		val, ok, err := s.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = val
		}
	}
	return out, nil
}

// ImportAll writes each non-empty value back verbatim. Every value is
// validated as JSON before the first write, so a bad payload fails the
// whole import without partial writes.
func ImportAll(ctx context.Context, s Store, data map[string]string) error {
	for key, val := range data {
		if val == "" {
			continue
		}
		if !json.Valid([]byte(val)) {
			return fmt.Errorf("import %s: value is not valid JSON", key)
		}
	}
	for key, val := range data {
		if val == "" {
			continue
		}
		if err := s.Set(ctx, key, val); err != nil {
			return fmt.Errorf("import %s: %w", key, err)
		}
	}
	return nil
}
