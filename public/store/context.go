package store

import (
	"context"
	"errors"
)

// ErrNoStore means a caller asked for the store outside the scope that
// provides it. It is a wiring mistake, not a runtime condition.
var ErrNoStore = errors.New("configuration error: store accessed outside its provider scope")

type contextKey struct{}

// WithStore returns a context that carries s
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the store carried by ctx
func FromContext(ctx context.Context) (*Store, error) {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		return nil, ErrNoStore
	}
	return s, nil
}
