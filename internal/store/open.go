package store

import (
	"context"
	"fmt"
	"strings"
)

// Options selects and configures a backend.
type Options struct {
	Backend       string // memory, sqlite or mongo
	MaxEntries    int    // memory only; <= 0 means unlimited
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
}

// Open builds the Store named by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "memory":
		return NewMemoryStore(opts.MaxEntries), nil
	case "sqlite":
		s, err := NewSQLite(opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mongo":
		m, err := NewMongo(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (allowed: memory, sqlite, mongo)", opts.Backend)
	}
}
