// Package store is the dashboard's local cache: JSON values stamped with the time they were captured.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Cache keys shared by the panels.
const (
	KeyCityWeather     = "cityWeatherData"
	KeyNews            = "weatherNews"
	KeyNewsResetTime   = "newsApiResetTime"
	KeyCurrentLocation = "currentLocationWeather"
)

var (
	// ErrNotFound is returned when nothing is stored under a key.
	ErrNotFound = errors.New("cache entry not found")

	// ErrExpired is returned by Get when the entry is older than the requested ttl.
	ErrExpired = errors.New("cache entry expired")
)

// Entry is a serialized value and its capture time.
type Entry struct {
	Value      []byte
	CapturedAt time.Time
}

// Store persists entries by key. Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, key string) (Entry, error)
	Save(ctx context.Context, key string, e Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Snapshot is a decoded cache value together with its capture time.
type Snapshot[T any] struct {
	Value      T         `json:"value"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Fresh reports whether the snapshot is younger than ttl at now.
func (s Snapshot[T]) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.CapturedAt) < ttl
}

// Load decodes the entry under key regardless of its age.
func Load[T any](ctx context.Context, s Store, key string) (Snapshot[T], error) {
	e, err := s.Load(ctx, key)
	if err != nil {
		return Snapshot[T]{}, err
	}
	var v T
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return Snapshot[T]{}, fmt.Errorf("decode cache entry %q: %w", key, err)
	}
	return Snapshot[T]{Value: v, CapturedAt: e.CapturedAt}, nil
}

// Get returns the value under key if it was captured less than ttl before now.
func Get[T any](ctx context.Context, s Store, key string, ttl time.Duration, now time.Time) (T, error) {
	snap, err := Load[T](ctx, s, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if !snap.Fresh(ttl, now) {
		var zero T
		return zero, ErrExpired
	}
	return snap.Value, nil
}

// Set stores v under key, stamped with now.
func Set[T any](ctx context.Context, s Store, key string, v T, now time.Time) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return s.Save(ctx, key, Entry{Value: raw, CapturedAt: now.UTC()})
}
