// Package source fetches the raw snapshot documents consumed by a correlation
// pass. A document comes from a local file, an S3-compatible bucket, or the
// output of a command run on a router over SSH.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"wanlens/internal/codec"
	"wanlens/internal/config"
)

// ErrNoServiceability is returned when no serviceability source is configured
var ErrNoServiceability = errors.New("source: serviceability source not configured")

// Source produces the bytes of one snapshot document
type Source interface {
	// Kind is the configured source kind (file, objectstore, ssh)
	Kind() string
	// Describe identifies the document location for logs
	Describe() string
	Fetch(ctx context.Context) ([]byte, error)
}

// FetchObserver is told about every document fetch
type FetchObserver func(doc codec.Document, kind string, duration time.Duration, err error)

// Set holds one source per snapshot document. Telemetry and ISIS are optional.
type Set struct {
	Serviceability Source
	Telemetry      Source
	ISIS           Source

	Logger   *slog.Logger
	Observer FetchObserver
}

// FromConfig builds a source set from configuration
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Set, error) {
	if logger == nil {
		logger = slog.Default()
	}
	set := &Set{Logger: logger}

	var store *ObjectStoreClient
	build := func(doc codec.Document, sc config.SourceConfig) (Source, error) {
		switch sc.Kind {
		case "":
			return nil, nil
		case config.SourceFile:
			return NewFile(sc.Path), nil
		case config.SourceObjectStore:
			if store == nil {
				var err error
				store, err = NewObjectStoreClient(cfg.ObjectStore)
				if err != nil {
					return nil, err
				}
			}
			return store.Object(sc.Key), nil
		case config.SourceSSH:
			ssh := cfg.SSH
			if sc.Command != "" {
				ssh.Command = sc.Command
			}
			return NewSSH(ssh), nil
		default:
			return nil, fmt.Errorf("source %s: unknown kind %q", doc, sc.Kind)
		}
	}

	var err error
	if set.Serviceability, err = build(codec.DocServiceability, cfg.Sources.Serviceability); err != nil {
		return nil, err
	}
	if set.Telemetry, err = build(codec.DocTelemetry, cfg.Sources.Telemetry); err != nil {
		return nil, err
	}
	if set.ISIS, err = build(codec.DocISIS, cfg.Sources.ISIS); err != nil {
		return nil, err
	}
	return set, nil
}

// Fetch pulls every configured document into a snapshot.
// A serviceability failure is fatal. A failed optional document is logged
// and treated as absent, so the pass degrades to MISSING_* classifications.
func (s *Set) Fetch(ctx context.Context) (codec.Snapshot, error) {
	var snap codec.Snapshot
	if s.Serviceability == nil {
		return snap, ErrNoServiceability
	}

	data, err := s.fetch(ctx, codec.DocServiceability, s.Serviceability)
	if err != nil {
		return snap, fmt.Errorf("fetch %s from %s: %w", codec.DocServiceability, s.Serviceability.Describe(), err)
	}
	snap.Serviceability = data

	snap.Telemetry = s.fetchOptional(ctx, codec.DocTelemetry, s.Telemetry)
	snap.ISIS = s.fetchOptional(ctx, codec.DocISIS, s.ISIS)
	return snap, nil
}

func (s *Set) fetchOptional(ctx context.Context, doc codec.Document, src Source) []byte {
	if src == nil {
		return nil
	}
	data, err := s.fetch(ctx, doc, src)
	if err != nil {
		s.logger().Warn("optional document unavailable",
			"document", doc,
			"source", src.Describe(),
			"error", err,
		)
		return nil
	}
	return data
}

func (s *Set) fetch(ctx context.Context, doc codec.Document, src Source) ([]byte, error) {
	start := time.Now()
	data, err := src.Fetch(ctx)
	elapsed := time.Since(start)
	if s.Observer != nil {
		s.Observer(doc, src.Kind(), elapsed, err)
	}
	if err == nil {
		s.logger().Debug("fetched document",
			"document", doc,
			"source", src.Describe(),
			"bytes", len(data),
			"duration", elapsed,
		)
	}
	return data, err
}

func (s *Set) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
