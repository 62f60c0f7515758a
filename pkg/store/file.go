package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/browserhost/api"
	"github.com/macropower/browserhost/api/v1beta1/inlays"
	"github.com/macropower/browserhost/pkg/log"
)

// FileStore is a [Store] backed by a YAML file. Writes are atomic.
type FileStore struct {
	tracer trace.Tracer
	path   string
	// Content last read from or written to path.
	last []byte
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a new [FileStore] for the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		tracer: otel.Tracer("store"),
		path:   path,
	}
}

// Path returns the path of the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (*inlays.Config, error) {
	ctx, span := s.tracer.Start(ctx, "load", trace.WithAttributes(
		attribute.String("path", s.path),
	))
	defer span.End()

	err := ctx.Err()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	data, err := api.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")

		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	c, err := inlays.Parse(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")

		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}

	s.remember(data)

	log.WithContext(ctx).DebugContext(ctx, "loaded inlay configuration",
		slog.String("path", s.path),
		slog.Int("inlays", len(c.Inlays)),
	)

	return c, nil
}

func (s *FileStore) Save(ctx context.Context, c *inlays.Config) error {
	ctx, span := s.tracer.Start(ctx, "save", trace.WithAttributes(
		attribute.String("path", s.path),
		attribute.Int("inlays", len(c.Inlays)),
	))
	defer span.End()

	err := ctx.Err()
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	err = c.Validate()
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	data, err := c.MarshalYAML()
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = api.WriteFileAtomic(s.path, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")

		return fmt.Errorf("save %s: %w", s.path, err)
	}

	s.last = data

	log.WithContext(ctx).DebugContext(ctx, "saved inlay configuration",
		slog.String("path", s.path),
		slog.Int("inlays", len(c.Inlays)),
	)

	return nil
}

// Changed reports whether data differs from what this store last read or
// wrote. It is used to ignore filesystem events caused by our own writes.
func (s *FileStore) Changed(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !bytes.Equal(s.last, data)
}

func (s *FileStore) remember(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.last = data
}
