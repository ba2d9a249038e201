// Package dispose scopes generated artifacts so their files are deleted on
// every exit path of the scope, including errors and panics.
package dispose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"pfbverify/internal/logging"
	"pfbverify/internal/services"
)

// Resource is implemented by every artifact type that is backed by files.
type Resource interface {
	BackingPaths() []string
}

// Producer materializes a Resource on scope entry.
type Producer interface {
	Materialize(ctx context.Context) (Resource, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context) (Resource, error)

func (f ProducerFunc) Materialize(ctx context.Context) (Resource, error) { return f(ctx) }

// Path is an already materialized single-file resource.
type Path string

func (p Path) BackingPaths() []string { return []string{string(p)} }

func (p Path) Materialize(context.Context) (Resource, error) { return p, nil }

// Group nests resources produced together, for multi-output stages.
type Group []Resource

func (g Group) BackingPaths() []string {
	var paths []string
	for _, r := range g {
		if r != nil {
			paths = append(paths, r.BackingPaths()...)
		}
	}
	return paths
}

func (g Group) Materialize(context.Context) (Resource, error) { return g, nil }

// Ready wraps an already materialized resource as a Producer.
func Ready(r Resource) Producer {
	return ProducerFunc(func(context.Context) (Resource, error) { return r, nil })
}

// Option configures a Scope.
type Option func(*Scope)

// WithEnabled toggles deletion on close. A disabled scope keeps every file.
func WithEnabled(enabled bool) Option {
	return func(s *Scope) { s.enabled = enabled }
}

// WithLogger sets the logger used for deletions and skipped cleanups.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scope) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Scope owns the resources materialized on entry.
type Scope struct {
	resources []Resource
	enabled   bool
	closed    bool
	logger    *slog.Logger
}

// Open materializes every producer in order. If a producer fails, the
// resources already materialized, and any partial resource returned with the
// error, are cleaned up before returning.
func Open(ctx context.Context, producers []Producer, opts ...Option) (*Scope, error) {
	s := &Scope{enabled: true, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "dispose")
	for i, p := range producers {
		if p == nil {
			return nil, s.abort(fmt.Errorf("producer %d is nil", i))
		}
		r, err := p.Materialize(ctx)
		if r != nil {
			s.resources = append(s.resources, r)
		}
		if err != nil {
			return nil, s.abort(err)
		}
	}
	return s, nil
}

func (s *Scope) abort(err error) error {
	if cerr := s.Close(); cerr != nil {
		s.logger.Warn("cleanup after failed materialization incomplete", logging.Error(cerr))
	}
	return err
}

// Resources returns every materialized resource in producer order.
func (s *Scope) Resources() []Resource {
	return append([]Resource(nil), s.resources...)
}

// Resource returns the single resource of a one-producer scope, or the whole
// set as a Group otherwise.
func (s *Scope) Resource() Resource {
	if len(s.resources) == 1 {
		return s.resources[0]
	}
	return Group(s.resources)
}

// Close deletes every backing file that exists. Missing files are ignored and
// repeated calls are no-ops. When the scope is disabled nothing is removed.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.enabled {
		s.logger.Info("artifact cleanup disabled",
			logging.String(logging.FieldEventType, "cleanup_skipped"),
			logging.Strings("paths", Group(s.resources).BackingPaths()),
			logging.Error(services.ErrCleanupSkipped),
		)
		return nil
	}
	var errs []error
	for _, path := range Group(s.resources).BackingPaths() {
		if path == "" {
			continue
		}
		err := os.Remove(path)
		switch {
		case err == nil:
			s.logger.Debug("artifact removed", logging.String("path", path))
		case errors.Is(err, os.ErrNotExist):
		default:
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Do opens a scope, runs fn and closes the scope on every exit path. The
// error returned by fn always wins over a cleanup error, and a panic in fn is
// re-raised after cleanup.
func Do(ctx context.Context, producers []Producer, fn func(ctx context.Context, s *Scope) error, opts ...Option) (err error) {
	s, err := Open(ctx, producers, opts...)
	if err != nil {
		return err
	}
	defer func() {
		cerr := s.Close()
		if cerr == nil {
			return
		}
		if err != nil {
			s.logger.Warn("artifact cleanup failed", logging.Error(cerr))
			return
		}
		err = cerr
	}()
	return fn(ctx, s)
}
