package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// Default durations for held documents.
const (
	// DefaultDocTTL is how long an untouched document stays in memory.
	DefaultDocTTL = 30 * time.Minute

	// DefaultCleanupEvery is the eviction sweep interval.
	DefaultCleanupEvery = 5 * time.Minute
)

// Persister stores document scripts durably, so evicted documents can
// be reloaded. Implementations must be safe for concurrent use.
type Persister interface {
	// Save upserts the script for a document id.
	Save(ctx context.Context, id, script string) error

	// Load returns the stored script. A missing id fails with
	// DOCUMENT_NOT_FOUND.
	Load(ctx context.Context, id string) (string, error)

	// Remove deletes the stored script. A missing id fails with
	// DOCUMENT_NOT_FOUND.
	Remove(ctx context.Context, id string) error

	// Close releases the backend connection.
	Close(ctx context.Context) error
}

// DocStore holds the service's working copies: live documents keyed
// by id, evicted after an idle TTL. With a Persister attached, every
// mutation also saves the document's rebuild script, and an evicted
// document is reloaded on the next request. Without one, eviction is
// final, so size the TTL for the session length you want.
type DocStore struct {
	mu      sync.Mutex
	docs    map[string]*docEntry
	ttl     time.Duration
	persist Persister
	logger  *log.Logger
}

type docEntry struct {
	doc      *document.Document
	lastUsed time.Time

	// gate serializes requests touching this document. Reads settle
	// derived data lazily, so even they mutate store internals; the
	// engine's single-thread contract is kept per document while
	// distinct documents stay fully parallel.
	gate sync.Mutex
}

// NewDocStore creates a store. A nil persister keeps documents in
// memory only; ttl <= 0 uses [DefaultDocTTL]; a nil logger falls back
// to the default logger.
func NewDocStore(ttl time.Duration, persist Persister, logger *log.Logger) *DocStore {
	if ttl <= 0 {
		ttl = DefaultDocTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &DocStore{
		docs:    make(map[string]*docEntry),
		ttl:     ttl,
		persist: persist,
		logger:  logger,
	}
}

func notFoundDoc(id string) error {
	return errors.New(errors.ErrCodeDocumentNotFound, "document %q not found", id)
}

// Create makes a fresh empty document and returns its id.
func (s *DocStore) Create(ctx context.Context) (string, *document.Document, error) {
	id := uuid.NewString()
	d := document.New(s.logger)

	s.mu.Lock()
	s.docs[id] = &docEntry{doc: d, lastUsed: time.Now()}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Save(ctx, id, ""); err != nil {
			s.mu.Lock()
			delete(s.docs, id)
			s.mu.Unlock()
			return "", nil, err
		}
	}
	s.logger.Debug("created document", "id", id)
	return id, d, nil
}

// Get returns the live document for id, reloading it from the
// persister if it was evicted. Missing ids fail with
// DOCUMENT_NOT_FOUND.
func (s *DocStore) Get(ctx context.Context, id string) (*document.Document, error) {
	e, err := s.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.doc, nil
}

func (s *DocStore) entry(ctx context.Context, id string) (*docEntry, error) {
	s.mu.Lock()
	if e, ok := s.docs[id]; ok {
		e.lastUsed = time.Now()
		s.mu.Unlock()
		return e, nil
	}
	s.mu.Unlock()

	if s.persist == nil {
		return nil, notFoundDoc(id)
	}
	script, err := s.persist.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	d := document.New(s.logger)
	if script != "" {
		if err := d.LoadScript(strings.NewReader(script)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "replaying stored document %s", id)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.docs[id]; ok {
		// A concurrent request reloaded first; keep its copy.
		e.lastUsed = time.Now()
		return e, nil
	}
	e := &docEntry{doc: d, lastUsed: time.Now()}
	s.docs[id] = e
	s.logger.Debug("reloaded document", "id", id)
	return e, nil
}

// With runs fn holding the document's gate. Concurrent requests on
// one document queue here rather than failing.
func (s *DocStore) With(ctx context.Context, id string, fn func(*document.Document) error) error {
	e, err := s.entry(ctx, id)
	if err != nil {
		return err
	}

	e.gate.Lock()
	defer e.gate.Unlock()
	return fn(e.doc)
}

// Mutate runs fn under the gate and saves the rebuild script
// afterwards.
func (s *DocStore) Mutate(ctx context.Context, id string, fn func(*document.Document) error) error {
	return s.With(ctx, id, func(d *document.Document) error {
		if err := fn(d); err != nil {
			return err
		}
		// The working copy is authoritative; a failed save is
		// retried by the next mutation.
		if err := s.save(ctx, id, d); err != nil {
			s.logger.Error("saving document script", "id", id, "error", err)
		}
		return nil
	})
}

func (s *DocStore) save(ctx context.Context, id string, d *document.Document) error {
	if s.persist == nil {
		return nil
	}
	var b strings.Builder
	if err := d.SaveScript(&b); err != nil {
		return err
	}
	return s.persist.Save(ctx, id, b.String())
}

// Delete drops the document from memory and the persister.
func (s *DocStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	_, had := s.docs[id]
	delete(s.docs, id)
	s.mu.Unlock()

	if s.persist != nil {
		err := s.persist.Remove(ctx, id)
		if err != nil && !(had && errors.Is(err, errors.ErrCodeDocumentNotFound)) {
			return err
		}
		return nil
	}
	if !had {
		return notFoundDoc(id)
	}
	return nil
}

// Cleanup evicts documents idle for longer than the TTL and returns
// how many were dropped.
func (s *DocStore) Cleanup(ctx context.Context) int {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.docs {
		if e.lastUsed.Before(cutoff) {
			delete(s.docs, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Info("evicted idle documents", "count", n, "held", len(s.docs))
	}
	return n
}

// CleanupEvery sweeps on a ticker until ctx is cancelled. Run it in
// its own goroutine.
func (s *DocStore) CleanupEvery(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = DefaultCleanupEvery
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Cleanup(ctx)
		}
	}
}

// Len reports how many documents are held in memory.
func (s *DocStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Close drops all held documents and closes the persister.
func (s *DocStore) Close(ctx context.Context) error {
	s.mu.Lock()
	s.docs = make(map[string]*docEntry)
	s.mu.Unlock()

	if s.persist != nil {
		return s.persist.Close(ctx)
	}
	return nil
}
