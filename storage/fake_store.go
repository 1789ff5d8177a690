package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/gitpress/gitpress/model"
)

// FakeStore is an in-memory DurableStore for tests. Revision tokens are
// monotonically increasing per store, write failures can be injected.
type FakeStore struct {
	mu       sync.Mutex
	records  map[string]fakeRecord
	revision int

	// FailWrites makes Write fail without mutating anything.
	FailWrites bool
	// FailDeletes makes Delete fail without mutating anything.
	FailDeletes bool
	// LastMessage and LastAuthor record the most recent write attribution.
	LastMessage string
	LastAuthor  *model.Author
}

type fakeRecord struct {
	content []byte
	token   string
}

func NewFakeStore() *FakeStore {
	return &FakeStore{records: make(map[string]fakeRecord)}
}

// Put seeds a record directly, bypassing failure injection.
func (f *FakeStore) Put(path string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revision++
	f.records[path] = fakeRecord{content: content, token: fmt.Sprintf("rev-%d", f.revision)}
}

func (f *FakeStore) Read(ctx context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[path]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.content, nil
}

func (f *FakeStore) Write(ctx context.Context, path string, content []byte, message string, revisionToken string, author *model.Author) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrites {
		return errors.New("injected write failure")
	}
	f.revision++
	f.records[path] = fakeRecord{content: content, token: fmt.Sprintf("rev-%d", f.revision)}
	f.LastMessage = message
	f.LastAuthor = author
	return nil
}

func (f *FakeStore) Delete(ctx context.Context, path string, revisionToken string, message string, author *model.Author) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDeletes {
		return errors.New("injected delete failure")
	}
	if _, ok := f.records[path]; !ok {
		return ErrNotFound
	}
	delete(f.records, path)
	f.LastMessage = message
	f.LastAuthor = author
	return nil
}

func (f *FakeStore) ListDirectory(ctx context.Context, path string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	entries := []Entry{}
	for p := range f.records {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		entries = append(entries, Entry{Name: strings.TrimPrefix(p, prefix), Path: p})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (f *FakeStore) GetRevisionToken(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[path]
	if !ok {
		return "", ErrNotFound
	}
	return rec.token, nil
}
