package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopherai-pdfchat/internal/ai"
)

type fakeFileStore struct {
	mu      sync.Mutex
	seq     int
	files   map[string][]byte
	removed []string
	saveErr error
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: make(map[string][]byte)}
}

func (f *fakeFileStore) Save(filename string, r io.Reader) (string, int64, error) {
	if f.saveErr != nil {
		return "", 0, f.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	path := fmt.Sprintf("uploads/%08d_%s", f.seq, filename)
	f.files[path] = data
	return path, int64(len(data)), nil
}

func (f *fakeFileStore) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, path)
	delete(f.files, path)
	return nil
}

func (f *fakeFileStore) exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

// fakeExtractor returns the stored bytes as text, one page per upload.
type fakeExtractor struct {
	files *fakeFileStore
}

func (e fakeExtractor) Extract(path string) (string, int) {
	e.files.mu.Lock()
	defer e.files.mu.Unlock()
	data, ok := e.files.files[path]
	if !ok {
		return "", 0
	}
	return string(data), 1
}

type fakeCompleter struct {
	reply string
	err   error
	calls [][]ai.ChatMessage
}

func (c *fakeCompleter) Complete(_ context.Context, messages []ai.ChatMessage) (string, error) {
	c.calls = append(c.calls, messages)
	return c.reply, c.err
}

var errUpstream = errors.New("upstream unavailable")
