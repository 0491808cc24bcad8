package generation

import (
	"context"
	"errors"
	"sync"

	"github.com/mandalnilabja/pixelrelay/internal/storage"
	"github.com/mandalnilabja/pixelrelay/internal/storage/memory"
	"github.com/mandalnilabja/pixelrelay/internal/types"
)

// fakeGenerator returns a canned result or error and records payloads.
type fakeGenerator struct {
	mu       sync.Mutex
	result   types.UpstreamResult
	err      error
	payloads []types.GenerationPayload
}

func (f *fakeGenerator) Generate(_ context.Context, p types.GenerationPayload) (types.UpstreamResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	if f.err != nil {
		return nil, f.err
	}
	out := types.UpstreamResult{}
	for k, v := range f.result {
		out[k] = v
	}
	return out, nil
}

// fakeRelay returns url or err and records calls.
type fakeRelay struct {
	url   string
	err   error
	calls []string
}

func (f *fakeRelay) Relay(_ context.Context, imageURL, outputFormat string) (string, error) {
	f.calls = append(f.calls, imageURL+"|"+outputFormat)
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// failingStore fails every operation.
type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Append(context.Context, storage.Stream, any) error { return errStore }
func (failingStore) Recent(context.Context, storage.Stream, int) ([]storage.Record, error) {
	return nil, errStore
}

func newMemoryStore() *storage.Store {
	return storage.NewStore(memory.New(), 100)
}
