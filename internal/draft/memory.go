package draft

import "sync"

// MemoryBackend keeps drafts in process memory.
type MemoryBackend struct {
	mu sync.Mutex
	m  map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{m: map[string]map[string][]byte{}}
}

func (b *MemoryBackend) Get(scope, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.m[scope][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBackend) Set(scope, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m[scope] == nil {
		b.m[scope] = map[string][]byte{}
	}
	b.m[scope][key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Remove(scope string, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.m[scope], k)
	}
	return nil
}

func (b *MemoryBackend) Close() error { return nil }
