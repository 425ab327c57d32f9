package testfixtures

import (
	"context"
	"sync"
)

// KV is an in-memory key/value backend for store tests. Errors can be
// injected per operation to exercise fail-soft paths.
type KV struct {
	mu     sync.Mutex
	values map[string]string

	GetErr    error
	PutErr    error
	DeleteErr error
}

// NewKV returns an empty in-memory key/value backend.
func NewKV() *KV {
	return &KV{values: map[string]string{}}
}

// Get returns the stored value and whether the key was present.
func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.GetErr != nil {
		return "", false, k.GetErr
	}
	value, ok := k.values[key]
	return value, ok, nil
}

// Put stores the value under key.
func (k *KV) Put(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.PutErr != nil {
		return k.PutErr
	}
	k.values[key] = value
	return nil
}

// Delete removes the key if present.
func (k *KV) Delete(ctx context.Context, key string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.DeleteErr != nil {
		return k.DeleteErr
	}
	delete(k.values, key)
	return nil
}

// Set seeds a value directly, bypassing injected errors.
func (k *KV) Set(key, value string) {
	k.mu.Lock()
	k.values[key] = value
	k.mu.Unlock()
}

// Value reads a stored value directly, bypassing injected errors.
func (k *KV) Value(key string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	value, ok := k.values[key]
	return value, ok
}
