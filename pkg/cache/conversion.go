// Package cache provides caching utilities for the application.
// This file contains the conversion-result cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kaivue/flowscript/pkg/converter"
)

// ConversionEntry is one cached conversion. The result is stored as its JSON
// encoding rather than the live struct, so the function definition's custom
// marshaling survives the msgpack round trip untouched.
type ConversionEntry struct {
	SourceHash string `msgpack:"source_hash"`
	ResultJSON []byte `msgpack:"result_json"`
	CreatedAt  int64  `msgpack:"created_at"`
}

// ConversionKey derives the cache key for a source and its conversion
// options. Different naming options convert to different definitions, so the
// options participate in the hash.
func ConversionKey(source string, opts converter.Options) string {
	h := sha256.New()
	h.Write([]byte(source))
	h.Write([]byte{0})
	h.Write([]byte(opts.FunctionName))
	h.Write([]byte{0})
	h.Write([]byte(opts.Namespace))
	return hex.EncodeToString(h.Sum(nil))
}

// ConversionCacheOptions configures the conversion cache.
type ConversionCacheOptions struct {
	MaxEntries     int
	MaxMemoryBytes int64
}

// ConversionCache caches conversion results keyed by source hash. It wraps
// the LRU cache so rarely reconverted handlers age out first.
type ConversionCache struct {
	cache *StatsCache
}

// NewConversionCache creates a conversion cache.
func NewConversionCache(opts ConversionCacheOptions) *ConversionCache {
	maxBytes := opts.MaxMemoryBytes
	if maxBytes == 0 {
		maxBytes = 50 * 1024 * 1024
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = 10000
	}
	return &ConversionCache{
		cache: NewStatsCache(Options{
			MaxSize:  opts.MaxEntries,
			MaxBytes: maxBytes,
		}),
	}
}

// Get retrieves a cached result for a key. The stored JSON is decoded into a
// fresh Result so callers can mutate it freely.
func (cc *ConversionCache) Get(key string) (*converter.Result, bool) {
	value, found := cc.cache.Get(key)
	if !found {
		return nil, false
	}
	entry, ok := value.(ConversionEntry)
	if !ok {
		return nil, false
	}
	var result converter.Result
	if err := json.Unmarshal(entry.ResultJSON, &result); err != nil {
		cc.cache.Delete(key)
		return nil, false
	}
	return &result, true
}

// Set stores a conversion result under a key.
func (cc *ConversionCache) Set(key string, result *converter.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding conversion result: %w", err)
	}
	cc.cache.Set(key, ConversionEntry{
		SourceHash: key,
		ResultJSON: data,
		CreatedAt:  time.Now().Unix(),
	})
	return nil
}

// Delete removes an entry.
func (cc *ConversionCache) Delete(key string) {
	cc.cache.Delete(key)
}

// Clear removes all entries.
func (cc *ConversionCache) Clear() {
	cc.cache.Clear()
	cc.cache.ResetStats()
}

// Len returns the number of cached conversions.
func (cc *ConversionCache) Len() int {
	return cc.cache.Len()
}

// Stats returns hit/miss statistics.
func (cc *ConversionCache) Stats() Stats {
	return cc.cache.Stats()
}

// ConversionStore wraps a ConversionCache with file persistence, so batch
// runs can reuse results across invocations.
type ConversionStore struct {
	cache *ConversionCache
	mu    sync.RWMutex
	path  string
}

// NewConversionStore creates a store persisting at path. An empty path
// disables persistence.
func NewConversionStore(opts ConversionCacheOptions, path string) *ConversionStore {
	return &ConversionStore{
		cache: NewConversionCache(opts),
		path:  path,
	}
}

// Get retrieves a cached result.
func (cs *ConversionStore) Get(key string) (*converter.Result, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cache.Get(key)
}

// Set stores a result.
func (cs *ConversionStore) Set(key string, result *converter.Result) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.cache.Set(key, result)
}

// Len returns the number of cached conversions.
func (cs *ConversionStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cache.Len()
}

// Stats returns hit/miss statistics.
func (cs *ConversionStore) Stats() Stats {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.cache.Stats()
}

// Save persists the store to disk.
func (cs *ConversionStore) Save() error {
	if cs.path == "" {
		return errors.New("no persistence path set")
	}
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	f, err := os.Create(cs.path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	return cs.saveTo(f)
}

// Load restores the store from disk. A missing file is not an error.
func (cs *ConversionStore) Load() error {
	if cs.path == "" {
		return nil
	}

	f, err := os.Open(cs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.loadFrom(f)
}

type conversionStoreData struct {
	Version int                        `msgpack:"version"`
	Entries map[string]ConversionEntry `msgpack:"entries"`
}

func (cs *ConversionStore) saveTo(w io.Writer) error {
	data := conversionStoreData{
		Version: 1,
		Entries: make(map[string]ConversionEntry),
	}

	lru := cs.cache.cache.LRUCache
	lru.mu.RLock()
	for _, item := range lru.items {
		if entry, ok := item.Value.(ConversionEntry); ok {
			data.Entries[entry.SourceHash] = entry
		}
	}
	lru.mu.RUnlock()

	return msgpack.NewEncoder(w).Encode(data)
}

func (cs *ConversionStore) loadFrom(r io.Reader) error {
	var data conversionStoreData
	if err := msgpack.NewDecoder(r).Decode(&data); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}
	for key, entry := range data.Entries {
		cs.cache.cache.Set(key, entry)
	}
	return nil
}
