package cache

import (
	"context"
	"fmt"
	"sync"

	"stringtable-translator/internal/textutil"
	"stringtable-translator/internal/translation"

	"github.com/rs/zerolog/log"
)

// Record is one remembered translation.
type Record struct {
	Hash       string
	From       string
	To         string
	Source     string
	Translated string
}

// Store persists translation records.
type Store interface {
	Get(ctx context.Context, hash string) (string, bool, error)
	Upsert(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
}

// TranslationCache provides in-memory caching for translations, optionally
// backed by a Store.
type TranslationCache struct {
	store  Store
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// NewTranslationCache creates a cache. A nil store keeps it in memory only.
func NewTranslationCache(store Store) *TranslationCache {
	return &TranslationCache{
		store:  store,
		memory: make(map[string]string),
	}
}

func key(source, from, to string) string {
	return textutil.Hash(from, to, source)
}

// Get retrieves a cached translation. Returns empty string and false if not found.
func (c *TranslationCache) Get(ctx context.Context, source, from, to string) (string, bool) {
	hash := key(source, from, to)

	// Check in-memory cache first.
	c.mu.RLock()
	if v, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.store == nil {
		return "", false
	}

	translated, ok, err := c.store.Get(ctx, hash)
	if err != nil {
		log.Warn().Err(err).Msg("Translation memory lookup failed")
		return "", false
	}
	if !ok {
		return "", false
	}

	// Populate in-memory cache.
	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set stores a translation in memory and in the backing store.
func (c *TranslationCache) Set(ctx context.Context, source, from, to, translated string) error {
	hash := key(source, from, to)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}

	err := c.store.Upsert(ctx, Record{
		Hash:       hash,
		From:       from,
		To:         to,
		Source:     source,
		Translated: translated,
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	return nil
}

// Preload loads all stored translations into memory.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	rows, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		c.memory[row.Hash] = row.Translated
	}

	log.Info().Int("count", len(rows)).Msg("Preloaded translation cache")
	return nil
}

// Len returns the number of translations held in memory.
func (c *TranslationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}

// CachingTranslator consults the cache before calling the wrapped Translator
// and remembers every successful result.
type CachingTranslator struct {
	next  translation.Translator
	cache *TranslationCache
}

func NewCachingTranslator(next translation.Translator, cache *TranslationCache) *CachingTranslator {
	return &CachingTranslator{next: next, cache: cache}
}

func (t *CachingTranslator) Translate(ctx context.Context, query, from, to string) (string, error) {
	if v, ok := t.cache.Get(ctx, query, from, to); ok {
		log.Debug().Str("text", textutil.Truncate(query, 40)).Msg("Translation memory hit")
		return v, nil
	}

	translated, err := t.next.Translate(ctx, query, from, to)
	if err != nil {
		return "", err
	}

	if err := t.cache.Set(ctx, query, from, to, translated); err != nil {
		log.Warn().Err(err).Msg("Failed to cache translation")
	}
	return translated, nil
}
