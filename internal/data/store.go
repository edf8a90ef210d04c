package data

import (
	"strconv"
	"strings"
	"sync"
)

// Keys read from the override store.
const (
	KeyTimeStepMs      = "timeStepMs"
	KeyMMPerSecond     = "mmPerSecond"
	KeyDisableChunking = "DISABLE_CHUNKING"
)

// KeySoilSurface holds the serialized terrain triangles in the session store.
const KeySoilSurface = "soilSurfaceTriangles"

// Store is a string key/value store. The demo keeps one for user overrides
// and one per session.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStore returns a store seeded with initial.
func NewStore(initial map[string]string) *Store {
	s := &Store{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Int parses the leading integer of the value under key, the way a browser
// parseInt would. It returns def when the key is missing or has no digits.
func (s *Store) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	end := 0
	if end < len(v) && (v[0] == '-' || v[0] == '+') {
		end++
	}
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return def
	}
	return n
}

// Bool reports whether the value under key is exactly "true".
func (s *Store) Bool(key string) bool {
	v, _ := s.Get(key)
	return v == "true"
}
