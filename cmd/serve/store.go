package main

import (
    "fmt"
    "os"
    "sync"
    "time"

    "ratesgen/internal/rates"
)

// artifactStore serves the published file, re-reading it only when its
// modification time or size changes.
type artifactStore struct {
    path string

    mu      sync.RWMutex
    modTime time.Time
    size    int64
    raw     []byte
    payload *rates.Payload
}

func newArtifactStore(path string) *artifactStore {
    return &artifactStore{path: path}
}

// load returns the current artifact bytes and their decoded form.
func (s *artifactStore) load() ([]byte, *rates.Payload, error) {
    fi, err := os.Stat(s.path)
    if err != nil {
        return nil, nil, err
    }

    s.mu.RLock()
    if s.payload != nil && fi.ModTime().Equal(s.modTime) && fi.Size() == s.size {
        raw, p := s.raw, s.payload
        s.mu.RUnlock()
        return raw, p, nil
    }
    s.mu.RUnlock()

    raw, err := os.ReadFile(s.path)
    if err != nil {
        return nil, nil, err
    }
    p, err := rates.Decode(raw)
    if err != nil {
        return nil, nil, fmt.Errorf("decode %s: %w", s.path, err)
    }

    s.mu.Lock()
    s.modTime, s.size, s.raw, s.payload = fi.ModTime(), fi.Size(), raw, p
    s.mu.Unlock()
    return raw, p, nil
}
