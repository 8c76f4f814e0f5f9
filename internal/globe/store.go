// Package globe builds the full 24-tile cube-sphere globe and keeps the
// encoded tiles in memory for the HTTP tile endpoint.
package globe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/globe-mesh/internal/cubesphere"
)

// TileCount is the number of tiles in a complete globe.
var TileCount = len(cubesphere.Faces) * len(cubesphere.Quadrants)

// ErrTileNotFound is returned for a face/quadrant pair that has not been built.
var ErrTileNotFound = errors.New("tile not found")

// TileKey identifies one tile: a face name ("+x" ... "-z") and quadrant index.
type TileKey struct {
	Face     string
	Quadrant int
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s/%d", k.Face, k.Quadrant)
}

// Tile is an encoded tile with its summary.
type Tile struct {
	Key       TileKey
	Data      []byte
	Vertices  int
	Triangles int
	Stats     cubesphere.FaceStats
}

// Store holds built tiles. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	tiles    map[TileKey]Tile
	complete atomic.Bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{tiles: make(map[TileKey]Tile, TileCount)}
}

// Put adds or replaces a tile.
func (s *Store) Put(t Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiles[t.Key] = t
}

// Get returns the tile for face and quadrant.
func (s *Store) Get(face string, quadrant int) (Tile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tiles[TileKey{Face: face, Quadrant: quadrant}]
	if !ok {
		return Tile{}, fmt.Errorf("%w: %s/%d", ErrTileNotFound, face, quadrant)
	}
	return t, nil
}

// Bytes returns the total size of the encoded tiles.
func (s *Store) Bytes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.tiles {
		n += len(t.Data)
	}
	return n
}

// Len returns the number of stored tiles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tiles)
}

// Keys returns the stored tile keys in face then quadrant order.
func (s *Store) Keys() []TileKey {
	s.mu.RLock()
	keys := make([]TileKey, 0, len(s.tiles))
	for k := range s.tiles {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Face != keys[j].Face {
			return keys[i].Face < keys[j].Face
		}
		return keys[i].Quadrant < keys[j].Quadrant
	})
	return keys
}

func (s *Store) markComplete() {
	s.complete.Store(true)
}

// CheckReadiness returns nil once a build has stored every tile.
func (s *Store) CheckReadiness(_ context.Context) error {
	if !s.complete.Load() {
		return fmt.Errorf("globe not built: %d of %d tiles ready", s.Len(), TileCount)
	}
	return nil
}
