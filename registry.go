package main

import (
	"sync"
)

// Registry owns the code-to-room map and is the sole authority for room
// creation and teardown. Constructed explicitly and handed to the connection
// layer so tests can run their own instances.
type Registry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	provider BoardProvider
}

func NewRegistry(provider BoardProvider) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		provider: provider,
	}
}

// Create allocates a unique code, builds a room with a fresh board, and
// registers it. The code stays reserved for the room's whole lifetime.
func (reg *Registry) Create(hostConnID, hostName string, mode GameMode) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := generateCode(func(candidate string) bool {
		_, exists := reg.rooms[candidate]
		return exists
	})
	if err != nil {
		return nil, err
	}

	room := newRoom(code, hostConnID, hostName, mode, reg.provider)
	reg.rooms[code] = room

	return room, nil
}

func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room, exists := reg.rooms[code]

	return room, exists
}

// Destroy removes a room. Destroying an unknown code is a no-op.
func (reg *Registry) Destroy(code string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	delete(reg.rooms, code)
}

func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return len(reg.rooms)
}
