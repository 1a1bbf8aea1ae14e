package rooms

import (
	"sort"
	"sync"
	"time"

	"pdfsync-server/core"

	"github.com/sirupsen/logrus"
)

type roomState struct {
	currentPage int
	documentURL string
	ownerID     string
	members     map[string]struct{}
	lastActive  int64
}

// Registry is the authoritative in-memory room map. Every mutation goes
// through the one mutex; page state additionally has a single writer (the
// room owner), so followers can never race each other into CurrentPage.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*roomState
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*roomState),
	}
}

// Create inserts a new room owned by ownerConnID and counts the owner as a
// member. Creating an id that already exists is a no-op that keeps the
// original owner; the duplicate caller is not joined. Returns whether the
// room was created.
func (r *Registry) Create(id, ownerConnID string) bool {
	if id == "" || ownerConnID == "" {
		logrus.WithFields(logrus.Fields{
			"room_id":       id,
			"connection_id": ownerConnID,
		}).Warn("Room create with empty id dropped")
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[id]; ok {
		logrus.WithFields(logrus.Fields{
			"room_id":       id,
			"connection_id": ownerConnID,
		}).Debug("Room already exists, keeping original owner")
		return false
	}

	r.rooms[id] = &roomState{
		currentPage: 1,
		ownerID:     ownerConnID,
		members:     map[string]struct{}{ownerConnID: {}},
		lastActive:  time.Now().UnixMilli(),
	}

	logrus.WithFields(logrus.Fields{
		"room_id": id,
		"owner":   ownerConnID,
	}).Info("Room created")
	return true
}

// Get returns a copy of the room's state.
func (r *Registry) Get(id string) (core.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.rooms[id]
	if !ok {
		return core.Room{}, false
	}
	return r.snapshot(id, state), true
}

// SetPage moves the room to page. It applies only when the room exists, the
// requester is the owner, and page is at least 1; otherwise the room is
// untouched and false is returned. Callers decide whether to log the drop.
func (r *Registry) SetPage(id string, page int, requesterConnID string) bool {
	if page < 1 {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[id]
	if !ok || state.ownerID != requesterConnID {
		return false
	}

	state.currentPage = page
	state.lastActive = time.Now().UnixMilli()
	return true
}

// SetDocument assigns a document locator to the room and resets the page
// position to 1. There is no ownership check here; the upload endpoint has
// already validated the room.
func (r *Registry) SetDocument(id, locator string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[id]
	if !ok {
		return false
	}

	state.documentURL = locator
	state.currentPage = 1
	state.lastActive = time.Now().UnixMilli()

	logrus.WithFields(logrus.Fields{
		"room_id": id,
		"locator": locator,
	}).Info("Document assigned to room")
	return true
}

// Join adds connID to the room's member set. Joining an unknown room does
// not create it.
func (r *Registry) Join(id, connID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[id]
	if !ok {
		return false
	}

	state.members[connID] = struct{}{}
	state.lastActive = time.Now().UnixMilli()
	return true
}

// Leave removes connID from the room's member set. Rooms survive their last
// member leaving, owner included; a later join still sees the room's page
// and document.
func (r *Registry) Leave(id, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.rooms[id]
	if !ok {
		return
	}
	delete(state.members, connID)
}

// Touch bumps the room's last-active timestamp.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.rooms[id]; ok {
		state.lastActive = time.Now().UnixMilli()
	}
}

// List returns all rooms sorted by member count, then recency, then id.
func (r *Registry) List() []core.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]core.Room, 0, len(r.rooms))
	for id, state := range r.rooms {
		list = append(list, r.snapshot(id, state))
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Users == list[j].Users {
			if list[i].LastActive == list[j].LastActive {
				return list[i].ID < list[j].ID
			}
			return list[i].LastActive > list[j].LastActive
		}
		return list[i].Users > list[j].Users
	})

	return list
}

func (r *Registry) snapshot(id string, state *roomState) core.Room {
	return core.Room{
		ID:          id,
		CurrentPage: state.currentPage,
		DocumentURL: state.documentURL,
		OwnerID:     state.ownerID,
		Users:       len(state.members),
		LastActive:  state.lastActive,
	}
}
