package room

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrInvalidJoinCode    = errors.New("invalid join code")
	ErrRoomFull           = errors.New("room is full")
	ErrCodeSpaceExhausted = errors.New("join code space exhausted")
)

const joinCodeAttempts = 100

// Store owns every room, its roster and its shape collection. One lock
// covers all of it: join, leave and shape mutations are atomic with
// respect to each other, which is what keeps slot assignment and roster
// updates consistent under concurrent senders.
type Store struct {
	mu    sync.RWMutex
	rooms map[string]*state
	codes map[string]string // join code -> room id
}

func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*state),
		codes: make(map[string]string),
	}
}

// CreateRoom registers a new room. Private rooms get a fixed-width numeric
// join code, re-drawn on collision against all live codes.
func (s *Store) CreateRoom(name string, visibility Visibility, maxParticipants int, creatorID string) (Info, error) {
	if maxParticipants <= 0 {
		maxParticipants = DefaultRoomCapacity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := &state{
		id:              uuid.New().String(),
		name:            name,
		visibility:      visibility,
		creatorID:       creatorID,
		createdAt:       time.Now(),
		maxParticipants: maxParticipants,
		active:          true,
	}

	if visibility == Private {
		code, err := s.drawJoinCode()
		if err != nil {
			return Info{}, err
		}
		r.joinCode = code
		s.codes[code] = r.id
	}

	s.rooms[r.id] = r
	return r.info(), nil
}

// drawJoinCode draws 6-digit codes until one is free. Caller holds s.mu.
// Exhaustion is surfaced as an explicit error rather than a crash.
func (s *Store) drawJoinCode() (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		if _, taken := s.codes[code]; !taken {
			return code, nil
		}
	}
	zap.L().Error("join_code_space_exhausted", zap.Int("attempts", joinCodeAttempts))
	return "", ErrCodeSpaceExhausted
}

// ResolveJoinTarget maps a join request onto a room id. A join code wins
// over an explicit room id; with neither, the default public room is the
// target and is lazily created on first reference. Not-found on an
// explicit code or id is reported, never redirected to the default room.
func (s *Store) ResolveJoinTarget(joinCode, roomID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case joinCode != "":
		id, ok := s.codes[joinCode]
		if !ok {
			return "", ErrInvalidJoinCode
		}
		return id, nil

	case roomID != "":
		if roomID == DefaultRoomID {
			s.ensureDefaultRoom()
			return DefaultRoomID, nil
		}
		if _, ok := s.rooms[roomID]; !ok {
			return "", ErrRoomNotFound
		}
		return roomID, nil

	default:
		s.ensureDefaultRoom()
		return DefaultRoomID, nil
	}
}

// ensureDefaultRoom creates the well-known public room once. Caller holds s.mu.
func (s *Store) ensureDefaultRoom() {
	if _, ok := s.rooms[DefaultRoomID]; ok {
		return
	}
	s.rooms[DefaultRoomID] = &state{
		id:              DefaultRoomID,
		name:            DefaultRoomName,
		visibility:      Public,
		createdAt:       time.Now(),
		maxParticipants: DefaultRoomCapacity,
		active:          true,
	}
	zap.L().Info("default_room_created", zap.String("room_id", DefaultRoomID))
}

// Join admits a participant, assigning a screen slot and a color. Rejects
// with ErrRoomFull when the roster is at capacity; the roster is untouched
// on rejection.
func (s *Store) Join(roomID, userID, userName, requestedSlot string) (Participant, Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Participant{}, Info{}, ErrRoomNotFound
	}
	if len(r.participants) >= r.maxParticipants {
		return Participant{}, Info{}, ErrRoomFull
	}

	p := Participant{
		UserID:     userID,
		UserName:   userName,
		ScreenSlot: allocateSlot(r.participants, requestedSlot),
		Active:     true,
		Color:      pickColor(),
	}
	r.participants = append(r.participants, p)
	return p, r.info(), nil
}

// Leave removes a participant. An empty private room is deleted together
// with its join code and shape collection; public rooms are kept forever.
// Returns the post-leave snapshot and whether the room was deleted.
func (s *Store) Leave(roomID, userID string) (Info, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Info{}, false, ErrRoomNotFound
	}

	kept := r.participants[:0]
	for _, p := range r.participants {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	r.participants = kept

	if r.visibility == Private && len(r.participants) == 0 {
		delete(s.rooms, roomID)
		delete(s.codes, r.joinCode)
		r.active = false
		zap.L().Info("room_deleted", zap.String("room_id", roomID))
		return r.info(), true, nil
	}
	return r.info(), false, nil
}

// Room returns a snapshot of one room.
func (s *Store) Room(roomID string) (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return Info{}, false
	}
	return r.info(), true
}

// Participants returns the roster snapshot of one room.
func (s *Store) Participants(roomID string) []Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Participant, len(r.participants))
	copy(out, r.participants)
	return out
}

// PublicRooms lists discoverable rooms for the lobby.
func (s *Store) PublicRooms() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0)
	for _, r := range s.rooms {
		if r.visibility == Public {
			out = append(out, r.info())
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
