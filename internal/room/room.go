package room

import "time"

type Visibility string

const (
	Public  Visibility = "public"
	Private Visibility = "private"
)

const (
	// DefaultRoomID is the well-known id of the shared public room a client
	// lands in when it supplies neither a room id nor a join code.
	DefaultRoomID       = "default-room"
	DefaultRoomName     = "Open Canvas"
	DefaultRoomCapacity = 8
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Participant is one roster row.
type Participant struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	Position   Point  `json:"position"`
	ScreenSlot string `json:"screenSlot"`
	Active     bool   `json:"active"`
	Color      string `json:"color"`
}

// Info is the wire-facing snapshot of a room.
type Info struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Visibility      Visibility    `json:"visibility"`
	JoinCode        string        `json:"joinCode,omitempty"`
	CreatorID       string        `json:"creatorId"`
	CreatedAt       time.Time     `json:"createdAt"`
	MaxParticipants int           `json:"maxParticipants"`
	Participants    []Participant `json:"participants"`
}

type state struct {
	id              string
	name            string
	visibility      Visibility
	joinCode        string
	creatorID       string
	createdAt       time.Time
	maxParticipants int
	participants    []Participant
	shapes          []Shape
	active          bool
}

func (r *state) info() Info {
	roster := make([]Participant, len(r.participants))
	copy(roster, r.participants)
	return Info{
		ID:              r.id,
		Name:            r.name,
		Visibility:      r.visibility,
		JoinCode:        r.joinCode,
		CreatorID:       r.creatorID,
		CreatedAt:       r.createdAt,
		MaxParticipants: r.maxParticipants,
		Participants:    roster,
	}
}
