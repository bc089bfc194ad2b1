package ws

import (
	"encoding/json"

	"drawcollab/internal/room"
)

// Envelope wraps every WS frame.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-originated message types.
const (
	TypeCreateRoom         = "create-room"
	TypeJoinRoom           = "join-room"
	TypeRequestSync        = "request-sync"
	TypeCursorMove         = "cursor-move"
	TypeShapeAdded         = "shape-added"
	TypeShapeUpdated       = "shape-updated"
	TypeShapesDeleted      = "shapes-deleted"
	TypeDrawingStart       = "drawing-start"
	TypeDrawingContinue    = "drawing-continue"
	TypeDrawingEnd         = "drawing-end"
	TypeHandTrackingStatus = "hand-tracking-status"
	TypeUserStatusUpdate   = "user-status-update"
	TypeAIImageGenerated   = "ai-image-generated"
	TypeWebcamOffer        = "webcam-offer"
	TypeWebcamAnswer       = "webcam-answer"
	TypeWebcamICECandidate = "webcam-ice-candidate"
)

// Server-originated message types.
const (
	TypeRoomCreated        = "room-created"
	TypeRoomAvailable      = "room-available"
	TypeRoomJoined         = "room-joined"
	TypeParticipantsUpdate = "participants-update"
	TypeUserJoined         = "user-joined"
	TypeUserLeft           = "user-left"
	TypeSyncCanvas         = "sync-canvas"
	TypeError              = "error"
)

type CreateRoomRequest struct {
	RoomName        string          `json:"roomName"`
	Visibility      room.Visibility `json:"visibility"`
	MaxParticipants int             `json:"maxParticipants"`
	UserID          string          `json:"userId"`
	UserName        string          `json:"userName"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"roomId,omitempty"`
	JoinCode   string `json:"joinCode,omitempty"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	ScreenSlot string `json:"screenSlot,omitempty"`
}

type CursorMove struct {
	UserID string  `json:"userId,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type (
	ShapeEvent struct {
		Shape room.Shape `json:"shape"`
	}
	ShapesDeleted struct {
		ShapeIDs []string `json:"shapeIds"`
	}
)

// UserStatusUpdate is relayed opaquely; the router only reads the webcam
// flag to keep the connection's status current.
type UserStatusUpdate struct {
	UserID        string `json:"userId,omitempty"`
	WebcamEnabled *bool  `json:"webcamEnabled,omitempty"`
}

// SignalBody is the only part of a signaling payload the relay inspects;
// the negotiation fields pass through untouched.
type SignalBody struct {
	TargetUserID string `json:"targetUserId"`
}

type (
	RoomCreated struct {
		Room room.Info `json:"room"`
	}
	RoomAvailable struct {
		Room room.Info `json:"room"`
	}
)

type RoomJoined struct {
	Room room.Info        `json:"room"`
	Self room.Participant `json:"self"`
}

type ParticipantsUpdate struct {
	RoomID       string             `json:"roomId"`
	Participants []room.Participant `json:"participants"`
}

type UserJoined struct {
	RoomID      string           `json:"roomId"`
	Participant room.Participant `json:"participant"`
}

type UserLeft struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

type SyncCanvas struct {
	RoomID string       `json:"roomId"`
	Shapes []room.Shape `json:"shapes"`
}

// ErrorBody is returned for failures surfaced to the sender.
type ErrorBody struct {
	Message  string `json:"message"`
	RoomID   string `json:"roomId,omitempty"`
	JoinCode string `json:"joinCode,omitempty"`
}

func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: msgType, Payload: body})
}
