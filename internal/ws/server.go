package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"drawcollab/internal/registry"
	"drawcollab/internal/room"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the accept path and the message router. Every inbound frame
// is handled to completion on its connection's reader goroutine; shared
// state lives behind the registry and room store.
type Server struct {
	registry *registry.Registry
	rooms    *room.Store
	router   *Router
	counters *Counters
}

func NewServer(reg *registry.Registry, rooms *room.Store) *Server {
	srv := &Server{
		registry: reg,
		rooms:    rooms,
		router:   NewRouter(),
		counters: NewCounters(),
	}
	srv.registerHandlers()
	return srv
}

func (s *Server) Stats() Stats {
	return Stats{
		ActiveConnections: s.registry.Len(),
		ActiveRooms:       s.rooms.Len(),
		MessagesRouted:    s.counters.Snapshot(),
	}
}

func (s *Server) Handle(ginCtx *gin.Context) {
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.upgrade", zap.Error(err))
		return
	}

	conn := newClientConn(rawConn)
	connID := s.registry.Register(conn)
	zap.L().Info("ws.connected", zap.String("conn_id", connID))

	go conn.writePump()
	s.reader(connID, conn)
}

func (s *Server) reader(connID string, conn *clientConn) {
	defer s.disconnect(connID, conn)

	conn.rawConn.SetReadLimit(readLimit)
	_ = conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	conn.rawConn.SetPongHandler(func(string) error {
		return conn.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				zap.L().Debug("ws.read", zap.String("conn_id", connID), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			// Malformed frame: log, drop, keep the connection open.
			zap.L().Warn("ws.frame_malformed", zap.String("conn_id", connID), zap.Error(err))
			continue
		}
		s.counters.Inc(env.Type)

		cc := &ConnContext{ConnID: connID, conn: conn, raw: frame}
		if err := s.router.dispatch(cc, env); err != nil {
			var re *routeError
			switch {
			case errors.As(err, &re):
				s.sendError(conn, re)
			case errors.Is(err, ErrUnknownType):
				zap.L().Warn("ws.unknown_type", zap.String("conn_id", connID), zap.String("type", env.Type))
			default:
				zap.L().Warn("ws.dispatch", zap.String("conn_id", connID), zap.String("type", env.Type), zap.Error(err))
			}
		}
	}
}

// disconnect runs the full leave path: room-side cleanup and departure
// broadcasts first, then the registry entry goes away.
func (s *Server) disconnect(connID string, conn *clientConn) {
	if entry, ok := s.registry.Lookup(connID); ok && entry.RoomID != "" {
		s.leaveRoom(entry)
	}
	s.registry.Unregister(connID)
	conn.close()
	zap.L().Info("ws.disconnected", zap.String("conn_id", connID))
}

// leaveRoom removes the participant from its room and notifies the
// remaining members. An emptied private room is deleted by the store, in
// which case there is nobody left to notify.
func (s *Server) leaveRoom(entry registry.Conn) {
	info, deleted, err := s.rooms.Leave(entry.RoomID, entry.UserID)
	if err != nil {
		return
	}
	s.registry.ClearRoom(entry.ID)
	zap.L().Info("room.left",
		zap.String("room_id", entry.RoomID),
		zap.String("user_id", entry.UserID),
		zap.Bool("room_deleted", deleted))
	if deleted {
		return
	}

	s.broadcastToRoom(entry.RoomID, entry.UserID, TypeUserLeft, UserLeft{
		RoomID:   entry.RoomID,
		UserID:   entry.UserID,
		UserName: entry.UserName,
	})
	s.broadcastToRoom(entry.RoomID, entry.UserID, TypeParticipantsUpdate, ParticipantsUpdate{
		RoomID:       entry.RoomID,
		Participants: info.Participants,
	})
}

func (s *Server) registerHandlers() {
	RegisterHandler(s.router, TypeCreateRoom, s.handleCreateRoom)
	RegisterHandler(s.router, TypeJoinRoom, s.handleJoinRoom)
	RegisterHandler(s.router, TypeRequestSync, func(c *ConnContext, _ struct{}) error {
		return s.handleRequestSync(c)
	})
	RegisterHandler(s.router, TypeCursorMove, s.handleCursorMove)
	RegisterHandler(s.router, TypeShapeAdded, s.handleShapeAdded)
	RegisterHandler(s.router, TypeShapeUpdated, s.handleShapeUpdated)
	RegisterHandler(s.router, TypeShapesDeleted, s.handleShapesDeleted)
	RegisterHandler(s.router, TypeUserStatusUpdate, s.handleUserStatus)

	// Pure room-scoped relays, no state mutation.
	for _, t := range []string{
		TypeDrawingStart, TypeDrawingContinue, TypeDrawingEnd,
		TypeHandTrackingStatus, TypeAIImageGenerated,
	} {
		s.router.RegisterRaw(t, s.relayToRoom)
	}

	s.registerSignal(TypeWebcamOffer)
	s.registerSignal(TypeWebcamAnswer)
	s.registerSignal(TypeWebcamICECandidate)
}

func (s *Server) handleCreateRoom(c *ConnContext, req CreateRoomRequest) error {
	if req.RoomName == "" {
		return &routeError{message: "roomName is required"}
	}
	visibility := req.Visibility
	if visibility != room.Private {
		visibility = room.Public
	}

	info, err := s.rooms.CreateRoom(req.RoomName, visibility, req.MaxParticipants, req.UserID)
	if err != nil {
		return &routeError{message: err.Error()}
	}
	zap.L().Info("room.created",
		zap.String("room_id", info.ID),
		zap.String("visibility", string(visibility)),
		zap.String("creator_id", req.UserID))

	s.sendTo(c.conn, TypeRoomCreated, RoomCreated{Room: info})
	if visibility == room.Public {
		s.broadcastGlobal(c.ConnID, TypeRoomAvailable, RoomAvailable{Room: info})
	}
	return nil
}

func (s *Server) handleJoinRoom(c *ConnContext, req JoinRoomRequest) error {
	if req.UserID == "" {
		return &routeError{message: "userId is required"}
	}

	targetID, err := s.rooms.ResolveJoinTarget(req.JoinCode, req.RoomID)
	switch {
	case errors.Is(err, room.ErrInvalidJoinCode):
		return &routeError{message: "invalid join code", joinCode: req.JoinCode}
	case errors.Is(err, room.ErrRoomNotFound):
		return &routeError{message: "room not found", roomID: req.RoomID}
	case err != nil:
		return err
	}

	// A re-join replaces the previous membership. Reject a full target
	// before touching the old one, so a doomed join does not leave the
	// sender roomless; re-joining the own room is exempt, since leaving
	// frees the seat.
	entry, hasEntry := s.registry.Lookup(c.ConnID)
	if snap, ok := s.rooms.Room(targetID); ok &&
		len(snap.Participants) >= snap.MaxParticipants &&
		!(hasEntry && entry.RoomID == targetID) {
		return &routeError{message: "room is full", roomID: targetID}
	}
	if hasEntry && entry.RoomID != "" {
		s.leaveRoom(entry)
	}

	self, info, err := s.rooms.Join(targetID, req.UserID, req.UserName, req.ScreenSlot)
	switch {
	case errors.Is(err, room.ErrRoomFull):
		return &routeError{message: "room is full", roomID: targetID}
	case errors.Is(err, room.ErrRoomNotFound):
		return &routeError{message: "room not found", roomID: targetID}
	case err != nil:
		return err
	}
	s.registry.SetIdentity(c.ConnID, req.UserID, req.UserName, targetID, self.ScreenSlot, self.Color)
	zap.L().Info("room.joined",
		zap.String("room_id", targetID),
		zap.String("user_id", req.UserID),
		zap.String("screen_slot", self.ScreenSlot))

	s.sendTo(c.conn, TypeRoomJoined, RoomJoined{Room: info, Self: self})
	s.broadcastToRoom(targetID, "", TypeParticipantsUpdate, ParticipantsUpdate{
		RoomID:       targetID,
		Participants: info.Participants,
	})
	s.broadcastToRoom(targetID, req.UserID, TypeUserJoined, UserJoined{
		RoomID:      targetID,
		Participant: self,
	})
	// The joiner learns about everyone already present without waiting for
	// the next roster broadcast.
	for _, p := range info.Participants {
		if p.UserID == req.UserID {
			continue
		}
		s.sendTo(c.conn, TypeUserJoined, UserJoined{RoomID: targetID, Participant: p})
	}
	return nil
}

func (s *Server) handleRequestSync(c *ConnContext) error {
	entry, ok := s.registry.Lookup(c.ConnID)
	if !ok || entry.RoomID == "" {
		return &routeError{message: "join a room before requesting sync"}
	}
	s.sendTo(c.conn, TypeSyncCanvas, SyncCanvas{
		RoomID: entry.RoomID,
		Shapes: s.rooms.Shapes(entry.RoomID),
	})
	return nil
}

// handleCursorMove is the fast path: the payload is serialized at most
// once per event and the same frame is queued to every recipient.
func (s *Server) handleCursorMove(c *ConnContext, req CursorMove) error {
	entry, ok := s.registry.Lookup(c.ConnID)
	if !ok || entry.RoomID == "" {
		return nil
	}

	frame := c.raw
	if req.UserID == "" {
		if entry.UserID == "" {
			return nil // sender has no identity yet, drop
		}
		req.UserID = entry.UserID
		var err error
		frame, err = marshalEnvelope(TypeCursorMove, req)
		if err != nil {
			return err
		}
	}
	s.broadcastRawToRoom(entry.RoomID, req.UserID, frame)
	return nil
}

// mutateAndRelay applies a room-scoped mutation for a joined sender, then
// forwards the original frame verbatim to everyone else in the room.
// Frames from unjoined senders are dropped.
func (s *Server) mutateAndRelay(c *ConnContext, mutate func(roomID string)) error {
	entry, ok := s.registry.Lookup(c.ConnID)
	if !ok || entry.RoomID == "" {
		return nil
	}
	mutate(entry.RoomID)
	s.broadcastRawToRoom(entry.RoomID, entry.UserID, c.raw)
	return nil
}

func (s *Server) handleShapeAdded(c *ConnContext, req ShapeEvent) error {
	return s.mutateAndRelay(c, func(roomID string) { s.rooms.AddShape(roomID, req.Shape) })
}

func (s *Server) handleShapeUpdated(c *ConnContext, req ShapeEvent) error {
	return s.mutateAndRelay(c, func(roomID string) { s.rooms.UpdateShape(roomID, req.Shape) })
}

func (s *Server) handleShapesDeleted(c *ConnContext, req ShapesDeleted) error {
	return s.mutateAndRelay(c, func(roomID string) { s.rooms.DeleteShapes(roomID, req.ShapeIDs) })
}

func (s *Server) handleUserStatus(c *ConnContext, req UserStatusUpdate) error {
	return s.mutateAndRelay(c, func(string) {
		if req.WebcamEnabled != nil {
			s.registry.SetWebcamEnabled(c.ConnID, *req.WebcamEnabled)
		}
	})
}

// relayToRoom is mutateAndRelay without the mutation, for the pure
// room-scoped pass-through types.
func (s *Server) relayToRoom(c *ConnContext, _ json.RawMessage) error {
	return s.mutateAndRelay(c, func(string) {})
}

func (s *Server) sendTo(conn *clientConn, msgType string, payload any) {
	frame, err := marshalEnvelope(msgType, payload)
	if err != nil {
		zap.L().Error("ws.marshal", zap.String("type", msgType), zap.Error(err))
		return
	}
	if err := conn.TrySend(frame); err != nil {
		zap.L().Debug("ws.send_skipped", zap.String("type", msgType), zap.Error(err))
	}
}

func (s *Server) sendError(conn *clientConn, re *routeError) {
	s.sendTo(conn, TypeError, ErrorBody{
		Message:  re.message,
		RoomID:   re.roomID,
		JoinCode: re.joinCode,
	})
}

func (s *Server) broadcastToRoom(roomID, excludeUserID, msgType string, payload any) {
	frame, err := marshalEnvelope(msgType, payload)
	if err != nil {
		zap.L().Error("ws.marshal", zap.String("type", msgType), zap.Error(err))
		return
	}
	s.broadcastRawToRoom(roomID, excludeUserID, frame)
}

// broadcastRawToRoom resolves each roster entry to its live connection and
// queues the frame. A roster entry whose transport is already gone, or
// whose queue is full, is skipped; the broadcast carries on.
func (s *Server) broadcastRawToRoom(roomID, excludeUserID string, frame []byte) {
	for _, p := range s.rooms.Participants(roomID) {
		if p.UserID == excludeUserID {
			continue
		}
		entry, ok := s.registry.LookupByUserID(p.UserID)
		if !ok || entry.Sender == nil || !entry.Sender.IsOpen() {
			continue
		}
		if err := entry.Sender.TrySend(frame); err != nil {
			zap.L().Debug("ws.broadcast_skip",
				zap.String("room_id", roomID),
				zap.String("user_id", p.UserID),
				zap.Error(err))
		}
	}
}

func (s *Server) broadcastGlobal(excludeConnID, msgType string, payload any) {
	frame, err := marshalEnvelope(msgType, payload)
	if err != nil {
		zap.L().Error("ws.marshal", zap.String("type", msgType), zap.Error(err))
		return
	}
	for _, entry := range s.registry.All() {
		if entry.ID == excludeConnID || entry.Sender == nil || !entry.Sender.IsOpen() {
			continue
		}
		_ = entry.Sender.TrySend(frame)
	}
}
