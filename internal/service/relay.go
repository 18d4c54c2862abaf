package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/observability"
	"github.com/immxrtalbeast/skillswap/internal/repository"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
	"github.com/pion/webrtc/v3"
)

const ReasonReplaced = "replaced"

type RelayOptions struct {
	ICEServers []webrtc.ICEServer
	SendBuffer int
}

// RelayService pairs the two participants of a session and forwards their
// negotiation messages. Room membership is the only state it keeps; it reads
// sessions but never transitions them.
type RelayService struct {
	sessions   SessionDirectory
	iceServers []webrtc.ICEServer
	buffer     int
	log        *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	rooms map[uuid.UUID]*domain.Room
}

func NewRelayService(sessions SessionDirectory, opts RelayOptions, log *slog.Logger, metrics *observability.Metrics) *RelayService {
	if log == nil {
		log = slog.Default()
	}
	return &RelayService{
		sessions:   sessions,
		iceServers: opts.ICEServers,
		buffer:     opts.SendBuffer,
		log:        log,
		metrics:    metrics,
		rooms:      make(map[uuid.UUID]*domain.Room),
	}
}

// ICEServersFromURLs builds the STUN descriptors handed to clients on join.
func ICEServersFromURLs(urls []string) []webrtc.ICEServer {
	servers := make([]webrtc.ICEServer, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}
	return servers
}

func (s *RelayService) Connect(userID uuid.UUID) *domain.Connection {
	conn := domain.NewConnection(userID, s.buffer)
	s.metrics.ConnectionOpened()
	s.log.Debug("connection opened",
		slog.String("conn_id", conn.ID),
		slog.String("user_id", userID.String()),
	)
	return conn
}

// Handle dispatches one inbound message. Replies, including error replies, are
// queued on conn itself; the returned error is for logging only and never
// means the connection should be dropped.
func (s *RelayService) Handle(ctx context.Context, conn *domain.Connection, msg domain.SignalMessage) error {
	var err error
	switch {
	case msg.Type == domain.SignalJoinSession:
		err = s.withSession(msg, func(id uuid.UUID) error { return s.JoinSession(ctx, conn, id) })
	case msg.Type == domain.SignalLeaveSession:
		err = s.withSession(msg, func(id uuid.UUID) error { return s.LeaveSession(conn, id) })
	case msg.IsNegotiation():
		err = s.withSession(msg, func(id uuid.UUID) error { return s.Relay(conn, id, msg) })
	default:
		err = fmt.Errorf("%w: %q", domain.ErrUnsupportedSignal, msg.Type)
	}

	s.metrics.ObserveRelay(msg.Type, err)
	if err != nil {
		conn.Send(domain.ErrorSignal(msg.SessionID, err))
	}
	return err
}

func (s *RelayService) withSession(msg domain.SignalMessage, fn func(uuid.UUID) error) error {
	id, err := uuid.Parse(msg.SessionID)
	if err != nil {
		return repository.ErrSessionNotFound
	}
	return fn(id)
}

func (s *RelayService) JoinSession(ctx context.Context, conn *domain.Connection, sessionID uuid.UUID) error {
	const op = "service.relay.join"
	log := s.log.With(
		slog.String("op", op),
		slog.String("session_id", sessionID.String()),
		slog.String("conn_id", conn.ID),
	)

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsParticipant(conn.UserID) {
		return domain.ErrNotAParticipant
	}
	if !session.IsOpen() {
		return domain.ErrSessionNotActive
	}

	var adm domain.Admission
	for {
		room := s.room(sessionID)
		var closed bool
		adm, closed, err = room.Admit(conn)
		if err != nil {
			log.Warn("join refused", sl.Err(err))
			return err
		}
		if !closed {
			break
		}
		s.discard(room)
	}
	conn.Track(sessionID)

	if adm.Evicted != nil {
		adm.Evicted.Untrack(sessionID)
		adm.Evicted.Send(domain.SignalMessage{
			Type:      domain.SignalSessionLeft,
			SessionID: sessionID.String(),
			Reason:    ReasonReplaced,
		})
		log.Info("previous connection replaced", slog.String("evicted_conn_id", adm.Evicted.ID))
	}

	conn.Send(domain.SignalMessage{
		Type:       domain.SignalSessionJoined,
		SessionID:  sessionID.String(),
		ICEServers: s.iceServers,
	})

	if adm.Peer != nil && !adm.Rejoined {
		adm.Peer.Send(domain.SignalMessage{
			Type:      domain.SignalPeerJoined,
			SessionID: sessionID.String(),
			SenderID:  conn.UserID.String(),
		})
		conn.Send(domain.SignalMessage{
			Type:      domain.SignalPeerJoined,
			SessionID: sessionID.String(),
			SenderID:  adm.Peer.UserID.String(),
		})
	}

	// A disconnect racing this join may already have swept the tracked sessions.
	if conn.Closed() {
		return s.LeaveSession(conn, sessionID)
	}
	log.Info("connection joined room", slog.Bool("peer_present", adm.Peer != nil))
	return nil
}

// LeaveSession is idempotent: leaving a room the connection is not in still
// replies session-left.
func (s *RelayService) LeaveSession(conn *domain.Connection, sessionID uuid.UUID) error {
	s.leave(conn, sessionID)
	conn.Send(domain.SignalMessage{Type: domain.SignalSessionLeft, SessionID: sessionID.String()})
	return nil
}

// Relay forwards an offer, answer or candidate to the other participant only.
func (s *RelayService) Relay(conn *domain.Connection, sessionID uuid.UUID, msg domain.SignalMessage) error {
	room := s.lookup(sessionID)
	if room == nil || !room.Holds(conn) {
		return domain.ErrNotInRoom
	}

	target, err := uuid.Parse(msg.TargetID)
	if err != nil || target == conn.UserID {
		return domain.ErrTargetUnavailable
	}
	peer := room.Member(target)
	if peer == nil {
		return domain.ErrTargetUnavailable
	}

	forward := domain.SignalMessage{
		Type:      msg.Type,
		SessionID: sessionID.String(),
		SenderID:  conn.UserID.String(),
		TargetID:  target.String(),
		Payload:   msg.Payload,
	}
	if !peer.Send(forward) {
		return domain.ErrTargetUnavailable
	}
	return nil
}

// Disconnect removes conn from every room it is in and closes it. It is safe
// to call more than once.
func (s *RelayService) Disconnect(conn *domain.Connection) {
	if conn.Closed() {
		return
	}
	conn.Close()
	for _, id := range conn.Sessions() {
		s.leave(conn, id)
	}
	s.metrics.ConnectionClosed()
	s.log.Debug("connection closed",
		slog.String("conn_id", conn.ID),
		slog.String("user_id", conn.UserID.String()),
	)
}

// RoomSize reports how many connections are registered for the session.
func (s *RelayService) RoomSize(sessionID uuid.UUID) int {
	room := s.lookup(sessionID)
	if room == nil {
		return 0
	}
	return room.Size()
}

func (s *RelayService) leave(conn *domain.Connection, sessionID uuid.UUID) {
	conn.Untrack(sessionID)
	room := s.lookup(sessionID)
	if room == nil {
		return
	}

	peer, removed, empty := room.Remove(conn)
	if removed && peer != nil {
		peer.Send(domain.SignalMessage{
			Type:      domain.SignalPeerLeft,
			SessionID: sessionID.String(),
			SenderID:  conn.UserID.String(),
		})
	}
	if empty {
		s.discard(room)
	}
}

func (s *RelayService) room(sessionID uuid.UUID) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if room, ok := s.rooms[sessionID]; ok {
		return room
	}
	room := domain.NewRoom(sessionID)
	s.rooms[sessionID] = room
	s.metrics.RoomOpened()
	return room
}

func (s *RelayService) lookup(sessionID uuid.UUID) *domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rooms[sessionID]
}

// discard drops the map entry only if it still points at room, so a fresh
// room created after this one closed is left alone.
func (s *RelayService) discard(room *domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.rooms[room.SessionID]; ok && current == room {
		delete(s.rooms, room.SessionID)
		s.metrics.RoomClosed()
	}
}

// IsRelayRefusal reports whether err is a per-message refusal rather than a
// lookup failure.
func IsRelayRefusal(err error) bool {
	return errors.Is(err, domain.ErrNotAParticipant) ||
		errors.Is(err, domain.ErrRoomFull) ||
		errors.Is(err, domain.ErrSessionNotActive) ||
		errors.Is(err, domain.ErrNotInRoom) ||
		errors.Is(err, domain.ErrTargetUnavailable)
}
