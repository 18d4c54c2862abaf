package domain

import (
	"encoding/json"

	"github.com/pion/webrtc/v3"
)

const (
	SignalJoinSession  = "join-session"
	SignalLeaveSession = "leave-session"
	SignalOffer        = "offer"
	SignalAnswer       = "answer"
	SignalCandidate    = "ice-candidate"

	SignalSessionJoined = "session-joined"
	SignalSessionLeft   = "session-left"
	SignalPeerJoined    = "peer-joined"
	SignalPeerLeft      = "peer-left"
	SignalError         = "error"
)

// SignalMessage is the relay's wire envelope in both directions. Payload is
// forwarded verbatim and never decoded by the relay.
type SignalMessage struct {
	Type       string             `json:"type"`
	SessionID  string             `json:"session_id,omitempty"`
	SenderID   string             `json:"sender_id,omitempty"`
	TargetID   string             `json:"target_id,omitempty"`
	Payload    json.RawMessage    `json:"payload,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	ICEServers []webrtc.ICEServer `json:"ice_servers,omitempty"`
}

// IsNegotiation reports whether the message is an offer, answer or candidate.
func (m SignalMessage) IsNegotiation() bool {
	switch m.Type {
	case SignalOffer, SignalAnswer, SignalCandidate:
		return true
	}
	return false
}

func ErrorSignal(sessionID string, err error) SignalMessage {
	return SignalMessage{Type: SignalError, SessionID: sessionID, Reason: err.Error()}
}
