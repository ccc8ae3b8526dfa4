// Package messages defines the JSON messages exchanged over a Kubb WebSocket
// connection and the helpers to send, receive and schedule them.
package messages

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// MsgType identifies the payload of a message.
type MsgType string

const (
	MsgTypeErrorResponse MsgType = "error_response"
	MsgTypePingRequest   MsgType = "ping_request"
	MsgTypePingResponse  MsgType = "ping_response"
	MsgTypeSyncClock     MsgType = "sync_clock"

	MsgTypeParticipantJoinRequest    MsgType = "participant_join_request"
	MsgTypeParticipantJoinResponse   MsgType = "participant_join_response"
	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"
	MsgTypeSessionState              MsgType = "session_state"

	MsgTypeEntityAddRequest              MsgType = "entity_add_request"
	MsgTypeEntityAddResponse             MsgType = "entity_add_response"
	MsgTypeEntityAddBroadcast            MsgType = "entity_add_broadcast"
	MsgTypeEntityDeleteRequest           MsgType = "entity_delete_request"
	MsgTypeEntityDeleteResponse          MsgType = "entity_delete_response"
	MsgTypeEntityDeleteBroadcast         MsgType = "entity_delete_broadcast"
	MsgTypeEntityUpdatePosition          MsgType = "entity_update_position"
	MsgTypeEntityUpdatePositionBroadcast MsgType = "entity_update_position_broadcast"

	MsgTypeCustomMessage          MsgType = "custom_message"
	MsgTypeCustomMessageBroadcast MsgType = "custom_message_broadcast"

	MsgTypeCameraMove          MsgType = "camera_move"
	MsgTypeCameraState         MsgType = "camera_state"
	MsgTypeCubePlaceRequest    MsgType = "cube_place_request"
	MsgTypeCubePlaceResponse   MsgType = "cube_place_response"
	MsgTypeRaycastRequest      MsgType = "raycast_request"
	MsgTypeRaycastResponse     MsgType = "raycast_response"
	MsgTypeRegionQueryRequest  MsgType = "region_query_request"
	MsgTypeRegionQueryResponse MsgType = "region_query_response"
	MsgTypeOctreeStatsRequest  MsgType = "octree_stats_request"
	MsgTypeOctreeStatsResponse MsgType = "octree_stats_response"
)

// MsgData is the interface implemented by message payloads.
type MsgData interface {
	// Returns the type of the message that carries the payload.
	MsgType() MsgType
}

// Msg is a message sent over a WebSocket connection.
type Msg struct {
	Type      MsgType         `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MsgFromData wraps the given payload into a message.
func MsgFromData(data MsgData) (Msg, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithType(ErrTypeEncoding).
			WithTag("msg_type", data.MsgType()).
			Wrap(err)
	}

	return Msg{
		Type:      data.MsgType(),
		Timestamp: time.Now(),
		Data:      b,
	}, nil
}

// DataTo decodes the message payload into v. A message without payload leaves
// v untouched.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeDecoding).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

// TypeString returns the message type as a string.
func (m Msg) TypeString() string {
	if m.Type == "" {
		return "unknown"
	}
	return string(m.Type)
}
