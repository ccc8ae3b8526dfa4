package messages

import (
	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
)

type PingRequest struct {
	RequestID uint32 `json:"request_id"`
}

func (PingRequest) MsgType() MsgType { return MsgTypePingRequest }

type PingResponse struct {
	RequestID uint32 `json:"request_id"`
}

func (PingResponse) MsgType() MsgType { return MsgTypePingResponse }

// SyncClock carries the server time, in milliseconds since the Unix epoch.
type SyncClock struct {
	ServerTime int64 `json:"server_time"`
}

func (SyncClock) MsgType() MsgType { return MsgTypeSyncClock }

type ErrorResponse struct {
	RequestID uint32    `json:"request_id"`
	Code      ErrorCode `json:"code"`
}

func (ErrorResponse) MsgType() MsgType { return MsgTypeErrorResponse }

type ParticipantJoinRequest struct {
	RequestID uint32 `json:"request_id"`

	// The session to join. A new session is created when empty.
	SessionID string `json:"session_id,omitempty"`
}

func (ParticipantJoinRequest) MsgType() MsgType { return MsgTypeParticipantJoinRequest }

type ParticipantJoinResponse struct {
	RequestID     uint32 `json:"request_id"`
	SessionID     string `json:"session_id"`
	SessionUUID   string `json:"session_uuid"`
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantJoinResponse) MsgType() MsgType { return MsgTypeParticipantJoinResponse }

type ParticipantJoinBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantJoinBroadcast) MsgType() MsgType { return MsgTypeParticipantJoinBroadcast }

type ParticipantLeaveBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
}

func (ParticipantLeaveBroadcast) MsgType() MsgType { return MsgTypeParticipantLeaveBroadcast }

type Participant struct {
	ID uint32 `json:"id"`
}

// Entity describes an entity within a session.
type Entity struct {
	ID            uint32     `json:"id"`
	ParticipantID uint32     `json:"participant_id"`
	Persist       bool       `json:"persist,omitempty"`
	Position      mgl64.Vec3 `json:"position"`

	// The collider bound, relative to the entity position.
	Bound    *octree.BoundingBox `json:"bound,omitempty"`
	Collides bool                `json:"collides,omitempty"`
}

// SessionState is sent to a participant after joining a session.
type SessionState struct {
	Participants []Participant `json:"participants"`
	Entities     []Entity      `json:"entities"`
}

func (SessionState) MsgType() MsgType { return MsgTypeSessionState }

type EntityAddRequest struct {
	RequestID uint32              `json:"request_id"`
	Persist   bool                `json:"persist,omitempty"`
	Position  mgl64.Vec3          `json:"position"`
	Bound     *octree.BoundingBox `json:"bound,omitempty"`
	Collides  bool                `json:"collides,omitempty"`
}

func (EntityAddRequest) MsgType() MsgType { return MsgTypeEntityAddRequest }

type EntityAddResponse struct {
	RequestID uint32 `json:"request_id"`
	EntityID  uint32 `json:"entity_id"`
}

func (EntityAddResponse) MsgType() MsgType { return MsgTypeEntityAddResponse }

type EntityAddBroadcast struct {
	Entity Entity `json:"entity"`
}

func (EntityAddBroadcast) MsgType() MsgType { return MsgTypeEntityAddBroadcast }

type EntityDeleteRequest struct {
	RequestID uint32 `json:"request_id"`
	EntityID  uint32 `json:"entity_id"`
}

func (EntityDeleteRequest) MsgType() MsgType { return MsgTypeEntityDeleteRequest }

type EntityDeleteResponse struct {
	RequestID uint32 `json:"request_id"`
}

func (EntityDeleteResponse) MsgType() MsgType { return MsgTypeEntityDeleteResponse }

type EntityDeleteBroadcast struct {
	EntityID uint32 `json:"entity_id"`
}

func (EntityDeleteBroadcast) MsgType() MsgType { return MsgTypeEntityDeleteBroadcast }

type EntityUpdatePosition struct {
	EntityID uint32     `json:"entity_id"`
	Position mgl64.Vec3 `json:"position"`
}

func (EntityUpdatePosition) MsgType() MsgType { return MsgTypeEntityUpdatePosition }

type EntityUpdatePositionBroadcast struct {
	EntityID uint32     `json:"entity_id"`
	Position mgl64.Vec3 `json:"position"`
}

func (EntityUpdatePositionBroadcast) MsgType() MsgType { return MsgTypeEntityUpdatePositionBroadcast }

type CustomMessage struct {
	// The recipients. Every other participant receives the message when
	// empty.
	ParticipantIDs []uint32 `json:"participant_ids,omitempty"`
	Body           []byte   `json:"body"`
}

func (CustomMessage) MsgType() MsgType { return MsgTypeCustomMessage }

type CustomMessageBroadcast struct {
	ParticipantID uint32 `json:"participant_id"`
	Body          []byte `json:"body"`
}

func (CustomMessageBroadcast) MsgType() MsgType { return MsgTypeCustomMessageBroadcast }

// CameraMove moves and rotates the camera of the sending participant.
type CameraMove struct {
	// Mouse motion, in pixels.
	Look mgl64.Vec2 `json:"look"`

	// Movement input along the forward, right and up axes, each in [-1, 1].
	Move mgl64.Vec3 `json:"move"`

	// Seconds elapsed since the previous move.
	DeltaTime float64 `json:"delta_time"`
}

func (CameraMove) MsgType() MsgType { return MsgTypeCameraMove }

type CameraState struct {
	Position mgl64.Vec3 `json:"position"`
	Forward  mgl64.Vec3 `json:"forward"`
	Yaw      float64    `json:"yaw"`
	Pitch    float64    `json:"pitch"`
}

func (CameraState) MsgType() MsgType { return MsgTypeCameraState }

// CubePlaceRequest places a unit cube where a ray hits. The camera of the
// sending participant is used when the ray is not given.
type CubePlaceRequest struct {
	RequestID uint32      `json:"request_id"`
	Origin    *mgl64.Vec3 `json:"origin,omitempty"`
	Direction *mgl64.Vec3 `json:"direction,omitempty"`
}

func (CubePlaceRequest) MsgType() MsgType { return MsgTypeCubePlaceRequest }

type CubePlaceResponse struct {
	RequestID uint32     `json:"request_id"`
	EntityID  uint32     `json:"entity_id"`
	Position  mgl64.Vec3 `json:"position"`
}

func (CubePlaceResponse) MsgType() MsgType { return MsgTypeCubePlaceResponse }

type RaycastRequest struct {
	RequestID  uint32     `json:"request_id"`
	Origin     mgl64.Vec3 `json:"origin"`
	Direction  mgl64.Vec3 `json:"direction"`
	Correction float64    `json:"correction,omitempty"`
}

func (RaycastRequest) MsgType() MsgType { return MsgTypeRaycastRequest }

type RaycastResponse struct {
	RequestID uint32              `json:"request_id"`
	Hit       bool                `json:"hit"`
	EntityID  uint32              `json:"entity_id,omitempty"`
	Bound     *octree.BoundingBox `json:"bound,omitempty"`
	Distance  float64             `json:"distance,omitempty"`
	Point     *mgl64.Vec3         `json:"point,omitempty"`
}

func (RaycastResponse) MsgType() MsgType { return MsgTypeRaycastResponse }

type RegionQueryRequest struct {
	RequestID uint32             `json:"request_id"`
	Bound     octree.BoundingBox `json:"bound"`
}

func (RegionQueryRequest) MsgType() MsgType { return MsgTypeRegionQueryRequest }

type RegionQueryResponse struct {
	RequestID uint32   `json:"request_id"`
	EntityIDs []uint32 `json:"entity_ids"`
}

func (RegionQueryResponse) MsgType() MsgType { return MsgTypeRegionQueryResponse }

type OctreeStatsRequest struct {
	RequestID uint32 `json:"request_id"`
}

func (OctreeStatsRequest) MsgType() MsgType { return MsgTypeOctreeStatsRequest }

type OctreeStatsResponse struct {
	RequestID uint32       `json:"request_id"`
	Stats     octree.Stats `json:"stats"`
}

func (OctreeStatsResponse) MsgType() MsgType { return MsgTypeOctreeStatsResponse }
