// Package sandbox implements the cube sandbox module. Each session owns an
// octree indexing its collidable entities, synced on every session frame, and
// a free-fly camera per participant.
package sandbox

import (
	"context"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/kubb/featureflag"
	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	ModuleName = "sandbox"

	DefaultRegionSize = 64.0
)

// DefaultRegionOffset is the center of the default octree region. The region
// lies above the ground plane.
var DefaultRegionOffset = mgl64.Vec3{0, 32, 0}

type Module struct {
	// The region covered by the root of session octrees. A 64 units cube
	// resting on the ground plane is used when zero.
	Region octree.BoundingBox

	FeatureFlags featureflag.FeatureFlag

	currentSession     *models.Session
	currentParticipant *models.Participant
	state              *State
}

func (m *Module) Name() string {
	return ModuleName
}

func (m *Module) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p

	state, _ := s.LoadOrStoreModuleState(m.Name(), func() any {
		return NewState(m.region(), m.octreeOptions()...)
	})
	m.state = state.(*State)
	m.state.Join(s, p.ID)
}

// SessionState returns the sandbox state of the given session. It is false
// until a participant joined the session with the sandbox module.
func SessionState(s *models.Session) (*State, bool) {
	state, ok := s.ModuleState(ModuleName)
	if !ok {
		return nil, false
	}

	sandboxState, ok := state.(*State)
	return sandboxState, ok
}

func (m *Module) HandleMsg(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var err error

	switch msg.Type {
	case messages.MsgTypeParticipantJoinRequest:
		err = m.handleParticipantJoin(ctx, respond, msg)

	case messages.MsgTypeCameraMove:
		err = m.handleCameraMove(ctx, respond, msg)

	case messages.MsgTypeCubePlaceRequest:
		err = m.handleCubePlace(ctx, respond, msg)

	case messages.MsgTypeRaycastRequest:
		err = m.handleRaycast(ctx, respond, msg)

	case messages.MsgTypeRegionQueryRequest:
		err = m.handleRegionQuery(ctx, respond, msg)

	case messages.MsgTypeOctreeStatsRequest:
		err = m.handleOctreeStats(ctx, respond, msg)

	default:
		err = messages.ErrModuleMsgSkip
	}

	return err
}

func (m *Module) HandleDisconnect() {
	if m.state == nil || m.currentParticipant == nil {
		return
	}

	m.state.Leave(m.currentParticipant.ID)
	m.currentSession = nil
	m.currentParticipant = nil
	m.state = nil
}

func (m *Module) handleParticipantJoin(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	_, participant, err := m.joined(msg)
	if err != nil {
		return err
	}

	respond.Send(m.state.Camera(participant.ID).ToMessage())
	return nil
}

func (m *Module) handleCameraMove(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var move messages.CameraMove
	if err := msg.DataTo(&move); err != nil {
		return err
	}

	_, participant, err := m.joined(msg)
	if err != nil {
		return err
	}

	camera := m.state.UpdateCamera(participant.ID, func(c *Camera) {
		c.Apply(move)
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableCameraStateResponse, func() {
		respond.Send(camera.ToMessage())
	})
	return nil
}

func (m *Module) handleCubePlace(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.CubePlaceRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := m.joined(msg)
	if err != nil {
		return err
	}

	camera := m.state.Camera(participant.ID)
	origin := camera.Position
	dir := camera.Forward()
	if req.Origin != nil {
		origin = *req.Origin
	}
	if req.Direction != nil {
		dir = *req.Direction
	}

	if !isFiniteVec(origin[:]) || !isValidDirection(dir) {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeBadRequest,
		})
		return nil
	}

	instrumentQuery("place")
	position, ok := m.state.PlacementPosition(origin, dir)
	if !ok {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeOutOfBounds,
		})
		return nil
	}

	entity := &models.Entity{
		ID:            session.NewEntityID(),
		ParticipantID: participant.ID,
		Persist:       true,
	}
	entity.SetPosition(position)
	entity.SetCollider(CubeBound, true)

	session.AddEntity(entity)
	participant.AddEntity(entity)

	respond.Send(messages.CubePlaceResponse{
		RequestID: req.RequestID,
		EntityID:  entity.ID,
		Position:  position,
	})

	m.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityAddBroadcast, func() {
		session.Broadcast(participant, messages.EntityAddBroadcast{
			Entity: entity.ToMessage(),
		})
	})
	return nil
}

func (m *Module) handleRaycast(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RaycastRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if _, _, err := m.joined(msg); err != nil {
		return err
	}

	if !isFiniteVec(req.Origin[:]) || !isValidDirection(req.Direction) || !isFiniteVec([]float64{req.Correction}) {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeBadRequest,
		})
		return nil
	}

	instrumentQuery("raycast")
	res := messages.RaycastResponse{
		RequestID: req.RequestID,
	}

	if hit, point, ok := m.state.Raycast(req.Origin, req.Direction, req.Correction); ok {
		res.Hit = true
		res.EntityID = uint32(hit.ID)
		res.Bound = &hit.Bound
		res.Distance = hit.Distance
		res.Point = &point
	}

	respond.Send(res)
	return nil
}

func (m *Module) handleRegionQuery(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.RegionQueryRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if _, _, err := m.joined(msg); err != nil {
		return err
	}

	if !req.Bound.IsValid() {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeBadRequest,
		})
		return nil
	}

	instrumentQuery("region")
	respond.Send(messages.RegionQueryResponse{
		RequestID: req.RequestID,
		EntityIDs: m.state.Intersecting(req.Bound),
	})
	return nil
}

func (m *Module) handleOctreeStats(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.OctreeStatsRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if _, _, err := m.joined(msg); err != nil {
		return err
	}

	respond.Send(messages.OctreeStatsResponse{
		RequestID: req.RequestID,
		Stats:     m.state.Stats(),
	})
	return nil
}

func (m *Module) joined(msg messages.Msg) (*models.Session, *models.Participant, error) {
	session := m.currentSession
	participant := m.currentParticipant
	if session == nil || participant == nil || m.state == nil {
		return nil, nil, errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return session, participant, nil
}

func (m *Module) region() octree.BoundingBox {
	if m.Region == (octree.BoundingBox{}) {
		return octree.FromSizeOffset(DefaultRegionSize, DefaultRegionOffset)
	}
	return m.Region
}

func (m *Module) octreeOptions() []octree.Option {
	var opts []octree.Option
	m.FeatureFlags.IfSet(featureflag.FlagOctreeSingleChildQuery, func() {
		opts = append(opts, octree.WithSingleChildQuery())
	})
	return opts
}

func isValidDirection(dir mgl64.Vec3) bool {
	return isFiniteVec(dir[:]) && dir.LenSqr() > 0 && !math.IsInf(dir.LenSqr(), 0)
}
