package websocket

import (
	"context"
	"math"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/kubb/featureflag"
	kubbhttp "github.com/aukilabs/kubb/http"
	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/modules"
	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/net/websocket"
)

const customMessageMaxSize = 10240

// RealtimeHandler represents a service that manages multiple client connections
// and relays their actions in realtime.
type RealtimeHandler struct {
	// The interval between each sync clock message sent to the connected
	// client.
	ClientSyncClockInterval time.Duration

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The duration of a frame.
	FrameDuration time.Duration

	// The store that contains all the server sessions.
	Sessions *models.SessionStore

	// The module that expand Kubb features.
	Modules []modules.Module

	FeatureFlags featureflag.FeatureFlag

	// The region entity colliders must lie in. Entities are not confined
	// when zero.
	Region octree.BoundingBox

	conn               *websocket.Conn
	currentSession     *models.Session
	currentParticipant *models.Participant

	stopFrameHandling func()

	clientID string
}

func (h *RealtimeHandler) HandleConnect(conn *websocket.Conn) {
	if req := conn.Request(); req != nil {
		h.clientID = req.Header.Get(kubbhttp.HeaderClientID)
	}
	h.conn = conn
}

func (h *RealtimeHandler) HandlePing(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.PingRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	respond.Send(messages.PingResponse{
		RequestID: req.RequestID,
	})
	return nil
}

func (h *RealtimeHandler) HandleParticipantJoin(ctx context.Context, handleFrame func(), respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.ParticipantJoinRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if h.currentSession != nil && h.Sessions.GlobalSessionID(h.currentSession.ID) == req.SessionID {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeSessionAlreadyJoined,
		})
		return nil
	}

	if h.currentParticipant != nil {
		h.leaveSession()
	}

	session, ok := h.Sessions.GetByGlobalID(req.SessionID)
	if !ok && req.SessionID != "" {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeNotFound,
		})
		return nil
	}

	if !ok {
		session = models.NewSession(h.Sessions.NewID(), h.FrameDuration)
		if err := h.Sessions.Add(ctx, session); err != nil {
			respond.Send(messages.ErrorResponse{
				RequestID: req.RequestID,
				Code:      messages.ErrorCodeInternalServerError,
			})
			return nil
		}
		go session.StartDispatchFrames()
	}

	participant := &models.Participant{
		ID:        session.NewParticipantID(),
		Responder: respond,
	}

	session.AddParticipant(participant)
	h.stopFrameHandling = session.HandleFrame(handleFrame)

	respond.Send(messages.ParticipantJoinResponse{
		RequestID:     req.RequestID,
		SessionID:     h.Sessions.GlobalSessionID(session.ID),
		SessionUUID:   session.SessionUUID,
		ParticipantID: participant.ID,
	})

	h.currentSession = session
	h.currentParticipant = participant

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableSessionState, func() {
		respond.Send(messages.SessionState{
			Participants: models.ParticipantsToMessages(session.GetParticipants()),
			Entities:     models.EntitiesToMessages(session.Entities()),
		})
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantJoinBroadcast, func() {
		session.Broadcast(participant, messages.ParticipantJoinBroadcast{
			ParticipantID: participant.ID,
		})
	})

	for _, m := range h.Modules {
		m.Init(session, participant)
	}

	return nil
}

func (h *RealtimeHandler) HandleDisconnect(_ error) {
	if h.currentParticipant != nil {
		h.leaveSession()
	}
}

func (h *RealtimeHandler) HandleEntityAdd(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.EntityAddRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	if !isFinite(req.Position) ||
		(req.Bound != nil && (!req.Bound.IsValid() || !h.inRegion(req.Bound.Translate(req.Position)))) {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeBadRequest,
		})
		return nil
	}

	entity := &models.Entity{
		ID:            session.NewEntityID(),
		ParticipantID: participant.ID,
		Persist:       req.Persist,
	}
	entity.SetPosition(req.Position)
	if req.Bound != nil {
		entity.SetCollider(*req.Bound, req.Collides)
	}

	session.AddEntity(entity)
	participant.AddEntity(entity)

	respond.Send(messages.EntityAddResponse{
		RequestID: req.RequestID,
		EntityID:  entity.ID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityAddBroadcast, func() {
		session.Broadcast(participant, messages.EntityAddBroadcast{
			Entity: entity.ToMessage(),
		})
	})

	return nil
}

func (h *RealtimeHandler) HandleEntityDelete(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var req messages.EntityDeleteRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	entity, ok := session.EntityByID(req.EntityID)
	if !ok {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeNotFound,
		})
		return nil
	}

	if entity.ParticipantID != participant.ID {
		respond.Send(messages.ErrorResponse{
			RequestID: req.RequestID,
			Code:      messages.ErrorCodeUnauthorized,
		})
		return nil
	}

	session.RemoveEntity(entity)
	participant.RemoveEntity(entity)

	respond.Send(messages.EntityDeleteResponse{
		RequestID: req.RequestID,
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityDeleteBroadcast, func() {
		session.Broadcast(participant, messages.EntityDeleteBroadcast{
			EntityID: entity.ID,
		})
	})

	return nil
}

func (h *RealtimeHandler) HandleEntityUpdatePosition(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var update messages.EntityUpdatePosition
	if err := msg.DataTo(&update); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	entity, ok := session.EntityByID(update.EntityID)
	if !ok || entity.ParticipantID != participant.ID {
		return nil
	}

	collider, hasCollider := entity.Collider()
	if !isFinite(update.Position) || (hasCollider && !h.inRegion(collider.Translate(update.Position))) {
		respond.Send(messages.ErrorResponse{
			Code: messages.ErrorCodeBadRequest,
		})
		return nil
	}

	entity.SetPosition(update.Position)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityUpdatePositionBroadcast, func() {
		session.Broadcast(participant, messages.EntityUpdatePositionBroadcast{
			EntityID: entity.ID,
			Position: entity.Position(),
		})
	})

	return nil
}

func (h *RealtimeHandler) HandleCustomMessage(ctx context.Context, respond messages.ResponseSender, msg messages.Msg) error {
	var customMessage messages.CustomMessage
	if err := msg.DataTo(&customMessage); err != nil {
		return err
	}

	session, participant, err := h.joined(msg)
	if err != nil {
		return err
	}

	if len(customMessage.Body) > customMessageMaxSize {
		respond.Send(messages.ErrorResponse{
			Code: messages.ErrorCodeTooLarge,
		})
		return nil
	}

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableCustomMessageBroadcast, func() {
		customMessageBroadcast := messages.CustomMessageBroadcast{
			ParticipantID: participant.ID,
			Body:          customMessage.Body,
		}

		if len(customMessage.ParticipantIDs) != 0 {
			session.BroadcastTo(participant, customMessageBroadcast, customMessage.ParticipantIDs...)
			return
		}

		session.Broadcast(participant, customMessageBroadcast)
	})
	return nil
}

func (h *RealtimeHandler) HandleWithModule(ctx context.Context, m modules.Module, respond messages.ResponseSender, msg messages.Msg) error {
	if h.CurrentParticipant() == nil || h.CurrentSession() == nil {
		return nil
	}

	err := m.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, messages.ErrTypeMsgSkip) {
		return nil
	}
	if err != nil {
		return errors.New("handling message with module failed").
			WithTag("module", m.Name()).
			Wrap(err)
	}
	return nil
}

func (h *RealtimeHandler) SendSyncClock(ctx context.Context, respond messages.ResponseSender) error {
	respond.Send(messages.SyncClock{
		ServerTime: time.Now().UnixMilli(),
	})
	return nil
}

func (h *RealtimeHandler) Receiver() messages.Receiver {
	return func() (messages.Msg, int, error) {
		return messages.Receive(h.conn)
	}
}

func (h *RealtimeHandler) Sender() messages.Sender {
	return func(msg messages.Msg) (int, error) {
		return messages.Send(h.conn, msg)
	}
}

func (h *RealtimeHandler) Close() {
}

func (h *RealtimeHandler) SyncClockInterval() time.Duration {
	return h.ClientSyncClockInterval
}

func (h *RealtimeHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RealtimeHandler) GetSessions() *models.SessionStore {
	return h.Sessions
}

func (h *RealtimeHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *RealtimeHandler) CurrentSession() *models.Session {
	return h.currentSession
}

func (h *RealtimeHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *RealtimeHandler) GetClientID() string {
	return h.clientID
}

func (h *RealtimeHandler) joined(msg messages.Msg) (*models.Session, *models.Participant, error) {
	session := h.currentSession
	participant := h.currentParticipant
	if participant == nil || session == nil {
		return nil, nil, errors.New("session not joined").
			WithType(messages.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}
	return session, participant, nil
}

func (h *RealtimeHandler) leaveSession() {
	session := h.currentSession
	participant := h.currentParticipant

	if participant == nil || session == nil {
		return
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	for id := range participant.EntityIDs() {
		entity, ok := session.EntityByID(id)
		if !ok || entity.Persist {
			continue
		}

		session.RemoveEntity(entity)

		h.FeatureFlags.IfNotSet(featureflag.FlagDisableEntityDeleteBroadcast, func() {
			session.Broadcast(participant, messages.EntityDeleteBroadcast{
				EntityID: entity.ID,
			})
		})
	}

	if h.stopFrameHandling != nil {
		h.stopFrameHandling()
		h.stopFrameHandling = nil
	}
	session.RemoveParticipant(participant)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantLeaveBroadcast, func() {
		session.Broadcast(participant, messages.ParticipantLeaveBroadcast{
			ParticipantID: participant.ID,
		})
	})

	if session.ParticipantCount() == 0 {
		h.Sessions.Remove(context.Background(), session)
		session.Close()
	}

	h.currentParticipant = nil
	h.currentSession = nil
}

func (h *RealtimeHandler) inRegion(bound octree.BoundingBox) bool {
	if h.Region == (octree.BoundingBox{}) {
		return true
	}
	return h.Region.ContainsBox(bound)
}

func isFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
