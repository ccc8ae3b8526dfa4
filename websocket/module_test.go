package websocket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/modules"
	"github.com/aukilabs/kubb/modules/sandbox"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

type testModule struct {
	currentSession     *models.Session
	currentParticipant *models.Participant
	handledMsgs        []messages.MsgType
	skippedMsgs        []messages.MsgType
	onDisconnect       func()
}

func (m *testModule) Name() string {
	return "test-module"
}

func (m *testModule) Init(s *models.Session, p *models.Participant) {
	m.currentSession = s
	m.currentParticipant = p
}

func (m *testModule) HandleMsg(ctx context.Context, sender messages.ResponseSender, msg messages.Msg) error {
	switch msg.Type {
	case messages.MsgTypeEntityAddRequest:
		m.skippedMsgs = append(m.skippedMsgs, msg.Type)
		return messages.ErrModuleMsgSkip

	default:
		m.handledMsgs = append(m.handledMsgs, msg.Type)
		return nil
	}
}

func (m *testModule) HandleDisconnect() {
	if m.onDisconnect != nil {
		m.onDisconnect()
	}
}

func TestModule(t *testing.T) {
	var wg sync.WaitGroup
	var modA *testModule

	clientA, _, close := NewTestingEnv(t, newTestHandler(func() modules.Module {
		if modA == nil {
			wg.Add(1)
			modA = &testModule{
				onDisconnect: func() {
					wg.Done()
				},
			}
		}
		return modA
	}))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := NewScenario(clientA).
		Send(func() messages.MsgData {
			return messages.ParticipantJoinRequest{RequestID: 1}
		}).
		Receive(
			FilterByRequestID(1),
			FilterByType(messages.MsgTypeParticipantJoinResponse),
		).
		Receive(
			FilterByType(messages.MsgTypeSessionState),
		).
		Send(func() messages.MsgData {
			return messages.EntityAddRequest{RequestID: 2}
		}).
		Receive(
			FilterByRequestID(2),
			FilterByType(messages.MsgTypeEntityAddResponse),
		).
		Run(ctx)
	require.NoError(t, err)

	clientA.Close()

	wg.Wait()
	require.NotNil(t, modA.currentSession)
	require.NotNil(t, modA.currentParticipant)
	require.Len(t, modA.handledMsgs, 1)
	require.Equal(t, messages.MsgTypeParticipantJoinRequest, modA.handledMsgs[0])
	require.Len(t, modA.skippedMsgs, 1)
	require.Equal(t, messages.MsgTypeEntityAddRequest, modA.skippedMsgs[0])
}

func TestSandboxModule(t *testing.T) {
	clientA, clientB, close := NewTestingEnv(t, newTestHandler(func() modules.Module {
		return &sandbox.Module{}
	}))
	defer close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()

	var sessionID string
	var cube messages.CubePlaceResponse

	err := NewScenario(clientA).
		Send(func() messages.MsgData {
			return messages.ParticipantJoinRequest{RequestID: 1}
		}).
		Receive(
			FilterByType(messages.MsgTypeParticipantJoinResponse),
			func(msg messages.Msg) error {
				var res messages.ParticipantJoinResponse
				err := msg.DataTo(&res)
				sessionID = res.SessionID
				return err
			},
		).
		Receive(
			FilterByType(messages.MsgTypeCameraState),
			func(msg messages.Msg) error {
				var res messages.CameraState
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, sandbox.NewCamera().Position, res.Position)
				return err
			},
		).
		Send(func() messages.MsgData {
			return messages.CubePlaceRequest{RequestID: 2}
		}).
		Receive(
			FilterByType(messages.MsgTypeCubePlaceResponse),
			FilterByRequestID(2),
			func(msg messages.Msg) error {
				err := msg.DataTo(&cube)
				require.NoError(t, err)

				require.NotZero(t, cube.EntityID)
				require.Equal(t, mgl64.Vec3{-0.5, 0.5, -0.5}, cube.Position)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)

	// Lets a few frames index the placed cube.
	time.Sleep(time.Millisecond * 200)

	err = NewScenario(clientB).
		Send(func() messages.MsgData {
			return messages.ParticipantJoinRequest{
				RequestID: 1,
				SessionID: sessionID,
			}
		}).
		Receive(
			FilterByType(messages.MsgTypeSessionState),
			func(msg messages.Msg) error {
				var res messages.SessionState
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Len(t, res.Entities, 1)
				require.Equal(t, cube.EntityID, res.Entities[0].ID)
				return err
			},
		).
		Send(func() messages.MsgData {
			return messages.RaycastRequest{
				RequestID: 2,
				Origin:    mgl64.Vec3{-0.5, 10, -0.5},
				Direction: mgl64.Vec3{0, -1, 0},
			}
		}).
		Receive(
			FilterByType(messages.MsgTypeRaycastResponse),
			FilterByRequestID(2),
			func(msg messages.Msg) error {
				var res messages.RaycastResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.True(t, res.Hit)
				require.Equal(t, cube.EntityID, res.EntityID)
				require.InDelta(t, 9, res.Distance, 1e-9)
				return err
			},
		).
		Send(func() messages.MsgData {
			return messages.OctreeStatsRequest{RequestID: 3}
		}).
		Receive(
			FilterByType(messages.MsgTypeOctreeStatsResponse),
			FilterByRequestID(3),
			func(msg messages.Msg) error {
				var res messages.OctreeStatsResponse
				err := msg.DataTo(&res)
				require.NoError(t, err)

				require.Equal(t, 1, res.Stats.EntityCount)
				return err
			},
		).
		Run(ctx)
	require.NoError(t, err)
}
