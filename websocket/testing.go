package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	kubbhttp "github.com/aukilabs/kubb/http"
	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/modules"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const scenarioReceiveTimeout = time.Second * 5

// Creates a testing environement to unit test handlers and modules.
func NewTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	clientA, clientB, close := newTestingEnv(t, newHandler)
	return clientA, clientB, func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
		close()
	}
}

func newTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(context.Background(), conn, handler)
		},
	})

	newConn := func() *websocket.Conn {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://"),
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set(kubbhttp.XForwardedForHeaderKey, "192.0.0.0")
		config.Header.Set(kubbhttp.HeaderClientID, uuid.NewString())

		conn, err := websocket.DialConfig(config)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}

		return conn
	}

	clientA := newConn()
	clientB := newConn()

	return clientA, clientB, func() {
		clientA.Close()
		clientB.Close()
		server.Close()
	}
}

// Scenario is a sequence of messages sent to and expected from a Kubb server.
type Scenario struct {
	conn  *websocket.Conn
	steps []func(ctx context.Context) error
}

// NewScenario creates a scenario that runs on the given connection.
func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{conn: conn}
}

// MsgHandler handles a message received during a scenario. Returning
// ErrMsgFiltered makes the scenario wait for the next message.
type MsgHandler func(messages.Msg) error

const errTypeMsgFiltered = "scenario_msg_filtered"

// ErrMsgFiltered is returned by message handlers to skip a message.
var ErrMsgFiltered error = errors.New("message filtered").WithType(errTypeMsgFiltered)

// FilterByType skips the messages that are not of one of the given types.
func FilterByType(types ...messages.MsgType) MsgHandler {
	return func(msg messages.Msg) error {
		for _, t := range types {
			if msg.Type == t {
				return nil
			}
		}
		return ErrMsgFiltered
	}
}

// FilterByRequestID skips the messages whose payload does not carry the given
// request id.
func FilterByRequestID(id uint32) MsgHandler {
	return func(msg messages.Msg) error {
		var req struct {
			RequestID uint32 `json:"request_id"`
		}
		if err := msg.DataTo(&req); err != nil || req.RequestID != id {
			return ErrMsgFiltered
		}
		return nil
	}
}

// Send queues a message to send. The payload is created when the step runs.
func (s *Scenario) Send(newData func() messages.MsgData) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		msg, err := messages.MsgFromData(newData())
		if err != nil {
			return err
		}

		_, err = messages.Send(s.conn, msg)
		return err
	})
	return s
}

// Receive waits for the first message that goes through all the given
// handlers.
func (s *Scenario) Receive(handlers ...MsgHandler) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(scenarioReceiveTimeout)
		}
		s.conn.SetReadDeadline(deadline)
		defer s.conn.SetReadDeadline(time.Time{})

	receiveLoop:
		for {
			msg, _, err := messages.Receive(s.conn)
			if err != nil {
				return errors.New("receiving scenario message failed").Wrap(err)
			}

			for _, h := range handlers {
				err := h(msg)
				if errors.IsType(err, errTypeMsgFiltered) {
					continue receiveLoop
				}
				if err != nil {
					return err
				}
			}
			return nil
		}
	})
	return s
}

// Run runs the scenario steps in order and stops at the first failure.
func (s *Scenario) Run(ctx context.Context) error {
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newTestHandler(newModule ...func() modules.Module) func() Handler {
	sessionStore := &models.SessionStore{
		ServerID: "ted",
	}
	return func() Handler {

		modules := make([]modules.Module, len(newModule))
		for i, nm := range newModule {
			modules[i] = nm()
		}
		var h Handler = &RealtimeHandler{
			ClientSyncClockInterval: time.Millisecond * 250,
			ClientIdleTimeout:       time.Minute,
			FrameDuration:           time.Millisecond * 50,
			Sessions:                sessionStore,
			Modules:                 modules,
		}

		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "https://kubb-test.local")
		return h
	}
}
