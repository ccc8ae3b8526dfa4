// Package smoketest checks that a Kubb server accepts clients and places cubes.
package smoketest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/kubb/messages"
	kwebsocket "github.com/aukilabs/kubb/websocket"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	defaultTimeout = time.Second * 10
	defaultOrigin  = "http://localhost"
)

type Options struct {
	Endpoint   string
	UserAgent  string
	SendResult func(context.Context, Results) error
}

// Request is the body of a smoke test request.
type Request struct {
	// The Kubb server to test.
	Endpoint string        `json:"endpoint"`
	Timeout  time.Duration `json:"timeout"`
}

type Results struct {
	FromEndpoint    string  `json:"from_endpoint"`
	ToEndpoint      string  `json:"to_endpoint"`
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Error           string  `json:"error,omitempty"`
}

func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			logs.Warn(errors.New("reading body failed").Wrap(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		var req Request
		if err := json.Unmarshal(b, &req); err != nil || req.Endpoint == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		go func() {
			res, err := Run(ctx, RunOptions{
				FromEndpoint: opts.Endpoint,
				ToEndpoint:   req.Endpoint,
				UserAgent:    opts.UserAgent,
				Timeout:      req.Timeout,
			})
			if err != nil {
				logs.Warn(err)
			}

			if err := opts.SendResult(ctx, res); err != nil {
				logs.WithTag("from_endpoint", opts.Endpoint).
					WithTag("to_endpoint", req.Endpoint).
					Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}()

		w.WriteHeader(http.StatusOK)
	}
}

type RunOptions struct {
	FromEndpoint string
	ToEndpoint   string
	UserAgent    string
	Timeout      time.Duration
}

// Run joins a new session on the tested server and places a cube. The latency
// covers the whole exchange.
func Run(ctx context.Context, opts RunOptions) (Results, error) {
	res := Results{
		FromEndpoint: opts.FromEndpoint,
		ToEndpoint:   opts.ToEndpoint,
		Status:       StatusFailed,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := run(ctx, opts); err != nil {
		err = errors.New("smoke test failed").
			WithTag("from_endpoint", opts.FromEndpoint).
			WithTag("to_endpoint", opts.ToEndpoint).
			Wrap(err)
		res.Error = err.Error()
		return res, err
	}

	res.Status = StatusSuccess
	res.LatencyMilliSec = float64(time.Since(start)) / float64(time.Millisecond)
	return res, nil
}

func run(ctx context.Context, opts RunOptions) error {
	origin := opts.FromEndpoint
	if origin == "" {
		origin = defaultOrigin
	}

	config, err := websocket.NewConfig(websocketURL(opts.ToEndpoint), origin)
	if err != nil {
		return errors.New("creating websocket config failed").Wrap(err)
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return errors.New("dialing kubb server failed").Wrap(err)
	}
	defer conn.Close()

	rayOrigin := mgl64.Vec3{0, 10, 0}
	rayDirection := mgl64.Vec3{0, -1, 0}

	return kwebsocket.NewScenario(conn).
		Send(func() messages.MsgData {
			return messages.ParticipantJoinRequest{RequestID: 1}
		}).
		Receive(
			kwebsocket.FilterByType(messages.MsgTypeParticipantJoinResponse),
			kwebsocket.FilterByRequestID(1),
		).
		Send(func() messages.MsgData {
			return messages.CubePlaceRequest{
				RequestID: 2,
				Origin:    &rayOrigin,
				Direction: &rayDirection,
			}
		}).
		Receive(
			kwebsocket.FilterByType(
				messages.MsgTypeCubePlaceResponse,
				messages.MsgTypeErrorResponse,
			),
			kwebsocket.FilterByRequestID(2),
			func(msg messages.Msg) error {
				if msg.Type == messages.MsgTypeErrorResponse {
					var res messages.ErrorResponse
					msg.DataTo(&res)
					return errors.New("placing cube failed").WithTag("code", res.Code)
				}
				return nil
			},
		).
		Run(ctx)
}

func websocketURL(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + strings.TrimPrefix(endpoint, "https://")

	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + strings.TrimPrefix(endpoint, "http://")

	default:
		return endpoint
	}
}
