package smoketest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/modules"
	"github.com/aukilabs/kubb/modules/sandbox"
	kwebsocket "github.com/aukilabs/kubb/websocket"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestSmokeTest(t *testing.T) {
	t.Run("smoke test success", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server := newTestServer()
		defer server.Close()

		results := make(chan Results, 1)
		smokeTest := HandleSmokeTest(ctx, Options{
			Endpoint:  "http://localkubb",
			UserAgent: "ted",
			SendResult: func(_ context.Context, res Results) error {
				results <- res
				return nil
			},
		})

		rec := httptest.NewRecorder()
		smokeTest.ServeHTTP(rec, newSmokeTestRequest(t, Request{
			Endpoint: server.URL,
			Timeout:  time.Second,
		}))
		require.Equal(t, http.StatusOK, rec.Code)

		select {
		case res := <-results:
			require.Equal(t, "http://localkubb", res.FromEndpoint)
			require.Equal(t, server.URL, res.ToEndpoint)
			require.Equal(t, StatusSuccess, res.Status)
			require.Greater(t, res.LatencyMilliSec, float64(0))
			require.Empty(t, res.Error)

		case <-ctx.Done():
			t.Fatal("smoke test result not sent")
		}
	})

	t.Run("smoke test failed - offline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		results := make(chan Results, 1)
		smokeTest := HandleSmokeTest(ctx, Options{
			Endpoint: "http://localkubb",
			SendResult: func(_ context.Context, res Results) error {
				results <- res
				return nil
			},
		})

		rec := httptest.NewRecorder()
		smokeTest.ServeHTTP(rec, newSmokeTestRequest(t, Request{
			Endpoint: "http://otherkubb.invalid",
			Timeout:  time.Second,
		}))
		require.Equal(t, http.StatusOK, rec.Code)

		select {
		case res := <-results:
			require.Equal(t, "http://otherkubb.invalid", res.ToEndpoint)
			require.Equal(t, StatusFailed, res.Status)
			require.Zero(t, res.LatencyMilliSec)
			require.NotEmpty(t, res.Error)

		case <-ctx.Done():
			t.Fatal("smoke test result not sent")
		}
	})

	t.Run("smoke test bad request", func(t *testing.T) {
		smokeTest := HandleSmokeTest(context.Background(), Options{})

		rec := httptest.NewRecorder()
		smokeTest.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "http://localkubb", bytes.NewBufferString("{")))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWebsocketURL(t *testing.T) {
	require.Equal(t, "ws://localhost:4000", websocketURL("http://localhost:4000"))
	require.Equal(t, "wss://kubb.example.com", websocketURL("https://kubb.example.com"))
	require.Equal(t, "ws://localhost:4000", websocketURL("ws://localhost:4000"))
}

func newSmokeTestRequest(t *testing.T, stReq Request) *http.Request {
	body, err := json.Marshal(stReq)
	require.NoError(t, err)

	return httptest.NewRequest(http.MethodPost, "http://localkubb", bytes.NewBuffer(body))
}

func newTestServer() *httptest.Server {
	sessions := &models.SessionStore{ServerID: "ted"}

	return httptest.NewServer(websocket.Server{
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			h := &kwebsocket.RealtimeHandler{
				ClientSyncClockInterval: time.Second,
				ClientIdleTimeout:       time.Minute,
				FrameDuration:           time.Millisecond * 15,
				Sessions:                sessions,
				Modules: []modules.Module{
					&sandbox.Module{},
				},
			}
			defer h.Close()

			kwebsocket.Handle(context.Background(), conn, h)
		},
	})
}
