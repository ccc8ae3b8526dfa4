package websocket

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	kubbhttp "github.com/aukilabs/kubb/http"
	"github.com/aukilabs/kubb/messages"
	"golang.org/x/net/websocket"
)

const (
	sessionIDTag     = "session_id"
	sessionUUIDTag   = "session_uuid"
	participantIDTag = "participant_id"
)

func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[string]int),
	}

	go handler.startSummaryWorker(ctx)
	return handler
}

type handlerWithLogs struct {
	Handler

	originalRequest *http.Request

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[string]int

	sessionID     string
	sessionUUID   string
	participantID uint32
}

type httpHeaders struct {
	UserAgent               string `json:"user_agent,omitempty"`
	XForwardedFor           string `json:"x_forwarded_for,omitempty"`
	CloudFrontCountryName   string `json:"cloudfront_viewer_country,omitempty"`
	CloudFrontViewerAddress string `json:"cloudfront_viewer_address,omitempty"`
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)
	h.originalRequest = conn.Request()

	h.entry().Info("new client is connected")
}

func (h *handlerWithLogs) HandleParticipantJoin(ctx context.Context, handleFrame func(), sender messages.ResponseSender, msg messages.Msg) error {
	if err := h.Handler.HandleParticipantJoin(ctx, handleFrame, sender, msg); err != nil {
		return err
	}

	if h.CurrentParticipant() == nil {
		var req messages.ParticipantJoinRequest
		// The request was already decoded successfully by the wrapped
		// handler.
		msg.DataTo(&req)

		h.entry().
			WithTag(sessionIDTag, req.SessionID).
			WithTag("request_id", req.RequestID).
			WithTag("http_headers", h.httpHeaders()).
			Info("participant failed to join a session")
		return nil
	}

	h.sessionID = h.GetSessions().GlobalSessionID(h.CurrentSession().ID)
	h.sessionUUID = h.CurrentSession().SessionUUID
	h.participantID = h.CurrentParticipant().ID

	h.sessionEntry().
		WithTag("http_headers", h.httpHeaders()).
		Info("participant joined a session")
	return nil
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)
	h.sessionEntry().Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() messages.Receiver {
	receive := h.Handler.Receiver()

	return func() (messages.Msg, int, error) {
		msg, n, err := receive()
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			h.sessionEntry().Error(errors.New("receiving message failed").Wrap(err))
		} else if err == nil {
			h.sessionEntry().
				WithTag("msg_type", msg.TypeString()).
				Debug("message received")
			h.incCounter(msg.TypeString())
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() messages.Sender {
	sender := h.Handler.Sender()

	return func(msg messages.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			h.sessionEntry().
				WithTag("msg_type", msgType).
				Error(errors.New("sending message failed").Wrap(err))
		} else if err == nil {
			h.sessionEntry().
				WithTag("msg_type", msgType).
				Debug("message sent")
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType string) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	entry := h.sessionEntry().WithTag("time_interval", h.summaryInterval)
	for k, v := range h.counter {
		entry = entry.WithTag(k, v)
		delete(h.counter, k)
	}

	entry.Info("inbound message summary")
}

func (h *handlerWithLogs) entry() logs.Entry {
	return logs.WithTag(logs.ClientIDTag, h.GetClientID())
}

func (h *handlerWithLogs) sessionEntry() logs.Entry {
	return h.entry().
		WithTag(sessionIDTag, h.sessionID).
		WithTag(sessionUUIDTag, h.sessionUUID).
		WithTag(participantIDTag, h.participantID)
}

func (h *handlerWithLogs) httpHeaders() httpHeaders {
	req := h.originalRequest
	if req == nil {
		return httpHeaders{}
	}

	return httpHeaders{
		UserAgent:               req.UserAgent(),
		XForwardedFor:           req.Header.Get(kubbhttp.XForwardedForHeaderKey),
		CloudFrontCountryName:   req.Header.Get(kubbhttp.CloudFrontCountryNameHeaderKey),
		CloudFrontViewerAddress: req.Header.Get(kubbhttp.CloudFrontViewerAddressHeaderKey),
	}
}
