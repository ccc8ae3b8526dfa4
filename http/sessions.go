package http

import (
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/octree"
	"github.com/gorilla/mux"
	"github.com/segmentio/encoding/json"
)

// SessionAPI serves a read-only view of the sessions hosted by the server.
type SessionAPI struct {
	Sessions *models.SessionStore

	// Returns the octree statistics of a session. Sessions without an octree
	// report false.
	OctreeStats func(*models.Session) (octree.Stats, bool)
}

// SessionInfo describes a hosted session.
type SessionInfo struct {
	ID               string    `json:"id"`
	UUID             string    `json:"uuid"`
	CreatedAt        time.Time `json:"created_at"`
	ParticipantCount int       `json:"participant_count"`
	EntityCount      int       `json:"entity_count"`
}

// SessionOctree describes the octree of a hosted session.
type SessionOctree struct {
	SessionID string       `json:"session_id"`
	Stats     octree.Stats `json:"stats"`
}

// Handler returns the router that serves the session routes.
func (a SessionAPI) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/sessions", a.handleList).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/octree", a.handleOctree).Methods(http.MethodGet)
	return r
}

func (a SessionAPI) handleList(w http.ResponseWriter, r *http.Request) {
	sessions := a.Sessions.List()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, SessionInfo{
			ID:               a.Sessions.GlobalSessionID(s.ID),
			UUID:             s.SessionUUID,
			CreatedAt:        s.CreatedAt,
			ParticipantCount: s.ParticipantCount(),
			EntityCount:      s.EntityCount(),
		})
	}

	writeJSON(w, http.StatusOK, infos)
}

func (a SessionAPI) handleOctree(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	session, ok := a.Sessions.GetByGlobalID(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if a.OctreeStats == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	stats, ok := a.OctreeStats(session)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, SessionOctree{
		SessionID: id,
		Stats:     stats,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logs.Warn(errors.New("encoding http response failed").Wrap(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
