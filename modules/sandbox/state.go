package sandbox

import (
	"sort"
	"sync"
	"time"

	"github.com/aukilabs/kubb/models"
	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
)

// SyncResult describes the changes applied to the index by a sync.
type SyncResult struct {
	Inserted int
	Removed  int
	Moved    int
}

// State represents the sandbox state of a session: the octree indexing the
// collidable entities and the participant cameras.
type State struct {
	mutex sync.RWMutex
	index *octree.Octree

	// The world bound each indexed entity was inserted with.
	tracked map[uint32]octree.BoundingBox

	cameraMutex sync.Mutex
	cameras     map[uint32]*Camera

	frameMutex        sync.Mutex
	participants      map[uint32]struct{}
	stopFrameHandling func()
}

// NewState creates a state indexing the given region.
func NewState(region octree.BoundingBox, opts ...octree.Option) *State {
	return &State{
		index:        octree.New(region, opts...),
		tracked:      make(map[uint32]octree.BoundingBox),
		cameras:      make(map[uint32]*Camera),
		participants: make(map[uint32]struct{}),
	}
}

// Join registers a participant of the given session. The index is synced with
// the session entities on every session frame while participants remain.
func (s *State) Join(session *models.Session, participantID uint32) {
	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	s.participants[participantID] = struct{}{}
	if s.stopFrameHandling == nil {
		s.handleFrames(session)
	}
}

// Leave unregisters a participant and removes its camera. Syncing stops with
// the last participant.
func (s *State) Leave(participantID uint32) {
	s.removeCamera(participantID)

	s.frameMutex.Lock()
	defer s.frameMutex.Unlock()

	delete(s.participants, participantID)
	if len(s.participants) == 0 {
		s.stopFrames()
	}
}

func (s *State) handleFrames(session *models.Session) {
	s.stopFrameHandling = session.HandleFrame(func() {
		start := time.Now()
		res := s.Sync(session.Entities())
		instrumentSync(res, time.Since(start))

		if res != (SyncResult{}) {
			instrumentDepth(s.Stats())
		}
	})
}

func (s *State) stopFrames() {
	if s.stopFrameHandling != nil {
		s.stopFrameHandling()
		s.stopFrameHandling = nil
	}
}

// Sync updates the index with the collidable state of the given entities.
// Entities that became collidable are inserted first, then entities that
// stopped being collidable or are not given anymore are removed. Entities
// whose world bound changed are moved last.
func (s *State) Sync(entities []*models.Entity) SyncResult {
	var res SyncResult

	current := make(map[uint32]octree.BoundingBox, len(entities))
	ids := make([]uint32, 0, len(entities))
	for _, e := range entities {
		if bound, ok := e.WorldBound(); ok {
			current[e.ID] = bound
			ids = append(ids, e.ID)
		}
	}
	sortIDs(ids)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, id := range ids {
		if _, ok := s.tracked[id]; ok {
			continue
		}

		bound := current[id]
		if s.index.Insert(octree.EntityID(id), bound) {
			s.tracked[id] = bound
			res.Inserted++
		}
	}

	removed := make([]uint32, 0)
	for id := range s.tracked {
		if _, ok := current[id]; !ok {
			removed = append(removed, id)
		}
	}
	sortIDs(removed)

	for _, id := range removed {
		if s.index.Remove(octree.EntityID(id), s.tracked[id]) {
			res.Removed++
		}
		delete(s.tracked, id)
	}

	for _, id := range ids {
		bound := current[id]
		old, ok := s.tracked[id]
		if !ok || old.Equal(bound) {
			continue
		}

		if !s.index.Remove(octree.EntityID(id), old) {
			continue
		}
		if !s.index.Insert(octree.EntityID(id), bound) {
			s.index.Insert(octree.EntityID(id), old)
			continue
		}
		s.tracked[id] = bound
		res.Moved++
	}

	return res
}

// Raycast returns the nearest indexed entity hit by a ray and the impact point
// moved back along the ray by correction.
func (s *State) Raycast(origin, dir mgl64.Vec3, correction float64) (octree.Hit, mgl64.Vec3, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.RaycastHit(origin, dir, correction)
}

// Intersecting returns the ids of the indexed entities whose bound intersects
// the given bound, ordered by id.
func (s *State) Intersecting(bound octree.BoundingBox) []uint32 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ids := make([]uint32, 0)
	s.index.QueryIntersecting(bound, func(id octree.EntityID) {
		ids = append(ids, uint32(id))
	})

	sortIDs(ids)
	return ids
}

// PlacementPosition returns the center of the cell where a cube is placed by
// the given ray.
func (s *State) PlacementPosition(origin, dir mgl64.Vec3) (mgl64.Vec3, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return PlacementPosition(s.index, origin, dir)
}

// Indexed reports whether the entity is indexed.
func (s *State) Indexed(id uint32) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.Contains(octree.EntityID(id))
}

func (s *State) Region() octree.BoundingBox {
	return s.index.Region()
}

func (s *State) Stats() octree.Stats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.index.Stats()
}

// Camera returns the camera of a participant. A camera is created when the
// participant does not have one.
func (s *State) Camera(participantID uint32) Camera {
	s.cameraMutex.Lock()
	defer s.cameraMutex.Unlock()

	return *s.camera(participantID)
}

// UpdateCamera applies f to the camera of a participant and returns the
// result.
func (s *State) UpdateCamera(participantID uint32, f func(*Camera)) Camera {
	s.cameraMutex.Lock()
	defer s.cameraMutex.Unlock()

	c := s.camera(participantID)
	f(c)
	return *c
}

func (s *State) removeCamera(participantID uint32) {
	s.cameraMutex.Lock()
	defer s.cameraMutex.Unlock()

	delete(s.cameras, participantID)
}

func (s *State) camera(participantID uint32) *Camera {
	c, ok := s.cameras[participantID]
	if !ok {
		cam := NewCamera()
		c = &cam
		s.cameras[participantID] = c
	}
	return c
}

func sortIDs(ids []uint32) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
}
