package models

import (
	"sync"

	"github.com/aukilabs/kubb/messages"
	"github.com/aukilabs/kubb/octree"
	"github.com/go-gl/mathgl/mgl64"
)

// Entity is an object placed in a session.
type Entity struct {
	ID            uint32
	ParticipantID uint32
	Persist       bool

	mutex    sync.RWMutex
	position mgl64.Vec3
	collider *octree.BoundingBox
	collides bool
}

func (e *Entity) SetPosition(v mgl64.Vec3) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.position = v
}

func (e *Entity) Position() mgl64.Vec3 {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.position
}

// SetCollider sets the collider bound, relative to the entity position, and
// whether the entity is collidable.
func (e *Entity) SetCollider(bound octree.BoundingBox, collides bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.collider = &bound
	e.collides = collides
}

// SetCollides toggles whether the entity is collidable. An entity without
// collider is never collidable.
func (e *Entity) SetCollides(v bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.collides = v
}

// Collider returns the collider bound relative to the entity position.
func (e *Entity) Collider() (octree.BoundingBox, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.collider == nil {
		return octree.BoundingBox{}, false
	}
	return *e.collider, true
}

// WorldBound returns the collider bound translated to the entity position.
// It returns false when the entity is not collidable.
func (e *Entity) WorldBound() (octree.BoundingBox, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	if e.collider == nil || !e.collides {
		return octree.BoundingBox{}, false
	}
	return e.collider.Translate(e.position), true
}

func (e *Entity) ToMessage() messages.Entity {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	msg := messages.Entity{
		ID:            e.ID,
		ParticipantID: e.ParticipantID,
		Persist:       e.Persist,
		Position:      e.position,
		Collides:      e.collider != nil && e.collides,
	}

	if e.collider != nil {
		bound := *e.collider
		msg.Bound = &bound
	}
	return msg
}

func EntitiesToMessages(entities []*Entity) []messages.Entity {
	res := make([]messages.Entity, len(entities))
	for i, e := range entities {
		res[i] = e.ToMessage()
	}
	return res
}
