package models

import (
	"sync"

	"github.com/aukilabs/kubb/messages"
)

// A session participant.
type Participant struct {
	ID        uint32
	Responder messages.ResponseSender

	mutex     sync.RWMutex
	entityIDs map[uint32]struct{}
}

func (p *Participant) AddEntity(e *Entity) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.entityIDs == nil {
		p.entityIDs = make(map[uint32]struct{})
	}
	p.entityIDs[e.ID] = struct{}{}
}

func (p *Participant) RemoveEntity(e *Entity) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	delete(p.entityIDs, e.ID)
}

// EntityIDs returns a copy of the ids of the entities owned by the
// participant.
func (p *Participant) EntityIDs() map[uint32]struct{} {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	ids := make(map[uint32]struct{}, len(p.entityIDs))
	for id := range p.entityIDs {
		ids[id] = struct{}{}
	}
	return ids
}

func (p *Participant) ToMessage() messages.Participant {
	return messages.Participant{
		ID: p.ID,
	}
}

func ParticipantsToMessages(participants []*Participant) []messages.Participant {
	res := make([]messages.Participant, len(participants))
	for i, p := range participants {
		res[i] = p.ToMessage()
	}
	return res
}
