package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
)

// MemoryStore keeps registers in process. It is used when REDIS_URL is unset
// and in tests; state is lost on restart.
type MemoryStore struct {
	mu     sync.Mutex
	regs   map[uuid.UUID][]byte
	locked map[uuid.UUID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{regs: map[uuid.UUID][]byte{}, locked: map[uuid.UUID]bool{}}
}

func (s *MemoryStore) Load(_ context.Context, tellerID, ownerID uuid.UUID) (*checkout.Register, error) {
	s.mu.Lock()
	raw, ok := s.regs[tellerID]
	s.mu.Unlock()
	if !ok {
		return checkout.NewRegister(tellerID, ownerID), nil
	}
	var reg checkout.Register
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, err
	}
	if reg.OwnerID != ownerID {
		return checkout.NewRegister(tellerID, ownerID), nil
	}
	return &reg, nil
}

func (s *MemoryStore) Save(_ context.Context, reg *checkout.Register) error {
	reg.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(reg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.regs[reg.TellerID] = raw
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Lock(_ context.Context, tellerID uuid.UUID) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked[tellerID] {
		return nil, checkout.ErrBusy
	}
	s.locked[tellerID] = true
	return func() {
		s.mu.Lock()
		delete(s.locked, tellerID)
		s.mu.Unlock()
	}, nil
}
