package dialogue

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/civicai/portal/domain/repositories"
)

// ErrDialogueNotFound is returned when a dialogue id has no live engine
var ErrDialogueNotFound = errors.New("dialogue not found")

// Manager owns the live dialogue engines, keyed by id. Dialogues exist only
// in memory and vanish when discarded or when the process exits.
type Manager struct {
	gateway repositories.InferenceGateway
	logger  *zap.Logger

	mu      sync.RWMutex
	engines map[string]*Engine
}

// NewManager creates an empty dialogue manager
func NewManager(gateway repositories.InferenceGateway, logger *zap.Logger) *Manager {
	return &Manager{
		gateway: gateway,
		logger:  logger,
		engines: make(map[string]*Engine),
	}
}

// Create starts a new guided dialogue and returns its engine
func (m *Manager) Create() *Engine {
	engine := NewEngine(m.gateway, m.logger)
	m.mu.Lock()
	m.engines[engine.ID] = engine
	m.mu.Unlock()
	m.logger.Info("Dialogue created", zap.String("dialogue_id", engine.ID))
	return engine
}

// Get returns the live engine for the given id
func (m *Manager) Get(id string) (*Engine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	engine, ok := m.engines[id]
	if !ok {
		return nil, ErrDialogueNotFound
	}
	return engine, nil
}

// Discard removes the dialogue and everything it collected
func (m *Manager) Discard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.engines[id]; !ok {
		return ErrDialogueNotFound
	}
	delete(m.engines, id)
	m.logger.Info("Dialogue discarded", zap.String("dialogue_id", id))
	return nil
}

// Count reports how many dialogues are live
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.engines)
}
