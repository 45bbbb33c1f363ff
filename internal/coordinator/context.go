package coordinator

import (
	"bytes"
	"encoding/gob"
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/cluster"
	"github.com/dreamware/colony/internal/colony"
	"github.com/dreamware/colony/internal/registry"
	"github.com/dreamware/colony/internal/rpc"
	"github.com/dreamware/colony/internal/storage"
)

// ColonyStatus is the lifecycle state of the colony.
type ColonyStatus uint8

const (
	StatusNotInitialized ColonyStatus = iota
	StatusInitializing
	StatusTopographyInitialized
)

// String returns the status name used in logs and the query surface.
func (s ColonyStatus) String() string {
	switch s {
	case StatusNotInitialized:
		return "not-initialized"
	case StatusInitializing:
		return "initializing"
	case StatusTopographyInitialized:
		return "topography-initialized"
	default:
		return "unknown"
	}
}

const stateKey = "coordinator_state"

// persistedState is the gob payload surviving coordinator restarts. An
// in-flight initialization is deliberately not persisted; a restart during
// one comes back as not-initialized.
type persistedState struct {
	Status         ColonyStatus
	IdempotencyKey string
	InstanceID     string
	Grid           cluster.GridSpec
	Topology       *cluster.Topology
}

// Config carries the coordinator's static configuration.
type Config struct {
	// Self is the coordinator's internal RPC identity recorded in the
	// topology.
	Self cluster.HostInfo

	// Grid fixes the colony's shard layout.
	Grid cluster.GridSpec

	// OutputDir is the base directory for event logs and stat captures.
	// Empty disables both.
	OutputDir string
}

// Context is the coordinator's single mutable state, shared by the HTTP
// surface, the background initializer, and the generators. One mutex guards
// the lifecycle fields; the heavyweight work runs outside it.
type Context struct {
	cfg    Config
	log    *zap.Logger
	reg    registry.Registry
	store  storage.Store
	client *rpc.Client
	clk    clock.Clock
	rules  colony.LifeRules

	mu             sync.Mutex
	status         ColonyStatus
	idempotencyKey string
	instanceID     string
	topology       *cluster.Topology
}

// NewContext restores persisted lifecycle state and returns a ready
// context.
func NewContext(cfg Config, reg registry.Registry, store storage.Store, clk clock.Clock, log *zap.Logger) (*Context, error) {
	c := &Context{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		store:  store,
		client: rpc.NewClient(log),
		clk:    clk,
		rules:  colony.DefaultLifeRules(),
		status: StatusNotInitialized,
	}

	data, err := store.Get(stateKey)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		// Fresh coordinator.
	case err != nil:
		log.Warn("persisted state unreadable, starting fresh", zap.Error(err))
	default:
		var state persistedState
		if derr := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); derr != nil {
			log.Warn("persisted state undecodable, starting fresh", zap.Error(derr))
			break
		}
		if state.Status == StatusInitializing {
			state.Status = StatusNotInitialized
		}
		// A completed status is only honored together with its topology;
		// without one the coordinator could never serve or broadcast again.
		if state.Status == StatusTopographyInitialized && state.Topology == nil {
			log.Warn("persisted state has no topology, starting fresh")
			break
		}
		c.status = state.Status
		c.idempotencyKey = state.IdempotencyKey
		c.instanceID = state.InstanceID
		c.topology = state.Topology
		if state.Grid != (cluster.GridSpec{}) {
			c.cfg.Grid = state.Grid
		}
		log.Info("lifecycle state restored",
			zap.Stringer("status", c.status),
			zap.String("instance_id", c.instanceID))
	}

	return c, nil
}

// persistLocked writes the lifecycle state. Caller holds c.mu.
func (c *Context) persistLocked() {
	state := persistedState{
		Status:         c.status,
		IdempotencyKey: c.idempotencyKey,
		InstanceID:     c.instanceID,
		Grid:           c.cfg.Grid,
		Topology:       c.topology,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		c.log.Error("state encode failed", zap.Error(err))
		return
	}
	if err := c.store.Put(stateKey, buf.Bytes()); err != nil {
		c.log.Error("state write failed", zap.Error(err))
	}
}

// Status returns the current lifecycle state.
func (c *Context) Status() ColonyStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Topology returns the assigned topology, nil before initialization
// completes.
func (c *Context) Topology() *cluster.Topology {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topology
}

// InstanceID identifies this colony run in event logs and stat captures.
func (c *Context) InstanceID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instanceID
}

// Rules returns the current life rules.
func (c *Context) Rules() colony.LifeRules {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rules
}

// setRules replaces the life rules after a rule-change broadcast.
func (c *Context) setRules(rules colony.LifeRules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = rules
}
