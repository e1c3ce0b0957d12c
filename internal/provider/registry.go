package provider

import (
	"fmt"
	"sync"

	"github.com/nidhogg/taskforce/internal/agent"
	"github.com/nidhogg/taskforce/internal/search"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Registry maps finding roles to their providers. Real search backends are
// swapped in by registering a different provider for a role.
type Registry struct {
	providers map[agent.Role]agent.FindingProvider
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[agent.Role]agent.FindingProvider),
		logger:    logger,
	}
}

// Register binds a provider to a role, replacing any previous binding.
func (r *Registry) Register(role agent.Role, p agent.FindingProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[role] = p
	r.logger.Info("registered finding provider", zap.String("role", string(role)))
}

// Get returns the provider bound to role.
func (r *Registry) Get(role agent.Role) (agent.FindingProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[role]
	return p, ok
}

// Roles returns the bound roles in fixed order.
func (r *Registry) Roles() []agent.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := agent.NewRoleSet()
	for role := range r.providers {
		set.Add(role)
	}
	return set.Ordered()
}

// DefaultsConfig tunes the canned providers built by Defaults.
type DefaultsConfig struct {
	NewsTopic       string
	InnovationTopic string
	Retry           RetryPolicy
	// Limiter, when set, is shared by every source.
	Limiter *rate.Limiter
}

// Defaults registers the offline analysts for news, policy and innovation.
// News and policy search the web collection, innovation the hackernews one.
func Defaults(catalog *search.Catalog, cfg DefaultsConfig, logger *zap.Logger) (*Registry, error) {
	if cfg.NewsTopic == "" {
		cfg.NewsTopic = DefaultNewsTopic
	}
	if cfg.InnovationTopic == "" {
		cfg.InnovationTopic = DefaultInnovationTopic
	}

	specs := []struct {
		role       agent.Role
		collection string
		topic      string
	}{
		{agent.RoleNewsAnalyst, search.CollectionWeb, cfg.NewsTopic},
		{agent.RolePolicyReviewer, search.CollectionWeb, ""},
		{agent.RoleInnovationsScout, search.CollectionHackerNews, cfg.InnovationTopic},
	}

	reg := NewRegistry(logger)
	for _, s := range specs {
		col, err := catalog.Collection(s.collection)
		if err != nil {
			return nil, fmt.Errorf("default provider %s: %w", s.role, err)
		}
		var src search.Source = col
		if cfg.Limiter != nil {
			src = search.Throttle(col, cfg.Limiter)
		}
		a, err := NewAnalyst(AnalystConfig{
			Role:         s.role,
			Source:       src,
			DefaultTopic: s.topic,
			Retry:        cfg.Retry,
		}, logger)
		if err != nil {
			return nil, err
		}
		reg.Register(s.role, a)
	}
	return reg, nil
}
