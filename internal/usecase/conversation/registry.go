package conversation

import (
	"fmt"
	"time"

	"github.com/futig/template-chat/internal/config"
	"github.com/futig/template-chat/internal/entity"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Registry keeps live conversations in memory. Entries expire after the
// configured TTL of inactivity.
type Registry struct {
	cache          *cache.Cache
	prompts        config.Prompts
	gateway        Gateway
	maxCorrections int
}

func NewRegistry(cfg config.ConversationConfig, prompts config.Prompts, gateway Gateway) *Registry {
	if gateway == nil {
		panic("conversation: nil gateway")
	}

	return &Registry{
		cache:          cache.New(cfg.TTL, cfg.CleanupInterval),
		prompts:        prompts,
		gateway:        gateway,
		maxCorrections: cfg.MaxCorrections,
	}
}

func (r *Registry) Create() *Orchestrator {
	o := NewOrchestrator(uuid.New().String(), r.prompts, r.gateway, r.maxCorrections)
	r.cache.SetDefault(o.ID(), o)
	return o
}

// Get returns the conversation and pushes its expiry forward.
func (r *Registry) Get(id string) (*Orchestrator, error) {
	item, found := r.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}

	o, ok := item.(*Orchestrator)
	if !ok {
		r.cache.Delete(id)
		return nil, fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}

	// Replace fails once the entry is gone, so a concurrent Delete wins.
	if err := r.cache.Replace(id, o, cache.DefaultExpiration); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}
	return o, nil
}

func (r *Registry) Delete(id string) error {
	if _, found := r.cache.Get(id); !found {
		return fmt.Errorf("%w: %s", entity.ErrConversationNotFound, id)
	}
	r.cache.Delete(id)
	return nil
}

func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// ExpiresAt reports when an idle conversation will be dropped.
func (r *Registry) ExpiresAt(id string) (time.Time, bool) {
	_, exp, found := r.cache.GetWithExpiration(id)
	return exp, found
}
