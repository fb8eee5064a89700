package retrieval

import (
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mentor-lab/chiron/pkg/domain/model"
)

// Registry holds the registered domain modules. Modules are registered
// ahead of use; querying an unregistered domain yields the empty module
// so callers degrade to generic behavior instead of failing.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*model.DomainModule
}

func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]*model.DomainModule),
	}
}

// Register validates and stores a domain module, replacing any previous
// registration for the same domain.
func (r *Registry) Register(module *model.DomainModule) error {
	if err := module.Validate(); err != nil {
		return goerr.Wrap(err, "invalid domain module")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[module.Domain] = module
	return nil
}

// Get returns the module for a domain, or the empty module
func (r *Registry) Get(domain string) *model.DomainModule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if module, ok := r.modules[domain]; ok {
		return module
	}
	return model.EmptyDomainModule(domain)
}

// Domains returns the registered domain names, sorted
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := make([]string, 0, len(r.modules))
	for domain := range r.modules {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains
}
