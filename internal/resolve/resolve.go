// Package resolve maps user-supplied short tokens to registered identities,
// applying the identity package's exact-match and unique-suffix rules
// against the set of identities known to the global config.
package resolve

import (
	"github.com/wspcli/wsp/internal/config"
	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/identity"
)

// Resolver resolves tokens against a loaded GlobalConfig's registered repos.
type Resolver struct {
	cfg *config.GlobalConfig
}

// New returns a Resolver backed by cfg.
func New(cfg *config.GlobalConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve maps token to a registered identity.
func (r *Resolver) Resolve(token string) (identity.Identity, error) {
	ids, err := r.cfg.Identities()
	if err != nil {
		return identity.Identity{}, err
	}

	return identity.Resolve(token, ids)
}

// ResolveMany resolves a list of tokens, stopping at the first error.
func (r *Resolver) ResolveMany(tokens []string) ([]identity.Identity, error) {
	ids, err := r.cfg.Identities()
	if err != nil {
		return nil, err
	}

	resolved := make([]identity.Identity, 0, len(tokens))

	for _, token := range tokens {
		id, err := identity.Resolve(token, ids)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, id)
	}

	return resolved, nil
}

// Shortnames computes shortnames for every identity currently registered.
func (r *Resolver) Shortnames() (map[identity.Identity]string, error) {
	ids, err := r.cfg.Identities()
	if err != nil {
		return nil, err
	}

	return identity.Shortnames(ids), nil
}

// ResolveGroup expands a group name to its member identities.
func (r *Resolver) ResolveGroup(name string) ([]identity.Identity, error) {
	group, ok := r.cfg.Groups[name]
	if !ok {
		return nil, cerrors.NewNotFound("group", name)
	}

	return r.ResolveMany(group.Identities)
}
