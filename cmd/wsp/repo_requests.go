package main

import (
	"github.com/wspcli/wsp/internal/app"
	"github.com/wspcli/wsp/internal/identity"
	"github.com/wspcli/wsp/internal/workspace"
)

// buildRepoRequests expands the named groups first and then resolves a
// list of "name[@ref]" tokens against the global registry, keeping the
// first request for each identity, and attaches each identity's
// registered URL as the upstream.
func buildRepoRequests(a *app.App, tokens []string, groups []string) ([]workspace.RepoRequest, error) {
	var requests []workspace.RepoRequest

	seen := make(map[string]bool)

	addIdentity := func(id identity.Identity, ref string) {
		if seen[id.Canonical()] {
			return
		}

		seen[id.Canonical()] = true

		upstream := ""
		if reg, ok := a.Config.Repos[id.Canonical()]; ok {
			upstream = reg.URL
		}

		requests = append(requests, workspace.RepoRequest{Identity: id, Ref: ref, UpstreamURL: upstream})
	}

	for _, groupName := range groups {
		ids, err := a.Resolver.ResolveGroup(groupName)
		if err != nil {
			return nil, err
		}

		for _, id := range ids {
			addIdentity(id, "")
		}
	}

	for _, token := range tokens {
		name, ref := identity.ParseRepoRef(token)

		id, err := a.Resolver.Resolve(name)
		if err != nil {
			return nil, err
		}

		addIdentity(id, ref)
	}

	return requests, nil
}
