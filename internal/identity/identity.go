// Package identity parses git repository URLs into canonical identities and
// derives the shortest unique display name for a set of them.
//
// An Identity is the triple (host, owner, repo) that names a repository
// across every workspace. The owner component may itself contain "/"
// (nested groups, e.g. "org/sub").
package identity

import (
	"net/url"
	"sort"
	"strings"

	cerrors "github.com/wspcli/wsp/internal/errors"
	"github.com/wspcli/wsp/internal/validation"
)

// Identity is the canonical (host, owner, repo) triple for a repository.
type Identity struct {
	Host  string
	Owner string
	Repo  string
}

// Canonical renders the identity in its canonical "host/owner/repo" form.
func (id Identity) Canonical() string {
	return id.Host + "/" + id.Owner + "/" + id.Repo
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return id.Canonical()
}

// Validate enforces the identity invariants: no component is empty, none
// contains "..", a leading/trailing "/", or a null byte.
func (id Identity) Validate() error {
	if err := validation.ValidatePathComponent("host", id.Host); err != nil {
		return err
	}

	for _, seg := range strings.Split(id.Owner, "/") {
		if err := validation.ValidatePathComponent("owner", seg); err != nil {
			return err
		}
	}

	if err := validation.ValidatePathComponent("repo", id.Repo); err != nil {
		return err
	}

	return nil
}

// Parse accepts SSH (git@HOST:OWNER/REPO[.git]) and HTTPS
// (https://HOST/OWNER/REPO[.git]) URLs and normalizes both to the same
// Identity. The ".git" suffix is optional.
func Parse(rawURL string) (Identity, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Identity{}, cerrors.NewValidation("url", "cannot be empty")
	}

	var host, path string

	switch {
	case strings.Contains(rawURL, "://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return Identity{}, cerrors.NewValidation("url", "could not be parsed: "+err.Error())
		}

		host = u.Host
		path = strings.TrimPrefix(u.Path, "/")
	case strings.HasPrefix(rawURL, "git@") || strings.Contains(rawURL, "@"):
		// scp-style: user@host:owner/repo[.git]
		at := strings.LastIndex(rawURL, "@")
		rest := rawURL[at+1:]

		colon := strings.Index(rest, ":")
		if colon < 0 {
			return Identity{}, cerrors.NewValidation("url", "missing ':' in scp-style URL")
		}

		host = rest[:colon]
		path = rest[colon+1:]
	default:
		return Identity{}, cerrors.NewValidation("url", "unrecognized URL form: "+rawURL)
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")

	segments := strings.Split(path, "/")
	if len(segments) < 2 || host == "" {
		return Identity{}, cerrors.NewValidation("url", "must contain at least owner/repo: "+rawURL)
	}

	id := Identity{
		Host:  host,
		Owner: strings.Join(segments[:len(segments)-1], "/"),
		Repo:  segments[len(segments)-1],
	}

	if err := id.Validate(); err != nil {
		return Identity{}, err
	}

	return id, nil
}

// FromCanonical parses a canonical "host/owner/repo" string back into an
// Identity. It is the inverse of Identity.Canonical.
func FromCanonical(canonical string) (Identity, error) {
	segments := strings.Split(canonical, "/")
	if len(segments) < 3 {
		return Identity{}, cerrors.NewValidation("identity", "must have at least 3 components: "+canonical)
	}

	id := Identity{
		Host:  segments[0],
		Owner: strings.Join(segments[1:len(segments)-1], "/"),
		Repo:  segments[len(segments)-1],
	}

	if err := id.Validate(); err != nil {
		return Identity{}, err
	}

	return id, nil
}

// suffixSegments returns the "/"-split segments of an identity's canonical
// form, ordered from host (index 0) to repo (last index) — the same order
// used to probe shortening suffixes from the right.
func suffixSegments(id Identity) []string {
	segs := []string{id.Host}
	segs = append(segs, strings.Split(id.Owner, "/")...)
	segs = append(segs, id.Repo)

	return segs
}

// Shortnames computes, for each identity in the set, the shortest "/"-aligned
// suffix of its canonical form that is unique within the set. If no suffix
// is unique, the shortname is the full identity. Ties are broken
// deterministically in favor of the smallest depth.
func Shortnames(identities []Identity) map[Identity]string {
	result := make(map[Identity]string, len(identities))

	segsByIdentity := make([][]string, len(identities))
	for i, id := range identities {
		segsByIdentity[i] = suffixSegments(id)
	}

	for i, id := range identities {
		segs := segsByIdentity[i]

		found := false

		for depth := 1; depth <= len(segs); depth++ {
			suffix := strings.Join(segs[len(segs)-depth:], "/")

			unique := true

			for j := range identities {
				if j == i {
					continue
				}

				other := segsByIdentity[j]
				if depth > len(other) {
					continue
				}

				otherSuffix := strings.Join(other[len(other)-depth:], "/")
				if otherSuffix == suffix {
					unique = false
					break
				}
			}

			if unique {
				result[id] = suffix
				found = true

				break
			}
		}

		if !found {
			result[id] = id.Canonical()
		}
	}

	return result
}

// Resolve maps a user-supplied token to an identity within the given set.
// An exact canonical match wins first; otherwise every identity whose any
// "/"-aligned suffix equals the token is a candidate. Zero candidates is a
// not-found error, more than one is an ambiguous error.
func Resolve(token string, identities []Identity) (Identity, error) {
	for _, id := range identities {
		if id.Canonical() == token {
			return id, nil
		}
	}

	var matches []Identity

	for _, id := range identities {
		segs := suffixSegments(id)
		for depth := 1; depth <= len(segs); depth++ {
			suffix := strings.Join(segs[len(segs)-depth:], "/")
			if suffix == token {
				matches = append(matches, id)
				break
			}
		}
	}

	switch len(matches) {
	case 0:
		return Identity{}, cerrors.NewNotFound("identity", token)
	case 1:
		return matches[0], nil
	default:
		canon := make([]string, len(matches))
		for i, m := range matches {
			canon[i] = m.Canonical()
		}

		sort.Strings(canon)

		return Identity{}, cerrors.NewAmbiguous(token, canon)
	}
}

// ParseRepoRef splits a "name@ref" token on the *last* "@" so SSH-style
// names containing "@" are preserved. A trailing "@" yields an empty ref
// (treated as "no pin").
func ParseRepoRef(token string) (name, ref string) {
	at := strings.LastIndex(token, "@")
	if at < 0 {
		return token, ""
	}

	return token[:at], token[at+1:]
}
