// Package uri parses the scheme://[user[:pass]@]host[:port][/path]
// [?query][#fragment] resource identifiers gmfconfig descriptors and
// pool.NewIO factories use to name I/O endpoints (spec.md §6, §8
// scenario 6). The scheme registry mirrors the teacher's
// services/bridge.RegisterTransport plugin idiom: built-in schemes are
// seeded at init, callers can add their own without touching this
// package.
package uri

import (
	"strconv"
	"strings"
	"sync"

	"github.com/jangala-dev/gmf/gmferr"
)

// URI is a parsed resource identifier. Fields are zero-valued when absent
// rather than pointers, since every field is optional and a missing
// Host/Path/Query/Fragment is indistinguishable from an empty one for
// every scheme this package's callers use.
type URI struct {
	Scheme   string
	User     string
	Pass     string
	Host     string
	Port     int
	Path     string
	Query    string
	Fragment string
}

var (
	mu      sync.RWMutex
	schemes = map[string]struct{}{
		"file":  {},
		"http":  {},
		"https": {},
		"embed": {},
		"uart":  {},
		"codec": {},
	}
)

// RegisterScheme adds name to the set of schemes Parse accepts, for a
// backend that wants to name its own endpoints (e.g. a custom transport)
// without forking this package.
func RegisterScheme(name string) {
	mu.Lock()
	schemes[name] = struct{}{}
	mu.Unlock()
}

func knownScheme(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := schemes[name]
	return ok
}

// Parse parses s as scheme://[user[:pass]@]host[:port][/path][?query]
// [#fragment], rejecting anything without a "://" separator or whose
// scheme was never registered.
func Parse(s string) (URI, error) {
	const op = "uri.Parse"

	idx := strings.Index(s, "://")
	if idx < 0 {
		return URI{}, gmferr.New(op, gmferr.InvalidArgument, "missing scheme separator in "+s, nil)
	}
	scheme, rest := s[:idx], s[idx+3:]
	if !knownScheme(scheme) {
		return URI{}, gmferr.New(op, gmferr.InvalidArgument, "unknown scheme "+scheme, nil)
	}
	u := URI{Scheme: scheme}

	if h := strings.IndexByte(rest, '#'); h >= 0 {
		u.Fragment, rest = rest[h+1:], rest[:h]
	}
	if q := strings.IndexByte(rest, '?'); q >= 0 {
		u.Query, rest = rest[q+1:], rest[:q]
	}

	authority := rest
	if p := strings.IndexByte(rest, '/'); p >= 0 {
		authority, u.Path = rest[:p], rest[p:]
	}

	if at := strings.IndexByte(authority, '@'); at >= 0 {
		userinfo := authority[:at]
		authority = authority[at+1:]
		if c := strings.IndexByte(userinfo, ':'); c >= 0 {
			u.User, u.Pass = userinfo[:c], userinfo[c+1:]
		} else {
			u.User = userinfo
		}
	}

	if authority != "" {
		host := authority
		if c := strings.LastIndexByte(authority, ':'); c >= 0 {
			host = authority[:c]
			port, err := strconv.Atoi(authority[c+1:])
			if err != nil {
				return URI{}, gmferr.New(op, gmferr.InvalidArgument, "bad port in "+s, err)
			}
			u.Port = port
		}
		u.Host = host
	}

	return u, nil
}

// String reassembles u back into its canonical textual form.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	if u.User != "" {
		b.WriteString(u.User)
		if u.Pass != "" {
			b.WriteByte(':')
			b.WriteString(u.Pass)
		}
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	if u.Port != 0 {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	b.WriteString(u.Path)
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}
	return b.String()
}
