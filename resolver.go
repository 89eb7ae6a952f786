package ember

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Handler serves one request. It returns nil when the mapping is
// skippable and declines to handle the request, in which case the
// Resolver continues with the next matching mapping.
type Handler func(req *Request) *Response

// Protocol is one of the schemes a Hook may be restricted to.
type Protocol uint8

// Protocols.
const (
	ProtocolHTTP Protocol = 1 << iota
	ProtocolHTTPS
)

// ProtocolSet is a bitset of Protocols. The zero value matches both.
type ProtocolSet uint8

// AllProtocols matches both http and https.
const AllProtocols = ProtocolSet(ProtocolHTTP | ProtocolHTTPS)

// Contains reports whether p includes the proto.
func (p ProtocolSet) Contains(proto Protocol) bool {
	if p == 0 {
		return true
	}
	return ProtocolSet(proto)&p != 0
}

// Hook is an immutable match specification for a Mapping.
type Hook struct {
	Domain         string // "" means Domain is unset (matches any host)
	HasDomain      bool
	SpecificDomain bool

	Path         string // "" is a legal, explicit path (matches "/")
	HasPath      bool
	SpecificPath bool

	Port    int // 0 means Port is unset (matches any port)
	HasPort bool

	Protocols ProtocolSet
	Skippable bool
}

// NewHook validates and returns a Hook. It panics on a structurally
// invalid hook — these are programmer errors caught at registration
// time, not request-time conditions.
func NewHook(opts Hook) Hook {
	if opts.HasDomain {
		if err := validateHookDomain(opts.Domain); err != nil {
			panic("ember: invalid hook domain: " + err.Error())
		}
	}
	if opts.HasPath {
		if opts.Path != "" && opts.Path[0] != '/' {
			panic("ember: hook path must be empty or begin with /")
		}
		if opts.Path != "" && strings.HasSuffix(opts.Path, "/") && !opts.SpecificPath {
			panic("ember: hook path may not end with / unless SpecificPath")
		}
	}
	if opts.HasPort {
		if opts.Port < 1 || opts.Port > 65535 {
			panic("ember: hook port must be in [1, 65535]")
		}
	}
	if opts.Protocols == 0 {
		opts.Protocols = AllProtocols
	}
	return opts
}

func validateHookDomain(d string) error {
	if d == "" {
		return fmt.Errorf("domain must not be empty when set")
	}
	if d[0] == '.' || d[0] == '-' || d[len(d)-1] == '.' || d[len(d)-1] == '-' {
		return fmt.Errorf("domain must not begin or end with . or -")
	}
	if strings.Contains(d, ".-") || strings.Contains(d, "-.") {
		return fmt.Errorf("domain must not contain .- or -.")
	}
	for _, r := range d {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return fmt.Errorf("domain must be lowercase alphanumeric with . and -")
		}
	}
	return nil
}

// equal reports whether h and o are the same hook for duplicate-detection
// purposes.
func (h Hook) equal(o Hook) bool {
	return h.Domain == o.Domain && h.HasDomain == o.HasDomain &&
		h.SpecificDomain == o.SpecificDomain &&
		h.Path == o.Path && h.HasPath == o.HasPath &&
		h.SpecificPath == o.SpecificPath &&
		h.Port == o.Port && h.HasPort == o.HasPort &&
		h.Protocols == o.Protocols
}

// matches reports whether the hook matches the request URL's scheme, port,
// domain and path.
func (h Hook) matches(u *URL) (domainMatch, pathMatch string, ok bool) {
	proto := ProtocolHTTP
	if u.Secure {
		proto = ProtocolHTTPS
	}
	if !h.Protocols.Contains(proto) {
		return "", "", false
	}
	if h.HasPort && u.Port != 0 && h.Port != u.Port {
		return "", "", false
	}

	domain := u.Domain()
	switch {
	case !h.HasDomain:
		domainMatch = ""
	case domain == h.Domain:
		domainMatch = h.Domain
	case !h.SpecificDomain && strings.HasSuffix(domain, "."+h.Domain):
		domainMatch = h.Domain
	default:
		return "", "", false
	}

	path := u.Path()
	switch {
	case !h.HasPath:
		pathMatch = ""
	case path == h.Path:
		pathMatch = h.Path
	case h.Path == "" && path == "/":
		pathMatch = "/"
	case !h.SpecificPath && strings.HasPrefix(path, h.Path+"/"):
		pathMatch = h.Path
	default:
		return "", "", false
	}

	return domainMatch, pathMatch, true
}

// less implements the resolver's six-key tie-break total order: the
// first differing key wins.
func (h Hook) less(o Hook) bool {
	// 1. Port: specific before null, else ascending.
	if h.HasPort != o.HasPort {
		return h.HasPort
	}
	if h.HasPort && h.Port != o.Port {
		return h.Port < o.Port
	}

	// 2. SpecificDomain true before false.
	if h.SpecificDomain != o.SpecificDomain {
		return h.SpecificDomain
	}

	// 3. Domain: non-null before null; among non-null, longer before
	// shorter.
	if h.HasDomain != o.HasDomain {
		return h.HasDomain
	}
	if h.HasDomain && len(h.Domain) != len(o.Domain) {
		return len(h.Domain) > len(o.Domain)
	}

	// 4. SpecificPath true before false.
	if h.SpecificPath != o.SpecificPath {
		return h.SpecificPath
	}

	// 5. Path: non-null before null; among non-null, longer before
	// shorter.
	if h.HasPath != o.HasPath {
		return h.HasPath
	}
	if h.HasPath && len(h.Path) != len(o.Path) {
		return len(h.Path) > len(o.Path)
	}

	// 6. Non-skippable before skippable.
	if h.Skippable != o.Skippable {
		return !h.Skippable
	}

	return false
}

// Mapping pairs a Hook with the Handler it routes to.
type Mapping struct {
	Hook    Hook
	Handler Handler
}

// Resolver is an ordered collection of URL hook → handler mappings. It
// routes a request to the first matching handler, rewriting the request
// URL so each handler sees only the path/domain suffix it owns.
type Resolver struct {
	mu       sync.Mutex
	mappings []Mapping
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Add inserts a single mapping. It returns an error if mapping is
// non-skippable and its hook collides with an existing non-skippable
// mapping's hook.
func (r *Resolver) Add(hook Hook, h Handler) error {
	return r.AddRange([]Mapping{{Hook: hook, Handler: h}})
}

// AddRange inserts mappings in one locked pass: merge, sort, and validate
// duplicates together.
func (r *Resolver) AddRange(mappings []Mapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	merged := append(append([]Mapping{}, r.mappings...), mappings...)
	for i := range merged {
		if merged[i].Hook.Skippable {
			continue
		}
		for j := i + 1; j < len(merged); j++ {
			if merged[j].Hook.Skippable {
				continue
			}
			if merged[i].Hook.equal(merged[j].Hook) {
				return fmt.Errorf("ember: hook collision between mappings %d and %d", i, j)
			}
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Hook.less(merged[j].Hook)
	})

	r.mappings = merged
	return nil
}

// snapshot copies the whole mapping list out under the lock, so Resolve
// can filter it and invoke handlers without holding the lock.
func (r *Resolver) snapshot() []Mapping {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Mapping{}, r.mappings...)
}

// Resolve dispatches req through the first matching mapping, in sort
// order, rewriting its URL at each step. It returns the matched handler's
// response, or a *Error of kind ErrKindNotFound if nothing matched, or a
// *Error of kind ErrKindInternal if a non-skippable handler declined.
func (r *Resolver) Resolve(req *Request) (*Response, error) {
	originalURL := req.URL
	for _, m := range r.snapshot() {
		domainMatch, pathMatch, ok := m.Hook.matches(req.URL)
		if !ok {
			continue
		}

		rewritten := req.URL
		if domainMatch != "" {
			rewritten = rewritten.WithParentDomain(domainMatch)
		}
		if pathMatch != "" {
			rewritten = rewritten.WithParentPath(pathMatch)
		}

		req.URL = rewritten
		res := m.Handler(req)
		req.URL = originalURL

		if res != nil {
			return res, nil
		}
		if !m.Hook.Skippable {
			return nil, Wrap(fmt.Errorf("ember: non-skippable handler returned no response"))
		}
		// Skippable decline: URL was already restored above; continue.
	}

	return nil, NotFound(originalURL)
}
