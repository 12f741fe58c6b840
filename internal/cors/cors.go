// Package cors implements the cross-origin resource sharing policy of the API.
//
// Origins are matched against the Origin request header by exact string
// equality. Requests from other origins are still served, they just carry no
// Access-Control-* headers, so the browser blocks the response from scripts.
// Preflight requests never reach the wrapped handler.
package cors

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const wildcard = "*"

// Policy describes which cross-origin requests the API answers.
type Policy struct {
	AllowedOrigins   []string // exact "scheme://host[:port]" values, or a single "*"
	AllowCredentials bool
	AllowMethods     []string // "*" allows every method
	AllowHeaders     []string // "*" allows every request header
	ExposeHeaders    []string
	MaxAge           int // seconds, 0 omits Access-Control-Max-Age
}

// DefaultPolicy returns the policy for the local development frontends:
// the craftsman portal on :5173 and the customer portal on :5174.
func DefaultPolicy() Policy {
	return Policy{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
		},
		AllowCredentials: true,
		AllowMethods:     []string{wildcard},
		AllowHeaders:     []string{wildcard},
	}
}

// Validate checks the policy before it is attached to a handler.
func (p Policy) Validate() error {
	if len(p.AllowedOrigins) == 0 {
		return ErrNoOrigins
	}
	for _, o := range p.AllowedOrigins {
		if o == wildcard {
			if p.AllowCredentials {
				return ErrWildcardCredentials
			}
			continue
		}
		if err := validateOrigin(o); err != nil {
			return err
		}
	}
	return nil
}

// Middleware validates p and returns it as chi-compatible middleware.
func (p Policy) Middleware() (func(http.Handler) http.Handler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	h := newHandler(p)
	return func(next http.Handler) http.Handler {
		return h.wrap(next)
	}, nil
}

// Handler validates p and wraps next with it.
func (p Policy) Handler(next http.Handler) (http.Handler, error) {
	mw, err := p.Middleware()
	if err != nil {
		return nil, err
	}
	return mw(next), nil
}

func validateOrigin(o string) error {
	u, err := url.Parse(o)
	if err != nil {
		return &OriginError{Origin: o, Reason: err.Error()}
	}
	switch {
	case u.Scheme == "" || u.Host == "":
		return &OriginError{Origin: o, Reason: "missing scheme or host"}
	case u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.ForceQuery:
		return &OriginError{Origin: o, Reason: "origin must not carry a path, query or fragment"}
	case u.User != nil:
		return &OriginError{Origin: o, Reason: "origin must not carry userinfo"}
	case !strings.HasPrefix(o, u.Scheme+"://"):
		return &OriginError{Origin: o, Reason: "scheme must be lower case"}
	}
	if port := u.Port(); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return &OriginError{Origin: o, Reason: "invalid port " + strconv.Quote(port)}
		}
	}
	return nil
}

// handler is the compiled form of a validated Policy.
type handler struct {
	origins       map[string]struct{}
	anyOrigin     bool
	credentials   bool
	anyMethod     bool
	methods       map[string]struct{}
	anyHeader     bool
	headers       map[string]struct{}
	allowMethods  string
	allowHeaders  string
	exposeHeaders string
	maxAge        string
}

func newHandler(p Policy) *handler {
	h := &handler{
		origins:     make(map[string]struct{}, len(p.AllowedOrigins)),
		credentials: p.AllowCredentials,
		methods:     make(map[string]struct{}, len(p.AllowMethods)),
		headers:     make(map[string]struct{}, len(p.AllowHeaders)),
	}
	for _, o := range p.AllowedOrigins {
		if o == wildcard {
			h.anyOrigin = true
			continue
		}
		h.origins[o] = struct{}{}
	}

	methods := make([]string, 0, len(p.AllowMethods))
	for _, m := range p.AllowMethods {
		if m == wildcard {
			h.anyMethod = true
			continue
		}
		m = strings.ToUpper(strings.TrimSpace(m))
		h.methods[m] = struct{}{}
		methods = append(methods, m)
	}
	if h.anyMethod {
		h.allowMethods = wildcard
	} else {
		h.allowMethods = strings.Join(methods, ", ")
	}

	headers := make([]string, 0, len(p.AllowHeaders))
	for _, hdr := range p.AllowHeaders {
		if hdr == wildcard {
			h.anyHeader = true
			continue
		}
		hdr = strings.TrimSpace(hdr)
		h.headers[strings.ToLower(hdr)] = struct{}{}
		headers = append(headers, hdr)
	}
	if h.anyHeader {
		h.allowHeaders = wildcard
	} else {
		h.allowHeaders = strings.Join(headers, ", ")
	}

	h.exposeHeaders = strings.Join(p.ExposeHeaders, ", ")
	if p.MaxAge > 0 {
		h.maxAge = strconv.Itoa(p.MaxAge)
	}
	return h
}

func (h *handler) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if r.Method == http.MethodOptions && origin != "" && r.Header.Get("Access-Control-Request-Method") != "" {
			h.preflight(w, r, origin)
			return
		}

		w.Header().Add("Vary", "Origin")
		if origin != "" && h.allowsOrigin(origin) {
			h.setAllowHeaders(w.Header(), origin)
			if h.exposeHeaders != "" {
				w.Header().Set("Access-Control-Expose-Headers", h.exposeHeaders)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *handler) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	hdr := w.Header()
	hdr.Add("Vary", "Origin")
	hdr.Add("Vary", "Access-Control-Request-Method")
	hdr.Add("Vary", "Access-Control-Request-Headers")

	var rejected []string
	if !h.allowsOrigin(origin) {
		rejected = append(rejected, "origin")
	}
	if !h.allowsMethod(r.Header.Get("Access-Control-Request-Method")) {
		rejected = append(rejected, "method")
	}
	if !h.allowsHeaders(r.Header.Values("Access-Control-Request-Headers")) {
		rejected = append(rejected, "headers")
	}
	if len(rejected) > 0 {
		hdr.Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Disallowed CORS " + strings.Join(rejected, ", ")))
		return
	}

	h.setAllowHeaders(hdr, origin)
	if h.maxAge != "" {
		hdr.Set("Access-Control-Max-Age", h.maxAge)
	}
	hdr.Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

func (h *handler) setAllowHeaders(hdr http.Header, origin string) {
	if h.anyOrigin && !h.credentials {
		hdr.Set("Access-Control-Allow-Origin", wildcard)
	} else {
		hdr.Set("Access-Control-Allow-Origin", origin)
	}
	if h.credentials {
		hdr.Set("Access-Control-Allow-Credentials", "true")
	}
	if h.allowMethods != "" {
		hdr.Set("Access-Control-Allow-Methods", h.allowMethods)
	}
	if h.allowHeaders != "" {
		hdr.Set("Access-Control-Allow-Headers", h.allowHeaders)
	}
}

func (h *handler) allowsOrigin(origin string) bool {
	if h.anyOrigin {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}

func (h *handler) allowsMethod(method string) bool {
	if h.anyMethod {
		return true
	}
	_, ok := h.methods[strings.ToUpper(method)]
	return ok
}

// allowsHeaders checks the comma-separated Access-Control-Request-Headers values.
func (h *handler) allowsHeaders(values []string) bool {
	if h.anyHeader {
		return true
	}
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if _, ok := h.headers[name]; !ok {
				return false
			}
		}
	}
	return true
}
