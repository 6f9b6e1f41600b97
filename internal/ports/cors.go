package ports

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const localhostSuffix = "localhost"

// DomainSuffixes is the set of domains (and their subdomains) allowed to make cross origin requests
type DomainSuffixes struct {
	suffixes []string
}

func NewDomainSuffixes(suffixes ...string) (*DomainSuffixes, error) {
	for _, suffix := range suffixes {
		if strings.HasPrefix(suffix, ".") {
			return nil, fmt.Errorf("domain suffix %s should not start with a dot", suffix)
		}
		if strings.Contains(suffix, "://") {
			return nil, fmt.Errorf("domain suffix %s should not contain a scheme", suffix)
		}
		if strings.ContainsAny(suffix, "/:") {
			return nil, fmt.Errorf("domain suffix %s should be a bare domain", suffix)
		}
	}
	return &DomainSuffixes{
		suffixes: suffixes,
	}, nil
}

// AnyMatch reports whether origin is https://<suffix> or https://<subdomain>.<suffix> for any suffix.
// The localhost suffix additionally allows plain http and any port.
func (suffixes *DomainSuffixes) AnyMatch(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.User != nil || parsed.Path != "" || parsed.RawQuery != "" {
		return false
	}

	host := parsed.Hostname()
	if host == "" {
		return false
	}

	for _, suffix := range suffixes.suffixes {
		if host != suffix && !strings.HasSuffix(host, "."+suffix) {
			continue
		}

		if suffix == localhostSuffix {
			if parsed.Scheme == "http" || parsed.Scheme == "https" {
				return true
			}
			continue
		}

		if parsed.Scheme == "https" && parsed.Port() == "" {
			return true
		}
	}
	return false
}

func BuildCORSMiddleware(allowedSuffixes *DomainSuffixes) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" && allowedSuffixes.AnyMatch(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.Header().Set("Access-Control-Allow-Methods", "GET")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
					w.Header().Set("Access-Control-Max-Age", "3600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next(w, r)
		}
	}
}

// BuildCORSHandler answers preflight requests for routes served by BuildCORSMiddleware
func BuildCORSHandler(allowedSuffixes *DomainSuffixes) http.HandlerFunc {
	return BuildCORSMiddleware(allowedSuffixes)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}
