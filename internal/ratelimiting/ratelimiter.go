package ratelimiting

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// Idle limiters are dropped after this long. A dropped limiter is recreated with a full bucket.
const limiterIdleTTL = 30 * time.Minute

type RateLimiter interface {
	Consume(key string) bool
}

type RefillPerSecond int
type BurstSize int

// tokenBuckets holds one token bucket per key, all with the same refill rate and burst
type tokenBuckets struct {
	buckets *ttlcache.Cache[string, *rate.Limiter]
	limit   rate.Limit
	burst   int
}

func (t *tokenBuckets) Consume(key string) bool {
	// GetOrSet keeps concurrent first requests for a key on the same bucket
	item, _ := t.buckets.GetOrSet(key, rate.NewLimiter(t.limit, t.burst))
	return item.Value().Allow()
}

// NewTokenBucketRateLimiter returns a limiter with one token bucket per key, and a function to stop it
func NewTokenBucketRateLimiter(refillPerSecond RefillPerSecond, burstSize BurstSize) (RateLimiter, func()) {
	buckets := ttlcache.New(
		ttlcache.WithTTL[string, *rate.Limiter](limiterIdleTTL),
	)
	go buckets.Start()

	return &tokenBuckets{
		buckets: buckets,
		limit:   rate.Limit(refillPerSecond),
		burst:   int(burstSize),
	}, buckets.Stop
}

// RequestRateLimiter limits requests by a key derived from the request
type RequestRateLimiter interface {
	Consume(r *http.Request) bool
	KeyFor(r *http.Request) string
}

type keyedRequestLimiter struct {
	limiter RateLimiter
	keyFunc func(r *http.Request) string
}

func (l *keyedRequestLimiter) Consume(r *http.Request) bool {
	return l.limiter.Consume(l.KeyFor(r))
}

func (l *keyedRequestLimiter) KeyFor(r *http.Request) string {
	return l.keyFunc(r)
}

func NewRequestBasedRateLimiter(limiter RateLimiter, keyFunc func(r *http.Request) string) RequestRateLimiter {
	return &keyedRequestLimiter{
		limiter: limiter,
		keyFunc: keyFunc,
	}
}

// IPKeyFunc keys on the client ip.
//
// Behind a load balancer the client ip is the second to last entry of
// X-Forwarded-For, as the balancer appends both the client and itself.
// IPv4-mapped IPv6 addresses are keyed as their IPv4 address.
func IPKeyFunc(r *http.Request) string {
	return fmt.Sprintf("ip: %s", normalizeIP(clientIP(r)))
}

func clientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		hops := strings.Split(forwardedFor, ",")
		if len(hops) >= 2 {
			return strings.TrimSpace(hops[len(hops)-2])
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port
		return r.RemoteAddr
	}
	return host
}

func normalizeIP(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	return addr.Unmap().String()
}

// UserIDKeyFunc keys on the client supplied X-User-Id, truncated to 50 characters
func UserIDKeyFunc(r *http.Request) string {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		userID = "<missing>"
	}
	return fmt.Sprintf("user-id: %.50s", userID)
}
