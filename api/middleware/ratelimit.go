package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/croaudit/config"
	"github.com/use-agent/croaudit/models"
)

const (
	visitorIdleTTL    = time.Hour
	visitorSweepEvery = 5 * time.Minute
)

type visitor struct {
	bucket *rate.Limiter
	seen   time.Time
}

// visitors holds one token bucket per client IP.
type visitors struct {
	mu    sync.Mutex
	rps   rate.Limit
	burst int
	byIP  map[string]*visitor
}

func newVisitors(rps float64, burst int) *visitors {
	return &visitors{
		rps:   rate.Limit(rps),
		burst: burst,
		byIP:  make(map[string]*visitor),
	}
}

func (v *visitors) allow(ip string, now time.Time) bool {
	v.mu.Lock()
	vis, ok := v.byIP[ip]
	if !ok {
		vis = &visitor{bucket: rate.NewLimiter(v.rps, v.burst)}
		v.byIP[ip] = vis
	}
	vis.seen = now
	v.mu.Unlock()
	return vis.bucket.AllowN(now, 1)
}

// sweep drops buckets idle since before cutoff.
func (v *visitors) sweep(cutoff time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for ip, vis := range v.byIP {
		if vis.seen.Before(cutoff) {
			delete(v.byIP, ip)
		}
	}
}

// RateLimit limits requests per client IP. Every /analyze call spends quota
// on the server's model credential, so rejection happens before any
// handler work.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	v := newVisitors(cfg.RequestsPerSecond, cfg.Burst)
	go func() {
		for now := range time.Tick(visitorSweepEvery) {
			v.sweep(now.Add(-visitorIdleTTL))
		}
	}()

	return func(c *gin.Context) {
		if v.allow(c.ClientIP(), time.Now()) {
			c.Next()
			return
		}
		kind := models.KindRateLimited
		c.AbortWithStatusJSON(kind.HTTPStatus(), models.ErrorResponse{
			Error: "Too many requests. Please slow down and try again shortly.",
			Code:  kind,
		})
	}
}
