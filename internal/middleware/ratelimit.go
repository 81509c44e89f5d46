package middleware

import (
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"siif/web"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Reactions must stay fast to toggle, so they skip the limiter.
var rateLimitExemptSuffixes = []string{"/curtir", "/salvar"}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a token bucket per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	idle  time.Duration

	mu       sync.Mutex
	visitors map[string]*visitor
	once     sync.Once
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		idle:     3 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()
	return v.limiter.Allow()
}

// Cleanup drops visitors idle since before now-idle. Returns how many.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idle {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for now := range ticker.C {
		rl.Cleanup(now)
	}
}

func wantsJSON(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		c.GetHeader("X-Requested-With") == "XMLHttpRequest" ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

var (
	tooManyPage     []byte
	tooManyPageOnce sync.Once
)

func tooManyRequestsPage() []byte {
	tooManyPageOnce.Do(func() {
		b, err := web.Static.ReadFile("static/429.html")
		if err != nil {
			log.Printf("429 page missing: %v", err)
			b = []byte("<h1>Muitas requisições</h1><p>Aguarde um momento e tente novamente.</p>")
		}
		tooManyPage = b
	})
	return tooManyPage
}

// Middleware answers 429 with a static page (or JSON) and never redirects,
// so a limited client cannot loop.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	rl.once.Do(func() {
		go rl.cleanupLoop()
	})

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, s := range rateLimitExemptSuffixes {
			if strings.HasSuffix(path, s) {
				c.Next()
				return
			}
		}
		if strings.HasPrefix(path, "/static/") {
			c.Next()
			return
		}

		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			if wantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"erro": "Muitas requisições. Tente novamente em instantes."})
				return
			}
			c.Data(http.StatusTooManyRequests, "text/html; charset=utf-8", tooManyRequestsPage())
			c.Abort()
			return
		}
		c.Next()
	}
}
