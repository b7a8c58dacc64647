package middleware

import (
	"fmt"
	"net/http"

	"github.com/itchan-dev/forum/internal/middleware/ratelimiter"
)

// RateLimitPosts throttles form submissions that create content. GET
// requests and previews pass untouched, as do administrators.
func RateLimitPosts(rl *ratelimiter.UserRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.PostFormValue("preview") != "" {
				next.ServeHTTP(w, r)
				return
			}
			user := GetUserFromContext(r)
			if user == nil || user.Admin {
				next.ServeHTTP(w, r)
				return
			}
			if !rl.Allow(fmt.Sprintf("user_%d", user.Id)) {
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
