package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/itchan-dev/forum/internal/domain"
	jwt_internal "github.com/itchan-dev/forum/internal/jwt"
	"github.com/itchan-dev/forum/internal/logger"
)

const (
	AccessTokenCookie = "accessToken"
	LoginURL          = "/accounts/login/"
)

// Key to store the user in the request context
type key int

const UserClaimsKey key = 0

// Auth holds dependencies for authentication middleware
type Auth struct {
	jwtService    jwt_internal.JwtService
	secureCookies bool
}

func NewAuth(jwtService jwt_internal.JwtService, secureCookies bool) *Auth {
	return &Auth{
		jwtService:    jwtService,
		secureCookies: secureCookies,
	}
}

// OptionalAuth populates the user if the token is valid, but doesn't require auth.
// A stale or broken cookie is cleared.
func (a *Auth) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := a.extractUser(r)
			if err != nil && err != errNoToken {
				logger.Log.Debug("dropping invalid session", "error", err)
				ClearAccessToken(w, a.secureCookies)
			}
			if user != nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NeedAuth sends anonymous users to the login page, remembering where they were going.
func (a *Auth) NeedAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r)
			if user == nil {
				var err error
				if user, err = a.extractUser(r); err != nil {
					http.Redirect(w, r, LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
					return
				}
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly requires an authenticated administrator.
func (a *Auth) AdminOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return a.NeedAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user := GetUserFromContext(r); !user.Admin {
				http.Error(w, "Access denied. Only for admin", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (a *Auth) extractUser(r *http.Request) (*domain.User, error) {
	var tokenString string
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		tokenString = cookie.Value
	} else if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		tokenString = token
	}
	if tokenString == "" {
		return nil, errNoToken
	}
	return a.jwtService.UserFromToken(tokenString)
}

var errNoToken = errors.New("no token")

// SetAccessToken stores a session token in a cookie
func SetAccessToken(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearAccessToken(w http.ResponseWriter, secure bool) {
	SetAccessToken(w, "", -1, secure)
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserClaimsKey, user)
}

// GetUserFromContext retrieves the user from the context, nil for anonymous requests.
func GetUserFromContext(r *http.Request) *domain.User {
	user, ok := r.Context().Value(UserClaimsKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}
