package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/forum/internal/domain"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
)

type JwtService interface {
	NewToken(user domain.User) (string, error)
	DecodeToken(jwtStr string) (*jwt.Token, error)
	UserFromToken(jwtStr string) (*domain.User, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

// NewToken signs the user's identity together with the groups it holds right
// now, so membership changes apply on the next login.
func (j *Jwt) NewToken(user domain.User) (string, error) {
	groups := make([]string, len(user.Groups))
	copy(groups, user.Groups)

	claims := jwt.MapClaims{}
	claims["uid"] = user.Id
	claims["username"] = user.Username
	claims["email"] = user.Email
	claims["admin"] = user.Admin
	claims["groups"] = groups
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("failed to sign token", "error", err)
		return "", errors.New("Can't create token")
	}

	return tokenString, nil
}

func (j *Jwt) DecodeToken(jwtStr string) (*jwt.Token, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("failed to parse token", "error", err)
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}

	if !token.Valid {
		return nil, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	return token, nil
}

var ErrInvalidClaims = &internal_errors.ErrorWithStatusCode{Message: "Invalid token claims", StatusCode: http.StatusUnauthorized}

// UserFromToken decodes the token and rebuilds the user it was issued for.
func (j *Jwt) UserFromToken(jwtStr string) (*domain.User, error) {
	token, err := j.DecodeToken(jwtStr)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return nil, ErrInvalidClaims
	}
	username, ok := claims["username"].(string)
	if !ok {
		return nil, ErrInvalidClaims
	}
	email, ok := claims["email"].(string)
	if !ok {
		return nil, ErrInvalidClaims
	}
	admin, ok := claims["admin"].(bool)
	if !ok {
		return nil, ErrInvalidClaims
	}

	var groups domain.Groups
	if raw, ok := claims["groups"].([]interface{}); ok {
		for _, g := range raw {
			name, ok := g.(string)
			if !ok {
				return nil, ErrInvalidClaims
			}
			groups = append(groups, name)
		}
	}

	return &domain.User{
		Id:       int64(uid),
		Username: username,
		Email:    email,
		Admin:    admin,
		Groups:   groups,
	}, nil
}
