package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/forum/internal/domain"
	"github.com/itchan-dev/forum/internal/email"
	internal_errors "github.com/itchan-dev/forum/internal/errors"
	"github.com/itchan-dev/forum/internal/logger"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Login(ctx context.Context, username domain.Username, password domain.Password) (string, error)
	CreateUser(ctx context.Context, data UserData) (domain.UserId, error)
	AddGroup(ctx context.Context, username domain.Username, group domain.GroupName) error
	RemoveGroup(ctx context.Context, username domain.Username, group domain.GroupName) error
}

type Auth struct {
	storage AuthStorage
	jwt     Jwt
}

type AuthStorage interface {
	CreateUser(ctx context.Context, data domain.UserCreationData) (domain.UserId, error)
	GetUserByUsername(ctx context.Context, username domain.Username) (domain.User, error)
	AddUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error
	RemoveUserGroup(ctx context.Context, id domain.UserId, group domain.GroupName) error
}

type Jwt interface {
	NewToken(user domain.User) (string, error)
}

// UserData is what an administrator supplies to create an account.
type UserData struct {
	Username domain.Username
	Email    domain.Email
	Password domain.Password
	Admin    bool
	Groups   domain.Groups
}

func NewAuth(storage AuthStorage, jwt Jwt) *Auth {
	return &Auth{storage: storage, jwt: jwt}
}

var errInvalidCredentials = &internal_errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusUnauthorized}

// Login checks the password and issues a session token.
func (a *Auth) Login(ctx context.Context, username domain.Username, password domain.Password) (string, error) {
	user, err := a.storage.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		// to not leak existing users
		if internal_errors.IsNotFound(err) {
			return "", errInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		logger.Log.Info("password verification failed", "user_id", user.Id)
		return "", errInvalidCredentials
	}

	return a.jwt.NewToken(user)
}

func (a *Auth) CreateUser(ctx context.Context, data UserData) (domain.UserId, error) {
	verr := &internal_errors.ValidationError{}
	data.Username = strings.TrimSpace(data.Username)
	data.Email = strings.ToLower(strings.TrimSpace(data.Email))
	if data.Username == "" {
		verr.Add("username", "This field is required")
	}
	if err := email.IsCorrect(data.Email); err != nil {
		verr.Add("email", "Enter a valid email address")
	}
	if len(data.Password) < 8 {
		verr.Add("password", "Password must be at least 8 characters")
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	id, err := a.storage.CreateUser(ctx, domain.UserCreationData{
		Username: data.Username,
		Email:    data.Email,
		PassHash: string(hash),
		Admin:    data.Admin,
		Groups:   data.Groups,
	})
	if err != nil {
		return 0, err
	}
	logger.Log.Info("user created", "user_id", id, "username", data.Username, "admin", data.Admin)
	return id, nil
}

func (a *Auth) AddGroup(ctx context.Context, username domain.Username, group domain.GroupName) error {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.storage.AddUserGroup(ctx, user.Id, strings.TrimSpace(group))
}

func (a *Auth) RemoveGroup(ctx context.Context, username domain.Username, group domain.GroupName) error {
	user, err := a.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	return a.storage.RemoveUserGroup(ctx, user.Id, strings.TrimSpace(group))
}
