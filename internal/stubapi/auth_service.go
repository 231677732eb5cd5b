package stubapi

import (
	"fmt"
	"strings"
	"time"

	"pmdesk/internal/domain"
	"pmdesk/internal/repository"
	"pmdesk/pkg/hash"
	"pmdesk/pkg/jwt"
)

type AuthService struct {
	users         repository.Repository[domain.AppUser]
	hasher        hash.Hasher
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(users repository.Repository[domain.AppUser], hasher hash.Hasher, jwtSecret string, jwtExp time.Duration) *AuthService {
	return &AuthService{
		users:         users,
		hasher:        hasher,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExp,
	}
}

// Login checks the credentials and issues a signed session token.
func (s *AuthService) Login(req domain.LoginRequest) (string, error) {
	user, ok := findByUserName(s.users, req.UserName)
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.Password, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return token, nil
}

func (s *AuthService) Expiration() time.Duration { return s.jwtExpiration }

// HashPassword is the Prepare hook of the user service.
func (s *AuthService) HashPassword(u domain.AppUser) (domain.AppUser, error) {
	if u.Password == "" {
		return u, nil
	}
	hashed, err := s.hasher.Hash(u.Password)
	if err != nil {
		return u, fmt.Errorf("failed to hash password: %w", err)
	}
	u.Password = hashed
	return u, nil
}

func findByUserName(users repository.Repository[domain.AppUser], userName string) (domain.AppUser, bool) {
	for _, u := range users.List() {
		if strings.EqualFold(u.UserName, userName) {
			return u, true
		}
	}
	return domain.AppUser{}, false
}
