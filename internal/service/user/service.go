package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shopmart/internal/domain"
	tokenrepo "shopmart/internal/repository/token"
	userrepo "shopmart/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates the provided token could not be validated.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmailTaken is returned when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// Service handles registration/login and resolves bearer tokens to an
// explicit user id for the rest of the system.
type Service struct {
	repo        userrepo.Repository
	tokens      *tokenManager
	accessTTL   time.Duration
	refreshTTL  time.Duration
	passwordMin int
}

// New creates a Service with sane defaults.
func New(repo userrepo.Repository, tokens tokenrepo.Repository) *Service {
	return &Service{
		repo:        repo,
		tokens:      newTokenManager(tokens),
		accessTTL:   7 * 24 * time.Hour,
		refreshTTL:  30 * 24 * time.Hour,
		passwordMin: 6,
	}
}

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("valid email required")
	}
	password := strings.TrimSpace(in.Password)
	if len(password) < s.passwordMin {
		return nil, fmt.Errorf("password must be at least %d characters", s.passwordMin)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.Create(ctx, domain.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hashed),
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Login validates credentials and returns issued tokens plus the user.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", "", ErrInvalidCredentials
		}
		return nil, "", "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	access, err := s.tokens.Issue(ctx, u.ID, "access", s.accessTTL)
	if err != nil {
		return nil, "", "", err
	}
	refresh, err := s.tokens.Issue(ctx, u.ID, "refresh", s.refreshTTL)
	if err != nil {
		return nil, "", "", err
	}
	return u, access, refresh, nil
}

// LookupByToken returns the user bound to a valid access token.
func (s *Service) LookupByToken(ctx context.Context, token string) (*domain.User, error) {
	meta, ok := s.tokens.Validate(ctx, token)
	if !ok {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, meta.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// AccessTTLSeconds exposes the access token lifetime in seconds.
func (s *Service) AccessTTLSeconds() int {
	return int(s.accessTTL.Seconds())
}
