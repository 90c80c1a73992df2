// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"carecompanion/internal/domain"
)

const minPasswordLen = 8

// Registration is the input to AuthService.Register.
type Registration struct {
	Email          string      `json:"email"`
	Password       string      `json:"password"`
	FullName       string      `json:"full_name"`
	Role           domain.Role `json:"role"`
	Age            *int        `json:"age"`
	Specialization *string     `json:"specialization"`
}

// AuthResult is returned after a successful register or login.
type AuthResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *domain.User `json:"user"`
}

// AuthService handles registration, password login and bearer tokens.
type AuthService struct {
	users  domain.UserRepository
	tokens *TokenIssuer
	log    *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, tokens *TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log.Named("auth"),
	}
}

// Register creates an account and signs the user in.
func (s *AuthService) Register(ctx context.Context, r Registration) (*AuthResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(r.Email))
	if err != nil {
		return nil, invalid("email is not a valid address")
	}
	email := strings.ToLower(addr.Address)
	if len(r.Password) < minPasswordLen {
		return nil, invalid(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if strings.TrimSpace(r.FullName) == "" {
		return nil, invalid("full_name is required")
	}
	if !r.Role.Valid() {
		return nil, invalid(`role must be "patient" or "doctor"`)
	}
	if r.Age != nil && (*r.Age < 0 || *r.Age > 150) {
		return nil, invalid("age must be within [0, 150]")
	}

	s.log.Info("register", zap.String("email", email), zap.String("role", string(r.Role)))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		FullName:       strings.TrimSpace(r.FullName),
		Role:           r.Role,
		Age:            r.Age,
		Specialization: r.Specialization,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.signIn(user)
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.log.Info("login", zap.String("email", email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.signIn(user)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// LoginWithUser signs in a user already authenticated by an identity
// provider, provisioning a patient account on first sight.
func (s *AuthService) LoginWithUser(ctx context.Context, email, fullName string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, invalid("identity provider returned no email")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil {
		if fullName == "" {
			fullName = email
		}
		// SSO accounts carry no password hash, so password login stays closed.
		user, err = s.users.Create(ctx, domain.User{Email: email, FullName: fullName, Role: domain.RolePatient})
		if err != nil && !errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("provision sso user: %w", err)
		}
		if err != nil {
			// Lost a race against a concurrent first login.
			user, err = s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("provision sso user: %w", err)
			}
			if user == nil {
				return nil, ErrUserNotFound
			}
		}
		s.log.Info("provisioned sso user", zap.String("user_id", user.ID))
	}
	return s.signIn(user)
}

func (s *AuthService) signIn(u *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}
