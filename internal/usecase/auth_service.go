package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"docrequest/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

type NewUser struct {
	Email       string
	DisplayName string
	Department  string
	Password    string
	Role        domain.Role
}

type AuthService struct {
	Users  UserRepository
	Tokens StaffTokenIssuer
	Audit  AuditSink
	Clock  Clock
}

var errBadCredentials = &domain.Error{Err: domain.ErrUnauthorized, Message: "invalid email or password"}

func NewAuthService(users UserRepository, tokens StaffTokenIssuer, audit AuditSink) *AuthService {
	return &AuthService{Users: users, Tokens: tokens, Audit: audit, Clock: time.Now}
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, domain.Validation("email and password are required", nil)
	}
	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return LoginResult{}, errBadCredentials
		}
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, errBadCredentials
	}
	token, expiresAt, err := s.Tokens.IssueStaffToken(PrincipalFor(user), s.Clock().UTC())
	if err != nil {
		return LoginResult{}, err
	}
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityUser,
		EntityID:   user.ID,
		Action:     domain.AuditUserLogin,
		Actor:      user.Email,
		ActorIP:    ip,
	})
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout only records the event; staff tokens expire on their own.
func (s *AuthService) Logout(ctx context.Context, principal domain.Principal, ip string) {
	recordAudit(ctx, s.Audit, domain.AuditEntry{
		EntityType: domain.AuditEntityUser,
		EntityID:   principal.Subject,
		Action:     domain.AuditUserLogout,
		Actor:      principal.Email,
		ActorIP:    ip,
	})
}

func (s *AuthService) Me(ctx context.Context, principal domain.Principal) (domain.User, error) {
	return s.Users.Get(ctx, principal.Subject)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}

func (s *AuthService) CreateUser(ctx context.Context, in NewUser) (domain.User, error) {
	email := normalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return domain.User{}, domain.Validation("email is invalid", nil)
	}
	if len(in.Password) < 8 {
		return domain.User{}, domain.Validation("password must have at least 8 characters", nil)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleViewer
	}
	if !role.Valid() {
		return domain.User{}, domain.Validation("unknown role", map[string]any{"role": string(role)})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Department:   in.Department,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.Clock().UTC(),
	}
	if user.DisplayName == "" {
		user.DisplayName = email
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.CreateUser(ctx, NewUser{Email: email, DisplayName: "Administrator", Password: password, Role: domain.RoleAdmin}); err != nil {
		return err
	}
	log.Printf("bootstrap admin %s created", normalizeEmail(email))
	return nil
}

func PrincipalFor(user domain.User) domain.Principal {
	return domain.Principal{Subject: user.ID, Email: user.Email, Roles: []string{string(user.Role)}}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
