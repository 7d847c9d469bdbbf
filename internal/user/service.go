package user

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/internal/database"
	"github.com/fkhayef/studygroup/pkg/apperror"
)

// Common errors
var (
	ErrUserNotFound       = apperror.New(apperror.KindNotFound, "user not found")
	ErrEmailAlreadyInUse  = apperror.New(apperror.KindConflict, "email already registered")
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthenticated, "invalid email or password")
)

// Service handles user business logic
type Service struct {
	repo   *Repository
	hasher PasswordHasher
	log    *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new user service with its dependencies injected
func NewService(repo *Repository, hasher PasswordHasher, log *zap.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, log: log}
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account, or claims a placeholder created for the same
// email by a group admin.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := NormalizeEmail(req.Email)
	password := req.Password

	// Passwords are hashed exactly as typed. A blank one is still rejected.
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.Validation("name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.Validation("invalid email address")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.Placeholder {
		return nil, ErrEmailAlreadyInUse
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		claimed, err := s.repo.Claim(ctx, existing.ID, name, hash)
		if err != nil {
			return nil, err
		}
		if claimed == nil {
			return nil, ErrEmailAlreadyInUse
		}
		s.log.Info("placeholder account claimed", zap.Int64("user_id", claimed.ID))
		return claimed, nil
	}

	u, err := s.repo.Create(ctx, name, email, hash)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailAlreadyInUse
		}
		return nil, err
	}
	return u, nil
}

// Authenticate checks an email and password pair. Unknown emails, placeholder
// accounts and wrong passwords all produce ErrInvalidCredentials after a
// comparable amount of hashing work.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.Validation("email and password are required")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if u == nil || u.Placeholder {
		_ = s.hasher.Compare(s.dummy(), password)
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("studygroup-dummy-password")
		if err != nil {
			s.log.Warn("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// GetByID retrieves a user by their ID
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// EnsureAccount registers the given account unless the email is already
// taken by a regular user. It reports whether an account was created.
func (s *Service) EnsureAccount(ctx context.Context, name, email, password string) (bool, error) {
	existing, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	if existing != nil && !existing.Placeholder {
		return false, nil
	}

	if _, err := s.Register(ctx, &RegisterRequest{Name: name, Email: email, Password: password}); err != nil {
		return false, err
	}
	return true, nil
}
