package group

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/internal/database"
	"github.com/fkhayef/studygroup/internal/events"
	"github.com/fkhayef/studygroup/pkg/apperror"
)

const maxNameLength = 120

// Common errors
var (
	ErrGroupNotFound       = apperror.New(apperror.KindNotFound, "group not found")
	ErrNotGroupMember      = apperror.New(apperror.KindForbidden, "you are not a member of this group")
	ErrAdminRequired       = apperror.New(apperror.KindForbidden, "only group admins can perform this action")
	ErrAlreadyMember       = apperror.New(apperror.KindConflict, "user is already a member of this group")
	ErrMemberNotFound      = apperror.New(apperror.KindNotFound, "member not found")
	ErrCreatorProtected    = apperror.New(apperror.KindForbidden, "the group creator cannot be removed or demoted")
	ErrCreatorCannotLeave  = apperror.New(apperror.KindForbidden, "the group creator cannot leave, delete the group instead")
	ErrInvalidRole         = apperror.New(apperror.KindValidation, "role must be member or admin")
	ErrInviteCodeRequired  = apperror.New(apperror.KindValidation, "invite code is required")
	ErrInviteCodeExhausted = apperror.New(apperror.KindUnexpected, "could not allocate a unique invite code")
)

// PasswordHasher digests the random secret given to placeholder accounts
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Notifier delivers membership changes to the affected user's inbox
type Notifier interface {
	NotifyAddedToGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error
	NotifyRemovedFromGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error
	NotifyRoleChanged(ctx context.Context, recipientID int64, groupName string, groupID int64, role string) error
}

// BlobRemover deletes stored file contents
type BlobRemover interface {
	Remove(storedName string) error
}

// Service handles group registry and membership logic. Every operation that
// acts for a user checks that user's membership first.
type Service struct {
	repo      *Repository
	hasher    PasswordHasher
	notifier  Notifier
	publisher events.Publisher
	blobs     BlobRemover
	log       *zap.Logger
	newCode   CodeGenerator
}

// NewService creates a new group service
func NewService(repo *Repository, hasher PasswordHasher, notifier Notifier, publisher events.Publisher, blobs BlobRemover, log *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		hasher:    hasher,
		notifier:  notifier,
		publisher: publisher,
		blobs:     blobs,
		log:       log,
		newCode:   GenerateInviteCode,
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation("group name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", apperror.Validation("group name must be at most 120 characters")
	}
	return name, nil
}

// claimInviteCode generates codes until store accepts one. A code is skipped
// when it is already taken, and store is retried when it fails with a unique
// violation because another request claimed the same code first.
func (s *Service) claimInviteCode(ctx context.Context, store func(code string) error) (string, error) {
	for attempt := 0; attempt < maxInviteAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}

		taken, err := s.repo.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if taken {
			continue
		}

		if err := store(code); err != nil {
			if database.IsUniqueViolation(err) {
				continue
			}
			return "", err
		}
		return code, nil
	}

	s.log.Error("invite code space exhausted", zap.Int("attempts", maxInviteAttempts))
	return "", ErrInviteCodeExhausted
}

// Create creates a group and makes ownerID its admin
func (s *Service) Create(ctx context.Context, ownerID int64, req *CreateGroupRequest) (*Summary, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}

	var g *Group
	_, err = s.claimInviteCode(ctx, func(code string) error {
		created, err := s.repo.CreateWithOwner(ctx, name, code, ownerID)
		if err != nil {
			return err
		}
		g = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.GroupCreated, g.ID, ownerID, ownerID)
	return &Summary{Group: *g, MembersCount: 1, Role: RoleAdmin}, nil
}

// FindByInviteCode resolves an invite code to its group
func (s *Service) FindByInviteCode(ctx context.Context, code string) (*Group, error) {
	code = NormalizeInviteCode(code)
	if code == "" {
		return nil, ErrInviteCodeRequired
	}

	g, err := s.repo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}
	return g, nil
}

// Get returns a group as seen by requester
func (s *Service) Get(ctx context.Context, groupID, requester int64) (*Summary, error) {
	if _, _, err := s.requireMember(ctx, groupID, requester); err != nil {
		return nil, err
	}
	return s.summary(ctx, groupID, requester)
}

func (s *Service) summary(ctx context.Context, groupID, userID int64) (*Summary, error) {
	summary, err := s.repo.GetSummary(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrNotGroupMember
	}
	return summary, nil
}

// ListForUser returns every group userID belongs to, newest first
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Summary, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Rename changes a group's name. Admin only.
func (s *Service) Rename(ctx context.Context, groupID, requester int64, req *RenameGroupRequest) (*Summary, error) {
	if _, err := s.requireAdmin(ctx, groupID, requester); err != nil {
		return nil, err
	}

	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Rename(ctx, groupID, name); err != nil {
		return nil, err
	}
	return s.summary(ctx, groupID, requester)
}

// RotateInviteCode replaces the group's invite code. Admin only.
func (s *Service) RotateInviteCode(ctx context.Context, groupID, requester int64) (*Summary, error) {
	if _, err := s.requireAdmin(ctx, groupID, requester); err != nil {
		return nil, err
	}

	_, err := s.claimInviteCode(ctx, func(code string) error {
		return s.repo.UpdateInviteCode(ctx, groupID, code)
	})
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, groupID, requester)
}

// Delete removes a group and everything in it. Admin only. Blob removal
// happens after the commit and failures are only logged.
func (s *Service) Delete(ctx context.Context, groupID, requester int64) error {
	if _, err := s.requireAdmin(ctx, groupID, requester); err != nil {
		return err
	}

	storedNames, err := s.repo.Delete(ctx, groupID)
	if err != nil {
		return err
	}

	for _, name := range storedNames {
		if err := s.blobs.Remove(name); err != nil {
			s.log.Warn("failed to remove file blob",
				zap.Int64("group_id", groupID),
				zap.String("stored_name", name),
				zap.Error(err),
			)
		}
	}

	s.publish(ctx, events.GroupDeleted, groupID, 0, requester)
	return nil
}

// IsMember reports whether userID belongs to groupID
func (s *Service) IsMember(ctx context.Context, userID, groupID int64) (bool, error) {
	m, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// RoleOf returns userID's role in groupID
func (s *Service) RoleOf(ctx context.Context, userID, groupID int64) (Role, error) {
	m, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return "", err
	}
	if m == nil {
		return "", ErrNotGroupMember
	}
	return m.Role, nil
}

// RequireMember fails unless the group exists and userID belongs to it
func (s *Service) RequireMember(ctx context.Context, groupID, userID int64) error {
	_, _, err := s.requireMember(ctx, groupID, userID)
	return err
}

func (s *Service) requireMember(ctx context.Context, groupID, userID int64) (*Group, Role, error) {
	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if g == nil {
		return nil, "", ErrGroupNotFound
	}

	role, err := s.RoleOf(ctx, userID, groupID)
	if err != nil {
		return nil, "", err
	}
	return g, role, nil
}

func (s *Service) requireAdmin(ctx context.Context, groupID, userID int64) (*Group, error) {
	g, role, err := s.requireMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if role != RoleAdmin {
		return nil, ErrAdminRequired
	}
	return g, nil
}

// Join adds userID to groupID with the given role
func (s *Service) Join(ctx context.Context, userID, groupID int64, role Role) (*Membership, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	g, err := s.repo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGroupNotFound
	}

	existing, err := s.repo.GetMembership(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	m, err := s.repo.AddMembership(ctx, groupID, userID, role)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	s.publish(ctx, events.GroupMemberJoined, groupID, userID, userID)
	return m, nil
}

// JoinByCode adds userID as a member of the group the invite code belongs to
func (s *Service) JoinByCode(ctx context.Context, userID int64, code string) (*Summary, error) {
	g, err := s.FindByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if _, err := s.Join(ctx, userID, g.ID, RoleMember); err != nil {
		return nil, err
	}
	return s.summary(ctx, g.ID, userID)
}

// AddMember adds someone by email. Admin only. Unknown emails get a
// placeholder account they can claim by registering.
func (s *Service) AddMember(ctx context.Context, requester, groupID int64, req *AddMemberRequest) (*Member, error) {
	g, err := s.requireAdmin(ctx, groupID, requester)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, apperror.Validation("name and email are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperror.Validation("invalid email address")
	}

	placeholderHash, err := s.placeholderHash()
	if err != nil {
		return nil, err
	}

	m, err := s.repo.AddMemberByEmail(ctx, groupID, name, email, placeholderHash)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	if err := s.notifier.NotifyAddedToGroup(ctx, m.UserID, g.Name, g.ID); err != nil {
		s.log.Warn("failed to notify added member", zap.Int64("user_id", m.UserID), zap.Error(err))
	}
	s.publish(ctx, events.GroupMemberAdded, groupID, m.UserID, requester)
	return m, nil
}

func (s *Service) placeholderHash() (string, error) {
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return "", err
	}
	return s.hasher.Hash(hex.EncodeToString(secret))
}

// RemoveMember removes target from the group. Admin only; the creator
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, requester, groupID, target int64) error {
	g, err := s.requireAdmin(ctx, groupID, requester)
	if err != nil {
		return err
	}
	if target == g.CreatedBy {
		return ErrCreatorProtected
	}

	removed, err := s.repo.RemoveMembership(ctx, groupID, target)
	if err != nil {
		return err
	}
	if !removed {
		return ErrMemberNotFound
	}

	if err := s.notifier.NotifyRemovedFromGroup(ctx, target, g.Name, g.ID); err != nil {
		s.log.Warn("failed to notify removed member", zap.Int64("user_id", target), zap.Error(err))
	}
	s.publish(ctx, events.GroupMemberRemoved, groupID, target, requester)
	return nil
}

// Leave removes the caller's own membership
func (s *Service) Leave(ctx context.Context, userID, groupID int64) error {
	g, _, err := s.requireMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if userID == g.CreatedBy {
		return ErrCreatorCannotLeave
	}

	if _, err := s.repo.RemoveMembership(ctx, groupID, userID); err != nil {
		return err
	}

	s.publish(ctx, events.GroupMemberLeft, groupID, userID, userID)
	return nil
}

// UpdateRole changes target's role. Admin only; the creator's role is fixed.
func (s *Service) UpdateRole(ctx context.Context, requester, groupID, target int64, req *UpdateRoleRequest) (*Member, error) {
	g, err := s.requireAdmin(ctx, groupID, requester)
	if err != nil {
		return nil, err
	}
	if !req.Role.Valid() {
		return nil, ErrInvalidRole
	}
	if target == g.CreatedBy {
		return nil, ErrCreatorProtected
	}

	m, err := s.repo.GetMember(ctx, groupID, target)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	if m.Role == req.Role {
		return m, nil
	}

	if err := s.repo.UpdateRole(ctx, groupID, target, req.Role); err != nil {
		return nil, err
	}
	m.Role = req.Role

	if err := s.notifier.NotifyRoleChanged(ctx, target, g.Name, g.ID, string(req.Role)); err != nil {
		s.log.Warn("failed to notify role change", zap.Int64("user_id", target), zap.Error(err))
	}
	return m, nil
}

// ListMembers returns the members of a group in join order
func (s *Service) ListMembers(ctx context.Context, groupID, requester int64) ([]*Member, error) {
	if _, _, err := s.requireMember(ctx, groupID, requester); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, groupID)
}

func (s *Service) publish(ctx context.Context, routingKey string, groupID, userID, actorID int64) {
	if err := s.publisher.Publish(ctx, routingKey, events.NewEvent(routingKey, groupID, userID, actorID)); err != nil {
		s.log.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
