package group

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/internal/events"
	"github.com/fkhayef/studygroup/internal/mocks"
	"github.com/fkhayef/studygroup/internal/testutil"
	"github.com/fkhayef/studygroup/pkg/apperror"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type recordingNotifier struct {
	added, removed, roles []int64
}

func (n *recordingNotifier) NotifyAddedToGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	n.added = append(n.added, recipientID)
	return nil
}

func (n *recordingNotifier) NotifyRemovedFromGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	n.removed = append(n.removed, recipientID)
	return nil
}

func (n *recordingNotifier) NotifyRoleChanged(ctx context.Context, recipientID int64, groupName string, groupID int64, role string) error {
	n.roles = append(n.roles, recipientID)
	return nil
}

type recordingBlobs struct {
	removed []string
	fail    string
}

func (b *recordingBlobs) Remove(storedName string) error {
	b.removed = append(b.removed, storedName)
	if storedName == b.fail {
		return errors.New("disk error")
	}
	return nil
}

type fixture struct {
	db       *sqlx.DB
	svc      *Service
	notifier *recordingNotifier
	blobs    *recordingBlobs
	pub      *mocks.PublisherMock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &mocks.PublisherMock{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f := &fixture{
		db:       db,
		notifier: &recordingNotifier{},
		blobs:    &recordingBlobs{},
		pub:      pub,
	}
	f.svc = NewService(NewRepository(db), plainHasher{}, f.notifier, pub, f.blobs, zap.NewNop())
	return f
}

func TestCreateMakesOwnerAdmin(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")

	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "  Physics  "})
	require.NoError(t, err)
	assert.Equal(t, "Physics", g.Name)
	assert.Len(t, g.InviteCode, inviteCodeLength)
	assert.Equal(t, RoleAdmin, g.Role)
	assert.Equal(t, 1, g.MembersCount)
	assert.True(t, g.ToResponse(owner).IsOwner)

	role, err := f.svc.RoleOf(ctx, owner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	f.pub.AssertCalled(t, "Publish", mock.Anything, events.GroupCreated, mock.AnythingOfType("events.Event"))
}

func TestCreateValidatesName(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")

	for _, name := range []string{"", "   ", string(make([]rune, 121))} {
		_, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: name})
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	}
	assert.Equal(t, 0, testutil.Count(t, f.db, "study_groups", ""))
}

func TestInviteCodesAreUniqueAndResolvable(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")

	seen := map[string]int64{}
	for i := 0; i < 25; i++ {
		g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Group"})
		require.NoError(t, err)
		_, dup := seen[g.InviteCode]
		require.False(t, dup, "duplicate code %s", g.InviteCode)
		seen[g.InviteCode] = g.ID
	}

	for code, id := range seen {
		g, err := f.svc.FindByInviteCode(ctx, "  "+code+" ")
		require.NoError(t, err)
		assert.Equal(t, id, g.ID)
	}

	_, err := f.svc.FindByInviteCode(ctx, "NOPE2345")
	assert.ErrorIs(t, err, ErrGroupNotFound)
	_, err = f.svc.FindByInviteCode(ctx, "  ")
	assert.ErrorIs(t, err, ErrInviteCodeRequired)
}

func TestCreateRetriesTakenCodes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	testutil.CreateGroup(t, f.db, "Existing", "AAAAAAAA", owner)

	codes := []string{"AAAAAAAA", "AAAAAAAA", "BBBBBBBB"}
	f.svc.newCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBB", g.InviteCode)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	testutil.CreateGroup(t, f.db, "Existing", "AAAAAAAA", owner)

	calls := 0
	f.svc.newCode = func() (string, error) {
		calls++
		return "AAAAAAAA", nil
	}

	_, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "New"})
	assert.ErrorIs(t, err, ErrInviteCodeExhausted)
	assert.Equal(t, apperror.KindUnexpected, apperror.KindOf(err))
	assert.Equal(t, maxInviteAttempts, calls)
}

func TestJoinMembershipLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	student := testutil.CreateUser(t, f.db, "Student", "student@example.com")
	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Chemistry"})
	require.NoError(t, err)

	joined, err := f.svc.JoinByCode(ctx, student, g.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, RoleMember, joined.Role)
	assert.Equal(t, 2, joined.MembersCount)
	assert.False(t, joined.ToResponse(student).IsOwner)

	isMember, err := f.svc.IsMember(ctx, student, g.ID)
	require.NoError(t, err)
	assert.True(t, isMember)

	_, err = f.svc.JoinByCode(ctx, student, g.InviteCode)
	assert.ErrorIs(t, err, ErrAlreadyMember)
	_, err = f.svc.Join(ctx, student, g.ID, RoleMember)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	require.NoError(t, f.svc.RemoveMember(ctx, owner, g.ID, student))

	isMember, err = f.svc.IsMember(ctx, student, g.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
	assert.Equal(t, []int64{student}, f.notifier.removed)

	f.pub.AssertCalled(t, "Publish", mock.Anything, events.GroupMemberJoined, mock.AnythingOfType("events.Event"))
	f.pub.AssertCalled(t, "Publish", mock.Anything, events.GroupMemberRemoved, mock.AnythingOfType("events.Event"))
}

func TestOnlyAdminsMutateMembership(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, f.db, "Member", "member@example.com")
	other := testutil.CreateUser(t, f.db, "Other", "other@example.com")
	outsider := testutil.CreateUser(t, f.db, "Outsider", "outsider@example.com")

	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Biology"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, member, g.ID, RoleMember)
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, other, g.ID, RoleMember)
	require.NoError(t, err)

	_, err = f.svc.AddMember(ctx, member, g.ID, &AddMemberRequest{Name: "New", Email: "new@example.com"})
	assert.ErrorIs(t, err, ErrAdminRequired)
	assert.ErrorIs(t, f.svc.RemoveMember(ctx, member, g.ID, other), ErrAdminRequired)
	assert.ErrorIs(t, f.svc.Delete(ctx, g.ID, member), ErrAdminRequired)
	_, err = f.svc.Rename(ctx, g.ID, member, &RenameGroupRequest{Name: "Mine"})
	assert.ErrorIs(t, err, ErrAdminRequired)
	_, err = f.svc.RotateInviteCode(ctx, g.ID, member)
	assert.ErrorIs(t, err, ErrAdminRequired)
	_, err = f.svc.UpdateRole(ctx, member, g.ID, other, &UpdateRoleRequest{Role: RoleAdmin})
	assert.ErrorIs(t, err, ErrAdminRequired)

	assert.ErrorIs(t, f.svc.RemoveMember(ctx, outsider, g.ID, other), ErrNotGroupMember)
	_, err = f.svc.ListMembers(ctx, g.ID, outsider)
	assert.ErrorIs(t, err, ErrNotGroupMember)
	_, err = f.svc.Get(ctx, 999, owner)
	assert.ErrorIs(t, err, ErrGroupNotFound)

	// Nothing changed.
	members, err := f.svc.ListMembers(ctx, g.ID, owner)
	require.NoError(t, err)
	assert.Len(t, members, 3)
	assert.Equal(t, 0, testutil.Count(t, f.db, "users", "email = ?", "new@example.com"))
}

func TestRemoveMemberEdgeCases(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	admin := testutil.CreateUser(t, f.db, "Admin", "admin@example.com")
	stranger := testutil.CreateUser(t, f.db, "Stranger", "stranger@example.com")

	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "History"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, admin, g.ID, RoleAdmin)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RemoveMember(ctx, admin, g.ID, owner), ErrCreatorProtected)
	assert.ErrorIs(t, f.svc.RemoveMember(ctx, owner, g.ID, stranger), ErrMemberNotFound)
	_, err = f.svc.UpdateRole(ctx, admin, g.ID, owner, &UpdateRoleRequest{Role: RoleMember})
	assert.ErrorIs(t, err, ErrCreatorProtected)
}

func TestAddMemberProvisionsPlaceholder(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	existing := testutil.CreateUser(t, f.db, "Existing", "existing@example.com")
	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Art"})
	require.NoError(t, err)

	m, err := f.svc.AddMember(ctx, owner, g.ID, &AddMemberRequest{Name: "Newbie", Email: " NEW@example.com "})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", m.Email)
	assert.Equal(t, RoleMember, m.Role)
	assert.Equal(t, 1, testutil.Count(t, f.db, "users", "email = ? AND placeholder = TRUE", "new@example.com"))

	m, err = f.svc.AddMember(ctx, owner, g.ID, &AddMemberRequest{Name: "Ignored", Email: "existing@example.com"})
	require.NoError(t, err)
	assert.Equal(t, existing, m.UserID)
	assert.Equal(t, "Existing", m.Name)

	_, err = f.svc.AddMember(ctx, owner, g.ID, &AddMemberRequest{Name: "Again", Email: "existing@example.com"})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	_, err = f.svc.AddMember(ctx, owner, g.ID, &AddMemberRequest{Name: "", Email: "x@example.com"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	_, err = f.svc.AddMember(ctx, owner, g.ID, &AddMemberRequest{Name: "X", Email: ""})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	assert.Len(t, f.notifier.added, 2)
	f.pub.AssertNumberOfCalls(t, "Publish", 3)
}

func TestLeaveAndUpdateRole(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, f.db, "Member", "member@example.com")
	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Music"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, member, g.ID, RoleMember)
	require.NoError(t, err)

	_, err = f.svc.UpdateRole(ctx, owner, g.ID, member, &UpdateRoleRequest{Role: "boss"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	m, err := f.svc.UpdateRole(ctx, owner, g.ID, member, &UpdateRoleRequest{Role: RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, m.Role)
	assert.Equal(t, []int64{member}, f.notifier.roles)

	role, err := f.svc.RoleOf(ctx, member, g.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	assert.ErrorIs(t, f.svc.Leave(ctx, owner, g.ID), ErrCreatorCannotLeave)
	require.NoError(t, f.svc.Leave(ctx, member, g.ID))
	assert.ErrorIs(t, f.svc.Leave(ctx, member, g.ID), ErrNotGroupMember)
}

func TestRenameAndRotate(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Old"})
	require.NoError(t, err)

	renamed, err := f.svc.Rename(ctx, g.ID, owner, &RenameGroupRequest{Name: "New"})
	require.NoError(t, err)
	assert.Equal(t, "New", renamed.Name)

	rotated, err := f.svc.RotateInviteCode(ctx, g.ID, owner)
	require.NoError(t, err)
	assert.NotEqual(t, g.InviteCode, rotated.InviteCode)

	_, err = f.svc.FindByInviteCode(ctx, g.InviteCode)
	assert.ErrorIs(t, err, ErrGroupNotFound)
	found, err := f.svc.FindByInviteCode(ctx, rotated.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)
}

func TestDeleteRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, f.db, "Member", "member@example.com")
	g, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Doomed"})
	require.NoError(t, err)
	kept, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Kept"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, member, g.ID, RoleMember)
	require.NoError(t, err)

	now := time.Now().UTC()
	for _, groupID := range []int64{g.ID, kept.ID} {
		f.db.MustExec(f.db.Rebind(`INSERT INTO tasks (group_id, title, priority, completed, created_at) VALUES (?, 'T', 'normal', FALSE, ?)`), groupID, now)
		f.db.MustExec(f.db.Rebind(`INSERT INTO messages (group_id, user_id, content, created_at) VALUES (?, ?, 'hi', ?)`), groupID, owner, now)
	}
	f.db.MustExec(f.db.Rebind(`INSERT INTO group_files (group_id, stored_name, original_name, uploaded_by, uploaded_at) VALUES (?, 'a_one.txt', 'one.txt', ?, ?)`), g.ID, owner, now)
	f.db.MustExec(f.db.Rebind(`INSERT INTO group_files (group_id, stored_name, original_name, uploaded_by, uploaded_at) VALUES (?, 'b_two.txt', 'two.txt', ?, ?)`), g.ID, owner, now)
	f.blobs.fail = "a_one.txt"

	require.NoError(t, f.svc.Delete(ctx, g.ID, owner))

	for _, table := range []string{"tasks", "messages", "group_files", "group_members"} {
		assert.Equal(t, 0, testutil.Count(t, f.db, table, "group_id = ?", g.ID), table)
	}
	assert.Equal(t, 0, testutil.Count(t, f.db, "study_groups", "id = ?", g.ID))
	assert.ElementsMatch(t, []string{"a_one.txt", "b_two.txt"}, f.blobs.removed)

	assert.Equal(t, 1, testutil.Count(t, f.db, "tasks", "group_id = ?", kept.ID))
	assert.Equal(t, 1, testutil.Count(t, f.db, "messages", "group_id = ?", kept.ID))

	assert.ErrorIs(t, f.svc.Delete(ctx, g.ID, owner), ErrGroupNotFound)
}

func TestListForUserNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	owner := testutil.CreateUser(t, f.db, "Owner", "owner@example.com")
	member := testutil.CreateUser(t, f.db, "Member", "member@example.com")
	first, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "First"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, owner, &CreateGroupRequest{Name: "Second"})
	require.NoError(t, err)
	_, err = f.svc.Join(ctx, member, first.ID, RoleMember)
	require.NoError(t, err)

	groups, err := f.svc.ListForUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, second.ID, groups[0].ID)
	assert.Equal(t, first.ID, groups[1].ID)
	assert.Equal(t, 2, groups[1].MembersCount)

	groups, err = f.svc.ListForUser(ctx, member)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, RoleMember, groups[0].Role)
}
