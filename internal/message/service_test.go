package message

import (
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fkhayef/studygroup/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *sqlx.DB, int64, int64) {
	t.Helper()
	db := testutil.NewDB(t)
	author := testutil.CreateUser(t, db, "Sara", "sara@example.com")
	group := testutil.CreateGroup(t, db, "Physics", "AAAAAAAA", author)
	return NewService(NewRepository(db)), db, author, group
}

func TestCreateValidatesContent(t *testing.T) {
	svc, db, author, group := newTestService(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	_, err := svc.Create(ctx, group, author, "  \n\t ")
	assert.ErrorIs(t, err, ErrContentRequired)

	_, err = svc.Create(ctx, group, author, strings.Repeat("x", MaxContentLength+1))
	assert.ErrorIs(t, err, ErrContentTooLong)

	assert.Equal(t, 0, testutil.Count(t, db, "messages", ""))

	// Length counts characters, not bytes.
	_, err = svc.Create(ctx, group, author, strings.Repeat("é", MaxContentLength))
	require.NoError(t, err)
}

func TestCreateRecordsAuthor(t *testing.T) {
	svc, _, author, group := newTestService(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	m, err := svc.Create(ctx, group, author, "  hello  ")
	require.NoError(t, err)

	assert.NotZero(t, m.ID)
	assert.Equal(t, "hello", m.Content)
	assert.False(t, m.CreatedAt.IsZero())

	resp := m.ToResponse()
	require.NotNil(t, resp.Author)
	assert.Equal(t, author, resp.Author.ID)
	assert.Equal(t, "Sara", resp.Author.Name)
}

func TestListAscendingWithPaging(t *testing.T) {
	svc, db, author, group := newTestService(t)
	other := testutil.CreateGroup(t, db, "Other", "BBBBBBBB", author)
	ctx, cancel := testutil.Context()
	defer cancel()

	var ids []int64
	for _, content := range []string{"one", "two", "three"} {
		m, err := svc.Create(ctx, group, author, content)
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}
	_, err := svc.Create(ctx, other, author, "elsewhere")
	require.NoError(t, err)

	all, err := svc.List(ctx, group, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, "three", all[2].Content)

	newer, err := svc.List(ctx, group, ids[0], 0)
	require.NoError(t, err)
	require.Len(t, newer, 2)
	assert.Equal(t, ids[1], newer[0].ID)

	page, err := svc.List(ctx, group, 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)

	capped, err := svc.List(ctx, group, -10, MaxLimit+1)
	require.NoError(t, err)
	assert.Len(t, capped, 3)
}

func TestListDefaultsToNewestWindow(t *testing.T) {
	svc, _, author, group := newTestService(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	var ids []int64
	for i := 1; i <= 150; i++ {
		m, err := svc.Create(ctx, group, author, "msg "+strconv.Itoa(i))
		require.NoError(t, err)
		ids = append(ids, m.ID)
	}

	latest, err := svc.List(ctx, group, 0, 0)
	require.NoError(t, err)
	require.Len(t, latest, DefaultLimit)
	assert.Equal(t, "msg 51", latest[0].Content)
	assert.Equal(t, "msg 150", latest[len(latest)-1].Content)
	for i := 1; i < len(latest); i++ {
		assert.Less(t, latest[i-1].ID, latest[i].ID)
	}

	// Polling from the newest id seen returns only what came after it.
	_, err = svc.Create(ctx, group, author, "msg 151")
	require.NoError(t, err)
	newer, err := svc.List(ctx, group, ids[len(ids)-1], 0)
	require.NoError(t, err)
	require.Len(t, newer, 1)
	assert.Equal(t, "msg 151", newer[0].Content)
}

func TestListKeepsMessagesOfDeletedAuthors(t *testing.T) {
	svc, db, _, group := newTestService(t)
	ctx, cancel := testutil.Context()
	defer cancel()

	guest := testutil.CreateUser(t, db, "Guest", "guest@example.com")
	testutil.AddMember(t, db, group, guest, "member")
	_, err := svc.Create(ctx, group, guest, "bye")
	require.NoError(t, err)

	_, err = db.Exec(db.Rebind(`DELETE FROM users WHERE id = ?`), guest)
	require.NoError(t, err)

	msgs, err := svc.List(ctx, group, 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].ToResponse().Author)
}
