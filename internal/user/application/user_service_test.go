package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/davicafu/hexafilter/internal/user/domain"
	"github.com/davicafu/hexafilter/internal/user/infra/outbound/db/memory"
	"github.com/davicafu/hexafilter/shared/domain/filter"
	sharedCache "github.com/davicafu/hexafilter/shared/platform/cache"
	sharedMemory "github.com/davicafu/hexafilter/shared/platform/persistence/memory"
	"github.com/davicafu/hexafilter/shared/platform/query"
	"github.com/davicafu/hexafilter/shared/platform/querylog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingTracker struct {
	mu      sync.Mutex
	entries []querylog.Entry
}

func (r *recordingTracker) Record(e querylog.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// flakyRepo falla las primeras lecturas para probar los reintentos.
type flakyRepo struct {
	*memory.UserRepoMemory
	failures int
	calls    int
}

func (f *flakyRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}
	return f.UserRepoMemory.GetByID(ctx, id)
}

type fixture struct {
	service *UserService
	repo    *memory.UserRepoMemory
	outbox  *sharedMemory.Outbox
	cache   *sharedCache.InMemoryCache
	queries *recordingTracker
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	outbox := sharedMemory.NewOutbox()
	repo := memory.NewUserRepoMemory(outbox)
	cache := sharedCache.NewInMemoryCache(time.Minute, 0)
	t.Cleanup(cache.Stop)
	queries := &recordingTracker{}
	return fixture{
		service: NewUserService(repo, cache, queries, zap.NewNop()),
		repo:    repo,
		outbox:  outbox,
		cache:   cache,
		queries: queries,
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func (f fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []CreateUserInput{
		{FirstName: "Jean", LastName: "Dupont", Email: "jean@example.com", IsAdmin: true, LoginTimes: intPtr(135)},
		{FirstName: "Louis", LastName: "Ferrand", Email: "louis@example.com", LoginTimes: intPtr(10)},
		{FirstName: "Anna", Email: "anna@example.com"},
	} {
		_, err := f.service.CreateUser(ctx, in)
		require.NoError(t, err)
	}
}

func TestCreateUser_Success(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	user, err := f.service.CreateUser(context.Background(), CreateUserInput{FirstName: "Pepe", Email: "pepe@example.com"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pepe@example.com", user.Email)
	assert.Equal(t, 1, f.outbox.Pending())

	pending, err := f.outbox.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, domain.UserCreated, pending[0].EventType)
	assert.Equal(t, user.ID.String(), pending[0].AggregateID)

	assert.Eventually(t, func() bool { return f.cache.Len() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCreateUser_Invalid(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateUser(context.Background(), CreateUserInput{FirstName: "Pepe", Email: "no-email"})

	assert.ErrorIs(t, err, domain.ErrInvalidUser)
	assert.Equal(t, 0, f.outbox.Pending())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateUser(ctx, CreateUserInput{FirstName: "Juan", Email: "dup@example.com"})
	require.NoError(t, err)

	_, err = f.service.CreateUser(ctx, CreateUserInput{FirstName: "Otro", Email: "dup@example.com"})

	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestGetUser_NotFoundIsNotRetried(t *testing.T) {
	f := newFixture(t)
	repo := &flakyRepo{UserRepoMemory: f.repo}
	service := NewUserService(repo, nil, nil, zap.NewNop())

	_, err := service.GetUser(context.Background(), uuid.New())

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 1, repo.calls)
}

func TestGetUser_RetriesTransientErrors(t *testing.T) {
	f := newFixture(t)
	user, err := f.service.CreateUser(context.Background(), CreateUserInput{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	repo := &flakyRepo{UserRepoMemory: f.repo, failures: 2}
	service := NewUserService(repo, nil, nil, zap.NewNop())

	got, err := service.GetUser(context.Background(), user.ID)

	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, 3, repo.calls)
}

func TestGetUser_ServedFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cached := &domain.User{ID: uuid.New(), FirstName: "Cached", Email: "c@example.com"}
	require.NoError(t, f.cache.Set(ctx, domain.CacheKeyByID(cached.ID), cached, 0))

	got, err := f.service.GetUser(ctx, cached.ID)

	require.NoError(t, err)
	assert.Equal(t, "Cached", got.FirstName)
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, CreateUserInput{FirstName: "Ana", Email: "ana@example.com", LoginTimes: intPtr(3)})
	require.NoError(t, err)

	updated, err := f.service.UpdateUser(ctx, user.ID, UpdateUserInput{LastName: strPtr("Actualizada"), ClearLoginTimes: true})

	require.NoError(t, err)
	assert.Equal(t, "Actualizada", updated.LastName)
	assert.Nil(t, updated.LoginTimes)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	assert.Equal(t, 2, f.outbox.Pending())

	_, err = f.service.UpdateUser(ctx, user.ID, UpdateUserInput{Email: strPtr("bad")})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)

	_, err = f.service.UpdateUser(ctx, uuid.New(), UpdateUserInput{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, CreateUserInput{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return f.cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.service.DeleteUser(ctx, user.ID))

	_, err = f.repo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, 0, f.cache.Len())
	assert.ErrorIs(t, f.service.DeleteUser(ctx, user.ID), domain.ErrUserNotFound)
}

func TestUpdateThenDeleteUser_LeavesNoCachedEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user, err := f.service.CreateUser(ctx, CreateUserInput{FirstName: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return f.cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	// La invalidación ocurre antes de responder
	_, err = f.service.UpdateUser(ctx, user.ID, UpdateUserInput{LastName: strPtr("Nueva")})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Len())

	got, err := f.service.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nueva", got.LastName)
	assert.Eventually(t, func() bool { return f.cache.Len() == 1 }, time.Second, 5*time.Millisecond)

	_, err = f.service.UpdateUser(ctx, user.ID, UpdateUserInput{LastName: strPtr("Otra")})
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteUser(ctx, user.ID))

	assert.Equal(t, 0, f.cache.Len())
	assert.Never(t, func() bool { return f.cache.Len() != 0 }, 100*time.Millisecond, 5*time.Millisecond)
	_, err = f.service.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListUsers_FiltersAndRecordsQueries(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	page, err := f.service.ListUsers(ctx, `{"field":"login_times","operator":"not_in","value":[1,2,3]}`, query.PageRequest{Page: 1, Sort: "first_name"})

	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Jean", page.Items[0].FirstName)
	assert.Equal(t, "Louis", page.Items[1].FirstName)

	_, err = f.service.ListUsers(ctx, `{"field":"shoe_size","operator":"=","value":42}`, query.PageRequest{Page: 1})
	assert.ErrorIs(t, err, filter.ErrInvalidFilter)

	require.Len(t, f.queries.entries, 2)
	assert.Equal(t, "User", f.queries.entries[0].Model)
	assert.Equal(t, 2, f.queries.entries[0].Total)
	assert.Equal(t, "User has no attribute shoe_size", f.queries.entries[1].Error)
}
