package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/estribo-center/estribo/internal/query"
	"github.com/estribo-center/estribo/internal/shared"
)

type memoryUsersRepo struct {
	users map[int64]User
}

func (r *memoryUsersRepo) List(ctx context.Context, search query.Search) (query.Page[User], error) {
	return query.Page[User]{}, nil
}

func (r *memoryUsersRepo) Get(ctx context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUsersRepo) Create(ctx context.Context, email, alias, passwordHash string, roleID *int64) (User, error) {
	u := User{ID: int64(len(r.users) + 1), Email: email, Alias: alias, IsActive: true, RoleID: roleID}
	r.users[u.ID] = u
	return u, nil
}

func (r *memoryUsersRepo) Update(ctx context.Context, id int64, alias string, roleID *int64) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.Alias = alias
	u.RoleID = roleID
	r.users[id] = u
	return nil
}

func (r *memoryUsersRepo) SetActive(ctx context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *memoryUsersRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func TestToggleActiveFlipsFlag(t *testing.T) {
	repo := &memoryUsersRepo{users: map[int64]User{
		1: {ID: 1, Email: "vol@estribo.local", IsActive: true},
	}}
	svc := NewService(repo)

	user, err := svc.ToggleActive(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, user.IsActive)

	user, err = svc.ToggleActive(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, user.IsActive)
}

func TestToggleActiveRefusesSystemAdmin(t *testing.T) {
	repo := &memoryUsersRepo{users: map[int64]User{
		7: {ID: 7, Email: "root@estribo.local", IsActive: true, IsSystemAdmin: true},
	}}
	svc := NewService(repo)

	_, err := svc.ToggleActive(context.Background(), 7)
	require.ErrorIs(t, err, ErrSystemAdminImmutable)
	require.True(t, repo.users[7].IsActive, "admin must stay enabled")
}

func TestToggleActiveMissingUser(t *testing.T) {
	svc := NewService(&memoryUsersRepo{users: map[int64]User{}})
	_, err := svc.ToggleActive(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateHashesPassword(t *testing.T) {
	repo := &memoryUsersRepo{users: map[int64]User{}}
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "  Nueva@Estribo.Local ", " Nueva ", "pw12345678", nil)
	require.NoError(t, err)
	require.Equal(t, "nueva@estribo.local", repo.users[1].Email)
	require.Equal(t, "Nueva", repo.users[1].Alias)
}
