package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-crm/internal/dto"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/utils"
)

func TestUserCreate(t *testing.T) {
	users := defaultUsers()
	svc := NewUserService(newTestBase(), users)

	u, err := svc.Create(as(admin), dto.CreateUserDTO{Email: " New@Example.com", Name: "New", Role: "employee", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.True(t, u.Active)
	assert.True(t, utils.CheckPassword(users.users[u.ID].PasswordHash, "s3cret-pass"))

	_, err = svc.Create(as(admin), dto.CreateUserDTO{Email: "new@example.com", Name: "Again", Role: "employee", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Create(as(admin), dto.CreateUserDTO{Email: "short@example.com", Name: "Short", Role: "employee", Password: "abc"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Create(as(admin), dto.CreateUserDTO{Email: "boss@example.com", Name: "Boss", Role: "owner", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Create(as(employeeE), dto.CreateUserDTO{Email: "x@example.com", Name: "X", Role: "employee", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestUserDeactivate_NotSelf(t *testing.T) {
	users := defaultUsers()
	svc := NewUserService(newTestBase(), users)

	err := svc.Deactivate(as(admin), admin.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.True(t, users.users[admin.ID].Active)

	_, err = svc.Update(as(admin), admin.ID, dto.UpdateUserDTO{Active: null.BoolFrom(false)})
	require.ErrorIs(t, err, apperrors.ErrForbidden, "update cannot be used to bypass the guard")
	assert.True(t, users.users[admin.ID].Active)

	require.NoError(t, svc.Deactivate(as(admin), employeeE.ID))
	assert.False(t, users.users[employeeE.ID].Active)

	assert.ErrorIs(t, svc.Deactivate(as(employeeF), employeeF.ID), apperrors.ErrForbidden)
}

func TestUserUpdate_Partial(t *testing.T) {
	users := defaultUsers()
	svc := NewUserService(newTestBase(), users)

	u, err := svc.Update(as(admin), employeeE.ID, dto.UpdateUserDTO{Name: null.StringFrom("Emma Stone"), Role: null.StringFrom("admin")})
	require.NoError(t, err)
	assert.Equal(t, "Emma Stone", u.Name)
	assert.Equal(t, "admin", u.Role)
	assert.Equal(t, "e@example.com", u.Email)

	_, err = svc.Update(as(admin), employeeE.ID, dto.UpdateUserDTO{Email: null.StringFrom("F@example.com")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.Update(as(admin), 404, dto.UpdateUserDTO{Name: null.StringFrom("Nobody")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserGet_EmployeeSeesOnlySelf(t *testing.T) {
	svc := NewUserService(newTestBase(), defaultUsers())

	u, err := svc.Get(as(employeeE), employeeE.ID)
	require.NoError(t, err)
	assert.Equal(t, "Emma", u.Name)

	_, err = svc.Get(as(employeeE), employeeF.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
