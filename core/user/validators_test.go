package user

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syllabix/syllabix/core"
)

type fakeUniqueness struct {
	err error
}

func (f fakeUniqueness) CheckUniqueness(context.Context, string, string, ...User) error { return f.err }

type discardLogger struct{}

func (discardLogger) Debug(string, ...interface{}) {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Fatal(string, ...interface{}) {}

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	LoadCommonPasswords(discardLogger{})
	return validate
}

func failedTags(t *testing.T, err error) map[string]string {
	t.Helper()
	tags := make(map[string]string)
	if err == nil {
		return tags
	}
	verrs, ok := err.(validator.ValidationErrors)
	require.True(t, ok, "unexpected error: %v", err)
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator()
	pwd := "Gr3at-Pa$$"

	tests := []struct {
		name     string
		nu       NewUser
		wantTags map[string]string
	}{
		{
			name: "valid",
			nu:   NewUser{Name: "Jane", Username: "jane_d", Password: pwd, PasswordConfirm: pwd, Roles: []string{RoleTeacher}},
		},
		{
			name:     "no username nor email",
			nu:       NewUser{Name: "Jane", Password: pwd, PasswordConfirm: pwd},
			wantTags: map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag},
		},
		{
			name:     "bad role",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: pwd, PasswordConfirm: pwd, Roles: []string{"root"}},
			wantTags: map[string]string{"roles": allRolesTag},
		},
		{
			name:     "short password",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: "Ab1$", PasswordConfirm: "Ab1$"},
			wantTags: map[string]string{"password": pwdMinLenTag},
		},
		{
			name:     "numeric password",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: "12345678", PasswordConfirm: "12345678"},
			wantTags: map[string]string{"password": pwdNotAllNumTag},
		},
		{
			name:     "password with space",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: "Gr3at Pa$$", PasswordConfirm: "Gr3at Pa$$"},
			wantTags: map[string]string{"password": pwdNoSpaceTag},
		},
		{
			name:     "simple password",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: "greatpass", PasswordConfirm: "greatpass"},
			wantTags: map[string]string{"password": pwdComplexityTag},
		},
		{
			name:     "password similar to username",
			nu:       NewUser{Name: "Jane", Username: "jane_doe1", Password: "Jane_doe1", PasswordConfirm: "Jane_doe1"},
			wantTags: map[string]string{"password": pwdAttrSimTag},
		},
		{
			name:     "common password",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"},
			wantTags: map[string]string{"password": pwdNoCommonTag},
		},
		{
			name:     "password mismatch",
			nu:       NewUser{Name: "Jane", Username: "jane_d", Password: pwd, PasswordConfirm: pwd + "x"},
			wantTags: map[string]string{"password_confirm": "eqfield"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(context.Background(), validate, fakeUniqueness{})
			if tt.wantTags == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.wantTags, failedTags(t, err))
		})
	}
}

func TestNewUser_ValidateCleansAndChecksUniqueness(t *testing.T) {
	validate := newValidator()
	pwd := "Gr3at-Pa$$"
	nu := NewUser{Name: "  Jane ", Username: " JANE_D ", Email: " Jane@Test.TEST", Password: pwd, PasswordConfirm: pwd}

	uniqueErr := core.NewValidationError(ErrUsernameExists, core.FieldError{Field: "username", Error: ErrUsernameExists.Error()})
	err := nu.Validate(context.Background(), validate, fakeUniqueness{err: uniqueErr})
	assert.Equal(t, uniqueErr, err)
	assert.Equal(t, "Jane", nu.Name)
	assert.Equal(t, "jane_d", nu.Username)
	assert.Equal(t, "jane@test.test", nu.Email)
}

func TestUpdateUser_Validate(t *testing.T) {
	validate := newValidator()
	orig := User{ID: "id", Name: "Jane", Username: "jane_d", Email: "jane@test.test"}

	uu := UpdateUser{Name: " "}
	require.NoError(t, uu.Validate(context.Background(), orig, validate, fakeUniqueness{}))
	assert.Equal(t, orig.Name, uu.Name)
	assert.Equal(t, orig.Username, uu.Username)
	assert.Equal(t, orig.Email, uu.Email)

	uu = UpdateUser{Password: "Gr3at-Pa$$"}
	err := uu.Validate(context.Background(), orig, validate, fakeUniqueness{})
	assert.Equal(t, map[string]string{"password_confirm": "required_with"}, failedTags(t, err))
}

func TestResetUserPassword_Validate(t *testing.T) {
	validate := newValidator()
	err := ResetUserPassword{UID: "uid", Token: "token", Password: "abc", PasswordConfirm: "abc"}.Validate(validate)
	assert.Equal(t, map[string]string{"password": pwdMinLenTag}, failedTags(t, err))
}
