package portal

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/marksboard/core"
	"github.com/trezcool/marksboard/core/student"
)

func TestShell_initialScreen(t *testing.T) {
	sh := NewShell(&clientMock{}, Options{})
	assert.Equal(t, ScreenSignup, sh.Screen())
	_, ok := sh.Student()
	assert.False(t, ok)

	_, err := sh.Dashboard()
	assert.Equal(t, ErrNotAuthenticated, err)
	_, err = sh.Table()
	assert.Equal(t, ErrNotAuthenticated, err)
}

func TestShell_Show(t *testing.T) {
	sh := NewShell(&clientMock{}, Options{})

	require.NoError(t, sh.Show(ScreenLogin))
	assert.Equal(t, ScreenLogin, sh.Screen())
	require.NoError(t, sh.Show(ScreenSignup))
	assert.Equal(t, ScreenSignup, sh.Screen())
	assert.Equal(t, ErrNotAuthenticated, sh.Show(ScreenDashboard))
	assert.Equal(t, ScreenSignup, sh.Screen())
}

func TestShell_Signup(t *testing.T) {
	tests := []struct {
		name       string
		reg        student.Registration
		register   func(student.Registration) (student.Student, error)
		wantErr    bool
		wantFields map[string]string
		wantNotice string
		wantScreen Screen
		wantCalls  int
	}{
		{
			name:       "missing fields",
			reg:        student.Registration{Email: "nope"},
			wantErr:    true,
			wantFields: map[string]string{"name": "this field is required", "email": "enter a valid email address", "password": "this field is required"},
			wantScreen: ScreenSignup,
		},
		{
			name: "email already registered",
			reg:  student.Registration{Name: "Ada", Email: "ada@test.cd", Password: "pwd"},
			register: func(student.Registration) (student.Student, error) {
				return student.Student{}, apiErr{"Email already registered"}
			},
			wantErr:    true,
			wantNotice: "Email already registered",
			wantScreen: ScreenSignup,
			wantCalls:  1,
		},
		{
			name:       "api error without message",
			reg:        student.Registration{Name: "Ada", Email: "ada@test.cd", Password: "pwd"},
			register:   func(student.Registration) (student.Student, error) { return student.Student{}, apiErr{} },
			wantErr:    true,
			wantNotice: "Registration failed",
			wantScreen: ScreenSignup,
			wantCalls:  1,
		},
		{
			name:       "invalid identity",
			reg:        student.Registration{Name: "Ada", Email: "ada@test.cd", Password: "pwd"},
			register:   func(student.Registration) (student.Student, error) { return student.Student{ID: "s1"}, nil },
			wantErr:    true,
			wantNotice: "Registration failed",
			wantScreen: ScreenSignup,
			wantCalls:  1,
		},
		{
			name: "success",
			reg:  student.Registration{Name: " Ada ", Email: " ADA@test.cd", Password: "pwd"},
			register: func(reg student.Registration) (student.Student, error) {
				return student.Student{ID: "s1", Name: reg.Name, Email: reg.Email}, nil
			},
			wantNotice: "Registration successful",
			wantScreen: ScreenDashboard,
			wantCalls:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &clientMock{register: tc.register}
			sh := NewShell(client, Options{})

			err := sh.Signup(context.Background(), tc.reg)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tc.wantFields != nil {
				var vErr *core.ValidationError
				require.True(t, errors.As(err, &vErr))
				assert.Equal(t, tc.wantFields, vErr.FieldMap())
			}
			assert.Equal(t, tc.wantNotice, sh.Notice().Text)
			assert.Equal(t, tc.wantScreen, sh.Screen())
			assert.Len(t, client.Calls("register"), tc.wantCalls)
		})
	}
}

func TestShell_Signup_entersDashboard(t *testing.T) {
	client := &clientMock{register: func(reg student.Registration) (student.Student, error) {
		assert.Equal(t, "Ada", reg.Name)
		assert.Equal(t, "Ada@Test.cd", reg.Email)
		return ada, nil
	}}
	sh := NewShell(client, Options{})

	require.NoError(t, sh.Signup(context.Background(), student.Registration{Name: " Ada", Email: "Ada@Test.cd ", Password: "pwd"}))
	stu, ok := sh.Student()
	require.True(t, ok)
	assert.Equal(t, ada, stu)

	dash, err := sh.Dashboard()
	require.NoError(t, err)
	assert.Equal(t, ada, dash.View().Student)
	tbl, err := sh.Table()
	require.NoError(t, err)
	assert.Equal(t, ada, tbl.View().Student)

	// an authenticated student cannot go back to signup
	require.NoError(t, sh.Show(ScreenSignup))
	assert.Equal(t, ScreenDashboard, sh.Screen())
}

func TestShell_Login(t *testing.T) {
	tests := []struct {
		name       string
		creds      student.Credentials
		login      func(student.Credentials) (student.Student, error)
		wantErr    bool
		wantNotice string
		wantScreen Screen
		wantCalls  int
	}{
		{
			name:       "missing password",
			creds:      student.Credentials{Email: "ada@test.cd"},
			wantErr:    true,
			wantScreen: ScreenLogin,
		},
		{
			name:  "wrong password",
			creds: student.Credentials{Email: "ada@test.cd", Password: "bad"},
			login: func(student.Credentials) (student.Student, error) {
				return student.Student{}, apiErr{"Invalid password"}
			},
			wantErr:    true,
			wantNotice: "Invalid password",
			wantScreen: ScreenLogin,
			wantCalls:  1,
		},
		{
			name:       "unreachable service",
			creds:      student.Credentials{Email: "ada@test.cd", Password: "pwd"},
			login:      func(student.Credentials) (student.Student, error) { return student.Student{}, context.DeadlineExceeded },
			wantErr:    true,
			wantNotice: "Login failed",
			wantScreen: ScreenLogin,
			wantCalls:  1,
		},
		{
			name:  "identity without id",
			creds: student.Credentials{Email: "ada@test.cd", Password: "pwd"},
			login: func(student.Credentials) (student.Student, error) {
				return student.Student{Name: "Ada", Email: "ada@test.cd"}, nil
			},
			wantErr:    true,
			wantNotice: "Invalid credentials",
			wantScreen: ScreenLogin,
			wantCalls:  1,
		},
		{
			name:       "success",
			creds:      student.Credentials{Email: "ada@test.cd", Password: "pwd"},
			login:      func(student.Credentials) (student.Student, error) { return ada, nil },
			wantNotice: "Login successful",
			wantScreen: ScreenDashboard,
			wantCalls:  1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := &clientMock{login: tc.login}
			sh := NewShell(client, Options{})
			require.NoError(t, sh.Show(ScreenLogin))

			err := sh.Login(context.Background(), tc.creds)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tc.wantNotice, sh.Notice().Text)
			assert.Equal(t, tc.wantScreen, sh.Screen())
			assert.Len(t, client.Calls("login"), tc.wantCalls)
		})
	}
}

func TestShell_Logout(t *testing.T) {
	client := &clientMock{login: func(student.Credentials) (student.Student, error) { return ada, nil }}
	sh := NewShell(client, Options{})
	require.NoError(t, sh.Login(context.Background(), student.Credentials{Email: "ada@test.cd", Password: "pwd"}))
	dash, err := sh.Dashboard()
	require.NoError(t, err)

	sh.Logout()
	assert.Equal(t, ScreenLogin, sh.Screen())
	_, ok := sh.Student()
	assert.False(t, ok)
	assert.Empty(t, sh.Notice().Text)
	_, err = sh.Dashboard()
	assert.Equal(t, ErrNotAuthenticated, err)
	assert.Error(t, dash.ctx.Err(), "logging out cancels the pending rank poll")

	// logging in as someone else starts from fresh dashboards
	client.login = func(student.Credentials) (student.Student, error) { return bob, nil }
	require.NoError(t, sh.Login(context.Background(), student.Credentials{Email: "bob@test.cd", Password: "pwd"}))
	tbl, err := sh.Table()
	require.NoError(t, err)
	assert.Equal(t, bob, tbl.View().Student)
}

func TestShell_switchScreenClearsNotice(t *testing.T) {
	client := &clientMock{login: func(student.Credentials) (student.Student, error) { return student.Student{}, apiErr{"Invalid email"} }}
	sh := NewShell(client, Options{})
	require.NoError(t, sh.Show(ScreenLogin))
	assert.Error(t, sh.Login(context.Background(), student.Credentials{Email: "x@test.cd", Password: "pwd"}))
	assert.Equal(t, "Invalid email", sh.Notice().Text)

	require.NoError(t, sh.Show(ScreenSignup))
	assert.Empty(t, sh.Notice().Text)
}
