package echoapi

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/auth"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/internal/testutil"
)

func Test_authApi_register(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "Taken", "taken@school.io", user.RoleStudent)

	newUser := func(name, email, pwd, role string) []byte {
		return marshallObj(t, map[string]string{"name": name, "email": email, "password": pwd, "role": role})
	}

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: msgInvalidInput, Fields: map[string]string{
				"name":     "this field is required",
				"email":    "this field is required",
				"password": "this field is required",
				"role":     "this field is required",
			}}),
		},
		{
			name: "invalid email", body: newUser("Jane", "jane@", testutil.Password, "Student"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: msgInvalidInput, Fields: map[string]string{
				"email": "email must be a valid email address",
			}}),
		},
		{
			name: "weak password", body: newUser("Jane", "jane@school.io", "short", "Student"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: msgInvalidInput, Fields: map[string]string{
				"password": "password must contain at least 8 characters",
			}}),
		},
		{
			name: "numeric password", body: newUser("Jane", "jane@school.io", "1234567890", "Student"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: msgInvalidInput, Fields: map[string]string{
				"password": "password cannot be entirely numeric",
			}}),
		},
		{name: "unknown role", body: newUser("Jane", "jane@school.io", testutil.Password, "Janitor"), wantCode: http.StatusBadRequest},
		{name: "lowercase role", body: newUser("Jane", "jane@school.io", testutil.Password, "admin"), wantCode: http.StatusBadRequest},
		{name: "malformed body", body: []byte(`{"name":`), wantCode: http.StatusBadRequest},
		{
			name: "duplicate email", body: newUser("Jane", " TAKEN@school.io ", testutil.Password, "Student"), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{
				Error:  user.ErrEmailExists.Error(),
				Fields: map[string]string{"email": user.ErrEmailExists.Error()},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/register"
			app.run(t, tt)
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: "/api/auth/register",
			body:     newUser(" Jane Doe ", "Jane@School.io", testutil.Password, "Teacher"),
			wantCode: http.StatusCreated,
		})
		assert.NotContains(t, rec.Body.String(), "password")

		var usr user.User
		decode(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "Jane Doe", usr.Name)
		assert.Equal(t, "jane@school.io", usr.Email)
		assert.Equal(t, user.RoleTeacher, usr.Role)

		stored, err := app.users.GetByEmail(context.Background(), "jane@school.io")
		require.NoError(t, err)
		assert.NoError(t, stored.CheckPassword(testutil.Password))
	})
}

func Test_authApi_login(t *testing.T) {
	app := newTestApp(t)
	teacher := app.createUser(t, "Teacher", "teacher@school.io", user.RoleTeacher)

	login := func(email, pwd string) []byte {
		return marshallObj(t, LoginRequest{Email: email, Password: pwd})
	}
	invalidCreds := marshallObj(t, httpErr{Error: auth.ErrInvalidCredentials.Error()})

	tests := []httpTest{
		{
			name: "missing fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: msgInvalidInput, Fields: map[string]string{
				"email":    "this field is required",
				"password": "this field is required",
			}}),
		},
		{name: "unknown email", body: login("nobody@school.io", testutil.Password), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
		{name: "wrong password", body: login("teacher@school.io", "Wrong-Horse-42"), wantCode: http.StatusUnauthorized, wantData: invalidCreds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/login"
			app.run(t, tt)
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: "/api/auth/login",
			body: login(" TEACHER@school.io", testutil.Password), wantCode: http.StatusOK,
		})

		var resp LoginResponse
		decode(t, rec, &resp)
		assert.Equal(t, teacher.ID, resp.ID)
		assert.Equal(t, teacher.Name, resp.Name)
		assert.Equal(t, user.RoleTeacher, resp.Role)

		claims, err := app.tokens.Validate(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, claims.SubjectID())
		assert.Equal(t, user.RoleTeacher, claims.Role)
	})
}

func Test_authApi_logout(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student@school.io", user.RoleStudent)
	token := app.token(t, student)

	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingTokenResp)})
	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", token: token, wantCode: http.StatusNoContent})

	// the token is now rejected everywhere
	revoked := marshallObj(t, httpErr{Error: auth.ErrRevokedToken.Error()})
	app.run(t, httpTest{method: http.MethodPost, path: "/api/auth/logout", token: token, wantCode: http.StatusUnauthorized, wantData: revoked})
	app.run(t, httpTest{path: "/api/classes", token: token, wantCode: http.StatusUnauthorized, wantData: revoked})

	// other tokens are unaffected
	app.run(t, httpTest{path: "/api/classes", token: app.token(t, student), wantCode: http.StatusOK, wantData: marshallList(t)})
}

func Test_authMiddleware(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student@school.io", user.RoleStudent)

	expired := auth.NewTokenManager(app.conf.SecretKey, app.conf.JWTIssuer, app.conf.JWTExpirationDelta)
	expired.SetClock(func() time.Time { return time.Now().Add(-2 * app.conf.JWTExpirationDelta) })
	expiredToken, _, err := expired.Issue(student)
	require.NoError(t, err)

	forged := auth.NewTokenManager("not-the-server-key", app.conf.JWTIssuer, app.conf.JWTExpirationDelta)
	forgedToken, _, err := forged.Issue(student)
	require.NoError(t, err)

	invalid := marshallObj(t, httpErr{Error: auth.ErrInvalidToken.Error()})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantData []byte
	}{
		{name: "no header", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingTokenResp)},
		{name: "wrong scheme", header: "Basic " + app.token(t, student), wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingTokenResp)},
		{name: "empty bearer", header: "Bearer ", wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingTokenResp)},
		{name: "garbage", header: "Bearer not.a.jwt", wantCode: http.StatusUnauthorized, wantData: invalid},
		{name: "forged", header: "Bearer " + forgedToken, wantCode: http.StatusUnauthorized, wantData: invalid},
		{
			name: "expired", header: "Bearer " + expiredToken, wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Error: auth.ErrExpiredToken.Error()}),
		},
		{name: "lowercase scheme", header: "bearer " + app.token(t, student), wantCode: http.StatusOK, wantData: marshallList(t)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/api/classes", "")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: tt.wantCode, wantData: tt.wantData}, rec)
		})
	}
}

func Test_authApi_passwordReset(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student@school.io", user.RoleStudent)
	const newPwd = "Battery-Staple-77"

	request := func(email string) {
		rec := app.run(t, httpTest{
			method: http.MethodPost, path: "/api/auth/password-reset",
			body: marshallObj(t, PasswordResetRequest{Email: email}), wantCode: http.StatusOK,
		})
		var resp SuccessResponse
		decode(t, rec, &resp)
		assert.True(t, strings.HasPrefix(resp.Success, "If the email address supplied"))
	}

	// unknown emails get the same answer, and no email
	request("nobody@school.io")
	assert.Empty(t, app.mailer.SentMessages())

	request("Student@school.io")
	sent := app.mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, student.Email, sent[0].To[0].Address)
	data, ok := sent[0].TemplateData.(struct{ Name, UID, Token string })
	require.True(t, ok, "unexpected template data %T", sent[0].TemplateData)

	confirm := func(token, pwd, confirm string) []byte {
		return marshallObj(t, user.ResetUserPassword{UID: data.UID, Token: token, Password: pwd, PasswordConfirm: confirm})
	}
	tests := []httpTest{
		{name: "mismatch", body: confirm(data.Token, newPwd, "Other-Staple-77"), wantCode: http.StatusBadRequest},
		{name: "bad token", body: confirm("bad-token", newPwd, newPwd), wantCode: http.StatusBadRequest},
		{
			name: "success", body: confirm(data.Token, newPwd, newPwd), wantCode: http.StatusOK,
			wantData: marshallObj(t, SuccessResponse{Success: "Password has been reset with the new password."}),
		},
		{name: "token reuse", body: confirm(data.Token, newPwd, newPwd), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method = http.MethodPost
			tt.path = "/api/auth/password-reset-confirm"
			app.run(t, tt)
		})
	}

	app.run(t, httpTest{
		method: http.MethodPost, path: "/api/auth/login",
		body: marshallObj(t, LoginRequest{Email: student.Email, Password: newPwd}), wantCode: http.StatusOK,
	})
}
