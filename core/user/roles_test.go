package user

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr error
	}{
		{in: "Admin", want: RoleAdmin},
		{in: "Teacher", want: RoleTeacher},
		{in: "teacher", wantErr: ErrInvalidRole},
		{in: " Student ", wantErr: ErrInvalidRole},
		{in: "Principal", wantErr: ErrInvalidRole},
		{in: "", wantErr: ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoleFold(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr error
	}{
		{in: "Admin", want: RoleAdmin},
		{in: "teacher", want: RoleTeacher},
		{in: " STUDENT ", want: RoleStudent},
		{in: "Principal", wantErr: ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoleFold(tt.in)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Role Role `json:"role"`
	}{RoleTeacher})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"Teacher"}`, string(data))

	var dst struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"Admin"}`), &dst))
	assert.Equal(t, RoleAdmin, dst.Role)

	assert.Error(t, json.Unmarshal([]byte(`{"role":"Janitor"}`), &dst))
	assert.Error(t, json.Unmarshal([]byte(`{"role":"admin"}`), &dst))
	assert.Error(t, json.Unmarshal([]byte(`{"role":" Admin"}`), &dst))

	_, err = json.Marshal(struct{ Role Role }{})
	assert.Error(t, err, "the zero Role is not a valid variant")
}

func TestRole_Scan(t *testing.T) {
	var r Role
	require.NoError(t, r.Scan([]byte("Student")))
	assert.Equal(t, RoleStudent, r)

	val, err := RoleAdmin.Value()
	require.NoError(t, err)
	assert.Equal(t, "Admin", val)

	assert.Error(t, r.Scan(42))
}
