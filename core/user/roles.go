package user

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// Role is one of exactly three variants. The zero value is not a valid Role.
type Role uint8

const (
	RoleStudent Role = iota + 1
	RoleTeacher
	RoleAdmin
)

var (
	ErrInvalidRole = errors.New("invalid role")

	// Roles lists every valid Role, lowest privilege first.
	Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

	roleNames = map[Role]string{
		RoleStudent: "Student",
		RoleTeacher: "Teacher",
		RoleAdmin:   "Admin",
	}
)

// ParseRole returns the Role named exactly `s`.
func ParseRole(s string) (Role, error) {
	for role, name := range roleNames {
		if name == s {
			return role, nil
		}
	}
	return 0, ErrInvalidRole
}

// ParseRoleFold is ParseRole ignoring case and surrounding whitespace. Use it for query filters only.
func ParseRoleFold(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for role, name := range roleNames {
		if strings.EqualFold(name, s) {
			return role, nil
		}
	}
	return 0, ErrInvalidRole
}

func (r Role) IsValid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Scan implements sql.Scanner; roles are stored by name.
func (r *Role) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return r.UnmarshalText([]byte(v))
	case []byte:
		return r.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into Role", src)
	}
}

// Value implements driver.Valuer.
func (r Role) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, ErrInvalidRole
	}
	return r.String(), nil
}
