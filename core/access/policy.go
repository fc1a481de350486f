// Package access holds the role policy of every protected operation.
package access

import (
	"github.com/trezcool/darasa/core/user"
)

// Operation names a protected operation.
type Operation string

const (
	CreateClass      Operation = "create class"
	ListClasses      Operation = "list classes"
	CreateAttendance Operation = "create attendance record"
	ReadAttendance   Operation = "read a student's attendance"
	CreateMarks      Operation = "create marks record"
	ReadMarks        Operation = "read a student's marks"
	ListStudents     Operation = "list all students"
	ListUsers        Operation = "list all users"
	UpdateUser       Operation = "update a user"
	DeleteUser       Operation = "delete a user"
	Logout           Operation = "logout"
)

const (
	msgAdminsOnly   = "admins only"
	msgTeachersOnly = "teachers only"
	msgForbidden    = "forbidden"
)

// Rule lists the roles allowed to perform an operation; a nil Roles allows any authenticated caller.
type Rule struct {
	Roles   []user.Role
	Message string
}

func (r Rule) allows(role user.Role) bool {
	if !role.IsValid() {
		return false
	}
	if r.Roles == nil {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

var anyAuthenticated = Rule{}

// Policy is the single source of truth for role checks.
var Policy = map[Operation]Rule{
	CreateClass:      {Roles: []user.Role{user.RoleAdmin}, Message: msgAdminsOnly},
	ListClasses:      anyAuthenticated,
	CreateAttendance: {Roles: []user.Role{user.RoleTeacher}, Message: msgTeachersOnly},
	ReadAttendance:   anyAuthenticated,
	CreateMarks:      {Roles: []user.Role{user.RoleTeacher}, Message: msgTeachersOnly},
	ReadMarks:        anyAuthenticated,
	ListStudents:     {Roles: []user.Role{user.RoleTeacher, user.RoleAdmin}, Message: msgForbidden},
	ListUsers:        {Roles: []user.Role{user.RoleAdmin}, Message: msgAdminsOnly},
	UpdateUser:       {Roles: []user.Role{user.RoleAdmin}, Message: msgAdminsOnly},
	DeleteUser:       {Roles: []user.Role{user.RoleAdmin}, Message: msgAdminsOnly},
	Logout:           anyAuthenticated,
}

// DeniedError is returned when an authenticated caller's role is not allowed to perform an operation.
type DeniedError struct {
	Operation Operation
	Message   string
}

func (e *DeniedError) Error() string { return e.Message }

// Authorize returns a *DeniedError unless `role` may perform `op`. Unknown operations are always denied.
func Authorize(role user.Role, op Operation) error {
	rule, ok := Policy[op]
	if !ok {
		return &DeniedError{Operation: op, Message: msgForbidden}
	}
	if !rule.allows(role) {
		msg := rule.Message
		if msg == "" {
			msg = msgForbidden
		}
		return &DeniedError{Operation: op, Message: msg}
	}
	return nil
}
