package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
)

// dateLayouts are the accepted formats of date inputs.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

type (
	TeacherRef struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	Class struct {
		ID        string      `json:"id"`
		Name      string      `json:"name"`
		Subject   string      `json:"subject"`
		TeacherID string      `json:"teacherId"`
		Teacher   *TeacherRef `json:"teacher,omitempty"`
		Date      null.Time   `json:"date"`
		Time      null.String `json:"time"`
	}

	Attendance struct {
		ID        string    `json:"id"`
		StudentID string    `json:"studentId"`
		ClassID   string    `json:"classId"`
		Class     *Class    `json:"class,omitempty"`
		Date      time.Time `json:"date"` // UTC
		Present   bool      `json:"present"`
	}

	Mark struct {
		ID        string      `json:"id"`
		StudentID string      `json:"studentId"`
		ClassID   string      `json:"classId"`
		Class     *Class      `json:"class,omitempty"`
		Marks     float64     `json:"marks"`
		Feedback  null.String `json:"feedback"`
	}

	// MarkEvent is broadcast to realtime clients whenever a Mark is created.
	MarkEvent struct {
		StudentID string  `json:"studentId"`
		Marks     float64 `json:"marks"`
	}

	// MarkPublisher delivers MarkEvents on a best-effort basis.
	MarkPublisher interface {
		PublishMark(evt MarkEvent)
	}

	Repository interface {
		CreateClass(ctx context.Context, class Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		ClassExists(ctx context.Context, id string) (bool, error)
		// QueryClasses returns all classes with their Teacher populated.
		QueryClasses(ctx context.Context) ([]Class, error)
		CreateAttendance(ctx context.Context, att Attendance) (Attendance, error)
		// QueryAttendanceByStudent returns the student's records, most recent first, with their Class populated.
		QueryAttendanceByStudent(ctx context.Context, studentID string) ([]Attendance, error)
		CreateMark(ctx context.Context, mark Mark) (Mark, error)
		// QueryMarksByStudent returns the student's marks with their Class populated.
		QueryMarksByStudent(ctx context.Context, studentID string) ([]Mark, error)
	}
)

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name      string `json:"name" validate:"required,notblank"`
	Subject   string `json:"subject" validate:"required,notblank"`
	TeacherID string `json:"teacherId" validate:"required,uuid"`
	Date      string `json:"date" validate:"omitempty,date"`
	Time      string `json:"time" validate:"omitempty,datetime=15:04"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.TeacherID = core.CleanString(nc.TeacherID, true /* lower */)
	nc.Date = core.CleanString(nc.Date)
	nc.Time = core.CleanString(nc.Time)
	return validate.Struct(nc)
}

// NewAttendance contains information needed to record a student's presence in a Class.
type NewAttendance struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	ClassID   string `json:"classId" validate:"required,uuid"`
	Date      string `json:"date" validate:"omitempty,date"`
	Present   *bool  `json:"present" validate:"required"`
}

func (na *NewAttendance) Validate(validate *validator.Validate) error {
	na.StudentID = core.CleanString(na.StudentID, true /* lower */)
	na.ClassID = core.CleanString(na.ClassID, true /* lower */)
	na.Date = core.CleanString(na.Date)
	return validate.Struct(na)
}

// NewMark contains information needed to grade a student in a Class.
type NewMark struct {
	StudentID string   `json:"studentId" validate:"required,uuid"`
	ClassID   string   `json:"classId" validate:"required,uuid"`
	Marks     *float64 `json:"marks" validate:"required,min=0"`
	Feedback  string   `json:"feedback"`
}

func (nm *NewMark) Validate(validate *validator.Validate) error {
	nm.StudentID = core.CleanString(nm.StudentID, true /* lower */)
	nm.ClassID = core.CleanString(nm.ClassID, true /* lower */)
	nm.Feedback = core.CleanString(nm.Feedback)
	return validate.Struct(nm)
}

// parseDate parses s using dateLayouts. It returns the zero time for an empty string.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
