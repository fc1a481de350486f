package school

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrClassNotFound   = core.NewNotFoundError("class")
	ErrStudentNotFound = core.NewNotFoundError("student")

	errTeacherNotFound = "teacher not found"
	errStudentNotFound = "student not found"
	errClassNotFound   = "class not found"
	errInvalidDate     = "invalid date"
)

type Service struct {
	repo      Repository
	users     user.Service
	publisher MarkPublisher
	nowFunc   func() time.Time
}

func NewService(repo Repository, users user.Service, publisher MarkPublisher) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		publisher: publisher,
		nowFunc:   time.Now,
	}
}

func fieldError(field, msg string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: msg})
}

// getUserWithRole loads the user `id` and checks its role; a missing or mismatched user is a field error.
func (svc *Service) getUserWithRole(ctx context.Context, id string, role user.Role, field, msg string) (user.User, error) {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, fieldError(field, msg)
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	if usr.Role != role {
		return user.User{}, fieldError(field, msg)
	}
	return usr, nil
}

func (svc *Service) getClass(ctx context.Context, id string) (Class, error) {
	class, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return Class{}, fieldError("classId", errClassNotFound)
		}
		return Class{}, errors.Wrap(err, "finding class by ID")
	}
	return class, nil
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	teacher, err := svc.getUserWithRole(ctx, nc.TeacherID, user.RoleTeacher, "teacherId", errTeacherNotFound)
	if err != nil {
		return Class{}, err
	}
	date, ok := parseDate(nc.Date)
	if !ok {
		return Class{}, fieldError("date", errInvalidDate)
	}

	class := Class{
		ID:        uuid.New().String(),
		Name:      nc.Name,
		Subject:   nc.Subject,
		TeacherID: teacher.ID,
		Date:      null.NewTime(date, !date.IsZero()),
		Time:      null.NewString(nc.Time, nc.Time != ""),
	}
	class, err = svc.repo.CreateClass(ctx, class)
	if err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	class.Teacher = &TeacherRef{ID: teacher.ID, Name: teacher.Name}
	return class, nil
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *Service) CreateAttendance(ctx context.Context, na NewAttendance) (Attendance, error) {
	if _, err := svc.getUserWithRole(ctx, na.StudentID, user.RoleStudent, "studentId", errStudentNotFound); err != nil {
		return Attendance{}, err
	}
	class, err := svc.getClass(ctx, na.ClassID)
	if err != nil {
		return Attendance{}, err
	}
	date, ok := parseDate(na.Date)
	if !ok {
		return Attendance{}, fieldError("date", errInvalidDate)
	}
	if date.IsZero() {
		date = svc.nowFunc().UTC()
	}

	att := Attendance{
		ID:        uuid.New().String(),
		StudentID: na.StudentID,
		ClassID:   class.ID,
		Date:      date,
		Present:   *na.Present,
	}
	att, err = svc.repo.CreateAttendance(ctx, att)
	if err != nil {
		return Attendance{}, errors.Wrap(err, "creating attendance")
	}
	att.Class = &class
	return att, nil
}

// checkStudent returns ErrStudentNotFound unless `id` identifies a Student.
func (svc *Service) checkStudent(ctx context.Context, id string) error {
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return ErrStudentNotFound
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsStudent() {
		return ErrStudentNotFound
	}
	return nil
}

func (svc *Service) QueryStudentAttendance(ctx context.Context, studentID string) ([]Attendance, error) {
	if err := svc.checkStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryAttendanceByStudent(ctx, studentID)
}

// CreateMark persists the mark, then broadcasts a MarkEvent. The broadcast never fails the request.
func (svc *Service) CreateMark(ctx context.Context, nm NewMark) (Mark, error) {
	if _, err := svc.getUserWithRole(ctx, nm.StudentID, user.RoleStudent, "studentId", errStudentNotFound); err != nil {
		return Mark{}, err
	}
	class, err := svc.getClass(ctx, nm.ClassID)
	if err != nil {
		return Mark{}, err
	}

	mark := Mark{
		ID:        uuid.New().String(),
		StudentID: nm.StudentID,
		ClassID:   class.ID,
		Marks:     *nm.Marks,
		Feedback:  null.NewString(nm.Feedback, nm.Feedback != ""),
	}
	mark, err = svc.repo.CreateMark(ctx, mark)
	if err != nil {
		return Mark{}, errors.Wrap(err, "creating mark")
	}
	mark.Class = &class

	if svc.publisher != nil {
		svc.publisher.PublishMark(MarkEvent{StudentID: mark.StudentID, Marks: mark.Marks})
	}
	return mark, nil
}

func (svc *Service) QueryStudentMarks(ctx context.Context, studentID string) ([]Mark, error) {
	if err := svc.checkStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMarksByStudent(ctx, studentID)
}
