package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type (
	classRow struct {
		ID          string      `db:"id"`
		Name        string      `db:"name"`
		Subject     string      `db:"subject"`
		TeacherID   string      `db:"teacher_id"`
		Date        null.Time   `db:"date"`
		Time        null.String `db:"time"`
		TeacherName null.String `db:"teacher_name"`
	}

	// joinedClass holds the class columns selected alongside attendance and marks.
	joinedClass struct {
		ClassName      string      `db:"class_name"`
		ClassSubject   string      `db:"class_subject"`
		ClassTeacherID string      `db:"class_teacher_id"`
		ClassDate      null.Time   `db:"class_date"`
		ClassTime      null.String `db:"class_time"`
	}

	attendanceRow struct {
		ID        string    `db:"id"`
		StudentID string    `db:"student_id"`
		ClassID   string    `db:"class_id"`
		Date      time.Time `db:"date"`
		Present   bool      `db:"present"`
		joinedClass
	}

	markRow struct {
		ID        string      `db:"id"`
		StudentID string      `db:"student_id"`
		ClassID   string      `db:"class_id"`
		Marks     float64     `db:"marks"`
		Feedback  null.String `db:"feedback"`
		joinedClass
	}
)

func (r classRow) toClass() school.Class {
	class := school.Class{
		ID:        r.ID,
		Name:      r.Name,
		Subject:   r.Subject,
		TeacherID: r.TeacherID,
		Date:      r.Date,
		Time:      r.Time,
	}
	if r.TeacherName.Valid {
		class.Teacher = &school.TeacherRef{ID: r.TeacherID, Name: r.TeacherName.String}
	}
	return class
}

func (j joinedClass) toClass(id string) *school.Class {
	return &school.Class{
		ID:        id,
		Name:      j.ClassName,
		Subject:   j.ClassSubject,
		TeacherID: j.ClassTeacherID,
		Date:      j.ClassDate,
		Time:      j.ClassTime,
	}
}

const joinedClassColumns = `c.name AS class_name, c.subject AS class_subject, c.teacher_id AS class_teacher_id,
	c.date AS class_date, c.time AS class_time`

type SchoolRepository struct {
	db core.DBExecutor
}

var (
	_ school.Repository = (*SchoolRepository)(nil)
	_ user.ClassFinder  = (*SchoolRepository)(nil)
)

func NewSchoolRepository(db core.DBExecutor) *SchoolRepository {
	return &SchoolRepository{db: db}
}

func (repo *SchoolRepository) CreateClass(ctx context.Context, class school.Class) (school.Class, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO classes (id, name, subject, teacher_id, date, time) VALUES ($1, $2, $3, $4, $5, $6)`,
		class.ID, class.Name, class.Subject, class.TeacherID, class.Date, class.Time,
	)
	if err != nil {
		return school.Class{}, errors.Wrap(err, "inserting class")
	}
	class.Teacher = nil
	return class, nil
}

func (repo *SchoolRepository) GetClassByID(ctx context.Context, id string) (school.Class, error) {
	var row classRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT id, name, subject, teacher_id, date, time FROM classes WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows || pqCode(err) == codeInvalidTextRepr {
			return school.Class{}, school.ErrClassNotFound
		}
		return school.Class{}, errors.Wrap(err, "selecting class")
	}
	return row.toClass(), nil
}

func (repo *SchoolRepository) ClassExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1)`, id)
	if err != nil {
		if pqCode(err) == codeInvalidTextRepr {
			return false, nil
		}
		return false, errors.Wrap(err, "checking class")
	}
	return exists, nil
}

func (repo *SchoolRepository) QueryClasses(ctx context.Context) ([]school.Class, error) {
	rows := make([]classRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT c.id, c.name, c.subject, c.teacher_id, c.date, c.time, u.name AS teacher_name
		FROM classes c LEFT JOIN users u ON u.id = c.teacher_id
		ORDER BY c.name, c.id`)
	if err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}

	classes := make([]school.Class, 0, len(rows))
	for _, row := range rows {
		classes = append(classes, row.toClass())
	}
	return classes, nil
}

func (repo *SchoolRepository) CreateAttendance(ctx context.Context, att school.Attendance) (school.Attendance, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO attendance (id, student_id, class_id, date, present) VALUES ($1, $2, $3, $4, $5)`,
		att.ID, att.StudentID, att.ClassID, att.Date, att.Present,
	)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return school.Attendance{}, school.ErrClassNotFound
		}
		return school.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	att.Class = nil
	return att, nil
}

func (repo *SchoolRepository) QueryAttendanceByStudent(ctx context.Context, studentID string) ([]school.Attendance, error) {
	rows := make([]attendanceRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT a.id, a.student_id, a.class_id, a.date, a.present, `+joinedClassColumns+`
		FROM attendance a JOIN classes c ON c.id = a.class_id
		WHERE a.student_id = $1
		ORDER BY a.date DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting attendance")
	}

	records := make([]school.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, school.Attendance{
			ID:        row.ID,
			StudentID: row.StudentID,
			ClassID:   row.ClassID,
			Class:     row.joinedClass.toClass(row.ClassID),
			Date:      row.Date.UTC(),
			Present:   row.Present,
		})
	}
	return records, nil
}

func (repo *SchoolRepository) CreateMark(ctx context.Context, mark school.Mark) (school.Mark, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO marks (id, student_id, class_id, marks, feedback) VALUES ($1, $2, $3, $4, $5)`,
		mark.ID, mark.StudentID, mark.ClassID, mark.Marks, mark.Feedback,
	)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return school.Mark{}, school.ErrClassNotFound
		}
		return school.Mark{}, errors.Wrap(err, "inserting mark")
	}
	mark.Class = nil
	return mark, nil
}

func (repo *SchoolRepository) QueryMarksByStudent(ctx context.Context, studentID string) ([]school.Mark, error) {
	rows := make([]markRow, 0)
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT m.id, m.student_id, m.class_id, m.marks, m.feedback, `+joinedClassColumns+`
		FROM marks m JOIN classes c ON c.id = m.class_id
		WHERE m.student_id = $1
		ORDER BY c.name, m.id`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting marks")
	}

	marks := make([]school.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, school.Mark{
			ID:        row.ID,
			StudentID: row.StudentID,
			ClassID:   row.ClassID,
			Class:     row.joinedClass.toClass(row.ClassID),
			Marks:     row.Marks,
			Feedback:  row.Feedback,
		})
	}
	return marks, nil
}
