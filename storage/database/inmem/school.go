package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type SchoolRepository struct {
	db    *schoolTables
	users *UserRepository
}

var (
	_ school.Repository = (*SchoolRepository)(nil)
	_ user.ClassFinder  = (*SchoolRepository)(nil)
)

func NewSchoolRepository(db *DB) *SchoolRepository {
	return &SchoolRepository{db: db.school, users: NewUserRepository(db)}
}

func (repo *SchoolRepository) CreateClass(_ context.Context, class school.Class) (school.Class, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	class.Teacher = nil
	repo.db.classes[class.ID] = &class
	return class, nil
}

func (repo *SchoolRepository) GetClassByID(_ context.Context, id string) (school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if class, ok := repo.db.classes[id]; ok {
		return *class, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *SchoolRepository) ClassExists(_ context.Context, id string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	_, ok := repo.db.classes[id]
	return ok, nil
}

// populate returns a copy of the class, with its teacher reference when the teacher still exists.
func (repo *SchoolRepository) populate(class school.Class) school.Class {
	if name, ok := repo.users.userName(class.TeacherID); ok {
		class.Teacher = &school.TeacherRef{ID: class.TeacherID, Name: name}
	}
	return class
}

func (repo *SchoolRepository) QueryClasses(_ context.Context) ([]school.Class, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, class := range repo.db.classes {
		classes = append(classes, repo.populate(*class))
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Name == classes[j].Name {
			return classes[i].ID < classes[j].ID
		}
		return classes[i].Name < classes[j].Name
	})
	return classes, nil
}

func (repo *SchoolRepository) classRef(id string) *school.Class {
	if class, ok := repo.db.classes[id]; ok {
		c := *class
		return &c
	}
	return nil
}

func (repo *SchoolRepository) CreateAttendance(_ context.Context, att school.Attendance) (school.Attendance, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	att.Class = nil
	repo.db.attendance = append(repo.db.attendance, att)
	return att, nil
}

func (repo *SchoolRepository) QueryAttendanceByStudent(_ context.Context, studentID string) ([]school.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]school.Attendance, 0)
	for _, att := range repo.db.attendance {
		if att.StudentID == studentID {
			att.Class = repo.classRef(att.ClassID)
			records = append(records, att)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return records, nil
}

func (repo *SchoolRepository) CreateMark(_ context.Context, mark school.Mark) (school.Mark, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	mark.Class = nil
	repo.db.marks = append(repo.db.marks, mark)
	return mark, nil
}

func (repo *SchoolRepository) QueryMarksByStudent(_ context.Context, studentID string) ([]school.Mark, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := make([]school.Mark, 0)
	for _, mark := range repo.db.marks {
		if mark.StudentID == studentID {
			mark.Class = repo.classRef(mark.ClassID)
			marks = append(marks, mark)
		}
	}
	return marks, nil
}
