package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

func TestSchoolRepository(t *testing.T) {
	db := Open()
	users := NewUserRepository(db)
	repo := NewSchoolRepository(db)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, user.User{ID: "t1", Name: "Mr T", Email: "t@x.io", Role: user.RoleTeacher})
	require.NoError(t, err)

	_, err = repo.CreateClass(ctx, school.Class{ID: "c2", Name: "Physics", Subject: "Science", TeacherID: "t1"})
	require.NoError(t, err)
	math, err := repo.CreateClass(ctx, school.Class{ID: "c1", Name: "Math", Subject: "Math", TeacherID: "t1"})
	require.NoError(t, err)
	assert.Nil(t, math.Teacher)

	t.Run("classes", func(t *testing.T) {
		classes, err := repo.QueryClasses(ctx)
		require.NoError(t, err)
		require.Len(t, classes, 2)
		assert.Equal(t, "Math", classes[0].Name)
		assert.Equal(t, &school.TeacherRef{ID: "t1", Name: "Mr T"}, classes[0].Teacher)

		got, err := repo.GetClassByID(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, math, got)

		_, err = repo.GetClassByID(ctx, "c3")
		assert.Equal(t, school.ErrClassNotFound, err)

		ok, err := repo.ClassExists(ctx, "c2")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.ClassExists(ctx, "c3")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("attendance", func(t *testing.T) {
		day1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		day2 := day1.AddDate(0, 0, 1)
		_, err := repo.CreateAttendance(ctx, school.Attendance{ID: "a1", StudentID: "s1", ClassID: "c1", Date: day1, Present: true})
		require.NoError(t, err)
		_, err = repo.CreateAttendance(ctx, school.Attendance{ID: "a2", StudentID: "s1", ClassID: "c2", Date: day2})
		require.NoError(t, err)
		_, err = repo.CreateAttendance(ctx, school.Attendance{ID: "a3", StudentID: "s2", ClassID: "c1", Date: day2})
		require.NoError(t, err)

		records, err := repo.QueryAttendanceByStudent(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "a2", records[0].ID) // most recent first
		assert.Equal(t, "Physics", records[0].Class.Name)
		assert.Equal(t, "a1", records[1].ID)

		records, err = repo.QueryAttendanceByStudent(ctx, "s3")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("marks", func(t *testing.T) {
		_, err := repo.CreateMark(ctx, school.Mark{ID: "m1", StudentID: "s1", ClassID: "c1", Marks: 80})
		require.NoError(t, err)

		marks, err := repo.QueryMarksByStudent(ctx, "s1")
		require.NoError(t, err)
		require.Len(t, marks, 1)
		assert.Equal(t, 80.0, marks[0].Marks)
		assert.Equal(t, "Math", marks[0].Class.Name)
	})
}
