package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	schoolTables struct {
		mutex      sync.RWMutex
		classes    map[string]*school.Class
		attendance []school.Attendance
		marks      []school.Mark
	}

	// DB is a process-local store. Each table is guarded by its own lock.
	DB struct {
		user   *userTable
		school *schoolTables
	}
)

func Open() *DB {
	return &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		school: &schoolTables{classes: make(map[string]*school.Class)},
	}
}
