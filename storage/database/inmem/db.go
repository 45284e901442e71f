// Package inmemdb provides map-backed repositories for tests and local
// development without a database.
package inmemdb

import (
	"sync"

	"github.com/ayalat/maarekhet/core/lesson"
	"github.com/ayalat/maarekhet/core/schedule"
	"github.com/ayalat/maarekhet/core/student"
	"github.com/ayalat/maarekhet/core/user"
)

type (
	DB struct {
		user     *userTable
		lesson   *lessonTable
		student  *studentTable
		schedule *scheduleTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	lessonTable struct {
		mutex sync.RWMutex
		table map[string]*lesson.Lesson
	}

	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}

	scheduleTable struct {
		mutex sync.RWMutex
		table map[int]*schedule.Schedule
	}
)

func NewDB() *DB {
	return &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		lesson:   &lessonTable{table: make(map[string]*lesson.Lesson)},
		student:  &studentTable{table: make(map[string]*student.Student)},
		schedule: &scheduleTable{table: make(map[int]*schedule.Schedule)},
	}
}
