package lesson_test

import (
	"context"
	"testing"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/lesson"
	"github.com/ayalat/maarekhet/core/schedule"
	inmemdb "github.com/ayalat/maarekhet/storage/database/inmem"
)

func setup(t *testing.T) (lesson.Service, schedule.Service) {
	t.Helper()
	db := inmemdb.NewDB()
	lessonRepo := inmemdb.NewLessonRepository(db)
	scheduleRepo := inmemdb.NewScheduleRepository(db)
	return lesson.NewService(lessonRepo, scheduleRepo), schedule.NewService(scheduleRepo, lessonRepo)
}

func TestServiceCreateAndQuery(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	les, err := svc.Create(ctx, lesson.NewLesson{Name: "Math", Teacher: "R. Cohen"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if les.ID == "" {
		t.Error("new lesson has no ID")
	}

	lessons, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}
	if len(lessons) != 1 || lessons[0].Name != "Math" {
		t.Errorf("QueryAll() = %+v, want the created lesson", lessons)
	}

	if _, err = svc.GetByID(ctx, "nope"); err != lesson.ErrNotFound {
		t.Errorf("GetByID() error = %v, want %v", err, lesson.ErrNotFound)
	}
}

func TestServiceGetMultipleSkipsUnknown(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	les, err := svc.Create(ctx, lesson.NewLesson{Name: "Math", Teacher: "R. Cohen"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	lessons, err := svc.GetMultiple(ctx, les.ID, "unknown")
	if err != nil {
		t.Fatalf("GetMultiple() failed: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != les.ID {
		t.Errorf("GetMultiple() = %+v, want only the known lesson", lessons)
	}
}

func TestServiceUpdate(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	les, err := svc.Create(ctx, lesson.NewLesson{Name: "Math", Teacher: "R. Cohen"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []struct {
		name        string
		update      lesson.UpdateLesson
		wantName    string
		wantTeacher string
		wantErr     bool
	}{
		{"change name", lesson.UpdateLesson{Name: "Algebra"}, "Algebra", "R. Cohen", false},
		{"change teacher", lesson.UpdateLesson{Teacher: "S. Levi"}, "Algebra", "S. Levi", false},
		{"no changes", lesson.UpdateLesson{Name: "Algebra", Teacher: "S. Levi"}, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated, err := svc.Update(ctx, les.ID, tt.update)
			if tt.wantErr {
				if _, ok := err.(*core.ValidationError); !ok {
					t.Fatalf("Update() error = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Update() failed: %v", err)
			}
			if updated.Name != tt.wantName || updated.Teacher != tt.wantTeacher {
				t.Errorf("Update() = %q/%q, want %q/%q", updated.Name, updated.Teacher, tt.wantName, tt.wantTeacher)
			}
		})
	}
}

func TestServiceDelete(t *testing.T) {
	svc, scheduleSvc := setup(t)
	ctx := context.Background()

	les, err := svc.Create(ctx, lesson.NewLesson{Name: "Math", Teacher: "R. Cohen"})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if _, err = scheduleSvc.Create(ctx, 3); err != nil {
		t.Fatalf("schedule Create() failed: %v", err)
	}
	if err = scheduleSvc.SetSlot(ctx, 3, core.Sunday, 0, les.ID); err != nil {
		t.Fatalf("SetSlot() failed: %v", err)
	}

	if err = svc.Delete(ctx, les.ID); err != lesson.ErrLessonInUse {
		t.Errorf("Delete() error = %v, want %v", err, lesson.ErrLessonInUse)
	}

	// releasing the slot unblocks deletion
	if err = scheduleSvc.ReplaceDay(ctx, 3, core.Sunday, nil); err != nil {
		t.Fatalf("ReplaceDay() failed: %v", err)
	}
	if err = svc.Delete(ctx, les.ID); err != nil {
		t.Errorf("Delete() failed: %v", err)
	}
	if _, err = svc.GetByID(ctx, les.ID); err != lesson.ErrNotFound {
		t.Errorf("GetByID() after delete error = %v, want %v", err, lesson.ErrNotFound)
	}
}
