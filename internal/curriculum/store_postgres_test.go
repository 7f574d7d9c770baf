package curriculum_test

import (
	"testing"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/platform/database/dbtest"
)

func TestNewPostgresStore_NilPool(t *testing.T) {
	if _, err := curriculum.NewPostgresStore(nil); err == nil {
		t.Fatal("NewPostgresStore(nil) should return error")
	}
}

func TestPostgresStore(t *testing.T) {
	pool := dbtest.NewPool(t)

	runStoreTests(t, func(t *testing.T) curriculum.Store {
		t.Helper()
		_, err := pool.Exec(t.Context(),
			`TRUNCATE subjects, topics, concepts, lesson_sections, concept_questions, past_questions, import_runs`)
		if err != nil {
			t.Fatalf("truncate: %v", err)
		}
		store, err := curriculum.NewPostgresStore(pool)
		if err != nil {
			t.Fatalf("NewPostgresStore() error = %v", err)
		}
		return store
	})
}
