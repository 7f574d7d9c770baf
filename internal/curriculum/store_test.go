package curriculum_test

import (
	"context"
	"errors"
	"testing"

	"github.com/p-n-ai/pai-content/internal/curriculum"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) curriculum.Store {
		return curriculum.NewMemoryStore()
	})
}

// runStoreTests exercises the behaviour every Store implementation shares.
func runStoreTests(t *testing.T, newStore func(t *testing.T) curriculum.Store) {
	t.Run("CreateAndRead", func(t *testing.T) { testCreateAndRead(t, newStore(t)) })
	t.Run("Ordering", func(t *testing.T) { testOrdering(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, newStore(t)) })
	t.Run("DuplicateCode", func(t *testing.T) { testDuplicateCode(t, newStore(t)) })
	t.Run("CascadeDelete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
	t.Run("QuestionFilter", func(t *testing.T) { testQuestionFilter(t, newStore(t)) })
	t.Run("PastQuestions", func(t *testing.T) { testPastQuestions(t, newStore(t)) })
	t.Run("ImportRuns", func(t *testing.T) { testImportRuns(t, newStore(t)) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, newStore(t)) })
}

type seeded struct {
	subject  curriculum.Subject
	topics   []curriculum.Topic
	concepts []curriculum.Concept
}

// seed writes one subject with two topics (second listed first), one concept
// per topic, two lesson sections and three questions on the first concept.
func seed(t *testing.T, store curriculum.Store) seeded {
	t.Helper()
	ctx := context.Background()

	var out seeded
	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		out.subject = curriculum.Subject{
			Code:            "MATH001",
			Name:            "Mathematics",
			Category:        "science",
			Level:           "secondary",
			Description:     "Core maths",
			Version:         "1.0",
			BoardsSupported: []string{"WAEC", "NECO"},
		}
		if err := tx.CreateSubject(ctx, &out.subject); err != nil {
			return err
		}

		for _, tp := range []curriculum.Topic{
			{Code: "T2", Name: "Geometry", OrderIndex: 2},
			{Code: "T1", Name: "Algebra", OrderIndex: 1},
		} {
			tp.SubjectID = out.subject.ID
			if err := tx.CreateTopic(ctx, &tp); err != nil {
				return err
			}
			out.topics = append(out.topics, tp)
		}

		for i, c := range []curriculum.Concept{
			{Code: "C2", Title: "Angles", OrderIndex: 1, EstimatedMinutes: 10},
			{Code: "C1", Title: "Equations", OrderIndex: 1, EstimatedMinutes: 15},
		} {
			c.TopicID = out.topics[i].ID
			if err := tx.CreateConcept(ctx, &c); err != nil {
				return err
			}
			out.concepts = append(out.concepts, c)
		}

		target := out.concepts[1].ID
		for _, ls := range []curriculum.LessonSection{
			{SectionType: curriculum.SectionSummary, Content: "Wrap up", OrderIndex: 2},
			{SectionType: curriculum.SectionIntro, Content: "Hello", OrderIndex: 1},
		} {
			ls.ConceptID = target
			if err := tx.CreateLessonSection(ctx, &ls); err != nil {
				return err
			}
		}

		for _, q := range []curriculum.ConceptQuestion{
			{Code: "Q1", Difficulty: curriculum.DifficultyEasy, Hint: "think"},
			{Code: "Q2", Difficulty: curriculum.DifficultyHard},
			{Code: "Q3", Difficulty: curriculum.DifficultyEasy},
		} {
			q.ConceptID = target
			q.QuestionText = "What is " + q.Code + "?"
			q.Options = curriculum.Options{A: "1", B: "2", C: "3", D: "4"}
			q.CorrectAnswer = "A"
			q.Explanation = "Because."
			if err := tx.CreateConceptQuestion(ctx, &q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed WithTx() error = %v", err)
	}
	return out
}

func testCreateAndRead(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	s := seed(t, store)

	if s.subject.ID == "" {
		t.Fatal("CreateSubject() did not assign an ID")
	}
	if s.subject.CreatedAt.IsZero() {
		t.Error("CreateSubject() did not set CreatedAt")
	}

	got, err := store.GetSubjectByCode(ctx, "MATH001")
	if err != nil {
		t.Fatalf("GetSubjectByCode() error = %v", err)
	}
	if got.ID != s.subject.ID {
		t.Errorf("ID = %q, want %q", got.ID, s.subject.ID)
	}
	if len(got.BoardsSupported) != 2 || got.BoardsSupported[1] != "NECO" {
		t.Errorf("BoardsSupported = %v, want [WAEC NECO]", got.BoardsSupported)
	}

	topic, err := store.GetTopic(ctx, s.topics[0].ID)
	if err != nil {
		t.Fatalf("GetTopic() error = %v", err)
	}
	if topic.Code != "T2" {
		t.Errorf("GetTopic().Code = %q, want T2", topic.Code)
	}

	concept, err := store.GetConcept(ctx, s.concepts[1].ID)
	if err != nil {
		t.Fatalf("GetConcept() error = %v", err)
	}
	if concept.EstimatedMinutes != 15 {
		t.Errorf("EstimatedMinutes = %d, want 15", concept.EstimatedMinutes)
	}

	questions, err := store.ListConceptQuestions(ctx, concept.ID, curriculum.QuestionFilter{})
	if err != nil {
		t.Fatalf("ListConceptQuestions() error = %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("questions = %d, want 3", len(questions))
	}
	if questions[0].Hint != "think" || questions[1].Hint != "" {
		t.Errorf("hints = %q, %q; want think and empty", questions[0].Hint, questions[1].Hint)
	}
	if questions[0].B != "2" {
		t.Errorf("OptionB = %q, want 2", questions[0].B)
	}
}

func testOrdering(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	s := seed(t, store)

	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		return tx.CreateSubject(ctx, &curriculum.Subject{Code: "BIO001", Name: "Biology"})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	subjects, err := store.ListSubjects(ctx)
	if err != nil {
		t.Fatalf("ListSubjects() error = %v", err)
	}
	if len(subjects) != 2 || subjects[0].Name != "Biology" {
		t.Errorf("ListSubjects() = %+v, want Biology first", subjects)
	}

	topics, err := store.ListTopics(ctx, s.subject.ID)
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(topics) != 2 || topics[0].Code != "T1" || topics[1].Code != "T2" {
		t.Errorf("ListTopics() order = %v, want [T1 T2]", topicCodes(topics))
	}

	sections, err := store.ListLessonSections(ctx, s.concepts[1].ID)
	if err != nil {
		t.Fatalf("ListLessonSections() error = %v", err)
	}
	if len(sections) != 2 || sections[0].SectionType != curriculum.SectionIntro {
		t.Errorf("ListLessonSections() = %+v, want intro first", sections)
	}
}

func testRollbackOnError(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		if err := tx.CreateSubject(ctx, &curriculum.Subject{Code: "PHY001", Name: "Physics"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}

	if _, err := store.GetSubjectByCode(ctx, "PHY001"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("GetSubjectByCode() after rollback error = %v, want ErrNotFound", err)
	}
}

func testDuplicateCode(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	seed(t, store)

	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		other := curriculum.Subject{Code: "CHEM001", Name: "Chemistry"}
		if err := tx.CreateSubject(ctx, &other); err != nil {
			return err
		}
		return tx.CreateTopic(ctx, &curriculum.Topic{SubjectID: other.ID, Code: "T1", Name: "Clash"})
	})
	if !errors.Is(err, curriculum.ErrDuplicateCode) {
		t.Fatalf("WithTx() error = %v, want ErrDuplicateCode", err)
	}

	if _, err := store.GetSubjectByCode(ctx, "CHEM001"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("subject from failed transaction is visible: %v", err)
	}
}

func testCascadeDelete(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	s := seed(t, store)

	var sections, questions, concepts, topics int
	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		topicIDs, err := tx.TopicIDs(ctx, s.subject.ID)
		if err != nil {
			return err
		}
		conceptIDs, err := tx.ConceptIDs(ctx, topicIDs)
		if err != nil {
			return err
		}
		if sections, err = tx.DeleteLessonSections(ctx, conceptIDs); err != nil {
			return err
		}
		if questions, err = tx.DeleteConceptQuestions(ctx, conceptIDs); err != nil {
			return err
		}
		if concepts, err = tx.DeleteConcepts(ctx, conceptIDs); err != nil {
			return err
		}
		topics, err = tx.DeleteTopics(ctx, topicIDs)
		return err
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	if sections != 2 || questions != 3 || concepts != 2 || topics != 2 {
		t.Errorf("deleted sections=%d questions=%d concepts=%d topics=%d, want 2 3 2 2",
			sections, questions, concepts, topics)
	}

	remaining, err := store.ListTopics(ctx, s.subject.ID)
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("ListTopics() = %d topics, want 0", len(remaining))
	}
	if _, err := store.GetSubjectByCode(ctx, "MATH001"); err != nil {
		t.Errorf("subject should survive child deletion: %v", err)
	}
}

func testQuestionFilter(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	s := seed(t, store)
	conceptID := s.concepts[1].ID

	tests := []struct {
		name   string
		filter curriculum.QuestionFilter
		want   []string
	}{
		{"all", curriculum.QuestionFilter{}, []string{"Q1", "Q2", "Q3"}},
		{"easy", curriculum.QuestionFilter{Difficulty: curriculum.DifficultyEasy}, []string{"Q1", "Q3"}},
		{"medium", curriculum.QuestionFilter{Difficulty: curriculum.DifficultyMedium}, nil},
		{"limit", curriculum.QuestionFilter{Limit: 2}, []string{"Q1", "Q2"}},
		{"easy limited", curriculum.QuestionFilter{Difficulty: curriculum.DifficultyEasy, Limit: 1}, []string{"Q1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListConceptQuestions(ctx, conceptID, tt.filter)
			if err != nil {
				t.Fatalf("ListConceptQuestions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d questions, want %d", len(got), len(tt.want))
			}
			for i, q := range got {
				if q.Code != tt.want[i] {
					t.Errorf("question[%d] = %q, want %q", i, q.Code, tt.want[i])
				}
			}
		})
	}
}

func testPastQuestions(t *testing.T, store curriculum.Store) {
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx curriculum.Tx) error {
		for _, q := range []curriculum.PastQuestion{
			{ExamBoard: "WAEC", SubjectCode: "MATH001", Year: 2022, QuestionNumber: 2, TopicCode: "T1"},
			{ExamBoard: "WAEC", SubjectCode: "MATH001", Year: 2023, QuestionNumber: 5, TopicCode: "T2"},
			{ExamBoard: "WAEC", SubjectCode: "MATH001", Year: 2022, QuestionNumber: 1, TopicCode: "T2"},
			{ExamBoard: "WAEC", SubjectCode: "MATH001", Year: 2023, QuestionNumber: 1},
			{ExamBoard: "NECO", SubjectCode: "MATH001", Year: 2023, QuestionNumber: 1},
		} {
			q.QuestionText = "?"
			q.CorrectAnswer = "B"
			q.Difficulty = curriculum.DifficultyMedium
			if err := tx.CreatePastQuestion(ctx, &q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	type yq struct{ year, number int }
	tests := []struct {
		name   string
		filter curriculum.PastQuestionFilter
		want   []yq
	}{
		{
			"board and subject",
			curriculum.PastQuestionFilter{ExamBoard: "WAEC", SubjectCode: "MATH001"},
			[]yq{{2023, 1}, {2023, 5}, {2022, 1}, {2022, 2}},
		},
		{
			"year",
			curriculum.PastQuestionFilter{ExamBoard: "WAEC", SubjectCode: "MATH001", Year: 2022},
			[]yq{{2022, 1}, {2022, 2}},
		},
		{
			"topic",
			curriculum.PastQuestionFilter{ExamBoard: "WAEC", SubjectCode: "MATH001", TopicCode: "T2"},
			[]yq{{2023, 5}, {2022, 1}},
		},
		{
			"limit",
			curriculum.PastQuestionFilter{ExamBoard: "WAEC", SubjectCode: "MATH001", Limit: 3},
			[]yq{{2023, 1}, {2023, 5}, {2022, 1}},
		},
		{
			"unknown board",
			curriculum.PastQuestionFilter{ExamBoard: "JAMB", SubjectCode: "MATH001"},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListPastQuestions(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListPastQuestions() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d past questions, want %d", len(got), len(tt.want))
			}
			for i, q := range got {
				if q.Year != tt.want[i].year || q.QuestionNumber != tt.want[i].number {
					t.Errorf("past question[%d] = %d/%d, want %d/%d",
						i, q.Year, q.QuestionNumber, tt.want[i].year, tt.want[i].number)
				}
			}
		})
	}

	var removed int
	err = store.WithTx(ctx, func(tx curriculum.Tx) error {
		var err error
		removed, err = tx.DeletePastQuestions(ctx, "WAEC", "MATH001")
		return err
	})
	if err != nil {
		t.Fatalf("DeletePastQuestions() error = %v", err)
	}
	if removed != 4 {
		t.Errorf("DeletePastQuestions() = %d, want 4", removed)
	}

	neco, err := store.ListPastQuestions(ctx, curriculum.PastQuestionFilter{ExamBoard: "NECO", SubjectCode: "MATH001"})
	if err != nil {
		t.Fatalf("ListPastQuestions() error = %v", err)
	}
	if len(neco) != 1 {
		t.Errorf("NECO past questions = %d, want 1 after WAEC delete", len(neco))
	}
}

func testImportRuns(t *testing.T, store curriculum.Store) {
	ctx := context.Background()

	for _, name := range []string{"a.xlsx", "b.xlsx", "c.xlsx"} {
		run := &curriculum.ImportRun{
			FileName: name,
			Category: "subjects",
			Kind:     "subject",
			Checksum: "abc",
			Success:  name != "b.xlsx",
			Errors:   []string{},
			Warnings: []string{"w"},
		}
		if err := store.RecordImport(ctx, run); err != nil {
			t.Fatalf("RecordImport() error = %v", err)
		}
		if run.ID == "" {
			t.Error("RecordImport() did not assign an ID")
		}
	}

	runs, err := store.ListImportRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListImportRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("ListImportRuns() = %d runs, want 2", len(runs))
	}
	if runs[0].FileName != "c.xlsx" || runs[1].FileName != "b.xlsx" {
		t.Errorf("ListImportRuns() order = %q, %q; want newest first", runs[0].FileName, runs[1].FileName)
	}
	if runs[1].Success {
		t.Error("b.xlsx should be recorded as failed")
	}
	if len(runs[0].Warnings) != 1 {
		t.Errorf("Warnings = %v, want [w]", runs[0].Warnings)
	}
}

func testNotFound(t *testing.T, store curriculum.Store) {
	ctx := context.Background()
	missing := "00000000-0000-0000-0000-000000000000"

	if _, err := store.GetSubjectByCode(ctx, "NOPE"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("GetSubjectByCode() error = %v, want ErrNotFound", err)
	}
	for _, id := range []string{missing, "not-a-uuid"} {
		if _, err := store.GetTopic(ctx, id); !errors.Is(err, curriculum.ErrNotFound) {
			t.Errorf("GetTopic(%q) error = %v, want ErrNotFound", id, err)
		}
		if _, err := store.GetConcept(ctx, id); !errors.Is(err, curriculum.ErrNotFound) {
			t.Errorf("GetConcept(%q) error = %v, want ErrNotFound", id, err)
		}
	}

	topics, err := store.ListTopics(ctx, missing)
	if err != nil {
		t.Fatalf("ListTopics() error = %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("ListTopics() = %d, want 0", len(topics))
	}
}

func topicCodes(topics []curriculum.Topic) []string {
	codes := make([]string, len(topics))
	for i, tp := range topics {
		codes[i] = tp.Code
	}
	return codes
}
