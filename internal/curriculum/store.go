package curriculum

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateCode is returned when a write would break a code uniqueness constraint.
	ErrDuplicateCode = errors.New("duplicate code")
)

// Reader is the read-only view used by the API.
type Reader interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	GetSubjectByCode(ctx context.Context, code string) (*Subject, error)
	ListTopics(ctx context.Context, subjectID string) ([]Topic, error)
	GetTopic(ctx context.Context, id string) (*Topic, error)
	ListConcepts(ctx context.Context, topicID string) ([]Concept, error)
	GetConcept(ctx context.Context, id string) (*Concept, error)
	ListLessonSections(ctx context.Context, conceptID string) ([]LessonSection, error)
	ListConceptQuestions(ctx context.Context, conceptID string, f QuestionFilter) ([]ConceptQuestion, error)
	ListPastQuestions(ctx context.Context, f PastQuestionFilter) ([]PastQuestion, error)
	ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error)
}

// Tx is the write surface available inside a single transaction. Create
// methods assign the record's ID and timestamps.
type Tx interface {
	FindSubjectByCode(ctx context.Context, code string) (*Subject, error)
	CreateSubject(ctx context.Context, s *Subject) error
	UpdateSubject(ctx context.Context, s *Subject) error

	TopicIDs(ctx context.Context, subjectID string) ([]string, error)
	ConceptIDs(ctx context.Context, topicIDs []string) ([]string, error)
	DeleteLessonSections(ctx context.Context, conceptIDs []string) (int, error)
	DeleteConceptQuestions(ctx context.Context, conceptIDs []string) (int, error)
	DeleteConcepts(ctx context.Context, ids []string) (int, error)
	DeleteTopics(ctx context.Context, ids []string) (int, error)

	CreateTopic(ctx context.Context, t *Topic) error
	CreateConcept(ctx context.Context, c *Concept) error
	CreateLessonSection(ctx context.Context, ls *LessonSection) error
	CreateConceptQuestion(ctx context.Context, q *ConceptQuestion) error

	DeletePastQuestions(ctx context.Context, examBoard, subjectCode string) (int, error)
	CreatePastQuestion(ctx context.Context, q *PastQuestion) error
}

// Store is the full content store: reads, transactional writes and import history.
type Store interface {
	Reader
	// WithTx runs fn in one transaction. It commits when fn returns nil and
	// rolls back every write made through the Tx otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
	RecordImport(ctx context.Context, run *ImportRun) error
}

type memState struct {
	subjects      []Subject
	topics        []Topic
	concepts      []Concept
	sections      []LessonSection
	questions     []ConceptQuestion
	pastQuestions []PastQuestion
}

func (st memState) clone() memState {
	out := memState{
		subjects:      make([]Subject, len(st.subjects)),
		topics:        slices.Clone(st.topics),
		concepts:      slices.Clone(st.concepts),
		sections:      slices.Clone(st.sections),
		questions:     slices.Clone(st.questions),
		pastQuestions: slices.Clone(st.pastQuestions),
	}
	for i, s := range st.subjects {
		s.BoardsSupported = slices.Clone(s.BoardsSupported)
		out.subjects[i] = s
	}
	return out
}

// MemoryStore is an in-memory implementation of Store. Transactions work on
// a private copy of the state that replaces the shared state on commit, so
// readers never observe a half-applied import.
type MemoryStore struct {
	state memState
	runs  []ImportRun
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *MemoryStore) RecordImport(_ context.Context, run *ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = uuid.NewString()
	if run.ImportedAt.IsZero() {
		run.ImportedAt = time.Now()
	}
	stored := *run
	stored.Errors = slices.Clone(run.Errors)
	stored.Warnings = slices.Clone(run.Warnings)
	s.runs = append(s.runs, stored)
	return nil
}

func (s *MemoryStore) ListSubjects(_ context.Context) ([]Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.state.subjects)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetSubjectByCode(_ context.Context, code string) (*Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.state.subjects {
		if sub.Code == code {
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("subject %q: %w", code, ErrNotFound)
}

func (s *MemoryStore) ListTopics(_ context.Context, subjectID string) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Topic
	for _, t := range s.state.topics {
		if t.SubjectID == subjectID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) GetTopic(_ context.Context, id string) (*Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.state.topics {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("topic %q: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListConcepts(_ context.Context, topicID string) ([]Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Concept
	for _, c := range s.state.concepts {
		if c.TopicID == topicID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) GetConcept(_ context.Context, id string) (*Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.state.concepts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("concept %q: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListLessonSections(_ context.Context, conceptID string) ([]LessonSection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LessonSection
	for _, ls := range s.state.sections {
		if ls.ConceptID == conceptID {
			out = append(out, ls)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}

func (s *MemoryStore) ListConceptQuestions(_ context.Context, conceptID string, f QuestionFilter) ([]ConceptQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ConceptQuestion
	for _, q := range s.state.questions {
		if q.ConceptID != conceptID {
			continue
		}
		if f.Difficulty != "" && q.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, q)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) ListPastQuestions(_ context.Context, f PastQuestionFilter) ([]PastQuestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PastQuestion
	for _, q := range s.state.pastQuestions {
		if q.ExamBoard != f.ExamBoard || q.SubjectCode != f.SubjectCode {
			continue
		}
		if f.Year != 0 && q.Year != f.Year {
			continue
		}
		if f.TopicCode != "" && q.TopicCode != f.TopicCode {
			continue
		}
		out = append(out, q)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].QuestionNumber < out[j].QuestionNumber
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) ListImportRuns(_ context.Context, limit int) ([]ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ImportRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// memTx mutates a private copy of the store state.
type memTx struct {
	state memState
}

func (tx *memTx) FindSubjectByCode(_ context.Context, code string) (*Subject, error) {
	for _, sub := range tx.state.subjects {
		if sub.Code == code {
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("subject %q: %w", code, ErrNotFound)
}

func (tx *memTx) CreateSubject(_ context.Context, s *Subject) error {
	for _, existing := range tx.state.subjects {
		if existing.Code == s.Code {
			return fmt.Errorf("%w: subject code %q already exists", ErrDuplicateCode, s.Code)
		}
	}
	now := time.Now()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now
	stored := *s
	stored.BoardsSupported = slices.Clone(s.BoardsSupported)
	tx.state.subjects = append(tx.state.subjects, stored)
	return nil
}

func (tx *memTx) UpdateSubject(_ context.Context, s *Subject) error {
	for i, existing := range tx.state.subjects {
		if existing.ID != s.ID {
			continue
		}
		s.Code = existing.Code
		s.CreatedAt = existing.CreatedAt
		s.UpdatedAt = time.Now()
		stored := *s
		stored.BoardsSupported = slices.Clone(s.BoardsSupported)
		tx.state.subjects[i] = stored
		return nil
	}
	return fmt.Errorf("subject %q: %w", s.ID, ErrNotFound)
}

func (tx *memTx) TopicIDs(_ context.Context, subjectID string) ([]string, error) {
	var ids []string
	for _, t := range tx.state.topics {
		if t.SubjectID == subjectID {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (tx *memTx) ConceptIDs(_ context.Context, topicIDs []string) ([]string, error) {
	var ids []string
	for _, c := range tx.state.concepts {
		if slices.Contains(topicIDs, c.TopicID) {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (tx *memTx) DeleteLessonSections(_ context.Context, conceptIDs []string) (int, error) {
	before := len(tx.state.sections)
	tx.state.sections = slices.DeleteFunc(tx.state.sections, func(ls LessonSection) bool {
		return slices.Contains(conceptIDs, ls.ConceptID)
	})
	return before - len(tx.state.sections), nil
}

func (tx *memTx) DeleteConceptQuestions(_ context.Context, conceptIDs []string) (int, error) {
	before := len(tx.state.questions)
	tx.state.questions = slices.DeleteFunc(tx.state.questions, func(q ConceptQuestion) bool {
		return slices.Contains(conceptIDs, q.ConceptID)
	})
	return before - len(tx.state.questions), nil
}

func (tx *memTx) DeleteConcepts(_ context.Context, ids []string) (int, error) {
	before := len(tx.state.concepts)
	tx.state.concepts = slices.DeleteFunc(tx.state.concepts, func(c Concept) bool {
		return slices.Contains(ids, c.ID)
	})
	return before - len(tx.state.concepts), nil
}

func (tx *memTx) DeleteTopics(_ context.Context, ids []string) (int, error) {
	before := len(tx.state.topics)
	tx.state.topics = slices.DeleteFunc(tx.state.topics, func(t Topic) bool {
		return slices.Contains(ids, t.ID)
	})
	return before - len(tx.state.topics), nil
}

func (tx *memTx) CreateTopic(_ context.Context, t *Topic) error {
	for _, existing := range tx.state.topics {
		if existing.Code == t.Code {
			return fmt.Errorf("%w: topic code %q already exists", ErrDuplicateCode, t.Code)
		}
	}
	now := time.Now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	tx.state.topics = append(tx.state.topics, *t)
	return nil
}

func (tx *memTx) CreateConcept(_ context.Context, c *Concept) error {
	for _, existing := range tx.state.concepts {
		if existing.Code == c.Code {
			return fmt.Errorf("%w: concept code %q already exists", ErrDuplicateCode, c.Code)
		}
	}
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	tx.state.concepts = append(tx.state.concepts, *c)
	return nil
}

func (tx *memTx) CreateLessonSection(_ context.Context, ls *LessonSection) error {
	ls.ID = uuid.NewString()
	ls.CreatedAt = time.Now()
	tx.state.sections = append(tx.state.sections, *ls)
	return nil
}

func (tx *memTx) CreateConceptQuestion(_ context.Context, q *ConceptQuestion) error {
	for _, existing := range tx.state.questions {
		if existing.Code == q.Code {
			return fmt.Errorf("%w: question code %q already exists", ErrDuplicateCode, q.Code)
		}
	}
	q.ID = uuid.NewString()
	q.CreatedAt = time.Now()
	tx.state.questions = append(tx.state.questions, *q)
	return nil
}

func (tx *memTx) DeletePastQuestions(_ context.Context, examBoard, subjectCode string) (int, error) {
	before := len(tx.state.pastQuestions)
	tx.state.pastQuestions = slices.DeleteFunc(tx.state.pastQuestions, func(q PastQuestion) bool {
		return q.ExamBoard == examBoard && q.SubjectCode == subjectCode
	})
	return before - len(tx.state.pastQuestions), nil
}

func (tx *memTx) CreatePastQuestion(_ context.Context, q *PastQuestion) error {
	q.ID = uuid.NewString()
	q.CreatedAt = time.Now()
	tx.state.pastQuestions = append(tx.state.pastQuestions, *q)
	return nil
}
