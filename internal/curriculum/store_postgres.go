package curriculum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbTimeout = 5 * time.Second

	uniqueViolation = "23505"
)

// PostgresStore is a PostgreSQL-backed Store implementation.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed content store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

// WithTx runs fn inside a single PostgreSQL transaction.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *PostgresStore) RecordImport(ctx context.Context, run *ImportRun) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	importedAt := run.ImportedAt
	if importedAt.IsZero() {
		importedAt = time.Now()
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO import_runs (file_name, category, kind, checksum, success, records_imported, records_updated, errors, warnings, imported_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id::text, imported_at`,
		run.FileName,
		run.Category,
		run.Kind,
		run.Checksum,
		run.Success,
		run.RecordsImported,
		run.RecordsUpdated,
		emptyIfNil(run.Errors),
		emptyIfNil(run.Warnings),
		importedAt,
	).Scan(&run.ID, &run.ImportedAt)
	if err != nil {
		return fmt.Errorf("record import: %w", err)
	}
	return nil
}

const subjectColumns = `id::text, code, name, category, level, description, version, boards_supported, created_at, updated_at`

func scanSubject(row pgx.Row) (*Subject, error) {
	var sub Subject
	if err := row.Scan(
		&sub.ID,
		&sub.Code,
		&sub.Name,
		&sub.Category,
		&sub.Level,
		&sub.Description,
		&sub.Version,
		&sub.BoardsSupported,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) ListSubjects(ctx context.Context) ([]Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+subjectColumns+` FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var out []Subject
	for rows.Next() {
		sub, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetSubjectByCode(ctx context.Context, code string) (*Subject, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	return findSubjectByCode(ctx, s.pool, code)
}

func (s *PostgresStore) ListTopics(ctx context.Context, subjectID string) ([]Topic, error) {
	if !validID(subjectID) {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+topicColumns+`
		 FROM topics
		 WHERE subject_id = $1::uuid
		 ORDER BY order_index ASC, seq ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	return collect(rows, scanTopic, "topics")
}

func (s *PostgresStore) GetTopic(ctx context.Context, id string) (*Topic, error) {
	if !validID(id) {
		return nil, fmt.Errorf("topic %q: %w", id, ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	t, err := scanTopic(s.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("topic %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) ListConcepts(ctx context.Context, topicID string) ([]Concept, error) {
	if !validID(topicID) {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+conceptColumns+`
		 FROM concepts
		 WHERE topic_id = $1::uuid
		 ORDER BY order_index ASC, seq ASC`,
		topicID,
	)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	return collect(rows, scanConcept, "concepts")
}

func (s *PostgresStore) GetConcept(ctx context.Context, id string) (*Concept, error) {
	if !validID(id) {
		return nil, fmt.Errorf("concept %q: %w", id, ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	c, err := scanConcept(s.pool.QueryRow(ctx, `SELECT `+conceptColumns+` FROM concepts WHERE id = $1::uuid`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("concept %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get concept: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListLessonSections(ctx context.Context, conceptID string) ([]LessonSection, error) {
	if !validID(conceptID) {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, concept_id::text, section_type, content, order_index, created_at
		 FROM lesson_sections
		 WHERE concept_id = $1::uuid
		 ORDER BY order_index ASC, seq ASC`,
		conceptID,
	)
	if err != nil {
		return nil, fmt.Errorf("query lesson sections: %w", err)
	}
	return collect(rows, func(row pgx.Row) (LessonSection, error) {
		var ls LessonSection
		err := row.Scan(&ls.ID, &ls.ConceptID, &ls.SectionType, &ls.Content, &ls.OrderIndex, &ls.CreatedAt)
		return ls, err
	}, "lesson sections")
}

func (s *PostgresStore) ListConceptQuestions(ctx context.Context, conceptID string, f QuestionFilter) ([]ConceptQuestion, error) {
	if !validID(conceptID) {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, concept_id::text, code, question_text, option_a, option_b, option_c, option_d,
		        correct_answer, difficulty, COALESCE(hint, ''), explanation, created_at
		 FROM concept_questions
		 WHERE concept_id = $1::uuid
		   AND ($2 = '' OR difficulty = $2)
		 ORDER BY seq ASC
		 LIMIT NULLIF($3, 0)`,
		conceptID,
		string(f.Difficulty),
		f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query concept questions: %w", err)
	}
	return collect(rows, func(row pgx.Row) (ConceptQuestion, error) {
		var q ConceptQuestion
		err := row.Scan(
			&q.ID, &q.ConceptID, &q.Code, &q.QuestionText,
			&q.A, &q.B, &q.C, &q.D,
			&q.CorrectAnswer, &q.Difficulty, &q.Hint, &q.Explanation, &q.CreatedAt,
		)
		return q, err
	}, "concept questions")
}

func (s *PostgresStore) ListPastQuestions(ctx context.Context, f PastQuestionFilter) ([]PastQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, exam_board, subject_code, year, question_number,
		        COALESCE(topic_code, ''), COALESCE(concept_code, ''), question_text,
		        option_a, option_b, option_c, option_d, correct_answer, explanation, difficulty, created_at
		 FROM past_questions
		 WHERE exam_board = $1
		   AND subject_code = $2
		   AND ($3 = 0 OR year = $3)
		   AND ($4 = '' OR topic_code = $4)
		 ORDER BY year DESC, question_number ASC
		 LIMIT NULLIF($5, 0)`,
		f.ExamBoard,
		f.SubjectCode,
		f.Year,
		f.TopicCode,
		f.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query past questions: %w", err)
	}
	return collect(rows, func(row pgx.Row) (PastQuestion, error) {
		var q PastQuestion
		err := row.Scan(
			&q.ID, &q.ExamBoard, &q.SubjectCode, &q.Year, &q.QuestionNumber,
			&q.TopicCode, &q.ConceptCode, &q.QuestionText,
			&q.A, &q.B, &q.C, &q.D, &q.CorrectAnswer, &q.Explanation, &q.Difficulty, &q.CreatedAt,
		)
		return q, err
	}, "past questions")
}

func (s *PostgresStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id::text, file_name, category, kind, checksum, success, records_imported, records_updated,
		        errors, warnings, imported_at
		 FROM import_runs
		 ORDER BY imported_at DESC
		 LIMIT NULLIF($1, 0)`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query import runs: %w", err)
	}
	return collect(rows, func(row pgx.Row) (ImportRun, error) {
		var r ImportRun
		err := row.Scan(
			&r.ID, &r.FileName, &r.Category, &r.Kind, &r.Checksum, &r.Success,
			&r.RecordsImported, &r.RecordsUpdated, &r.Errors, &r.Warnings, &r.ImportedAt,
		)
		return r, err
	}, "import runs")
}

// pgTx implements Tx on top of a pgx transaction.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) FindSubjectByCode(ctx context.Context, code string) (*Subject, error) {
	return findSubjectByCode(ctx, t.tx, code)
}

func (t *pgTx) CreateSubject(ctx context.Context, s *Subject) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO subjects (code, name, category, level, description, version, boards_supported)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id::text, created_at, updated_at`,
		s.Code, s.Name, s.Category, s.Level, s.Description, s.Version, emptyIfNil(s.BoardsSupported),
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return writeErr("create subject", s.Code, err)
	}
	return nil
}

func (t *pgTx) UpdateSubject(ctx context.Context, s *Subject) error {
	err := t.tx.QueryRow(ctx,
		`UPDATE subjects
		 SET name = $2, category = $3, level = $4, description = $5, version = $6,
		     boards_supported = $7, updated_at = NOW()
		 WHERE id = $1::uuid
		 RETURNING code, created_at, updated_at`,
		s.ID, s.Name, s.Category, s.Level, s.Description, s.Version, emptyIfNil(s.BoardsSupported),
	).Scan(&s.Code, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("subject %q: %w", s.ID, ErrNotFound)
		}
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

func (t *pgTx) TopicIDs(ctx context.Context, subjectID string) ([]string, error) {
	return t.ids(ctx, `SELECT id::text FROM topics WHERE subject_id = $1::uuid`, subjectID)
}

func (t *pgTx) ConceptIDs(ctx context.Context, topicIDs []string) ([]string, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	return t.ids(ctx, `SELECT id::text FROM concepts WHERE topic_id = ANY($1::uuid[])`, topicIDs)
}

func (t *pgTx) DeleteLessonSections(ctx context.Context, conceptIDs []string) (int, error) {
	return t.deleteAny(ctx, `DELETE FROM lesson_sections WHERE concept_id = ANY($1::uuid[])`, conceptIDs)
}

func (t *pgTx) DeleteConceptQuestions(ctx context.Context, conceptIDs []string) (int, error) {
	return t.deleteAny(ctx, `DELETE FROM concept_questions WHERE concept_id = ANY($1::uuid[])`, conceptIDs)
}

func (t *pgTx) DeleteConcepts(ctx context.Context, ids []string) (int, error) {
	return t.deleteAny(ctx, `DELETE FROM concepts WHERE id = ANY($1::uuid[])`, ids)
}

func (t *pgTx) DeleteTopics(ctx context.Context, ids []string) (int, error) {
	return t.deleteAny(ctx, `DELETE FROM topics WHERE id = ANY($1::uuid[])`, ids)
}

func (t *pgTx) CreateTopic(ctx context.Context, tp *Topic) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO topics (subject_id, code, name, description, order_index)
		 VALUES ($1::uuid, $2, $3, $4, $5)
		 RETURNING id::text, created_at, updated_at`,
		tp.SubjectID, tp.Code, tp.Name, tp.Description, tp.OrderIndex,
	).Scan(&tp.ID, &tp.CreatedAt, &tp.UpdatedAt)
	if err != nil {
		return writeErr("create topic", tp.Code, err)
	}
	return nil
}

func (t *pgTx) CreateConcept(ctx context.Context, c *Concept) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO concepts (topic_id, code, title, short_description, order_index, estimated_minutes)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6)
		 RETURNING id::text, created_at, updated_at`,
		c.TopicID, c.Code, c.Title, c.ShortDescription, c.OrderIndex, c.EstimatedMinutes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return writeErr("create concept", c.Code, err)
	}
	return nil
}

func (t *pgTx) CreateLessonSection(ctx context.Context, ls *LessonSection) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO lesson_sections (concept_id, section_type, content, order_index)
		 VALUES ($1::uuid, $2, $3, $4)
		 RETURNING id::text, created_at`,
		ls.ConceptID, string(ls.SectionType), ls.Content, ls.OrderIndex,
	).Scan(&ls.ID, &ls.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lesson section: %w", err)
	}
	return nil
}

func (t *pgTx) CreateConceptQuestion(ctx context.Context, q *ConceptQuestion) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO concept_questions (concept_id, code, question_text, option_a, option_b, option_c, option_d,
		                                correct_answer, difficulty, hint, explanation)
		 VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id::text, created_at`,
		q.ConceptID, q.Code, q.QuestionText, q.A, q.B, q.C, q.D,
		q.CorrectAnswer, string(q.Difficulty), nullIfEmpty(q.Hint), q.Explanation,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return writeErr("create concept question", q.Code, err)
	}
	return nil
}

func (t *pgTx) DeletePastQuestions(ctx context.Context, examBoard, subjectCode string) (int, error) {
	cmd, err := t.tx.Exec(ctx,
		`DELETE FROM past_questions WHERE exam_board = $1 AND subject_code = $2`,
		examBoard, subjectCode,
	)
	if err != nil {
		return 0, fmt.Errorf("delete past questions: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

func (t *pgTx) CreatePastQuestion(ctx context.Context, q *PastQuestion) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO past_questions (exam_board, subject_code, year, question_number, topic_code, concept_code,
		                             question_text, option_a, option_b, option_c, option_d,
		                             correct_answer, explanation, difficulty)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id::text, created_at`,
		q.ExamBoard, q.SubjectCode, q.Year, q.QuestionNumber, nullIfEmpty(q.TopicCode), nullIfEmpty(q.ConceptCode),
		q.QuestionText, q.A, q.B, q.C, q.D, q.CorrectAnswer, q.Explanation, string(q.Difficulty),
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("create past question: %w", err)
	}
	return nil
}

func (t *pgTx) ids(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := t.tx.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	return ids, nil
}

func (t *pgTx) deleteAny(ctx context.Context, query string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := t.tx.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

// querier is the subset of pgxpool.Pool and pgx.Tx used for shared lookups.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findSubjectByCode(ctx context.Context, q querier, code string) (*Subject, error) {
	sub, err := scanSubject(q.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("subject %q: %w", code, ErrNotFound)
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}
	return sub, nil
}

const topicColumns = `id::text, subject_id::text, code, name, description, order_index, created_at, updated_at`

func scanTopic(row pgx.Row) (Topic, error) {
	var t Topic
	err := row.Scan(&t.ID, &t.SubjectID, &t.Code, &t.Name, &t.Description, &t.OrderIndex, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

const conceptColumns = `id::text, topic_id::text, code, title, short_description, order_index, estimated_minutes, created_at, updated_at`

func scanConcept(row pgx.Row) (Concept, error) {
	var c Concept
	err := row.Scan(&c.ID, &c.TopicID, &c.Code, &c.Title, &c.ShortDescription, &c.OrderIndex, &c.EstimatedMinutes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error), what string) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func writeErr(op, code string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w: %q already exists", op, ErrDuplicateCode, code)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
