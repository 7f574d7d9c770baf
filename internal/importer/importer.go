package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/parser"
)

// Result is the outcome of processing one file.
type Result struct {
	Success         bool        `json:"success" yaml:"success"`
	FileName        string      `json:"fileName" yaml:"fileName"`
	Category        Category    `json:"category,omitempty" yaml:"category,omitempty"`
	Type            parser.Kind `json:"type,omitempty" yaml:"type,omitempty"`
	Checksum        string      `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	RecordsImported int         `json:"recordsImported" yaml:"recordsImported"`
	RecordsUpdated  int         `json:"recordsUpdated" yaml:"recordsUpdated"`
	Errors          []string    `json:"errors" yaml:"errors"`
	Warnings        []string    `json:"warnings" yaml:"warnings"`
}

// MissingReferenceError is returned when a child record's parent code has no
// identifier in the current transaction.
type MissingReferenceError struct {
	Kind  string // kind of the missing parent, e.g. "topic"
	Code  string // the unresolved parent code
	Owner string // the record holding the reference
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s references missing %s %q", e.Owner, e.Kind, e.Code)
}

// Importer writes parsed packages to a store, one transaction per package.
type Importer struct {
	store curriculum.Store
}

// New creates an importer over store.
func New(store curriculum.Store) *Importer {
	return &Importer{store: store}
}

// Import persists a successful parse result. Parser warnings are copied to
// the returned result unchanged.
func (im *Importer) Import(ctx context.Context, fileName string, parsed *parser.Result) Result {
	var res Result
	switch {
	case !parsed.Success():
		res = failed(fileName, parsed.Kind, parsed.Errors...)
	case parsed.Subject != nil:
		res = im.ImportSubject(ctx, fileName, parsed.Subject)
	case parsed.PastQuestions != nil:
		res = im.ImportPastQuestions(ctx, fileName, parsed.PastQuestions)
	default:
		res = failed(fileName, parsed.Kind, fmt.Sprintf("nothing to import for %s package", parsed.Kind))
	}
	res.Warnings = nonNil(parsed.Warnings)
	return res
}

// ImportSubject replaces a subject's content atomically. An existing subject
// row is updated in place and its descendants are deleted and recreated.
func (im *Importer) ImportSubject(ctx context.Context, fileName string, pkg *parser.SubjectPackage) Result {
	ctx = context.WithoutCancel(ctx)
	var imported, updated int

	err := im.store.WithTx(ctx, func(tx curriculum.Tx) error {
		imported, updated = 0, 0

		subject, err := upsertSubject(ctx, tx, pkg.Info)
		if err != nil {
			return err
		}
		if subject.updated {
			updated++
		} else {
			imported++
		}

		topicIDs := make(map[string]string, len(pkg.Topics))
		for _, t := range pkg.Topics {
			rec := curriculum.Topic{
				SubjectID:   subject.ID,
				Code:        t.Code,
				Name:        t.Name,
				Description: t.Description,
				OrderIndex:  t.OrderIndex,
			}
			if err := tx.CreateTopic(ctx, &rec); err != nil {
				return fmt.Errorf("create topic %q: %w", t.Code, err)
			}
			topicIDs[t.Code] = rec.ID
			imported++
		}

		conceptIDs := make(map[string]string, len(pkg.Concepts))
		for _, c := range pkg.Concepts {
			topicID, ok := topicIDs[c.TopicCode]
			if !ok {
				return &MissingReferenceError{Kind: "topic", Code: c.TopicCode, Owner: fmt.Sprintf("concept %q", c.Code)}
			}
			rec := curriculum.Concept{
				TopicID:          topicID,
				Code:             c.Code,
				Title:            c.Title,
				ShortDescription: c.ShortDescription,
				OrderIndex:       c.OrderIndex,
				EstimatedMinutes: c.EstimatedMinutes,
			}
			if err := tx.CreateConcept(ctx, &rec); err != nil {
				return fmt.Errorf("create concept %q: %w", c.Code, err)
			}
			conceptIDs[c.Code] = rec.ID
			imported++
		}

		for _, ls := range pkg.Lessons {
			conceptID, ok := conceptIDs[ls.ConceptCode]
			if !ok {
				return &MissingReferenceError{Kind: "concept", Code: ls.ConceptCode, Owner: "lesson section"}
			}
			rec := curriculum.LessonSection{
				ConceptID:   conceptID,
				SectionType: ls.SectionType,
				Content:     ls.Content,
				OrderIndex:  ls.OrderIndex,
			}
			if err := tx.CreateLessonSection(ctx, &rec); err != nil {
				return fmt.Errorf("create lesson section for %q: %w", ls.ConceptCode, err)
			}
			imported++
		}

		for _, q := range pkg.Questions {
			conceptID, ok := conceptIDs[q.ConceptCode]
			if !ok {
				return &MissingReferenceError{Kind: "concept", Code: q.ConceptCode, Owner: fmt.Sprintf("question %q", q.Code)}
			}
			rec := curriculum.ConceptQuestion{
				ConceptID:     conceptID,
				Code:          q.Code,
				QuestionText:  q.QuestionText,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				Difficulty:    q.Difficulty,
				Hint:          q.Hint,
				Explanation:   q.Explanation,
			}
			if err := tx.CreateConceptQuestion(ctx, &rec); err != nil {
				return fmt.Errorf("create question %q: %w", q.Code, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return failed(fileName, parser.KindSubject, err.Error())
	}

	return Result{
		Success:         true,
		FileName:        fileName,
		Type:            parser.KindSubject,
		RecordsImported: imported,
		RecordsUpdated:  updated,
		Errors:          []string{},
		Warnings:        []string{},
	}
}

type upserted struct {
	curriculum.Subject
	updated bool
}

// upsertSubject updates an existing subject and clears its descendants, or
// creates the subject when its code is new.
func upsertSubject(ctx context.Context, tx curriculum.Tx, info parser.SubjectInfo) (upserted, error) {
	rec := curriculum.Subject{
		Code:            info.Code,
		Name:            info.Name,
		Category:        info.Category,
		Level:           info.Level,
		Description:     info.Description,
		Version:         info.Version,
		BoardsSupported: info.BoardsSupported,
	}

	existing, err := tx.FindSubjectByCode(ctx, info.Code)
	switch {
	case err == nil:
		rec.ID = existing.ID
		if err := tx.UpdateSubject(ctx, &rec); err != nil {
			return upserted{}, fmt.Errorf("update subject %q: %w", info.Code, err)
		}
		if err := deleteDescendants(ctx, tx, rec.ID); err != nil {
			return upserted{}, err
		}
		return upserted{Subject: rec, updated: true}, nil
	case errors.Is(err, curriculum.ErrNotFound):
		if err := tx.CreateSubject(ctx, &rec); err != nil {
			return upserted{}, fmt.Errorf("create subject %q: %w", info.Code, err)
		}
		return upserted{Subject: rec}, nil
	default:
		return upserted{}, fmt.Errorf("find subject %q: %w", info.Code, err)
	}
}

// deleteDescendants removes a subject's subtree leaf first: lesson sections
// and questions, then concepts, then topics.
func deleteDescendants(ctx context.Context, tx curriculum.Tx, subjectID string) error {
	topicIDs, err := tx.TopicIDs(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	conceptIDs, err := tx.ConceptIDs(ctx, topicIDs)
	if err != nil {
		return fmt.Errorf("list concepts: %w", err)
	}
	if _, err := tx.DeleteLessonSections(ctx, conceptIDs); err != nil {
		return fmt.Errorf("delete lesson sections: %w", err)
	}
	if _, err := tx.DeleteConceptQuestions(ctx, conceptIDs); err != nil {
		return fmt.Errorf("delete concept questions: %w", err)
	}
	if _, err := tx.DeleteConcepts(ctx, conceptIDs); err != nil {
		return fmt.Errorf("delete concepts: %w", err)
	}
	if _, err := tx.DeleteTopics(ctx, topicIDs); err != nil {
		return fmt.Errorf("delete topics: %w", err)
	}
	return nil
}

// ImportPastQuestions replaces every past question of the package's board and
// subject in one transaction.
func (im *Importer) ImportPastQuestions(ctx context.Context, fileName string, pkg *parser.PastQuestionsPackage) Result {
	ctx = context.WithoutCancel(ctx)
	var imported int

	err := im.store.WithTx(ctx, func(tx curriculum.Tx) error {
		imported = 0

		if _, err := tx.DeletePastQuestions(ctx, pkg.Info.ExamBoard, pkg.Info.SubjectCode); err != nil {
			return fmt.Errorf("delete past questions: %w", err)
		}
		for _, q := range pkg.Questions {
			rec := curriculum.PastQuestion{
				ExamBoard:      pkg.Info.ExamBoard,
				SubjectCode:    pkg.Info.SubjectCode,
				Year:           q.Year,
				QuestionNumber: q.QuestionNumber,
				TopicCode:      q.TopicCode,
				ConceptCode:    q.ConceptCode,
				QuestionText:   q.QuestionText,
				Options:        q.Options,
				CorrectAnswer:  q.CorrectAnswer,
				Explanation:    q.Explanation,
				Difficulty:     q.Difficulty,
			}
			if err := tx.CreatePastQuestion(ctx, &rec); err != nil {
				return fmt.Errorf("create past question %d/%d: %w", q.Year, q.QuestionNumber, err)
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return failed(fileName, parser.KindPastQuestions, err.Error())
	}

	return Result{
		Success:         true,
		FileName:        fileName,
		Type:            parser.KindPastQuestions,
		RecordsImported: imported,
		Errors:          []string{},
		Warnings:        []string{},
	}
}

func failed(fileName string, kind parser.Kind, errs ...string) Result {
	return Result{
		FileName: fileName,
		Type:     kind,
		Errors:   nonNil(errs),
		Warnings: []string{},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
