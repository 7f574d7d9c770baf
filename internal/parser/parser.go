// Package parser detects the kind of a content workbook and turns it into a
// validated in-memory package, collecting every problem found along the way.
package parser

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/p-n-ai/pai-content/internal/spreadsheet"
)

// Kind is the detected package type of a workbook.
type Kind string

const (
	KindSubject       Kind = "subject"
	KindPastQuestions Kind = "past_questions"
	KindModule        Kind = "module"
)

// Sheet names.
const (
	SheetSubjectInfo      = "Subject_Info"
	SheetTopics           = "Topics"
	SheetConcepts         = "Concepts"
	SheetLessonContent    = "Lesson_Content"
	SheetConceptQuestions = "Concept_Questions"
	SheetExamInfo         = "Exam_Info"
	SheetQuestions        = "Questions"
	SheetModuleInfo       = "Module_Info"
)

var (
	// ErrUnknownSpreadsheetType is returned when a workbook has none of the marker sheets.
	ErrUnknownSpreadsheetType = errors.New("unknown spreadsheet type")
	// ErrUnsupportedType is returned for a recognized but unimplemented package type.
	ErrUnsupportedType = errors.New("unsupported spreadsheet type")
)

// MissingSheetsError lists every required sheet a workbook lacks.
type MissingSheetsError struct {
	Sheets []string
}

func (e *MissingSheetsError) Error() string {
	return "Missing required sheets: " + strings.Join(e.Sheets, ", ")
}

// Parser turns one workbook into a Result.
type Parser interface {
	Kind() Kind
	Parse() *Result
}

// Result is the outcome of a parse. Exactly one of Subject and PastQuestions
// is set when the parse succeeds; neither is set when it fails.
type Result struct {
	Kind          Kind
	Subject       *SubjectPackage
	PastQuestions *PastQuestionsPackage
	Errors        []string
	Warnings      []string
}

// Success reports whether the parse produced a package.
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

// markers is checked in order; the first sheet present decides the kind.
var markers = []struct {
	sheet string
	kind  Kind
}{
	{SheetSubjectInfo, KindSubject},
	{SheetExamInfo, KindPastQuestions},
	{SheetModuleInfo, KindModule},
}

// Detect classifies a workbook from its sheet names alone.
func Detect(sheetNames []string) (Kind, bool) {
	for _, m := range markers {
		if slices.Contains(sheetNames, m.sheet) {
			return m.kind, true
		}
	}
	return "", false
}

// New builds the parser for wb's detected kind.
func New(wb *spreadsheet.Workbook) (Parser, error) {
	names := wb.SheetNames()
	kind, ok := Detect(names)
	if !ok {
		return nil, fmt.Errorf("%w: file must contain one of these sheets: %s, %s, or %s. Found sheets: %s",
			ErrUnknownSpreadsheetType, SheetSubjectInfo, SheetExamInfo, SheetModuleInfo, strings.Join(names, ", "))
	}

	switch kind {
	case KindSubject:
		return &subjectParser{wb: wb}, nil
	case KindPastQuestions:
		return &pastQuestionsParser{wb: wb}, nil
	default:
		return nil, fmt.Errorf("%w: %s parser not implemented", ErrUnsupportedType, kind)
	}
}

// Open reads the workbook at path once and builds its parser.
func Open(path string) (Parser, error) {
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, err
	}
	return New(wb)
}
