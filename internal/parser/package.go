package parser

import "github.com/p-n-ai/pai-content/internal/curriculum"

// SubjectPackage is a parsed, cross-checked subject workbook. Child records
// refer to their parents by code.
type SubjectPackage struct {
	Info      SubjectInfo
	Topics    []Topic
	Concepts  []Concept
	Lessons   []LessonSection
	Questions []ConceptQuestion
}

// RecordCount is the number of rows the package creates or updates.
func (p *SubjectPackage) RecordCount() int {
	return 1 + len(p.Topics) + len(p.Concepts) + len(p.Lessons) + len(p.Questions)
}

type SubjectInfo struct {
	Code            string
	Name            string
	Category        string
	Level           string
	Description     string
	Version         string
	BoardsSupported []string
}

type Topic struct {
	Code        string
	Name        string
	Description string
	OrderIndex  int
}

type Concept struct {
	Code             string
	TopicCode        string
	Title            string
	ShortDescription string
	OrderIndex       int
	EstimatedMinutes int
}

type LessonSection struct {
	ConceptCode string
	SectionType curriculum.SectionType
	Content     string
	OrderIndex  int
}

type ConceptQuestion struct {
	Code         string
	ConceptCode  string
	QuestionText string
	curriculum.Options
	CorrectAnswer string
	Difficulty    curriculum.Difficulty
	Hint          string
	Explanation   string
}

// PastQuestionsPackage is a parsed exam workbook for one board and subject.
type PastQuestionsPackage struct {
	Info      ExamInfo
	Questions []PastQuestion
}

type ExamInfo struct {
	ExamBoard    string
	SubjectCode  string
	YearsCovered string
	Version      string
}

type PastQuestion struct {
	Year           int
	QuestionNumber int
	TopicCode      string
	ConceptCode    string
	QuestionText   string
	curriculum.Options
	CorrectAnswer string
	Explanation   string
	Difficulty    curriculum.Difficulty
}
