// Package curriculum holds the persisted content model (subjects down to
// quiz questions, plus past exam questions) and the stores that keep it.
package curriculum

import "time"

// SectionType classifies a lesson section.
type SectionType string

const (
	SectionIntro       SectionType = "intro"
	SectionExplanation SectionType = "explanation"
	SectionExample     SectionType = "example"
	SectionFormula     SectionType = "formula"
	SectionKeyPoint    SectionType = "key_point"
	SectionMistake     SectionType = "mistake"
	SectionSummary     SectionType = "summary"
)

// Difficulty grades a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Subject is the root of a subject package.
type Subject struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	Category        string    `json:"category"`
	Level           string    `json:"level"`
	Description     string    `json:"description"`
	Version         string    `json:"version"`
	BoardsSupported []string  `json:"boardsSupported"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Topic belongs to one subject.
type Topic struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subjectId"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Concept belongs to one topic.
type Concept struct {
	ID               string    `json:"id"`
	TopicID          string    `json:"topicId"`
	Code             string    `json:"code"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"shortDescription"`
	OrderIndex       int       `json:"orderIndex"`
	EstimatedMinutes int       `json:"estimatedMinutes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LessonSection is one block of a concept's lesson, read in OrderIndex order.
type LessonSection struct {
	ID          string      `json:"id"`
	ConceptID   string      `json:"conceptId"`
	SectionType SectionType `json:"sectionType"`
	Content     string      `json:"content"`
	OrderIndex  int         `json:"orderIndex"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Options holds the four answer choices of a multiple-choice question.
type Options struct {
	A string `json:"optionA"`
	B string `json:"optionB"`
	C string `json:"optionC"`
	D string `json:"optionD"`
}

// ConceptQuestion is a practice question attached to a concept.
type ConceptQuestion struct {
	ID           string `json:"id"`
	ConceptID    string `json:"conceptId"`
	Code         string `json:"code"`
	QuestionText string `json:"questionText"`
	Options
	CorrectAnswer string     `json:"correctAnswer"`
	Difficulty    Difficulty `json:"difficulty"`
	Hint          string     `json:"hint,omitempty"`
	Explanation   string     `json:"explanation"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// PastQuestion is an exam question. TopicCode and ConceptCode are soft
// references and are never checked against stored topics or concepts.
type PastQuestion struct {
	ID             string `json:"id"`
	ExamBoard      string `json:"examBoard"`
	SubjectCode    string `json:"subjectCode"`
	Year           int    `json:"year"`
	QuestionNumber int    `json:"questionNumber"`
	TopicCode      string `json:"topicCode,omitempty"`
	ConceptCode    string `json:"conceptCode,omitempty"`
	QuestionText   string `json:"questionText"`
	Options
	CorrectAnswer string     `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Difficulty    Difficulty `json:"difficulty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ImportRun records the outcome of importing one file.
type ImportRun struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	Category        string    `json:"category"`
	Kind            string    `json:"type"`
	Checksum        string    `json:"checksum"`
	Success         bool      `json:"success"`
	RecordsImported int       `json:"recordsImported"`
	RecordsUpdated  int       `json:"recordsUpdated"`
	Errors          []string  `json:"errors"`
	Warnings        []string  `json:"warnings"`
	ImportedAt      time.Time `json:"importedAt"`
}

// QuestionFilter narrows a concept's practice questions.
type QuestionFilter struct {
	Difficulty Difficulty // empty means all
	Limit      int        // zero means no limit
}

// PastQuestionFilter selects past questions for one board and subject.
type PastQuestionFilter struct {
	ExamBoard   string
	SubjectCode string
	Year        int    // zero means all years
	TopicCode   string // empty means all topics
	Limit       int    // zero means no limit
}
