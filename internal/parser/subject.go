package parser

import (
	"strings"

	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/schema"
	"github.com/p-n-ai/pai-content/internal/spreadsheet"
)

var subjectSheets = []string{
	SheetSubjectInfo,
	SheetTopics,
	SheetConcepts,
	SheetLessonContent,
	SheetConceptQuestions,
}

// Recommended number of practice questions per concept, inclusive.
const (
	minQuestionsPerConcept = 10
	maxQuestionsPerConcept = 15
)

type subjectParser struct {
	wb *spreadsheet.Workbook
}

func (p *subjectParser) Kind() Kind { return KindSubject }

func (p *subjectParser) Parse() *Result {
	if missing := p.wb.MissingSheets(subjectSheets); len(missing) > 0 {
		return &Result{Kind: KindSubject, Errors: []string{(&MissingSheetsError{Sheets: missing}).Error()}}
	}

	var d diagnostics
	info, _ := parseInfo(p.wb, SheetSubjectInfo, schema.SubjectInfo, &d, subjectInfoOf)
	topics := parseRows(p.wb, SheetTopics, schema.Topic, &d, topicOf)
	concepts := parseRows(p.wb, SheetConcepts, schema.Concept, &d, conceptOf)
	lessons := parseRows(p.wb, SheetLessonContent, schema.LessonContent, &d, lessonOf)
	questions := parseRows(p.wb, SheetConceptQuestions, schema.ConceptQuestion, &d, questionOf)

	checkReferences(&d, topics, concepts, lessons, questions)
	checkQuestionCounts(&d, concepts, questions)

	res := d.result(KindSubject)
	if !res.Success() {
		return res
	}
	res.Subject = &SubjectPackage{
		Info:      info,
		Topics:    topics,
		Concepts:  concepts,
		Lessons:   lessons,
		Questions: questions,
	}
	return res
}

func subjectInfoOf(f spreadsheet.Fields) SubjectInfo {
	return SubjectInfo{
		Code:            f.Text("subject_code"),
		Name:            f.Text("subject_name"),
		Category:        f.Text("category"),
		Level:           f.Text("level"),
		Description:     f.Text("description"),
		Version:         f.Text("version"),
		BoardsSupported: spreadsheet.SplitList(f.Text("boards_supported")),
	}
}

func topicOf(f spreadsheet.Fields) Topic {
	return Topic{
		Code:        f.Text("topic_code"),
		Name:        f.Text("name"),
		Description: f.Text("description"),
		OrderIndex:  f.Int("order_index"),
	}
}

func conceptOf(f spreadsheet.Fields) Concept {
	return Concept{
		Code:             f.Text("concept_code"),
		TopicCode:        f.Text("topic_code"),
		Title:            f.Text("title"),
		ShortDescription: f.Text("short_description"),
		OrderIndex:       f.Int("order_index"),
		EstimatedMinutes: f.Int("estimated_minutes"),
	}
}

func lessonOf(f spreadsheet.Fields) LessonSection {
	return LessonSection{
		ConceptCode: f.Text("concept_code"),
		SectionType: curriculum.SectionType(f.Text("section_type")),
		Content:     f.Text("content"),
		OrderIndex:  f.Int("order_index"),
	}
}

func questionOf(f spreadsheet.Fields) ConceptQuestion {
	return ConceptQuestion{
		Code:          f.Text("question_code"),
		ConceptCode:   f.Text("concept_code"),
		QuestionText:  f.Text("question_text"),
		Options:       optionsOf(f),
		CorrectAnswer: f.Text("correct_answer"),
		Difficulty:    curriculum.Difficulty(f.Text("difficulty")),
		Hint:          f.Text("hint"),
		Explanation:   f.Text("explanation"),
	}
}

// checkReferences verifies child-to-parent codes and code uniqueness within
// the package.
func checkReferences(d *diagnostics, topics []Topic, concepts []Concept, lessons []LessonSection, questions []ConceptQuestion) {
	topicCodes := make(map[string]bool, len(topics))
	for _, t := range topics {
		topicCodes[t.Code] = true
	}
	conceptCodes := make(map[string]bool, len(concepts))
	for _, c := range concepts {
		conceptCodes[c.Code] = true
	}

	for _, c := range concepts {
		if !topicCodes[c.TopicCode] {
			d.errorf("Concept %q references unknown topic %q", c.Code, c.TopicCode)
		}
	}
	for _, ls := range lessons {
		if !conceptCodes[ls.ConceptCode] {
			d.errorf("Lesson content references unknown concept %q", ls.ConceptCode)
		}
	}
	for _, q := range questions {
		if !conceptCodes[q.ConceptCode] {
			d.errorf("Question %q references unknown concept %q", q.Code, q.ConceptCode)
		}
	}

	checkDuplicates(d, "topic_code", codesOf(topics, func(t Topic) string { return t.Code }))
	checkDuplicates(d, "concept_code", codesOf(concepts, func(c Concept) string { return c.Code }))
	checkDuplicates(d, "question_code", codesOf(questions, func(q ConceptQuestion) string { return q.Code }))
}

func codesOf[T any](items []T, code func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = code(it)
	}
	return out
}

// checkDuplicates reports every repeated code of one field in a single error.
func checkDuplicates(d *diagnostics, field string, codes []string) {
	seen := make(map[string]bool, len(codes))
	reported := make(map[string]bool)
	var dups []string
	for _, c := range codes {
		if seen[c] && !reported[c] {
			reported[c] = true
			dups = append(dups, c)
		}
		seen[c] = true
	}
	if len(dups) > 0 {
		d.errorf("Duplicate %s found: %s", field, strings.Join(dups, ", "))
	}
}

func checkQuestionCounts(d *diagnostics, concepts []Concept, questions []ConceptQuestion) {
	counts := make(map[string]int, len(concepts))
	for _, q := range questions {
		counts[q.ConceptCode]++
	}

	for _, c := range concepts {
		n := counts[c.Code]
		switch {
		case n < minQuestionsPerConcept:
			d.warnf("Concept %q has only %d questions (recommended: %d-%d)", c.Code, n, minQuestionsPerConcept, maxQuestionsPerConcept)
		case n > maxQuestionsPerConcept:
			d.warnf("Concept %q has %d questions (recommended: %d-%d)", c.Code, n, minQuestionsPerConcept, maxQuestionsPerConcept)
		}
	}
}
