// Package parsertest builds content workbook fixtures shared by parser,
// importer and API tests.
package parsertest

import (
	"fmt"

	"github.com/p-n-ai/pai-content/internal/spreadsheet"
	"github.com/p-n-ai/pai-content/internal/spreadsheet/sheettest"
)

var (
	TopicHeader    = []string{"topic_code", "name", "description", "order_index"}
	ConceptHeader  = []string{"concept_code", "topic_code", "title", "short_description", "order_index", "estimated_minutes"}
	LessonHeader   = []string{"concept_code", "section_type", "content", "order_index"}
	QuestionHeader = []string{
		"question_code", "concept_code", "question_text",
		"option_a", "option_b", "option_c", "option_d",
		"correct_answer", "difficulty", "hint", "explanation",
	}
	PastQuestionHeader = []string{
		"year", "question_number", "topic_code", "concept_code", "question_text",
		"option_a", "option_b", "option_c", "option_d",
		"correct_answer", "explanation", "difficulty",
	}
)

// SubjectInfo returns a valid Subject_Info sheet for code.
func SubjectInfo(code, name string) sheettest.Sheet {
	return sheettest.Info("Subject_Info",
		"subject_code", code,
		"subject_name", name,
		"category", "science",
		"level", "secondary",
		"description", name+" for senior secondary",
		"version", "1.0",
		"boards_supported", "WAEC,NECO",
	)
}

// QuestionRow returns a valid practice question row.
func QuestionRow(code, concept, difficulty string) []any {
	return []any{code, concept, "What is " + code + "?", "1", "2", "3", "4", "B", difficulty, "", "Because."}
}

// Questions returns n question rows for concept, coded prefix1..prefixN.
func Questions(prefix, concept string, n int) [][]any {
	difficulties := []string{"easy", "medium", "hard"}
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = QuestionRow(fmt.Sprintf("%s%d", prefix, i+1), concept, difficulties[i%3])
	}
	return rows
}

// MathSubject is a valid subject package: MATH001 with topic T1, concept C1,
// three lesson sections listed out of order and the given number of practice
// questions.
func MathSubject(questions int) []sheettest.Sheet {
	return []sheettest.Sheet{
		SubjectInfo("MATH001", "Mathematics"),
		sheettest.Table("Topics", TopicHeader,
			[]any{"T1", "Algebra", "Working with unknowns", 0},
		),
		sheettest.Table("Concepts", ConceptHeader,
			[]any{"C1", "T1", "Linear equations", "Solving for x", 0, 15},
		),
		sheettest.Table("Lesson_Content", LessonHeader,
			[]any{"C1", "summary", "Recap", 2},
			[]any{"C1", "intro", "Welcome", 0},
			[]any{"C1", "example", "2x = 4", 1},
		),
		sheettest.Table("Concept_Questions", QuestionHeader, Questions("Q", "C1", questions)...),
	}
}

// PastQuestionRow returns a valid past question row.
func PastQuestionRow(year, number int) []any {
	return []any{year, number, "T1", "", fmt.Sprintf("Question %d of %d", number, year), "a", "b", "c", "d", "C", "Worked answer", "medium"}
}

// PastQuestions is a valid exam package of n questions for board and subject.
func PastQuestions(board, subject string, n int) []sheettest.Sheet {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = PastQuestionRow(2020+i%3, i+1)
	}
	return []sheettest.Sheet{
		sheettest.Info("Exam_Info",
			"exam_board", board,
			"subject_code", subject,
			"years_covered", "2020-2022",
			"version", "1.0",
		),
		sheettest.Table("Questions", PastQuestionHeader, rows...),
	}
}

// Workbook builds an in-memory workbook from fixture sheets. Cells are
// rendered the way a saved workbook reads back.
func Workbook(name string, sheets ...sheettest.Sheet) *spreadsheet.Workbook {
	wb := spreadsheet.New(name)
	for _, sh := range sheets {
		rows := make([][]string, len(sh.Rows))
		for i, row := range sh.Rows {
			rows[i] = make([]string, len(row))
			for j, v := range row {
				if v != nil {
					rows[i][j] = fmt.Sprint(v)
				}
			}
		}
		wb.AddSheet(sh.Name, rows)
	}
	return wb
}

// Replace returns sheets with the sheet named like s swapped for s.
func Replace(sheets []sheettest.Sheet, s sheettest.Sheet) []sheettest.Sheet {
	out := make([]sheettest.Sheet, len(sheets))
	for i, sh := range sheets {
		if sh.Name == s.Name {
			sh = s
		}
		out[i] = sh
	}
	return out
}

// Without returns sheets minus the named ones.
func Without(sheets []sheettest.Sheet, names ...string) []sheettest.Sheet {
	var out []sheettest.Sheet
	for _, sh := range sheets {
		drop := false
		for _, n := range names {
			if sh.Name == n {
				drop = true
			}
		}
		if !drop {
			out = append(out, sh)
		}
	}
	return out
}
