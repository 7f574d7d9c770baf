package parser

import (
	"github.com/p-n-ai/pai-content/internal/curriculum"
	"github.com/p-n-ai/pai-content/internal/schema"
	"github.com/p-n-ai/pai-content/internal/spreadsheet"
)

var pastQuestionSheets = []string{SheetExamInfo, SheetQuestions}

type pastQuestionsParser struct {
	wb *spreadsheet.Workbook
}

func (p *pastQuestionsParser) Kind() Kind { return KindPastQuestions }

// Parse validates rows only. Topic and concept codes on past questions are
// not checked against any subject.
func (p *pastQuestionsParser) Parse() *Result {
	if missing := p.wb.MissingSheets(pastQuestionSheets); len(missing) > 0 {
		return &Result{Kind: KindPastQuestions, Errors: []string{(&MissingSheetsError{Sheets: missing}).Error()}}
	}

	var d diagnostics
	info, _ := parseInfo(p.wb, SheetExamInfo, schema.ExamInfo, &d, examInfoOf)
	questions := parseRows(p.wb, SheetQuestions, schema.PastQuestion, &d, pastQuestionOf)

	res := d.result(KindPastQuestions)
	if !res.Success() {
		return res
	}
	res.PastQuestions = &PastQuestionsPackage{Info: info, Questions: questions}
	return res
}

func examInfoOf(f spreadsheet.Fields) ExamInfo {
	return ExamInfo{
		ExamBoard:    f.Text("exam_board"),
		SubjectCode:  f.Text("subject_code"),
		YearsCovered: f.Text("years_covered"),
		Version:      f.Text("version"),
	}
}

func pastQuestionOf(f spreadsheet.Fields) PastQuestion {
	return PastQuestion{
		Year:           f.Int("year"),
		QuestionNumber: f.Int("question_number"),
		TopicCode:      f.Text("topic_code"),
		ConceptCode:    f.Text("concept_code"),
		QuestionText:   f.Text("question_text"),
		Options:        optionsOf(f),
		CorrectAnswer:  f.Text("correct_answer"),
		Explanation:    f.Text("explanation"),
		Difficulty:     curriculum.Difficulty(f.Text("difficulty")),
	}
}
