package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-content/internal/importer"
	"github.com/p-n-ai/pai-content/internal/parser/parsertest"
	"github.com/p-n-ai/pai-content/internal/spreadsheet/sheettest"
)

func contentRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"subjects", "past-questions"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
	}
	sheettest.WriteTemp(t, filepath.Join(root, "subjects"), "maths.xlsx", parsertest.MathSubject(12)...)
	sheettest.WriteTemp(t, filepath.Join(root, "subjects"), "broken.xlsx",
		parsertest.Without(parsertest.MathSubject(12), "Lesson_Content")...)
	sheettest.WriteTemp(t, filepath.Join(root, "past-questions"), "waec.xlsx", parsertest.PastQuestions("WAEC", "MATH001", 4)...)
	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LEARN_LOG_LEVEL", "error")
	var out bytes.Buffer
	cmd := newImportCmd(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestImportCmd_JSON(t *testing.T) {
	out, err := execute(t, "--memory", "--root", contentRoot(t), "--format", "json")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	var sum importer.Summary
	if err := json.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if sum.TotalFiles != 3 || sum.SuccessCount != 2 || sum.FailureCount != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestImportCmd_YAMLCategory(t *testing.T) {
	out, err := execute(t, "--memory", "--root", contentRoot(t), "--category", "past-questions")
	if err != nil {
		t.Fatalf("execute() error = %v", err)
	}

	var sum importer.Summary
	if err := yaml.Unmarshal([]byte(out), &sum); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if sum.TotalFiles != 1 || sum.Results[0].FileName != "waec.xlsx" || sum.Results[0].RecordsImported != 4 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestImportCmd_Strict(t *testing.T) {
	out, err := execute(t, "--memory", "--strict", "--root", contentRoot(t))
	if !errors.Is(err, errFilesFailed) {
		t.Fatalf("execute() error = %v, want errFilesFailed", err)
	}
	if !strings.Contains(out, "Missing required sheets: Lesson_Content") {
		t.Errorf("summary %q does not report the missing sheet", out)
	}
}

func TestImportCmd_BadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"format", []string{"--memory", "--format", "xml"}},
		{"category", []string{"--memory", "--category", "videos"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("execute() error = nil, want an error")
			}
		})
	}
}
