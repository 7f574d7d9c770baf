package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-content/internal/curriculum"
)

type handlers struct {
	reader  curriculum.Reader
	version string
}

func (h *handlers) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "pai-content API is running",
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.reader.ListSubjects(r.Context())
	if err != nil {
		writeStoreError(w, r, "Failed to fetch subjects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(subjects),
		"data":    listOf(subjects),
	})
}

func (h *handlers) getSubject(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	subject, ok := h.subject(w, r, code, "Failed to fetch subject")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    subject,
	})
}

func (h *handlers) listTopics(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	subject, ok := h.subject(w, r, code, "Failed to fetch topics")
	if !ok {
		return
	}
	topics, err := h.reader.ListTopics(r.Context(), subject.ID)
	if err != nil {
		writeStoreError(w, r, "Failed to fetch topics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"subjectCode": code,
		"subjectName": subject.Name,
		"count":       len(topics),
		"data":        listOf(topics),
	})
}

func (h *handlers) listConcepts(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "topicID")
	topic, err := h.reader.GetTopic(r.Context(), id)
	if errors.Is(err, curriculum.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Topic with ID %q not found", id), "")
		return
	}
	if err != nil {
		writeStoreError(w, r, "Failed to fetch concepts", err)
		return
	}
	concepts, err := h.reader.ListConcepts(r.Context(), topic.ID)
	if err != nil {
		writeStoreError(w, r, "Failed to fetch concepts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"topicId":   topic.ID,
		"topicName": topic.Name,
		"count":     len(concepts),
		"data":      listOf(concepts),
	})
}

func (h *handlers) getLesson(w http.ResponseWriter, r *http.Request) {
	concept, ok := h.concept(w, r, "Failed to fetch lesson content")
	if !ok {
		return
	}
	sections, err := h.reader.ListLessonSections(r.Context(), concept.ID)
	if err != nil {
		writeStoreError(w, r, "Failed to fetch lesson content", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"conceptId":        concept.ID,
		"conceptTitle":     concept.Title,
		"estimatedMinutes": concept.EstimatedMinutes,
		"sectionsCount":    len(sections),
		"data":             listOf(sections),
	})
}

func (h *handlers) listQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	difficulty := curriculum.Difficulty(q.Get("difficulty"))
	if difficulty != "" && !difficulty.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid query parameter",
			fmt.Sprintf("difficulty must be one of easy, medium, hard, got %q", difficulty))
		return
	}
	limit, err := positiveInt(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}

	concept, ok := h.concept(w, r, "Failed to fetch questions")
	if !ok {
		return
	}
	questions, err := h.reader.ListConceptQuestions(r.Context(), concept.ID, curriculum.QuestionFilter{
		Difficulty: difficulty,
		Limit:      limit,
	})
	if err != nil {
		writeStoreError(w, r, "Failed to fetch questions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"conceptId":    concept.ID,
		"conceptTitle": concept.Title,
		"filters": filters{
			"difficulty": orAll(string(difficulty)),
			"limit":      limitOrNone(limit),
		},
		"count": len(questions),
		"data":  listOf(questions),
	})
}

func (h *handlers) listPastQuestions(w http.ResponseWriter, r *http.Request) {
	board := chi.URLParam(r, "board")
	subject := chi.URLParam(r, "subject")
	q := r.URL.Query()

	year, err := positiveInt(q.Get("year"), "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}
	limit, err := positiveInt(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}
	topic := q.Get("topic")

	questions, err := h.reader.ListPastQuestions(r.Context(), curriculum.PastQuestionFilter{
		ExamBoard:   board,
		SubjectCode: subject,
		Year:        year,
		TopicCode:   topic,
		Limit:       limit,
	})
	if err != nil {
		writeStoreError(w, r, "Failed to fetch past questions", err)
		return
	}

	yearFilter := any("all")
	if year > 0 {
		yearFilter = year
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"examBoard":   board,
		"subjectCode": subject,
		"filters": filters{
			"year":  yearFilter,
			"topic": orAll(topic),
			"limit": limitOrNone(limit),
		},
		"count": len(questions),
		"data":  listOf(questions),
	})
}

func (h *handlers) listImports(w http.ResponseWriter, r *http.Request) {
	limit, err := positiveInt(r.URL.Query().Get("limit"), "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query parameter", err.Error())
		return
	}
	runs, err := h.reader.ListImportRuns(r.Context(), limit)
	if err != nil {
		writeStoreError(w, r, "Failed to fetch import history", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(runs),
		"data":    listOf(runs),
	})
}

// subject loads a subject by code and writes the 404 or 500 response itself
// when it cannot.
func (h *handlers) subject(w http.ResponseWriter, r *http.Request, code, failMsg string) (*curriculum.Subject, bool) {
	subject, err := h.reader.GetSubjectByCode(r.Context(), code)
	if errors.Is(err, curriculum.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Subject with code %q not found", code), "")
		return nil, false
	}
	if err != nil {
		writeStoreError(w, r, failMsg, err)
		return nil, false
	}
	return subject, true
}

func (h *handlers) concept(w http.ResponseWriter, r *http.Request, failMsg string) (*curriculum.Concept, bool) {
	id := chi.URLParam(r, "id")
	concept, err := h.reader.GetConcept(r.Context(), id)
	if errors.Is(err, curriculum.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Concept with ID %q not found", id), "")
		return nil, false
	}
	if err != nil {
		writeStoreError(w, r, failMsg, err)
		return nil, false
	}
	return concept, true
}

// positiveInt parses an optional positive integer query parameter. An empty
// value yields zero.
func positiveInt(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

func limitOrNone(n int) any {
	if n == 0 {
		return "none"
	}
	return n
}
