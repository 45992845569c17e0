package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeQuizFile(t *testing.T, content string) string {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "test_quiz_*.json")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpfile.Name()) })

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write quiz: %v", err)
	}
	tmpfile.Close()
	return tmpfile.Name()
}

func hasError(result ValidationResult, substr string) bool {
	for _, err := range result.Errors {
		if strings.Contains(err, substr) {
			return true
		}
	}
	return false
}

func TestValidateQuiz_ValidQuiz(t *testing.T) {
	validQuiz := `{
		"name": "Geography",
		"description": "Capitals and rivers",
		"questions": [
			{
				"name": "q1",
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Paris", "is_correct": true},
					{"description": "Lyon", "is_correct": false}
				]
			}
		]
	}`

	file := writeQuizFile(t, validQuiz)
	result := validateQuiz(file)
	if !result.Valid {
		t.Errorf("Expected valid quiz, but got errors: %v", result.Errors)
	}

	if result.File != filepath.Base(file) {
		t.Errorf("Expected file name %s, got %s", filepath.Base(file), result.File)
	}
}

func TestValidateQuiz_InvalidJSON(t *testing.T) {
	file := writeQuizFile(t, `{"name": "test", invalid json}`)

	result := validateQuiz(file)
	if result.Valid {
		t.Error("Expected invalid quiz due to bad JSON")
	}
	if !hasError(result, "Invalid JSON") {
		t.Error("Expected 'Invalid JSON' error")
	}
}

func TestValidateQuiz_MissingFile(t *testing.T) {
	result := validateQuiz("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasError(result, "Failed to read file") {
		t.Error("Expected 'Failed to read file' error")
	}
}

func TestValidateQuiz_EmptyName(t *testing.T) {
	quiz := `{
		"name": "  ",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Paris", "is_correct": true},
					{"description": "Lyon"}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if result.Valid {
		t.Error("Expected invalid quiz due to empty name")
	}
	if !hasError(result, "Quiz name must not be empty") {
		t.Errorf("Expected empty-name error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_NoQuestions(t *testing.T) {
	result := validateQuiz(writeQuizFile(t, `{"name": "Empty", "questions": []}`))
	if result.Valid {
		t.Error("Expected invalid quiz with no questions")
	}
	if !hasError(result, "at least 1 question") {
		t.Errorf("Expected question-count error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_TooFewAnswers(t *testing.T) {
	quiz := `{
		"name": "Geography",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Paris", "is_correct": true}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if result.Valid {
		t.Error("Expected invalid quiz with a single answer")
	}
	if !hasError(result, "at least 2 answers") {
		t.Errorf("Expected answer-count error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_NoCorrectAnswer(t *testing.T) {
	quiz := `{
		"name": "Geography",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Lyon"},
					{"description": "Marseille"}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if result.Valid {
		t.Error("Expected invalid quiz with no correct answer")
	}
	if !hasError(result, "no correct answer") {
		t.Errorf("Expected correct-answer error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_NonPositiveTimeLimit(t *testing.T) {
	quiz := `{
		"name": "Geography",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 0,
				"answers": [
					{"description": "Paris", "is_correct": true},
					{"description": "Lyon"}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if result.Valid {
		t.Error("Expected invalid quiz with zero time limit")
	}
	if !hasError(result, "time_limit must be positive") {
		t.Errorf("Expected time-limit error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_DuplicateAnswers(t *testing.T) {
	quiz := `{
		"name": "Geography",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Paris", "is_correct": true},
					{"description": "Paris"}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if result.Valid {
		t.Error("Expected invalid quiz with duplicate answers")
	}
	if !hasError(result, "duplicate answer") {
		t.Errorf("Expected duplicate-answer error, got: %v", result.Errors)
	}
}

func TestValidateQuiz_InfoLines(t *testing.T) {
	quiz := `{
		"name": "Geography",
		"questions": [
			{
				"description": "Capital of France",
				"time_limit": 30,
				"answers": [
					{"description": "Paris", "is_correct": true},
					{"description": "Lyon"}
				]
			}
		]
	}`

	result := validateQuiz(writeQuizFile(t, quiz))
	if !result.Valid {
		t.Fatalf("Expected valid quiz, got errors: %v", result.Errors)
	}
	if !hasError(result, "✓ Questions: 1") {
		t.Errorf("Expected question count info line, got: %v", result.Errors)
	}
	if !hasError(result, "✓ Answers: 2") {
		t.Errorf("Expected answer count info line, got: %v", result.Errors)
	}
}
