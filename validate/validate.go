// Command validate provides a small CLI that validates quiz JSON files in
// the ../quizzes directory. It checks:
//   - JSON structure and required fields
//   - At least one question per quiz
//   - At least two answers per question, with at least one marked correct
//   - Positive time limits
//   - Non-empty, non-duplicate answer descriptions
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// QuizFile mirrors the JSON schema for a quiz definition.
type QuizFile struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

type Question struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	TimeLimit   int      `json:"time_limit"`
	Answers     []Answer `json:"answers"`
}

type Answer struct {
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateQuiz loads and validates a single quiz JSON file.
func validateQuiz(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var quiz QuizFile
	if err := json.Unmarshal(data, &quiz); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if strings.TrimSpace(quiz.Name) == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Quiz name must not be empty")
	}

	if len(quiz.Questions) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 question")
	}

	totalAnswers := 0
	for i, question := range quiz.Questions {
		qNum := i + 1

		if strings.TrimSpace(question.Description) == "" {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d has no description", qNum))
		}

		if question.TimeLimit <= 0 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d: time_limit must be positive, got %d", qNum, question.TimeLimit))
		}

		if len(question.Answers) < 2 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d must have at least 2 answers, got %d", qNum, len(question.Answers)))
		}

		correctCount := 0
		seen := map[string]bool{}
		for j, answer := range question.Answers {
			totalAnswers++
			if answer.IsCorrect {
				correctCount++
			}
			desc := strings.TrimSpace(answer.Description)
			if desc == "" {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Question %d answer %d has no description", qNum, j+1))
				continue
			}
			if seen[desc] {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Question %d has duplicate answer %q", qNum, desc))
			}
			seen[desc] = true
		}

		if len(question.Answers) >= 2 && correctCount == 0 {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Question %d has no correct answer", qNum))
		}
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", quiz.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Questions: %d", len(quiz.Questions)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Answers: %d", totalAnswers))
	}

	return result
}

// main scans ../quizzes for *.json files (or validates the files given as
// arguments), printing a concise report and exiting with non-zero status if
// any are invalid.
func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		var err error
		files, err = filepath.Glob(filepath.Join("../quizzes", "*.json"))
		if err != nil {
			fmt.Printf("Error finding quiz files: %v\n", err)
			os.Exit(1)
		}
	}

	allValid := true
	for _, file := range files {
		result := validateQuiz(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All quizzes are valid!")
	} else {
		fmt.Println("❌ Some quizzes have errors")
		os.Exit(1)
	}
}
