package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedTitle string
		expectedCards int
		expectedQ     string
		expectedA     string
		concepts      []string
	}{
		{
			name:          "simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedTitle: "fallback",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
		},
		{
			name:          "title heading",
			input:         "# European Capitals\nQ: What is the capital of Spain?\nA: Madrid",
			expectedTitle: "European Capitals",
			expectedCards: 1,
			expectedQ:     "What is the capital of Spain?",
			expectedA:     "Madrid",
		},
		{
			name: "key concepts",
			input: `# Go Concurrency
K: goroutines
K: channels
Q: What starts a goroutine?
A: The go statement`,
			expectedTitle: "Go Concurrency",
			expectedCards: 1,
			expectedQ:     "What starts a goroutine?",
			expectedA:     "The go statement",
			concepts:      []string{"goroutines", "channels"},
		},
		{
			name: "multiline answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedTitle: "fallback",
			expectedCards: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
		},
		{
			name:          "multiple cards separated by dashes",
			input:         "Q: One?\nA: 1\n---\nQ: Two?\nA: 2",
			expectedTitle: "fallback",
			expectedCards: 2,
			expectedQ:     "One?",
			expectedA:     "1",
		},
		{
			name:          "new question starts a new card",
			input:         "Q: One?\nA: 1\nQ: Two?\nA: 2",
			expectedTitle: "fallback",
			expectedCards: 2,
			expectedQ:     "One?",
			expectedA:     "1",
		},
		{
			name:          "answer without question is dropped",
			input:         "A: orphaned answer",
			expectedTitle: "fallback",
			expectedCards: 0,
		},
		{
			name:          "empty input",
			input:         "",
			expectedTitle: "fallback",
			expectedCards: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			capsule, err := Parse(strings.NewReader(tc.input), "fallback")
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}

			if capsule.Title != tc.expectedTitle {
				t.Errorf("Title = %q, want %q", capsule.Title, tc.expectedTitle)
			}
			if len(capsule.Flashcards) != tc.expectedCards {
				t.Fatalf("got %d flashcards, want %d", len(capsule.Flashcards), tc.expectedCards)
			}
			if tc.expectedCards > 0 {
				if capsule.Flashcards[0].Question != tc.expectedQ {
					t.Errorf("Question = %q, want %q", capsule.Flashcards[0].Question, tc.expectedQ)
				}
				if capsule.Flashcards[0].Answer != tc.expectedA {
					t.Errorf("Answer = %q, want %q", capsule.Flashcards[0].Answer, tc.expectedA)
				}
			}
			if len(tc.concepts) != len(capsule.KeyConcepts) {
				t.Fatalf("got %d concepts, want %d", len(capsule.KeyConcepts), len(tc.concepts))
			}
			for i, want := range tc.concepts {
				if capsule.KeyConcepts[i] != want {
					t.Errorf("concept %d = %q, want %q", i, capsule.KeyConcepts[i], want)
				}
			}
		})
	}
}

func TestParseJSONFile(t *testing.T) {
	t.Run("scheduling state is discarded", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "networking.json")
		payload := `{
			"id": "stale-id",
			"title": "Networking",
			"reviewStage": 3,
			"lastReviewed": "2026-01-01T00:00:00Z",
			"history": [{"timestamp": "2026-01-01T00:00:00Z", "kind": "quiz", "score": 70}],
			"keyConcepts": ["TCP", "UDP"],
			"flashcards": [{"question": "Port for HTTPS?", "answer": "443"}],
			"quizQuestions": [{"prompt": "Expand DNS", "answer": "Domain Name System"}]
		}`
		if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
			t.Fatal(err)
		}

		capsule, err := ParseJSONFile(path)
		if err != nil {
			t.Fatalf("ParseJSONFile returned error: %v", err)
		}

		if capsule.Title != "Networking" {
			t.Errorf("Title = %q, want Networking", capsule.Title)
		}
		if len(capsule.KeyConcepts) != 2 || len(capsule.Flashcards) != 1 || len(capsule.QuizQuestions) != 1 {
			t.Errorf("content not preserved: %+v", capsule)
		}
		if capsule.ID != "" || capsule.ReviewStage != 0 || capsule.LastReviewed != nil || capsule.History != nil {
			t.Errorf("scheduling state not discarded: %+v", capsule)
		}
	})

	t.Run("missing title falls back to file name", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "algebra.json")
		if err := os.WriteFile(path, []byte(`{"keyConcepts": ["groups"]}`), 0o644); err != nil {
			t.Fatal(err)
		}

		capsule, err := ParseJSONFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if capsule.Title != "algebra" {
			t.Errorf("Title = %q, want algebra", capsule.Title)
		}
	})

	t.Run("invalid JSON surfaces an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		if err := os.WriteFile(path, []byte(`{"title": `), 0o644); err != nil {
			t.Fatal(err)
		}

		if _, err := ParseJSONFile(path); err == nil {
			t.Error("expected an error for invalid JSON")
		}
	})
}
