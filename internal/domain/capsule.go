package domain

import "time"

// ReviewKind identifies the study modality that produced a review event.
type ReviewKind string

const (
	ReviewQuiz      ReviewKind = "quiz"
	ReviewFlashcard ReviewKind = "flashcard"
	ReviewManual    ReviewKind = "manual"
	ReviewActive    ReviewKind = "active"
)

// ReviewEvent records a single review session for a capsule.
// Events are appended in chronological order and never reordered.
type ReviewEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Kind      ReviewKind `json:"kind"`
	Score     float64    `json:"score"` // 0-100
}

// Flashcard is a single question-answer pair inside a capsule.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuizQuestion is a single quiz prompt inside a capsule.
type QuizQuestion struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Capsule is a learnable unit: a titled bundle of key concepts, flashcards
// and quiz questions, together with its spaced-repetition state.
//
// Invariant: LastReviewed == nil ⇔ History is empty ⇔ ReviewStage == 0.
// The scheduling engine treats capsules as immutable; only the storage and
// sync layers construct or update them.
type Capsule struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	ReviewStage   int            `json:"reviewStage"`
	LastReviewed  *time.Time     `json:"lastReviewed"`
	History       []ReviewEvent  `json:"history"`
	KeyConcepts   []string       `json:"keyConcepts"`
	Flashcards    []Flashcard    `json:"flashcards"`
	QuizQuestions []QuizQuestion `json:"quizQuestions"`
}

// Reviewed reports whether the capsule has been studied at least once.
func (c Capsule) Reviewed() bool {
	return c.LastReviewed != nil && len(c.History) > 0
}

// LatestScore returns the score of the most recent review event,
// or 0 if the capsule has never been reviewed.
func (c Capsule) LatestScore() float64 {
	if len(c.History) == 0 {
		return 0
	}
	return c.History[len(c.History)-1].Score
}
