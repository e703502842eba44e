// Package fingerprint derives a stable content identity for capsules so
// re-imported decks keep their review state even when files move or are
// renamed.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/capsched/capsched/internal/domain"
)

// Normalize flattens the capsule's learnable content into a canonical
// string: each part is lowercased, whitespace-trimmed, and line-ending
// normalized, then parts are joined with newlines. Flashcard and quiz
// order is preserved because ordering is part of the content.
func Normalize(c domain.Capsule) string {
	parts := make([]string, 0, 1+len(c.KeyConcepts)+2*len(c.Flashcards)+2*len(c.QuizQuestions))
	parts = append(parts, normalizePart(c.Title))
	for _, k := range c.KeyConcepts {
		parts = append(parts, normalizePart(k))
	}
	for _, f := range c.Flashcards {
		parts = append(parts, normalizePart(f.Question), normalizePart(f.Answer))
	}
	for _, q := range c.QuizQuestions {
		parts = append(parts, normalizePart(q.Prompt), normalizePart(q.Answer))
	}
	return strings.Join(parts, "\n")
}

func normalizePart(part string) string {
	p := strings.ToLower(part)
	p = strings.TrimSpace(p)
	p = strings.ReplaceAll(p, "\r\n", "\n")
	return p
}

// Hash returns the SHA-256 of the normalized capsule content as a hex
// string. Two capsules with the same learnable content hash identically
// regardless of formatting differences in their source files.
func Hash(c domain.Capsule) string {
	normalized := Normalize(c)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
