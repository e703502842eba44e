// Package parser reads deck files into capsules. Markdown decks hold a
// title, key concepts and flashcards; JSON decks hold a full capsule
// content projection.
package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/capsched/capsched/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	conceptPrefix  = "K:"
	titlePrefix    = "# "
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
)

// ParseFile reads a markdown deck file and returns the capsule it defines.
// The file name (without extension) is the fallback title when the file has
// no heading.
func ParseFile(path string) (domain.Capsule, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.Capsule{}, err
	}
	defer file.Close()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Parse(file, fallback)
}

// Parse reads a markdown deck from r.
//
// Format: an optional "# Title" heading, "K:" lines naming key concepts,
// and flashcards written as "Q:"/"A:" blocks. Question and answer bodies
// may span lines; "---" or the next "Q:" ends a card. Cards without a
// question are dropped.
func Parse(r io.Reader, fallbackTitle string) (domain.Capsule, error) {
	scanner := bufio.NewScanner(r)
	capsule := domain.Capsule{Title: fallbackTitle}
	sawTitle := false

	var currentCard domain.Flashcard
	var currentBlock []string
	currentState := seeking

	flushBlock := func() {
		if len(currentBlock) == 0 {
			return
		}
		content := strings.Join(currentBlock, "\n")
		switch currentState {
		case readingQuestion:
			currentCard.Question = content
		case readingAnswer:
			currentCard.Answer = content
		}
		currentBlock = nil
	}

	finishCard := func() {
		flushBlock()
		if currentCard.Question != "" {
			capsule.Flashcards = append(capsule.Flashcards, currentCard)
		}
		currentCard = domain.Flashcard{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishCard()

		case strings.HasPrefix(line, titlePrefix) && !sawTitle && currentState == seeking:
			capsule.Title = strings.TrimSpace(line[len(titlePrefix):])
			sawTitle = true

		case strings.HasPrefix(line, conceptPrefix):
			finishCard()
			if concept := strings.TrimSpace(line[len(conceptPrefix):]); concept != "" {
				capsule.KeyConcepts = append(capsule.KeyConcepts, concept)
			}

		case strings.HasPrefix(line, questionPrefix):
			flushBlock()
			if currentState != seeking { // a new question always starts a new card
				finishCard()
			}
			currentState = readingQuestion
			currentBlock = append(currentBlock, trimPrefix(line, questionPrefix))

		case strings.HasPrefix(line, answerPrefix):
			flushBlock()
			currentState = readingAnswer
			currentBlock = append(currentBlock, trimPrefix(line, answerPrefix))

		default:
			if currentState != seeking {
				currentBlock = append(currentBlock, line)
			}
		}
	}

	finishCard() // finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return domain.Capsule{}, err
	}

	return capsule, nil
}

// trimPrefix strips the marker and at most one following space, so block
// bodies keep any deliberate indentation.
func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}

// ParseJSONFile reads a JSON capsule file. Deck files carry content only;
// any scheduling state in the file is discarded because review state is
// owned by local storage, not the deck source.
func ParseJSONFile(path string) (domain.Capsule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Capsule{}, err
	}

	var c domain.Capsule
	if err := json.Unmarshal(data, &c); err != nil {
		return domain.Capsule{}, fmt.Errorf("decoding capsule file %s: %w", path, err)
	}

	c.ID = ""
	c.ReviewStage = 0
	c.LastReviewed = nil
	c.History = nil
	if c.Title == "" {
		c.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}
