// Package sync reconciles registered deck sources into local storage.
package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/capsched/capsched/internal/domain"
	"github.com/capsched/capsched/internal/fingerprint"
	"github.com/capsched/capsched/internal/gitsource"
	"github.com/capsched/capsched/internal/parser"
	"github.com/capsched/capsched/internal/storage"
)

// SourceTypeFor classifies a source path: git URLs become git sources,
// everything else is a local directory.
func SourceTypeFor(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return "git"
	}
	return "local"
}

// RunSync iterates over all registered sources and reconciles each one.
// Git sources are mirrored under reposDir first. Failures on one source are
// logged and do not stop the others.
func RunSync(db *storage.DB, reposDir string) error {
	slog.Info("starting sync for all sources")
	sources, err := db.GetAllSources()
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("no sources configured; add one with --add-source <path/or/url.git>")
		return nil
	}

	if err := os.MkdirAll(reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("creating repos directory: %w", err)
	}

	for _, source := range sources {
		slog.Info("syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		deckPath := source.Path
		if source.Type == "git" {
			localRepoPath, err := gitURLToLocalPath(reposDir, source.Path)
			if err != nil {
				slog.Error("determining local path for git deck", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(source.Path, localRepoPath); err != nil {
				slog.Error("syncing git deck", "url", source.Path, "error", err)
				continue
			}
			deckPath = localRepoPath
		}

		reconcileDeck(db, source.ID, deckPath)
	}
	slog.Info("sync complete")
	return nil
}

// reconcileDeck walks one deck directory, imports unseen capsules, and
// removes capsules whose content no longer exists in the deck.
func reconcileDeck(db *storage.DB, sourceID int64, deckPath string) {
	var parsed, inserted int
	var parseErrors []error
	foundFingerprints := make(map[string]bool)

	walkErr := filepath.WalkDir(deckPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		var capsule domain.Capsule
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".md":
			capsule, err = parser.ParseFile(path)
		case ".json":
			capsule, err = parser.ParseJSONFile(path)
		default:
			return nil
		}
		if err != nil {
			parseErrors = append(parseErrors, fmt.Errorf("parsing %s: %w", path, err))
			return nil
		}
		if len(capsule.Flashcards) == 0 && len(capsule.KeyConcepts) == 0 && len(capsule.QuizQuestions) == 0 {
			return nil // nothing learnable in this file
		}
		parsed++

		fp := fingerprint.Hash(capsule)
		foundFingerprints[fp] = true

		existingID, findErr := db.FindCapsuleIDByFingerprint(fp)
		if findErr != nil {
			parseErrors = append(parseErrors, fmt.Errorf("db check for %s: %w", fp, findErr))
			return nil
		}
		if existingID == "" {
			capsule.ID = uuid.NewString()
			slog.Info("new capsule found, inserting", "title", capsule.Title, "fingerprint", fp)
			if insertErr := db.InsertCapsule(capsule, fp, sourceID); insertErr != nil {
				parseErrors = append(parseErrors, fmt.Errorf("db insert for %s: %w", fp, insertErr))
				return nil
			}
			inserted++
		}
		return nil
	})

	if walkErr != nil {
		slog.Error("walking deck directory", "path", deckPath, "error", walkErr)
		return
	}

	stored, err := db.ListCapsulesBySource(sourceID)
	if err != nil {
		slog.Error("loading capsules for source", "source_id", sourceID, "error", err)
		return
	}

	var orphaned int
	for _, ref := range stored {
		if !foundFingerprints[ref.Fingerprint] {
			slog.Info("orphaned capsule, deleting", "id", ref.ID)
			orphaned++
			if err := db.DeleteCapsule(ref.ID); err != nil {
				slog.Warn("failed to delete orphaned capsule", "id", ref.ID, "error", err)
			}
		}
	}

	if err := db.UpdateSourceLastScanned(sourceID); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", deckPath,
		"parsed_capsules", parsed,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", len(parseErrors),
	)
	for _, e := range parseErrors {
		slog.Warn("deck parse issue", "error", e)
	}
}

func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
