package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML fixture format. Any section may be omitted.
type SeedFile struct {
	Groups   []models.Group   `yaml:"groups"`
	Projects []models.Project `yaml:"projects"`
	Tasks    []models.Task    `yaml:"tasks"`
	Users    []models.User    `yaml:"users"`
	Comments []models.Comment `yaml:"comments"`
}

// LoadSeedFixtures loads YAML fixture files from the specified directory into
// the entity stores. Missing directory is not an error; individual file
// failures are logged and skipped.
func LoadSeedFixtures(ctx context.Context, storage interfaces.StorageManager, dirPath string, logger arbor.ILogger) error {
	logger.Debug().Str("dir", dirPath).Msg("Loading seed fixtures from files")

	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		logger.Debug().Str("dir", dirPath).Msg("Seed directory does not exist, skipping")
		return nil
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dirPath).Msg("Failed to read seed directory")
		return nil // Non-fatal
	}

	loadedCount := 0
	errorCount := 0

	for _, entry := range entries {
		if entry.IsDir() || (!strings.HasSuffix(entry.Name(), ".yaml") && !strings.HasSuffix(entry.Name(), ".yml")) {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(filePath)
		if err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to read seed file")
			errorCount++
			continue
		}

		var seed SeedFile
		if err := yaml.Unmarshal(content, &seed); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to parse seed file")
			errorCount++
			continue
		}

		if err := applySeed(ctx, storage, &seed); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to apply seed file")
			errorCount++
			continue
		}

		loadedCount++
		logger.Debug().
			Str("file", entry.Name()).
			Int("groups", len(seed.Groups)).
			Int("projects", len(seed.Projects)).
			Int("tasks", len(seed.Tasks)).
			Int("users", len(seed.Users)).
			Int("comments", len(seed.Comments)).
			Msg("Seed file applied")
	}

	logger.Info().
		Int("loaded", loadedCount).
		Int("errors", errorCount).
		Msg("Seed fixture loading complete")

	return nil
}

func applySeed(ctx context.Context, storage interfaces.StorageManager, seed *SeedFile) error {
	for i := range seed.Groups {
		if err := storage.GroupStorage().StoreGroup(ctx, &seed.Groups[i]); err != nil {
			return fmt.Errorf("group %s: %w", seed.Groups[i].ID, err)
		}
	}
	for i := range seed.Projects {
		if err := storage.ProjectStorage().StoreProject(ctx, &seed.Projects[i]); err != nil {
			return fmt.Errorf("project %s: %w", seed.Projects[i].ID, err)
		}
	}
	for i := range seed.Tasks {
		if err := storage.TaskStorage().StoreTask(ctx, &seed.Tasks[i]); err != nil {
			return fmt.Errorf("task %s: %w", seed.Tasks[i].ID, err)
		}
	}
	for i := range seed.Users {
		if err := storage.UserStorage().StoreUser(ctx, &seed.Users[i]); err != nil {
			return fmt.Errorf("user %s: %w", seed.Users[i].ID, err)
		}
	}
	for i := range seed.Comments {
		if err := storage.CommentStorage().StoreComment(ctx, &seed.Comments[i]); err != nil {
			return fmt.Errorf("comment %s: %w", seed.Comments[i].ID, err)
		}
	}
	return nil
}
