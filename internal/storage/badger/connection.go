package badger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// BadgerDB wraps one badgerhold store shared by every entity storage.
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
}

// NewBadgerDB opens (or recreates, when reset_on_startup is set) the store at
// the configured path.
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.ResetOnStartup {
		if err := os.RemoveAll(config.Path); err != nil {
			logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to reset database directory")
		} else {
			logger.Debug().Str("path", config.Path).Msg("Database directory reset")
		}
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	// badger's own logger is noisy; arbor covers what we need.
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database opened")

	return &BadgerDB{store: store, logger: logger}, nil
}

// Store exposes the underlying badgerhold store to the entity storages.
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close closes the store.
func (b *BadgerDB) Close() error {
	if b.store == nil {
		return nil
	}
	return b.store.Close()
}
