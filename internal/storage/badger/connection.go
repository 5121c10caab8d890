package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// gcDiscardRatio is the garbage fraction a value log file needs before GC
// rewrites it
const gcDiscardRatio = 0.5

// BadgerDB manages the Badger database connection
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.BadgerConfig
}

// NewBadgerDB creates a new Badger database connection
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	// If reset_on_startup is enabled, delete the existing database
	if config.ResetOnStartup {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting existing database (reset_on_startup=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete database directory")
			}
		}
	}

	// Ensure the directory exists
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Opening Badger database connection")

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Badger database initialized")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// RunGC runs one value log garbage collection pass. Badger reports
// ErrNoRewrite when no file holds enough garbage to rewrite, which is the
// normal outcome on a quiet store.
func (b *BadgerDB) RunGC() error {
	if b.store == nil {
		return nil
	}

	err := b.store.Badger().RunValueLogGC(gcDiscardRatio)
	if errors.Is(err, badgerdb.ErrNoRewrite) {
		b.logger.Debug().Msg("Value log GC found nothing to reclaim")
		return nil
	}
	if err != nil {
		return fmt.Errorf("value log gc failed: %w", err)
	}

	b.logger.Debug().Msg("Value log GC reclaimed space")
	return nil
}

// Size returns the LSM tree and value log sizes in bytes
func (b *BadgerDB) Size() (lsm int64, vlog int64) {
	if b.store == nil {
		return 0, 0
	}
	return b.store.Badger().Size()
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		lsm, vlog := b.Size()
		b.logger.Debug().
			Int64("lsm_bytes", lsm).
			Int64("vlog_bytes", vlog).
			Msg("Closing Badger database")

		return b.store.Close()
	}
	return nil
}
