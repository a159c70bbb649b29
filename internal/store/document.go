// Package store is the Store (C1): the single persisted document holding
// every user's tasks, feedback, and analytics, written atomically with
// auto-backup and legacy-layout migration.
package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jony/genie/internal/models"
)

// Store owns the persisted document. All mutations flow through one
// writer; readers take a consistent snapshot under RLock.
type Store struct {
	path       string
	backupDir  string
	autoBackup bool
	retention  time.Duration

	mu  sync.RWMutex // guards doc; writes are additionally serialized by writeMu
	doc *models.Document

	writeMu   sync.Mutex // single-writer path
	userLocks sync.Map   // userId -> *sync.Mutex, per-user mutual exclusion

	log *zap.SugaredLogger
}

// Config controls where the document and its backups live.
type Config struct {
	StoragePath          string
	BackupDir            string
	AutoBackup           bool
	BackupRetentionDays  int
}

// Open loads the document from cfg.StoragePath, performing legacy
// migration or corruption recovery as needed, and returns a ready Store.
func Open(cfg Config, log *zap.SugaredLogger) (*Store, error) {
	s := &Store{
		path:       cfg.StoragePath,
		backupDir:  cfg.BackupDir,
		autoBackup: cfg.AutoBackup,
		retention:  time.Duration(cfg.BackupRetentionDays) * 24 * time.Hour,
		log:        log,
	}
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	s.doc = doc
	return s, nil
}

// load reads the document from disk, migrating a legacy flat-map layout
// and falling back to the most recent backup (then an empty document) on
// corruption, per the Store's corruption-handling contract.
func (s *Store) load() (*models.Document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}

	doc, migrated, err := decodeDocument(data)
	if err != nil {
		if s.log != nil {
			s.log.Errorw("store: primary document corrupt, attempting backup recovery", "error", err)
		}
		return s.recoverFromBackup()
	}
	if migrated {
		if s.log != nil {
			s.log.Infow("store: migrated legacy flat-map document to default_user layout")
		}
		if err := s.backupNow("migration"); err != nil && s.log != nil {
			s.log.Warnw("store: migration backup failed", "error", err)
		}
		if err := s.persist(doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// decodeDocument parses raw bytes either as a modern Document or, if the
// top-level object has a "tasks" key but no "users" key, as a legacy
// flat-map of tasks that gets wrapped under DefaultUserKey.
func decodeDocument(data []byte) (*models.Document, bool, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, false, models.Corrupt("store: document is not valid JSON", err)
	}

	if _, hasUsers := probe["users"]; hasUsers {
		var doc models.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, false, models.Corrupt("store: document failed to decode", err)
		}
		if doc.Users == nil {
			doc.Users = make(map[string]*models.UserState)
		}
		return &doc, false, nil
	}

	if rawTasks, hasTasks := probe["tasks"]; hasTasks {
		var legacyTasks map[string]*models.Task
		if err := json.Unmarshal(rawTasks, &legacyTasks); err != nil {
			return nil, false, models.Corrupt("store: legacy tasks map failed to decode", err)
		}
		doc := models.NewDocument()
		now := time.Now().UTC()
		doc.Users[models.DefaultUserKey] = &models.UserState{
			Session:     models.SessionMeta{CreatedAt: now, LastUpdated: now, Version: 1},
			Tasks:       legacyTasks,
			Preferences: models.DefaultPreferences(),
		}
		return doc, true, nil
	}

	// Neither shape recognized but it's valid JSON: treat as a fresh document.
	return models.NewDocument(), false, nil
}

// recoverFromBackup loads the most recent backup file; if none loads, it
// returns a fresh empty document and logs a fatal-recoverable event.
func (s *Store) recoverFromBackup() (*models.Document, error) {
	names, err := s.listBackupFiles()
	if err == nil {
		for i := len(names) - 1; i >= 0; i-- {
			data, err := os.ReadFile(filepath.Join(s.backupDir, names[i]))
			if err != nil {
				continue
			}
			doc, _, err := decodeDocument(data)
			if err == nil {
				if s.log != nil {
					s.log.Warnw("store: recovered document from backup", "backup", names[i])
				}
				return doc, nil
			}
		}
	}
	if s.log != nil {
		s.log.Errorw("store: no usable backup found, initializing empty document")
	}
	return models.NewDocument(), nil
}

// persist atomically writes doc to s.path: write-to-temp, fsync, rename.
// If auto-backup is enabled, the prior file is copied to the backup
// directory first and old backups are pruned.
func (s *Store) persist(doc *models.Document) error {
	if s.autoBackup {
		if err := s.backupNow("pre-write"); err != nil && s.log != nil {
			s.log.Warnw("store: pre-write backup failed", "error", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.Corrupt("store: failed to encode document", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"

	return withRetry(context.Background(), func() error {
		f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		return os.Rename(tmp, s.path)
	})
}
