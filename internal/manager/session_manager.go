// Package manager maintains the set of analyzable databases under one base
// directory and caches their derived inference sessions.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	apperrors "github.com/dgarant/qed/pkg/common/errors"
	"github.com/dgarant/qed/pkg/config"
	"github.com/dgarant/qed/pkg/facts"
	"github.com/dgarant/qed/pkg/logic"
	"github.com/dgarant/qed/pkg/schema"
)

// ProjectMetadata is the project information exposed by the API.
type ProjectMetadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

const (
	MaxOpenSessions = 10
	ProjectListTTL  = 1 * time.Minute
)

// Session is one fully derived database: the frozen fact catalog and the
// engine querying it. Derivation runs once at open; everything afterwards is
// read-only.
type Session struct {
	ID      string
	Catalog *facts.Catalog
	Engine  *logic.Engine
}

// SessionManager opens databases under a base directory on demand and keeps
// the most recently used sessions derived. Sessions are immutable, so
// eviction just drops them.
type SessionManager struct {
	baseDir       string
	sessions      *lru.Cache[string, *Session]
	mu            sync.RWMutex
	cachedList    []ProjectMetadata
	lastListBuild time.Time
}

// NewSessionManager creates a manager over baseDir.
func NewSessionManager(baseDir string) *SessionManager {
	cache, _ := lru.New[string, *Session](MaxOpenSessions)
	return &SessionManager{
		baseDir:  baseDir,
		sessions: cache,
	}
}

// GetSession returns the derived session for a project ID, running schema
// reflection and fact derivation on first access.
func (sm *SessionManager) GetSession(ctx context.Context, projectID string) (*Session, error) {
	if s, ok := sm.sessions.Get(projectID); ok {
		return s, nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Double-check under lock.
	if s, ok := sm.sessions.Get(projectID); ok {
		return s, nil
	}

	dbPath := filepath.Join(sm.baseDir, projectID+".db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrNotFound)
	}

	s, err := openSession(ctx, projectID, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to derive session for project %s: %w", projectID, err)
	}

	sm.sessions.Add(projectID, s)
	return s, nil
}

func openSession(ctx context.Context, id, dbPath string) (*Session, error) {
	db, err := schema.OpenSQLite(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tables, err := schema.Reflect(ctx, db)
	if err != nil {
		return nil, err
	}

	catalog := facts.NewCatalog()
	if err := schema.NewExtractor(catalog).ExtractSchema(tables); err != nil {
		return nil, err
	}
	kb, err := catalog.KnowledgeBase()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Catalog: catalog, Engine: logic.NewEngine(kb)}, nil
}

// ListProjects returns the databases under the base directory. A sidecar
// <id>.yaml project file contributes name and description when present. The
// list is rebuilt at most once per TTL.
func (sm *SessionManager) ListProjects() ([]ProjectMetadata, error) {
	sm.mu.RLock()
	if time.Since(sm.lastListBuild) < ProjectListTTL && sm.cachedList != nil {
		list := make([]ProjectMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		sm.mu.RUnlock()
		return list, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if time.Since(sm.lastListBuild) < ProjectListTTL && sm.cachedList != nil {
		list := make([]ProjectMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		return list, nil
	}

	entries, err := os.ReadDir(sm.baseDir)
	if err != nil {
		return nil, err
	}

	var projects []ProjectMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".db")
		meta := ProjectMetadata{ID: id, Name: id}

		if data, err := os.ReadFile(filepath.Join(sm.baseDir, id+".yaml")); err == nil {
			if p, err := config.Parse(data); err == nil {
				if p.Name != "" {
					meta.Name = p.Name
				}
				meta.Description = p.Description
			}
		}
		projects = append(projects, meta)
	}

	sm.cachedList = projects
	sm.lastListBuild = time.Now()

	return projects, nil
}

// Purge drops every cached session.
func (sm *SessionManager) Purge() {
	sm.sessions.Purge()
}
