// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

// Game is the stored form of a scorebook game.
type Game = scoring.Game

func gameFiles(gameId string) (string, string) {
	encodedGameId := url.PathEscape(gameId)
	return filepath.Join("games", fmt.Sprintf("%s.json", encodedGameId)),
		filepath.Join("games", fmt.Sprintf("%s.meta.json", encodedGameId))
}

// GameMetadata is the sidecar written next to every game. Listing games
// only reads these.
type GameMetadata struct {
	ID            string `json:"id"`
	Date          string `json:"date"`
	StartTime     string `json:"startTime,omitempty"`
	Location      string `json:"location,omitempty"`
	VisitorTeamID string `json:"visitorTeamId"`
	VisitorName   string `json:"visitorName"`
	VisitorRuns   int    `json:"visitorRuns"`
	HomeTeamID    string `json:"homeTeamId"`
	HomeName      string `json:"homeName"`
	HomeRuns      int    `json:"homeRuns"`
	UpdatedAt     int64  `json:"updatedAt"`
	Status        string `json:"status"`
	DeletedAt     int64  `json:"deletedAt"`
}

func metadataOf(g *Game) GameMetadata {
	meta := GameMetadata{
		ID:            g.ID,
		Date:          g.Date,
		StartTime:     g.StartTime,
		Location:      g.Location,
		VisitorTeamID: g.Teams.Visitor.ID,
		VisitorName:   g.Teams.Visitor.Name,
		HomeTeamID:    g.Teams.Home.ID,
		HomeName:      g.Teams.Home.Name,
		UpdatedAt:     g.UpdatedAt,
		DeletedAt:     g.DeletedAt,
	}
	if g.DeletedAt != 0 {
		meta.Status = StatusDeleted
		return meta
	}
	ls := scoring.NewLineScore(g)
	meta.VisitorRuns = ls.Visitor.Runs
	meta.HomeRuns = ls.Home.Runs
	return meta
}

// GameStore manages game persistence to disk.
type GameStore struct {
	DataDir string
	Debug   bool
	storage *storage.Storage
	mu      sync.Map // *sync.RWMutex per game id
	cache   sync.Map // latest JSON per game id

	dirtyMu sync.Mutex
	dirty   map[string]bool
}

// NewGameStore creates a new GameStore.
func NewGameStore(dataDir string, s *storage.Storage) *GameStore {
	return &GameStore{
		DataDir: dataDir,
		storage: s,
		dirty:   make(map[string]bool),
	}
}

func (gs *GameStore) lock(gameId string) *sync.RWMutex {
	m, _ := gs.mu.LoadOrStore(gameId, &sync.RWMutex{})
	return m.(*sync.RWMutex)
}

// SaveGame saves the game and its metadata sidecar.
func (gs *GameStore) SaveGame(game *Game) error {
	if game.ID == "" {
		return fmt.Errorf("save game: missing id")
	}
	if game.SchemaVersion == 0 {
		game.SchemaVersion = CurrentSchemaVersion
	}
	mutex := gs.lock(game.ID)
	mutex.Lock()
	defer mutex.Unlock()
	return gs.saveLocked(game)
}

// saveLocked writes game and its sidecar. The caller holds the game's lock.
func (gs *GameStore) saveLocked(game *Game) error {
	filename, metaFilename := gameFiles(game.ID)
	if err := gs.storage.SaveDataFile(filename, game); err != nil {
		return fmt.Errorf("storage.SaveDataFile: %w", err)
	}

	meta := metadataOf(game)
	if err := gs.storage.SaveDataFile(metaFilename, &meta); err != nil {
		// The main file is authoritative; listing falls back to it.
		log.Printf("Warning: Failed to save metadata sidecar for game %s: %v", game.ID, err)
	}

	if jsonBytes, err := json.Marshal(game); err == nil {
		gs.cache.Store(game.ID, jsonBytes)
	}

	gs.dirtyMu.Lock()
	delete(gs.dirty, game.ID)
	gs.dirtyMu.Unlock()
	return nil
}

// SaveGameInMemory updates the in-memory cache and marks the game as dirty.
// LoadGame and the listings see the new state at once; Flush writes it to
// disk. If forceSync is true, it writes to disk immediately.
func (gs *GameStore) SaveGameInMemory(game *Game, forceSync bool) error {
	if game.ID == "" {
		return fmt.Errorf("save game: missing id")
	}
	if game.SchemaVersion == 0 {
		game.SchemaVersion = CurrentSchemaVersion
	}
	jsonBytes, err := json.Marshal(game)
	if err != nil {
		return err
	}
	mutex := gs.lock(game.ID)
	mutex.Lock()
	defer mutex.Unlock()

	gs.cache.Store(game.ID, jsonBytes)
	if forceSync {
		return gs.saveLocked(game)
	}
	gs.dirtyMu.Lock()
	gs.dirty[game.ID] = true
	gs.dirtyMu.Unlock()
	return nil
}

// IsDirty reports whether the cached state of gameId has not reached the
// disk yet.
func (gs *GameStore) IsDirty(gameId string) bool {
	gs.dirtyMu.Lock()
	defer gs.dirtyMu.Unlock()
	return gs.dirty[gameId]
}

// Flush persists a specific game to disk if it is dirty. On failure the
// game stays dirty.
func (gs *GameStore) Flush(gameId string) error {
	mutex := gs.lock(gameId)
	mutex.Lock()
	defer mutex.Unlock()

	if !gs.IsDirty(gameId) {
		return nil
	}
	val, ok := gs.cache.Load(gameId)
	if !ok {
		gs.dirtyMu.Lock()
		delete(gs.dirty, gameId)
		gs.dirtyMu.Unlock()
		return fmt.Errorf("game %s marked dirty but not found in cache", gameId)
	}

	var g Game
	if err := json.Unmarshal(val.([]byte), &g); err != nil {
		return fmt.Errorf("failed to unmarshal game from cache for flush: %w", err)
	}
	return gs.saveLocked(&g)
}

// FlushAll persists all dirty games to disk. It tries every game and
// returns the failures together.
func (gs *GameStore) FlushAll() error {
	var errs []error
	for _, id := range gs.dirtyIDs() {
		if err := gs.Flush(id); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush game %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// LoadGame loads the game by ID. Every call returns a private copy.
func (gs *GameStore) LoadGame(gameId string) (*Game, error) {
	if val, ok := gs.cache.Load(gameId); ok {
		var g Game
		if err := json.Unmarshal(val.([]byte), &g); err == nil {
			if gs.Debug {
				log.Printf("[CACHE] Hit for game %s", gameId)
			}
			g.Normalize()
			return &g, nil
		}
		gs.cache.Delete(gameId)
	}
	if gs.Debug {
		log.Printf("[CACHE] Miss for game %s", gameId)
	}

	mutex := gs.lock(gameId)
	mutex.RLock()
	defer mutex.RUnlock()

	filename, _ := gameFiles(gameId)
	var g Game
	if err := gs.storage.ReadDataFile(filename, &g); err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("ReadDataFile: %w", err)
	}
	if g.SchemaVersion > CurrentSchemaVersion {
		return nil, fmt.Errorf("game %s: unsupported schema version %d", gameId, g.SchemaVersion)
	}
	g.Normalize()

	if jsonBytes, err := json.Marshal(&g); err == nil {
		gs.cache.Store(gameId, jsonBytes)
	}
	return &g, nil
}

// LoadGameAsJSON is a helper for API handlers that just want bytes.
func (gs *GameStore) LoadGameAsJSON(gameId string) ([]byte, error) {
	g, err := gs.LoadGame(gameId)
	if err != nil {
		return nil, err
	}
	return json.Marshal(g)
}

// DeleteGame deletes a game by overwriting it with a tombstone.
func (gs *GameStore) DeleteGame(gameId string) error {
	g, err := gs.LoadGame(gameId)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if g.DeletedAt != 0 {
		return nil
	}

	tombstone := &Game{
		ID:            gameId,
		SchemaVersion: CurrentSchemaVersion,
		Date:          g.Date,
		DeletedAt:     time.Now().UnixNano(),
	}
	tombstone.UpdatedAt = tombstone.DeletedAt
	if err := gs.SaveGame(tombstone); err != nil {
		return fmt.Errorf("tombstone: %w", err)
	}
	return nil
}

// PurgeGame permanently deletes the game files.
func (gs *GameStore) PurgeGame(gameId string) error {
	mutex := gs.lock(gameId)
	mutex.Lock()
	defer mutex.Unlock()

	gs.cache.Delete(gameId)
	gs.dirtyMu.Lock()
	delete(gs.dirty, gameId)
	gs.dirtyMu.Unlock()

	filename, metaFilename := gameFiles(gameId)
	if err := os.Remove(filepath.Join(gs.DataDir, filename)); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not purge game file: %w", err)
		}
	}
	if err := os.Remove(filepath.Join(gs.DataDir, metaFilename)); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: could not purge meta file for game %s: %v", gameId, err)
		}
	}
	return nil
}

// gameIDs returns the ids found on disk and whether each has a sidecar.
func (gs *GameStore) gameIDs() (map[string]bool, error) {
	files, err := os.ReadDir(filepath.Join(gs.DataDir, "games"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read games directory: %w", err)
	}
	ids := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		name := file.Name()
		if encodedId, ok := strings.CutSuffix(name, ".meta.json"); ok {
			if id, err := url.PathUnescape(encodedId); err == nil {
				ids[id] = true
			}
		} else if encodedId, ok := strings.CutSuffix(name, ".json"); ok {
			if id, err := url.PathUnescape(encodedId); err == nil {
				if _, ok := ids[id]; !ok {
					ids[id] = false
				}
			}
		}
	}
	return ids, nil
}

func (gs *GameStore) dirtyIDs() []string {
	gs.dirtyMu.Lock()
	defer gs.dirtyMu.Unlock()
	ids := make([]string, 0, len(gs.dirty))
	for id := range gs.dirty {
		ids = append(ids, id)
	}
	return ids
}

// ListAllGameMetadata returns metadata for all games, tombstones included.
// Games without a readable sidecar are loaded in full.
func (gs *GameStore) ListAllGameMetadata() iter.Seq2[GameMetadata, error] {
	return func(yield func(GameMetadata, error) bool) {
		ids, err := gs.gameIDs()
		if err != nil {
			yield(GameMetadata{}, err)
			return
		}
		dirty := make(map[string]bool)
		for _, id := range gs.dirtyIDs() {
			dirty[id] = true
			if _, ok := ids[id]; !ok {
				ids[id] = false
			}
		}

		for id, hasMeta := range ids {
			if hasMeta && !dirty[id] {
				_, metaFilename := gameFiles(id)
				var meta GameMetadata
				if err := gs.storage.ReadDataFile(metaFilename, &meta); err == nil {
					if !yield(meta, nil) {
						return
					}
					continue
				} else {
					log.Printf("Warning: failed to load metadata for %s: %v. Falling back to main file.", id, err)
				}
			}
			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Warning: failed to load game %s: %v", id, err)
				continue
			}
			if !yield(metadataOf(g), nil) {
				return
			}
		}
	}
}

// ListAllGames returns an iterator over every stored game, tombstones
// included, plus games only held in memory.
func (gs *GameStore) ListAllGames() iter.Seq2[*Game, error] {
	return func(yield func(*Game, error) bool) {
		ids, err := gs.gameIDs()
		if err != nil {
			yield(nil, err)
			return
		}
		for _, id := range gs.dirtyIDs() {
			ids[id] = true
		}
		for id := range ids {
			g, err := gs.LoadGame(id)
			if err != nil {
				log.Printf("Warning: could not load game '%s': %v", id, err)
				continue
			}
			if !yield(g, nil) {
				return
			}
		}
	}
}

// ActiveGames loads every game that is not a tombstone.
func (gs *GameStore) ActiveGames() ([]*Game, error) {
	var games []*Game
	for g, err := range gs.ListAllGames() {
		if err != nil {
			return nil, err
		}
		if g.DeletedAt == 0 {
			games = append(games, g)
		}
	}
	slices.SortFunc(games, func(a, b *Game) int { return cmp.Compare(a.ID, b.ID) })
	return games, nil
}

// ListGames returns the metadata of live games, newest first.
func (gs *GameStore) ListGames() ([]GameMetadata, error) {
	games := make([]GameMetadata, 0)
	for meta, err := range gs.ListAllGameMetadata() {
		if err != nil {
			return nil, err
		}
		if meta.Status == StatusDeleted || meta.DeletedAt != 0 {
			continue
		}
		games = append(games, meta)
	}
	slices.SortFunc(games, func(a, b GameMetadata) int {
		ta, _ := scoring.ParseGameDate(a.Date)
		tb, _ := scoring.ParseGameDate(b.Date)
		return cmp.Or(tb.Compare(ta), strings.Compare(b.StartTime, a.StartTime), cmp.Compare(b.UpdatedAt, a.UpdatedAt), strings.Compare(a.ID, b.ID))
	})
	return games, nil
}
