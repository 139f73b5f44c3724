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
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/ttbt-io/scorebook/backend/scoring"
	"github.com/ttbt-io/scorebook/backend/search"
)

func generateETag(data []byte) string {
	return fmt.Sprintf("\"%x\"", sha256.Sum256(data))
}

func hubBusyResponse(w http.ResponseWriter, retryAfter string) {
	w.Header().Set("Retry-After", retryAfter)
	http.Error(w, "Too Many Requests: Server is busy", http.StatusTooManyRequests)
}

// Options represent server options.
type Options struct {
	Addr      string
	Cert      *tls.Certificate
	DataDir   string
	Debug     bool
	GameStore *GameStore
	TeamStore *TeamStore
	Storage   *storage.Storage
	MasterKey crypto.MasterKey
	Listener  net.Listener

	// AllowedOrigins lists the browser origins allowed to call the API.
	// Empty means same-origin only.
	AllowedOrigins []string

	// ThreeOutsDelay overrides the pause before a three-outs notice.
	ThreeOutsDelay time.Duration
}

const (
	retryAfterLoad   = "2"
	retryAfterAction = "5"
)

// Server represents the running server instance.
type Server struct {
	httpServer *http.Server
	gs         *GameStore
}

// Shutdown stops the HTTP server and writes the games the hubs have not
// flushed yet.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := s.gs.FlushAll(); err != nil {
		errs = append(errs, fmt.Errorf("game flush: %w", err))
	}
	return errors.Join(errs...)
}

// StartServer starts the web server and registers the API handlers.
func StartServer(opts Options) (*Server, error) {
	opts = opts.withDefaults()
	handler := NewServerHandler(opts)

	httpServer := &http.Server{
		Addr:    opts.Addr,
		Handler: handler,
	}
	if opts.Cert != nil {
		httpServer.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{*opts.Cert},
		}
	}

	go func() {
		var err error
		switch {
		case opts.Listener != nil && opts.Cert != nil:
			log.Printf("Starting HTTPS server on provided listener %s...", opts.Listener.Addr())
			err = httpServer.ServeTLS(opts.Listener, "", "")
		case opts.Listener != nil:
			log.Printf("Starting HTTP server on provided listener %s...", opts.Listener.Addr())
			err = httpServer.Serve(opts.Listener)
		case opts.Cert != nil:
			log.Printf("Starting HTTPS server on %s...", opts.Addr)
			err = httpServer.ListenAndServeTLS("", "")
		default:
			log.Printf("Starting HTTP server on %s...", opts.Addr)
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, net.ErrClosed) && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
		}
	}()

	return &Server{httpServer: httpServer, gs: opts.GameStore}, nil
}

func (opts Options) withDefaults() Options {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Storage == nil {
		opts.Storage = storage.New(opts.DataDir, opts.MasterKey)
	}
	if opts.GameStore == nil {
		opts.GameStore = NewGameStore(opts.DataDir, opts.Storage)
	}
	if opts.TeamStore == nil {
		opts.TeamStore = NewTeamStore(opts.DataDir, opts.Storage)
	}
	return opts
}

// api holds the dependencies of the HTTP handlers.
type api struct {
	gs      *GameStore
	ts      *TeamStore
	hm      *HubManager
	metrics *Metrics
	debugf  func(string, ...any)
}

// NewServerHandler creates and configures the HTTP handler for the server.
func NewServerHandler(opts Options) http.Handler {
	opts = opts.withDefaults()

	debugf := func(string, ...any) {}
	if opts.Debug {
		debugf = func(f string, a ...any) {
			log.Printf("[DEBUG BACKEND] "+f, a...)
		}
	}
	opts.GameStore.Debug = opts.Debug

	a := &api{gs: opts.GameStore, ts: opts.TeamStore, debugf: debugf}
	a.hm = NewHubManager(a.gs, nil, debugf)
	a.metrics = a.hm.metrics
	if opts.ThreeOutsDelay > 0 {
		a.hm.threeOutsDelay = opts.ThreeOutsDelay
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "If-None-Match"},
			ExposedHeaders:   []string{"ETag", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(cacheControlMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", a.listTeams)
			r.Post("/", a.saveTeam)
			r.Get("/{teamId}", a.loadTeam)
			r.Put("/{teamId}", a.saveTeam)
			r.Delete("/{teamId}", a.deleteTeam)
		})
		r.Route("/games", func(r chi.Router) {
			r.Get("/", a.listGames)
			r.Post("/", a.startGame)
			r.Get("/{gameId}", a.loadGame)
			r.Patch("/{gameId}", a.updateGameInfo)
			r.Delete("/{gameId}", a.deleteGame)
			r.Post("/{gameId}/actions", a.applyActions)
			r.Get("/{gameId}/ws", a.serveWS)
			r.Get("/{gameId}/boxscore", a.boxScore)
			r.Get("/{gameId}/boxscore.txt", a.boxScoreText)
			r.Get("/{gameId}/boxscore.xlsx", a.boxScoreXLSX)
		})
		r.Get("/stats/batting", a.battingStats)
		r.Get("/stats/pitching", a.pitchingStats)
		r.Get("/stats.xlsx", a.statsXLSX)
		r.Get("/players/{playerId}/log", a.playerLog)
		r.Get("/players/{playerId}/chart.png", a.playerChart)
		r.Get("/backup", a.backup)
		r.Post("/restore", a.restore)
		r.Get("/roster.csv", a.exportRoster)
		r.Post("/roster.csv", a.importRoster)
	})
	return r
}

// statusOf maps an error to the HTTP status reported to the client.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrHubBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, os.ErrNotExist), errors.Is(err, ErrNoGames):
		return http.StatusNotFound
	case errors.Is(err, scoring.ErrNeedsConfirmation), errors.Is(err, scoring.ErrPlayerConflict):
		return http.StatusConflict
	case errors.Is(err, ErrMalformed),
		errors.Is(err, search.ErrBadQuery),
		errors.Is(err, scoring.ErrUnknownOutcome),
		errors.Is(err, scoring.ErrUnknownSide),
		errors.Is(err, scoring.ErrInvalidColumn),
		errors.Is(err, scoring.ErrBaseColumn),
		errors.Is(err, scoring.ErrMinimumLineup),
		errors.Is(err, scoring.ErrSlotOutOfRange),
		errors.Is(err, scoring.ErrInvalidPosition),
		errors.Is(err, scoring.ErrInvalidBase),
		errors.Is(err, scoring.ErrNegativeValue),
		errors.Is(err, scoring.ErrInvalidDecision),
		errors.Is(err, scoring.ErrMissingPlayer),
		errors.Is(err, scoring.ErrUnknownSortKey):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error, retryAfter string) {
	status := statusOf(err)
	switch status {
	case http.StatusTooManyRequests:
		hubBusyResponse(w, retryAfter)
	case http.StatusInternalServerError:
		log.Printf("Internal Server Error: %v", err)
		http.Error(w, "Internal Server Error", status)
	default:
		http.Error(w, fmt.Sprintf("%s: %v", http.StatusText(status), err), status)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// writeCachedJSON serves data with an ETag, answering 304 when the client
// already has it.
func writeCachedJSON(w http.ResponseWriter, r *http.Request, data []byte) {
	etag := generateETag(data)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// idParam reads a UUID path parameter, answering 400 when it is invalid.
func idParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	if !isValidUUID(id) {
		http.Error(w, fmt.Sprintf("Bad Request: %s is missing or invalid", name), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func (a *api) listTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := a.ts.ActiveTeams()
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (a *api) loadTeam(w http.ResponseWriter, r *http.Request) {
	teamId, ok := idParam(w, r, "teamId")
	if !ok {
		return
	}
	t, err := a.ts.LoadTeam(teamId)
	if err == nil && t.Deleted() {
		err = os.ErrNotExist
	}
	if err != nil {
		writeError(w, err, "")
		return
	}
	data, err := json.Marshal(t)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeCachedJSON(w, r, data)
}

// saveTeam creates a team (POST, new id when none is given) or replaces
// one (PUT).
func (a *api) saveTeam(w http.ResponseWriter, r *http.Request) {
	var t Team
	if err := decodeBody(w, r, &t); err != nil {
		writeError(w, err, "")
		return
	}
	status := http.StatusOK
	if id := chi.URLParam(r, "teamId"); id != "" {
		if t.ID != "" && t.ID != id {
			http.Error(w, "Bad Request: team id does not match the URL", http.StatusBadRequest)
			return
		}
		t.ID = id
	} else if t.ID == "" {
		t.ID = uuid.NewString()
		status = http.StatusCreated
	}
	if !isValidUUID(t.ID) {
		http.Error(w, "Bad Request: teamId is missing or invalid", http.StatusBadRequest)
		return
	}
	for i := range t.Players {
		if t.Players[i].ID == "" {
			t.Players[i].ID = uuid.NewString()
		}
	}
	t.SchemaVersion = CurrentSchemaVersion
	t.Status, t.DeletedAt = StatusActive, 0
	t.UpdatedAt = time.Now().UnixMilli()
	if err := ValidateTeam(&t); err != nil {
		writeError(w, err, "")
		return
	}
	if err := a.ts.SaveTeam(&t); err != nil {
		writeError(w, err, "")
		return
	}
	a.debugf("team %s saved (%d players)", t.ID, len(t.Players))
	writeJSON(w, status, &t)
}

func (a *api) deleteTeam(w http.ResponseWriter, r *http.Request) {
	teamId, ok := idParam(w, r, "teamId")
	if !ok {
		return
	}
	var err error
	if r.URL.Query().Get("purge") == "true" {
		err = a.ts.PurgeTeam(teamId)
	} else {
		err = a.ts.DeleteTeam(teamId)
	}
	if err != nil {
		writeError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := a.gs.ListGames()
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, games)
}

type startGameRequest struct {
	VisitorTeamID string `json:"visitorTeamId"`
	HomeTeamID    string `json:"homeTeamId"`
	scoring.GameInfo
}

// startGame creates a game from two stored rosters.
func (a *api) startGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err, "")
		return
	}
	if !isValidUUID(req.VisitorTeamID) || !isValidUUID(req.HomeTeamID) {
		http.Error(w, "Bad Request: visitorTeamId and homeTeamId are required", http.StatusBadRequest)
		return
	}
	if err := validateGameInfo(req.GameInfo); err != nil {
		writeError(w, err, "")
		return
	}
	var rosters [2]scoring.Team
	for i, id := range []string{req.VisitorTeamID, req.HomeTeamID} {
		t, err := a.ts.LoadTeam(id)
		if err == nil && t.Deleted() {
			err = os.ErrNotExist
		}
		if err != nil {
			writeError(w, fmt.Errorf("team %s: %w", id, err), "")
			return
		}
		rosters[i] = t.Snapshot()
	}

	g := scoring.NewGame(uuid.NewString(), rosters[0], rosters[1])
	scoring.NewLedger(g).UpdateInfo(req.GameInfo)
	g.UpdatedAt = time.Now().UnixMilli()
	if err := a.gs.SaveGame(g); err != nil {
		writeError(w, err, "")
		return
	}
	a.debugf("game %s started: %s at %s", g.ID, g.Teams.Visitor.Name, g.Teams.Home.Name)
	writeJSON(w, http.StatusCreated, g)
}

func (a *api) loadGame(w http.ResponseWriter, r *http.Request) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return
	}
	data, err := a.hm.Load(r.Context(), gameId)
	if err != nil {
		writeError(w, err, retryAfterLoad)
		return
	}
	writeCachedJSON(w, r, data)
}

func (a *api) updateGameInfo(w http.ResponseWriter, r *http.Request) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrMalformed, err), "")
		return
	}
	action := BaseAction{Type: ActionMetadataUpdate, Payload: body, Timestamp: time.Now().UnixMilli()}
	if _, err := a.hm.Apply(r.Context(), gameId, []BaseAction{action}); err != nil {
		writeError(w, err, retryAfterAction)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) deleteGame(w http.ResponseWriter, r *http.Request) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return
	}
	var err error
	if r.URL.Query().Get("purge") == "true" {
		err = a.gs.PurgeGame(gameId)
	} else {
		err = a.gs.DeleteGame(gameId)
	}
	if err != nil {
		writeError(w, err, "")
		return
	}
	a.hm.Reload(r.Context(), gameId)
	w.WriteHeader(http.StatusNoContent)
}

// decodeActions accepts a single action object or an array of actions.
func decodeActions(body []byte) ([]BaseAction, error) {
	body = bytes.TrimSpace(body)
	var actions []BaseAction
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &actions); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	} else {
		var a BaseAction
		if err := json.Unmarshal(body, &a); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		actions = []BaseAction{a}
	}
	if len(actions) == 0 {
		return nil, malformed("no actions")
	}
	return actions, nil
}

func (a *api) applyActions(w http.ResponseWriter, r *http.Request) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", ErrMalformed, err), "")
		return
	}
	actions, err := decodeActions(body)
	if err != nil {
		writeError(w, err, "")
		return
	}
	results, err := a.hm.Apply(r.Context(), gameId, actions)
	if err != nil {
		writeError(w, err, retryAfterAction)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (a *api) serveWS(w http.ResponseWriter, r *http.Request) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return
	}
	ServeWS(a.hm, gameId, w, r)
}

// currentGame returns the hub's view of a game.
func (a *api) currentGame(w http.ResponseWriter, r *http.Request) (*Game, bool) {
	gameId, ok := idParam(w, r, "gameId")
	if !ok {
		return nil, false
	}
	data, err := a.hm.Load(r.Context(), gameId)
	if err != nil {
		writeError(w, err, retryAfterLoad)
		return nil, false
	}
	var g Game
	if err := json.Unmarshal(data, &g); err != nil {
		writeError(w, err, "")
		return nil, false
	}
	g.Normalize()
	return &g, true
}

func (a *api) boxScore(w http.ResponseWriter, r *http.Request) {
	g, ok := a.currentGame(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"line":    scoring.NewLineScore(g),
		"visitor": scoring.NewBoxScore(g, scoring.Visitor),
		"home":    scoring.NewBoxScore(g, scoring.Home),
		"outs":    scoring.Outs(g, g.Current),
		"current": g.Current,
	})
}

func (a *api) boxScoreText(w http.ResponseWriter, r *http.Request) {
	g, ok := a.currentGame(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := WriteBoxScoreText(w, g); err != nil {
		log.Printf("Error writing box score for game %s: %v", g.ID, err)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *api) boxScoreXLSX(w http.ResponseWriter, r *http.Request) {
	g, ok := a.currentGame(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteBoxScoreXLSX(&buf, g); err != nil {
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"boxscore-%s.xlsx\"", g.ID))
	w.Write(buf.Bytes())
}

// statsInput loads the live games and the filter of the q parameter.
func (a *api) statsInput(r *http.Request) ([]*Game, scoring.Filter, error) {
	games, err := a.gs.ActiveGames()
	if err != nil {
		return nil, scoring.Filter{}, err
	}
	teams, err := a.ts.ActiveTeams()
	if err != nil {
		return nil, scoring.Filter{}, err
	}
	f, err := search.ToFilter(search.Parse(r.URL.Query().Get("q")), teamResolver(teams, games))
	return games, f, err
}

// teamResolver finds teams by id or case-insensitive name, in the stored
// rosters first and then in the roster copies held by games.
func teamResolver(teams []*Team, games []*Game) search.TeamResolver {
	ids := make(map[string]string)
	for _, g := range games {
		for _, t := range []scoring.Team{g.Teams.Visitor, g.Teams.Home} {
			ids[t.ID] = t.ID
			ids[strings.ToLower(t.Name)] = t.ID
		}
	}
	for _, t := range teams {
		ids[t.ID] = t.ID
		ids[strings.ToLower(t.Name)] = t.ID
	}
	return func(v string) (string, bool) {
		if id, ok := ids[v]; ok {
			return id, true
		}
		id, ok := ids[strings.ToLower(v)]
		return id, ok
	}
}

func sortParams(r *http.Request) (string, bool) {
	desc, _ := strconv.ParseBool(r.URL.Query().Get("desc"))
	return r.URL.Query().Get("sort"), desc
}

func (a *api) battingStats(w http.ResponseWriter, r *http.Request) {
	games, f, err := a.statsInput(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	rows := scoring.AggregateBatting(games, f)
	if rows == nil {
		rows = []scoring.BattingStats{}
	}
	if key, desc := sortParams(r); key != "" {
		if err := scoring.SortBatting(rows, key, desc); err != nil {
			writeError(w, err, "")
			return
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *api) pitchingStats(w http.ResponseWriter, r *http.Request) {
	games, f, err := a.statsInput(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	rows := scoring.AggregatePitching(games, f)
	if rows == nil {
		rows = []scoring.PitchingStats{}
	}
	if key, desc := sortParams(r); key != "" {
		if err := scoring.SortPitching(rows, key, desc); err != nil {
			writeError(w, err, "")
			return
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *api) statsXLSX(w http.ResponseWriter, r *http.Request) {
	games, f, err := a.statsInput(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	var buf bytes.Buffer
	if err := WriteStatsXLSX(&buf, scoring.AggregateBatting(games, f), scoring.AggregatePitching(games, f)); err != nil {
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"stats.xlsx\"")
	w.Write(buf.Bytes())
}

func (a *api) playerGames(w http.ResponseWriter, r *http.Request) ([]scoring.PlayerGame, bool) {
	playerId := chi.URLParam(r, "playerId")
	if playerId == "" || len(playerId) > 64 {
		http.Error(w, "Bad Request: playerId is missing or invalid", http.StatusBadRequest)
		return nil, false
	}
	games, f, err := a.statsInput(r)
	if err != nil {
		writeError(w, err, "")
		return nil, false
	}
	return scoring.PlayerLog(games, playerId, f), true
}

func (a *api) playerLog(w http.ResponseWriter, r *http.Request) {
	rows, ok := a.playerGames(w, r)
	if !ok {
		return
	}
	if rows == nil {
		rows = []scoring.PlayerGame{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (a *api) playerChart(w http.ResponseWriter, r *http.Request) {
	rows, ok := a.playerGames(w, r)
	if !ok {
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Batting average"
	}
	var buf bytes.Buffer
	if err := WriteAverageChart(&buf, clip(title, maxNameLen), rows); err != nil {
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

func (a *api) backup(w http.ResponseWriter, r *http.Request) {
	b, err := BuildBackup(a.gs, a.ts)
	if err != nil {
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\"scorebook-backup.json\"")
	writeJSON(w, http.StatusOK, b)
}

func (a *api) restore(w http.ResponseWriter, r *http.Request) {
	b, err := DecodeBackup(http.MaxBytesReader(w, r.Body, maxRestoreSize))
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := RestoreBackup(r.Context(), b, a.gs, a.ts, a.hm); err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"teams": len(b.Teams), "games": len(b.Games)})
}

func (a *api) exportRoster(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := WriteRosterCSV(&buf, a.ts); err != nil {
		writeError(w, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\"roster.csv\"")
	w.Write(buf.Bytes())
}

func (a *api) importRoster(w http.ResponseWriter, r *http.Request) {
	res, err := MergeRosterCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes), a.ts)
	if err != nil {
		writeError(w, err, "")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// cacheControlMiddleware keeps API responses out of shared caches.
func cacheControlMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "private, no-cache, no-transform")
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs the method and URL path of every incoming HTTP request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received request: %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
