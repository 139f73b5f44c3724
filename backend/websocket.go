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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ttbt-io/scorebook/backend/scoring"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// threeOutsDelay lets clients render the third out before the notice.
	threeOutsDelay = 600 * time.Millisecond

	// hubIdleTimeout is how long a hub without clients or requests stays
	// alive.
	hubIdleTimeout = 5 * time.Minute

	// hubFlushInterval is how often a hub writes its unsaved game to disk.
	hubFlushInterval = time.Second

	// recentActionIDs bounds the duplicate action check.
	recentActionIDs = 100
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

// Message types for WebSocket communication
const (
	MsgTypeJoin      = "JOIN"
	MsgTypeAck       = "ACK"
	MsgTypeAction    = "ACTION"
	MsgTypeState     = "STATE"
	MsgTypeThreeOuts = "THREE_OUTS"
	MsgTypeError     = "ERROR"
	MsgTypePing      = "PING"
	MsgTypePong      = "PONG"
)

// Message represents a WebSocket message
type Message struct {
	Type      string             `json:"type"`
	GameId    string             `json:"gameId,omitempty"`
	Actions   []BaseAction       `json:"actions,omitempty"`
	Results   []any              `json:"results,omitempty"`
	Game      *Game              `json:"game,omitempty"`
	Outs      *int               `json:"outs,omitempty"`
	ThreeOuts *scoring.ThreeOuts `json:"threeOuts,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// HubRequest types
const (
	ReqTypeWSJoin     = "WS_JOIN"
	ReqTypeLoad       = "LOAD"
	ReqTypeAction     = "ACTION"
	ReqTypeReload     = "RELOAD"
	ReqTypeThreeOuts  = "THREE_OUTS"
	ReqTypeWSActionIn = "WS_ACTION"
)

// HubRequest represents a request to the Hub
type HubRequest struct {
	Type    string
	Client  *wsClient
	Actions []BaseAction
	Notice  scoring.ThreeOuts
	Reply   chan HubResponse
}

// HubResponse represents a response from the Hub
type HubResponse struct {
	Data    []byte
	Results []any
	Error   error
}

// Hub is the single owner of one game's in-memory state. Every mutation
// goes through its requests channel. A new state reaches the store's cache
// before the reply and the disk on the next flush tick.
type Hub struct {
	gameId string

	// Registered clients.
	clients map[*wsClient]bool

	// Inbound requests
	requests chan HubRequest

	// Register requests from the clients.
	register chan *wsClient

	// Unregister requests from clients.
	unregister chan *wsClient

	// In-memory state
	game   *Game
	recent []string

	// unsaved is set while the game is only in the store's cache.
	unsaved    bool
	saveFailed bool
	lastActive time.Time

	// done is closed when run returns.
	done chan struct{}

	hm *HubManager
}

func newHub(id string, hm *HubManager) *Hub {
	return &Hub{
		gameId:     id,
		requests:   make(chan HubRequest, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		clients:    make(map[*wsClient]bool),
		done:       make(chan struct{}),
		hm:         hm,
	}
}

func (h *Hub) run() {
	defer close(h.done)
	ticker := time.NewTicker(h.hm.flushInterval)
	defer ticker.Stop()
	h.lastActive = time.Now()

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.hm.metrics.WSClients.Inc()
			h.lastActive = time.Now()
		case client := <-h.unregister:
			h.dropClient(client)
			h.lastActive = time.Now()
		case req := <-h.requests:
			h.handle(req)
			h.lastActive = time.Now()
		case <-ticker.C:
			if h.unsaved {
				h.flush()
			}
			if h.idle() && h.hm.removeHub(h) {
				// Serve what was queued before the hub left the manager.
				for {
					select {
					case req := <-h.requests:
						h.handle(req)
					default:
						if h.unsaved {
							h.flush()
						}
						return
					}
				}
			}
		}
	}
}

// idle reports whether the hub may stop: no clients, nothing left to write
// and no activity for the idle timeout.
func (h *Hub) idle() bool {
	return len(h.clients) == 0 && !h.unsaved && time.Since(h.lastActive) >= h.hm.idleTimeout
}

// flush writes the game to disk. A failure is reported to clients once and
// retried on the next tick; the in-memory state stays authoritative.
func (h *Hub) flush() {
	if err := h.hm.gs.Flush(h.gameId); err != nil {
		h.hm.metrics.SaveFailures.Inc()
		if !h.saveFailed {
			log.Printf("Error: failed to save game %s: %v", h.gameId, err)
			h.broadcast(Message{Type: MsgTypeError, GameId: h.gameId, Error: "Server error saving game; changes are kept in memory"})
		}
		h.saveFailed = true
		return
	}
	if h.saveFailed {
		log.Printf("Game %s saved after earlier failures", h.gameId)
	}
	h.unsaved = false
	h.saveFailed = false
}

func (h *Hub) dropClient(c *wsClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		h.hm.metrics.WSClients.Dec()
	}
}

func (h *Hub) handle(req HubRequest) {
	if req.Type == ReqTypeReload {
		h.game = nil
		h.recent = nil
		h.unsaved = false
		h.saveFailed = false
		if err := h.ensureLoaded(); err == nil {
			h.broadcastState()
		} else {
			h.broadcast(Message{Type: MsgTypeError, GameId: h.gameId, Error: "game is no longer available"})
		}
		reply(req, HubResponse{})
		return
	}
	if err := h.ensureLoaded(); err != nil {
		if req.Client != nil {
			req.Client.sendJSON(Message{Type: MsgTypeError, GameId: h.gameId, Error: "Server error loading game"})
		}
		reply(req, HubResponse{Error: err})
		return
	}

	switch req.Type {
	case ReqTypeWSJoin:
		if req.Client != nil && h.clients[req.Client] {
			req.Client.sendJSON(h.stateMessage())
		}
	case ReqTypeLoad:
		data, err := json.Marshal(h.game)
		reply(req, HubResponse{Data: data, Error: err})
	case ReqTypeAction, ReqTypeWSActionIn:
		results, err := h.applyActions(req.Actions)
		if req.Client != nil {
			if err != nil {
				req.Client.sendJSON(Message{Type: MsgTypeError, GameId: h.gameId, Error: err.Error()})
			} else {
				req.Client.sendJSON(Message{Type: MsgTypeAck, GameId: h.gameId, Results: results})
			}
		}
		reply(req, HubResponse{Results: results, Error: err})
	case MsgTypePing:
		if req.Client != nil {
			req.Client.sendJSON(Message{Type: MsgTypePong, GameId: h.gameId})
		}
	case MsgTypeError:
		if req.Client != nil {
			req.Client.sendJSON(Message{Type: MsgTypeError, GameId: h.gameId, Error: "unknown message type"})
		}
	case ReqTypeThreeOuts:
		h.hm.metrics.ThreeOuts.Inc()
		notice := req.Notice
		h.broadcast(Message{Type: MsgTypeThreeOuts, GameId: h.gameId, ThreeOuts: &notice})
	}
}

func reply(req HubRequest, resp HubResponse) {
	if req.Reply != nil {
		req.Reply <- resp
	}
}

func (h *Hub) ensureLoaded() error {
	if h.game != nil {
		return nil
	}
	g, err := h.hm.gs.LoadGame(h.gameId)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Hub: Error loading game %s: %v", h.gameId, err)
		}
		return err
	}
	if g.DeletedAt != 0 {
		return os.ErrNotExist
	}
	h.game = g
	h.unsaved = h.hm.gs.IsDirty(h.gameId)
	return nil
}

func (h *Hub) seen(id string) bool {
	return id != "" && slices.Contains(h.recent, id)
}

func (h *Hub) remember(id string) {
	if id == "" {
		return
	}
	h.recent = append(h.recent, id)
	if len(h.recent) > recentActionIDs {
		h.recent = h.recent[len(h.recent)-recentActionIDs:]
	}
}

// applyActions applies a batch to a copy of the game. A failing action
// discards the whole batch. Once applied, the game goes to the store's
// cache and is written by the next flush.
func (h *Hub) applyActions(actions []BaseAction) ([]any, error) {
	start := time.Now()
	defer h.hm.metrics.observeBatch(start)

	if err := ValidateActions(actions); err != nil {
		return nil, err
	}

	var clone Game
	gameBytes, err := json.Marshal(h.game)
	if err != nil {
		return nil, fmt.Errorf("clone game: %w", err)
	}
	if err := json.Unmarshal(gameBytes, &clone); err != nil {
		return nil, fmt.Errorf("clone game: %w", err)
	}
	ledger := scoring.NewLedger(&clone)
	var notices []scoring.ThreeOuts
	ledger.OnThreeOuts(func(n scoring.ThreeOuts) { notices = append(notices, n) })

	results := make([]any, 0, len(actions))
	changed := false
	for i, a := range actions {
		if h.seen(a.ID) {
			h.hm.debugf("game %s: duplicate action %s ignored", h.gameId, a.ID)
			results = append(results, nil)
			continue
		}
		res, err := ApplyAction(ledger, a)
		if err != nil {
			h.hm.metrics.ActionsFailed.WithLabelValues(a.Type).Inc()
			return nil, fmt.Errorf("action %d (%s): %w", i, a.Type, err)
		}
		results = append(results, res)
		changed = true
	}
	if !changed {
		return results, nil
	}

	clone.UpdatedAt = time.Now().UnixMilli()
	h.game = &clone
	for _, a := range actions {
		h.remember(a.ID)
		h.hm.metrics.ActionsApplied.WithLabelValues(a.Type).Inc()
	}

	if err := h.hm.gs.SaveGameInMemory(h.game, false); err != nil {
		log.Printf("Error: failed to cache game %s: %v", h.gameId, err)
		h.hm.metrics.SaveFailures.Inc()
		h.broadcast(Message{Type: MsgTypeError, GameId: h.gameId, Error: "Server error saving game; changes are kept in memory"})
	} else {
		h.unsaved = true
	}
	h.broadcastState()

	for _, n := range notices {
		h.scheduleThreeOuts(n)
	}
	return results, nil
}

func (h *Hub) scheduleThreeOuts(n scoring.ThreeOuts) {
	time.AfterFunc(h.hm.threeOutsDelay, func() {
		select {
		case h.requests <- HubRequest{Type: ReqTypeThreeOuts, Notice: n}:
		default:
			log.Printf("Warning: Hub channel full, dropping three-outs notice for game %s", h.gameId)
		}
	})
}

func (h *Hub) stateMessage() Message {
	outs := scoring.Outs(h.game, h.game.Current)
	return Message{Type: MsgTypeState, GameId: h.gameId, Game: h.game, Outs: &outs}
}

func (h *Hub) broadcastState() {
	if len(h.clients) == 0 {
		return
	}
	h.broadcast(h.stateMessage())
}

func (h *Hub) broadcast(msg Message) {
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			h.dropClient(client)
		}
	}
}

// HubManager manages the hubs of the games being scored.
type HubManager struct {
	hubs map[string]*Hub
	mu   sync.Mutex

	gs             *GameStore
	metrics        *Metrics
	debugf         func(string, ...any)
	threeOutsDelay time.Duration
	idleTimeout    time.Duration
	flushInterval  time.Duration
}

// NewHubManager creates a HubManager. metrics may be nil.
func NewHubManager(gs *GameStore, metrics *Metrics, debugf func(string, ...any)) *HubManager {
	hm := &HubManager{
		hubs:           make(map[string]*Hub),
		gs:             gs,
		debugf:         debugf,
		threeOutsDelay: threeOutsDelay,
		idleTimeout:    hubIdleTimeout,
		flushInterval:  hubFlushInterval,
	}
	if metrics == nil {
		metrics = NewMetrics(hm.ActiveHubs)
	}
	hm.metrics = metrics
	if hm.debugf == nil {
		hm.debugf = func(string, ...any) {}
	}
	return hm
}

// GetHub returns the hub of gameId, starting it if needed.
func (hm *HubManager) GetHub(gameId string) *Hub {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hub, ok := hm.hubs[gameId]; ok {
		return hub
	}
	hub := newHub(gameId, hm)
	hm.hubs[gameId] = hub
	go hub.run()
	return hub
}

func (hm *HubManager) removeHub(h *Hub) bool {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if hm.hubs[h.gameId] != h {
		return true
	}
	if len(h.requests) > 0 {
		return false
	}
	delete(hm.hubs, h.gameId)
	return true
}

// ActiveHubs returns the number of running hubs.
func (hm *HubManager) ActiveHubs() int {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return len(hm.hubs)
}

// ErrHubBusy is returned when a hub cannot take more requests.
var ErrHubBusy = errors.New("hub is busy")

// Do sends req to the hub of gameId and waits for its reply. A request that
// reached a hub which stopped without serving it goes to the next hub.
func (hm *HubManager) Do(ctx context.Context, gameId string, req HubRequest) (HubResponse, error) {
	req.Reply = make(chan HubResponse, 1)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	for {
		hub := hm.GetHub(gameId)
		select {
		case hub.requests <- req:
		default:
			return HubResponse{}, ErrHubBusy
		}
		select {
		case resp := <-req.Reply:
			return resp, resp.Error
		case <-hub.done:
			select {
			case resp := <-req.Reply:
				return resp, resp.Error
			default:
			}
		case <-ctx.Done():
			return HubResponse{}, ctx.Err()
		}
	}
}

// register adds c to the hub of gameId, starting a new hub when the one
// found has just stopped.
func (hm *HubManager) register(gameId string, c *wsClient) *Hub {
	for {
		hub := hm.GetHub(gameId)
		select {
		case hub.register <- c:
			return hub
		case <-hub.done:
		}
	}
}

// Apply runs actions against a game through its hub.
func (hm *HubManager) Apply(ctx context.Context, gameId string, actions []BaseAction) ([]any, error) {
	resp, err := hm.Do(ctx, gameId, HubRequest{Type: ReqTypeAction, Actions: actions})
	return resp.Results, err
}

// Load returns the hub's current view of a game as JSON.
func (hm *HubManager) Load(ctx context.Context, gameId string) ([]byte, error) {
	resp, err := hm.Do(ctx, gameId, HubRequest{Type: ReqTypeLoad})
	return resp.Data, err
}

// Reload makes a running hub drop its state and read the store again.
// It is used after the store was changed behind the hub's back.
func (hm *HubManager) Reload(ctx context.Context, gameId string) {
	hm.mu.Lock()
	_, ok := hm.hubs[gameId]
	hm.mu.Unlock()
	if !ok {
		return
	}
	if _, err := hm.Do(ctx, gameId, HubRequest{Type: ReqTypeReload}); err != nil {
		log.Printf("Warning: reload of game %s: %v", gameId, err)
	}
}

// wsClient is a middleman between the websocket connection and the hub.
type wsClient struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan Message
}

// readPump pumps messages from the websocket connection to the hub.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error: %v", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypeJoin:
			c.hub.requests <- HubRequest{Type: ReqTypeWSJoin, Client: c}
		case MsgTypeAction:
			c.hub.requests <- HubRequest{Type: ReqTypeWSActionIn, Client: c, Actions: msg.Actions}
		case MsgTypePing:
			c.hub.requests <- HubRequest{Type: MsgTypePing, Client: c}
		default:
			log.Printf("Unknown message type: %s", msg.Type)
			c.hub.requests <- HubRequest{Type: MsgTypeError, Client: c}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendJSON is only called from the hub goroutine.
func (c *wsClient) sendJSON(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// ServeWS upgrades the request and subscribes the connection to the game.
// The client receives the current state right away.
func ServeWS(hm *HubManager, gameId string, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan Message, 256)}
	client.hub = hm.register(gameId, client)
	client.hub.requests <- HubRequest{Type: ReqTypeWSJoin, Client: client}

	go client.writePump()
	go client.readPump()
}
