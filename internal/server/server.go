// Package server wires the protocol engine together: it accepts
// connections, decodes frames, dispatches commands, and owns the
// server-wide registries the handlers mutate.
package server

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"
	"gopkg.in/yaml.v3"

	"github.com/louisbranch/gavel/internal/area"
	"github.com/louisbranch/gavel/internal/ban"
	"github.com/louisbranch/gavel/internal/config"
	"github.com/louisbranch/gavel/internal/gamelog"
	"github.com/louisbranch/gavel/internal/poll"
	"github.com/louisbranch/gavel/internal/protocol"
	"github.com/louisbranch/gavel/internal/stats"
)

// software identifies the server implementation in the handshake.
const software = "gavel"

// version is the protocol-facing version string.
const version = "1.0.0"

// greetDelay is how long after accept the cipher magic is announced.
const greetDelay = 250 * time.Millisecond

// baseFeatures is the feature list every AO2 client is offered.
var baseFeatures = []string{
	"yellowtext", "customobjections", "flipping", "fastloading",
	"noencryption", "deskmod", "evidence",
}

// Server owns every shared registry and the listeners feeding them.
type Server struct {
	cfg    config.Config
	assets *config.Assets

	areas   *area.Manager
	clients *Registry
	polls   *poll.Registry
	bans    *ban.Store
	stats   *stats.Recorder
	logs    *gamelog.Logger

	dataMu sync.Mutex
	data   serverData

	// now is swapped in tests for deterministic cooldowns.
	now func() time.Time
}

// serverData is the small operator-set blob persisted across restarts.
type serverData struct {
	Update string `yaml:"update"`
	Thread string `yaml:"thread"`
}

// New assembles a server from its collaborators.
func New(cfg config.Config, assets *config.Assets, bans *ban.Store, recorder *stats.Recorder, logs *gamelog.Logger) *Server {
	defs := make([]area.Def, len(assets.Areas))
	for i, d := range assets.Areas {
		defs[i] = area.Def{
			Name:           d.Name,
			Background:     d.Background,
			BGLock:         d.BGLock,
			EvidenceMod:    d.EvidenceMod,
			LockingAllowed: d.LockingAllowed,
			IniswapAllowed: d.IniswapAllowed,
		}
	}

	s := &Server{
		cfg:     cfg,
		assets:  assets,
		areas:   area.NewManager(defs),
		clients: NewRegistry(),
		polls:   poll.NewRegistry(),
		bans:    bans,
		stats:   recorder,
		logs:    logs,
		now:     time.Now,
	}
	s.loadData()
	return s
}

// Features returns the feature list offered to version-negotiated clients.
func (s *Server) Features() []string {
	features := append([]string(nil), baseFeatures...)
	if s.cfg.ModcallReason {
		features = append(features, "modcall_reason")
	}
	return features
}

// ListenAndServe accepts TCP clients until the listener fails.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.logs.Server("listening on %s", s.cfg.Addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			return fmt.Errorf("accept: %w", err)
		}
		go s.HandleConn(conn)
	}
}

// ListenAndServeWebSocket bridges browser clients onto the same frame
// decoder over a WebSocket endpoint.
func (s *Server) ListenAndServeWebSocket() error {
	if s.cfg.WebSocketAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/", websocket.Handler(func(ws *websocket.Conn) {
		ws.PayloadType = websocket.TextFrame
		s.HandleConn(ws)
	}))
	s.logs.Server("websocket listening on %s", s.cfg.WebSocketAddr)
	return http.ListenAndServe(s.cfg.WebSocketAddr, mux)
}

// HandleConn runs one connection's read loop to completion.
func (s *Server) HandleConn(conn net.Conn) {
	ipid := DeriveIPID(addrHost(conn))

	if banned, err := s.bans.IsBanned(ipid); err == nil && banned {
		_ = conn.Close()
		return
	}
	if s.clients.Count() >= s.cfg.PlayerLimit {
		_ = conn.Close()
		return
	}

	c := s.clients.Add(s, conn, ipid)
	defer s.dropClient(c)

	c.ResetPingTimeout()
	c.mu.Lock()
	c.greetTimer = time.AfterFunc(greetDelay, func() {
		c.Send("decryptor", protocol.DecryptorMagic)
	})
	c.mu.Unlock()

	dec := &protocol.Decoder{Trace: func(raw string) {
		s.logs.Debug("[INC][RAW]%s", raw)
	}}

	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if err := dec.Feed(string(buf[:n])); err != nil {
			// Oversized buffer is the one fatal framing condition.
			s.logs.Debug("client %d: %v", c.ID, err)
			return
		}
		for {
			msg, ok := dec.Next()
			if !ok {
				break
			}
			s.dispatch(c, msg)
		}
	}
}

func (s *Server) dropClient(c *Client) {
	c.mu.Lock()
	if c.pingTimer != nil {
		c.pingTimer.Stop()
	}
	if c.greetTimer != nil {
		c.greetTimer.Stop()
	}
	wasCM := c.isCM
	a := c.area
	c.mu.Unlock()

	if wasCM && a != nil {
		a.SetOwned(false)
	}
	s.clients.Remove(c)
	_ = c.conn.Close()
	s.logs.Connect("disconnected. IPID: %s", c.ipid)
}

// SendAll sends a message to every session matching pred. A nil pred
// matches everyone.
func (s *Server) SendAll(pred func(*Client) bool, cmd string, args ...any) {
	for _, c := range s.clients.All() {
		if pred == nil || pred(c) {
			c.Send(cmd, args...)
		}
	}
}

// SendArea sends a message to every session in the room.
func (s *Server) SendArea(a *area.Area, cmd string, args ...any) {
	for _, c := range s.clients.InArea(a) {
		c.Send(cmd, args...)
	}
}

// SendAreaHostMessage sends a host notice to every session in the room.
func (s *Server) SendAreaHostMessage(a *area.Area, text string) {
	s.SendArea(a, "CT", s.cfg.Hostname, text)
}

// BroadcastEvidence re-sends the room's evidence list to each member with
// per-member redaction.
func (s *Server) BroadcastEvidence(a *area.Area) {
	for _, c := range s.clients.InArea(a) {
		c.SendEvidenceList()
	}
}

// BroadcastGlobal relays a global chat line to everyone who has not muted
// global chat. Moderator messages carry a mod tag.
func (s *Server) BroadcastGlobal(from *Client, text string, asMod bool) {
	name := fmt.Sprintf("%sG[%d][%s]", s.cfg.Hostname, from.Area().ID, from.Name())
	if asMod {
		name += "[M]"
	}
	s.SendAll(func(c *Client) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return !c.mutedGlobal
	}, "CT", name, text)
}

// BroadcastNeed relays a player advertisement to everyone accepting them.
func (s *Server) BroadcastNeed(from *Client, text string) {
	notice := fmt.Sprintf("=== Advert ===\r\n%s in %s needs %s\r\n==============",
		from.CharName(), from.Area().Name, text)
	s.SendAll(func(c *Client) bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return !c.mutedAdverts
	}, "CT", s.cfg.Hostname, notice)
}

// MusicList builds the bulk music listing: area names first, so clients
// can request a room switch through the music channel, then categories
// and songs.
func (s *Server) MusicList() []any {
	var list []any
	for _, a := range s.areas.Areas() {
		list = append(list, a.Name)
	}
	for _, cat := range s.assets.Music {
		list = append(list, cat.Name)
		for _, song := range cat.Songs {
			list = append(list, song.Name)
		}
	}
	return list
}

// charPageSize is the page length of the legacy paged character listing.
const charPageSize = 10

// CharPage returns one page of the legacy character listing, or false when
// the page is out of range.
func (s *Server) CharPage(page int) ([]any, bool) {
	start := page * charPageSize
	if page < 0 || start >= len(s.assets.Characters) {
		return nil, false
	}
	end := start + charPageSize
	if end > len(s.assets.Characters) {
		end = len(s.assets.Characters)
	}
	entries := make([]any, 0, end-start)
	for cid := start; cid < end; cid++ {
		entries = append(entries, fmt.Sprintf("%d#%s&&0&&&0&", cid, s.assets.Characters[cid]))
	}
	return entries, true
}

// MusicPageCount returns the page count of the legacy music listing.
func (s *Server) MusicPageCount() int {
	names := s.assets.SongNames()
	return (len(names) + charPageSize - 1) / charPageSize
}

// MusicPage returns one page of the legacy music listing.
func (s *Server) MusicPage(page int) ([]any, bool) {
	names := s.assets.SongNames()
	start := page * charPageSize
	if page < 0 || start >= len(names) {
		return nil, false
	}
	end := start + charPageSize
	if end > len(names) {
		end = len(names)
	}
	entries := make([]any, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, fmt.Sprintf("%d#%s", i, names[i]))
	}
	return entries, true
}

// ReloadAssets re-reads the character, music, and background listings from
// disk. Area definitions are left alone so live room state survives.
func (s *Server) ReloadAssets() error {
	assets, err := config.LoadAssets(s.cfg.AssetDir)
	if err != nil {
		return err
	}
	s.dataMu.Lock()
	s.assets.Characters = assets.Characters
	s.assets.Music = assets.Music
	s.assets.Backgrounds = assets.Backgrounds
	s.assets.Iniswaps = assets.Iniswaps
	s.assets.MOTD = assets.MOTD
	s.dataMu.Unlock()
	return nil
}

// Update returns the operator-set update note.
func (s *Server) Update() string {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.Update
}

// Thread returns the operator-set thread link.
func (s *Server) Thread() string {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.data.Thread
}

// SetUpdate persists the operator-set update note.
func (s *Server) SetUpdate(update string) {
	s.dataMu.Lock()
	s.data.Update = update
	s.dataMu.Unlock()
	s.saveData()
}

// SetThread persists the operator-set thread link.
func (s *Server) SetThread(thread string) {
	s.dataMu.Lock()
	s.data.Thread = thread
	s.dataMu.Unlock()
	s.saveData()
}

func (s *Server) dataPath() string {
	return filepath.Join(s.cfg.StorageDir, "data.yaml")
}

func (s *Server) loadData() {
	raw, err := os.ReadFile(s.dataPath())
	if err != nil {
		return
	}
	var data serverData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		s.logs.Server("server data unreadable: %v", err)
		return
	}
	s.data = data
}

func (s *Server) saveData() {
	s.dataMu.Lock()
	raw, err := yaml.Marshal(s.data)
	s.dataMu.Unlock()
	if err != nil {
		s.logs.Server("marshal server data: %v", err)
		return
	}
	if err := os.MkdirAll(s.cfg.StorageDir, 0o755); err != nil {
		s.logs.Server("save server data: %v", err)
		return
	}
	if err := os.WriteFile(s.dataPath(), raw, 0o644); err != nil {
		s.logs.Server("save server data: %v", err)
	}
}

// DeriveIPID maps a network address to a stable pseudonymous 12-digit id.
func DeriveIPID(host string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(host)))
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, big.NewInt(1_000_000_000_000))
	return fmt.Sprintf("%012d", n)
}
