// Package api provides the HTTP editing API over a single editor session.
// GET endpoints are read-only. POST endpoints edit the session and require
// a bearer token when an admin key is configured.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/talgya/hexton/internal/catalog"
	"github.com/talgya/hexton/internal/editor"
	"github.com/talgya/hexton/internal/mapio"
	"github.com/talgya/hexton/internal/persistence"
	"github.com/talgya/hexton/internal/preview"
	"github.com/talgya/hexton/internal/scene"
	"github.com/talgya/hexton/internal/world"
)

// Default viewport the picking camera starts with.
const (
	DefaultViewWidth  = 800
	DefaultViewHeight = 600
)

// Server serves one editing session over HTTP. Every handler runs under mu,
// so the session, camera and picker see one request at a time.
type Server struct {
	DB       *persistence.DB // optional map library; nil disables snapshots
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST open.
	Preview  preview.Options

	mu      sync.Mutex
	session *editor.Session
	cam     *scene.Camera
	picker  *scene.Picker
	started time.Time
}

// NewServer returns a server editing sess.
func NewServer(sess *editor.Session) *Server {
	cam := scene.NewCamera(DefaultViewWidth, DefaultViewHeight)
	return &Server{
		Port:    8080,
		Preview: preview.DefaultOptions(),
		session: sess,
		cam:     cam,
		picker:  scene.NewPicker(cam, world.NewCoordinateSystem()),
		started: time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	previewLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()

	// Read-only endpoints.
	mux.HandleFunc("/api/v1/status", s.locked(s.handleStatus))
	mux.HandleFunc("/api/v1/map", s.locked(s.handleMapRoutes))
	mux.HandleFunc("/api/v1/map/", s.locked(s.handleMapRoutes))
	mux.HandleFunc("/api/v1/bom", s.locked(s.handleBOM))
	mux.HandleFunc("/api/v1/catalog", s.locked(s.handleCatalog))
	mux.HandleFunc("/api/v1/pick", s.locked(s.handlePick))
	mux.HandleFunc("/api/v1/view", s.locked(s.handleView))
	mux.HandleFunc("/api/v1/library", s.locked(s.handleLibrary))
	mux.HandleFunc("/api/v1/preview.png", RateLimitMiddleware(previewLimiter, s.locked(s.handlePreview)))

	// Editing endpoints (POST).
	mux.HandleFunc("/api/v1/action", s.adminOnly(s.locked(s.handleAction)))
	mux.HandleFunc("/api/v1/active", s.adminOnly(s.locked(s.handleActive)))
	mux.HandleFunc("/api/v1/camera", s.adminOnly(s.locked(s.handleCamera)))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.locked(s.handleSnapshot)))
	mux.HandleFunc("/api/v1/restore", s.adminOnly(s.locked(s.handleRestore)))

	return corsMiddleware(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.listenAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "library", s.DB != nil)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("HTTP API shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// listenAddr binds all interfaces only when POST is guarded by an admin key.
func (s *Server) listenAddr() string {
	if s.AdminKey == "" {
		return fmt.Sprintf("127.0.0.1:%d", s.Port)
	}
	return fmt.Sprintf(":%d", s.Port)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) locked(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next(w, r)
	}
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests
// when an admin key is set. GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess := s.session
	writeJSON(w, map[string]any{
		"name":      "hexton",
		"session":   sess.ID.String(),
		"tiles":     sess.Map().Len(),
		"active":    sess.ActiveName(),
		"highlight": sess.Highlighted(),
		"path":      sess.Path(),
		"started":   humanize.Time(s.started),
		"library":   s.DB != nil,
	})
}

type tileEntry struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Z    int    `json:"z"`
	ID   uint   `json:"tile_id"`
	Name string `json:"tile"`
}

func (s *Server) tileEntry(t world.Tile) tileEntry {
	return tileEntry{X: t.X, Y: t.Y, Z: t.Z, ID: t.TileID, Name: s.session.Catalog().Name(t.TileID)}
}

// handleMapRoutes dispatches between the whole map (GET/POST /api/v1/map)
// and a single cell (GET /api/v1/map/:x/:y).
func (s *Server) handleMapRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/map")
	if path == "" || path == "/" {
		switch r.Method {
		case http.MethodGet:
			s.handleBulkMap(w, r)
		case http.MethodPost:
			s.adminOnly(s.handleUpload)(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}
	s.handleCellDetail(w, r, strings.Trim(path, "/"))
}

// handleBulkMap returns every tile in file order, or the map file itself
// with ?format=text.
func (s *Server) handleBulkMap(w http.ResponseWriter, r *http.Request) {
	m := s.session.Map()

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.session.Export(w); err != nil {
			slog.Error("map export failed", "error", err)
		}
		return
	}

	tiles := m.Tiles()
	entries := make([]tileEntry, 0, len(tiles))
	for _, t := range tiles {
		entries = append(entries, s.tileEntry(t))
	}

	resp := map[string]any{"tiles": entries}
	if lo, hi, ok := m.Bounds(); ok {
		resp["bounds"] = map[string]any{
			"min": map[string]int{"x": lo.X, "y": lo.Y},
			"max": map[string]int{"x": hi.X, "y": hi.Y},
		}
	}
	writeJSON(w, resp)
}

// handleUpload replaces the session map with a map file sent as the body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Load(http.MaxBytesReader(w, r.Body, 8<<20)); err != nil {
		http.Error(w, err.Error(), loadStatus(err))
		return
	}
	slog.Info("map uploaded", "tiles", s.session.Map().Len())
	writeJSON(w, map[string]any{"tiles": s.session.Map().Len()})
}

func (s *Server) handleCellDetail(w http.ResponseWriter, r *http.Request, rest string) {
	xs, ys, ok := strings.Cut(rest, "/")
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	if !ok || errX != nil || errY != nil {
		http.Error(w, "expected /api/v1/map/:x/:y", http.StatusBadRequest)
		return
	}
	t, found := s.session.Map().Tile(x, y)
	if !found {
		http.Error(w, "no tile at cell", http.StatusNotFound)
		return
	}
	writeJSON(w, s.tileEntry(t))
}

func (s *Server) handleBOM(w http.ResponseWriter, r *http.Request) {
	entries := s.session.BOM()
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, map[string]any{
			"entries": entries,
			"total":   mapio.TotalTiles(entries),
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := mapio.WriteBOM(w, entries); err != nil {
		slog.Error("bom write failed", "error", err)
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	type codeEntry struct {
		Code     string        `json:"code"`
		Category string        `json:"category"`
		Color    catalog.Color `json:"color"`
	}

	cat := s.session.Catalog()
	codes := cat.Codes()
	entries := make([]codeEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, codeEntry{
			Code:     code,
			Category: catalog.CategoryName(code[:2]),
			Color:    catalog.CategoryColor(code[:2]),
		})
	}

	resp := map[string]any{"tiles": cat.Len(), "codes": entries}
	if r.URL.Query().Get("full") != "" {
		resp["names"] = cat.Names()
	}
	writeJSON(w, resp)
}

func parsePixel(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	px, err := strconv.ParseFloat(q.Get("px"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("px: %w", err)
	}
	py, err := strconv.ParseFloat(q.Get("py"), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("py: %w", err)
	}
	return px, py, nil
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	px, py, err := parsePixel(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pos, hit := s.picker.WorldAt(px, py)
	if !hit {
		writeJSON(w, map[string]any{"hit": false})
		return
	}
	cell, _ := s.picker.HexAt(px, py)

	resp := map[string]any{
		"hit":   true,
		"world": toVec3(pos),
		"cell":  cell,
		"valid": cell.Valid(),
	}
	if id := s.session.Map().TileID(cell.X, cell.Y); id >= 0 {
		resp["tile"] = s.session.Catalog().Name(uint(id))
	}
	writeJSON(w, resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"position": toVec3(s.cam.Position),
		"look_at":  toVec3(s.cam.LookAt),
		"width":    s.cam.Width,
		"height":   s.cam.Height,
	}
	if tl, br, ok := s.picker.VisibleRange(); ok {
		resp["visible"] = map[string]any{"top_left": tl, "bottom_right": br}
	}
	writeJSON(w, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	opts := s.Preview
	if r.URL.Query().Get("labels") == "0" {
		opts.Labels = false
	}
	var buf bytes.Buffer
	err := preview.Render(&buf, s.session.Map(), s.session.Catalog(), opts)
	if errors.Is(err, preview.ErrEmptyMap) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("preview failed", "error", err)
		http.Error(w, "preview failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

type actionRequest struct {
	Action string   `json:"action"`
	X      *int     `json:"x,omitempty"`
	Y      *int     `json:"y,omitempty"`
	Z      *int     `json:"z,omitempty"`
	PX     *float64 `json:"px,omitempty"`
	PY     *float64 `json:"py,omitempty"`
}

// target resolves the cell an action applies to: explicit cube
// coordinates, a pixel to pick, or the current highlight.
func (s *Server) target(req actionRequest) (world.HexCoord, error) {
	switch {
	case req.X != nil && req.Y != nil:
		c := world.NewHexCoord(*req.X, *req.Y)
		if req.Z != nil {
			c.Z = *req.Z
		}
		return c, nil
	case req.PX != nil && req.PY != nil:
		c, ok := s.picker.HexAt(*req.PX, *req.PY)
		if !ok {
			return c, errors.New("cursor ray does not reach the board")
		}
		return c, nil
	default:
		return s.session.Highlighted(), nil
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "place", "remove", "rotate", "substitute", "highlight":
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}

	cell, err := s.target(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.session.Highlight(cell)

	switch req.Action {
	case "place":
		err = s.session.PlaceActive()
	case "remove":
		s.session.Remove()
	case "rotate":
		err = s.session.Rotate()
	case "substitute":
		err = s.session.SubstituteActive()
	}
	if err != nil {
		http.Error(w, err.Error(), editStatus(err))
		return
	}

	resp := map[string]any{"action": req.Action, "cell": cell}
	if t, ok := s.session.Map().Tile(cell.X, cell.Y); ok {
		resp["tile"] = s.tileEntry(t)
	}
	writeJSON(w, resp)
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, map[string]any{"active": s.session.ActiveName()})
	case http.MethodPost:
		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if err := s.session.SetActive(req.Code); err != nil {
			http.Error(w, err.Error(), editStatus(err))
			return
		}
		writeJSON(w, map[string]any{"active": s.session.ActiveName()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Op     string  `json:"op"`
		Width  int     `json:"width"`
		Height int     `json:"height"`
		Delta  float64 `json:"delta"`
		DX     float64 `json:"dx"`
		DY     float64 `json:"dy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	switch req.Op {
	case "resize":
		if req.Width <= 0 || req.Height <= 0 {
			http.Error(w, "width and height must be positive", http.StatusBadRequest)
			return
		}
		s.cam.Resize(req.Width, req.Height)
	case "zoom":
		s.cam.Zoom(req.Delta)
	case "pan":
		s.cam.Pan(req.DX, req.DY)
	case "center":
		s.cam.Center()
	default:
		http.Error(w, fmt.Sprintf("unknown camera op %q", req.Op), http.StatusBadRequest)
		return
	}
	s.handleView(w, r)
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "map library not available", http.StatusServiceUnavailable)
		return
	}
	maps, err := s.DB.ListMaps()
	if err != nil {
		slog.Error("list maps failed", "error", err)
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}

	type libEntry struct {
		persistence.MapInfo
		Saved string `json:"saved"`
	}
	entries := make([]libEntry, 0, len(maps))
	for _, m := range maps {
		entries = append(entries, libEntry{MapInfo: m, Saved: humanize.Time(m.SavedAt())})
	}
	writeJSON(w, map[string]any{"maps": entries})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "map library not available", http.StatusServiceUnavailable)
		return
	}
	name, ok := decodeName(w, r)
	if !ok {
		return
	}

	id, err := s.DB.SaveMap(name, s.session.Map(), s.session.Catalog())
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}
	if err := s.DB.SaveMeta("last_map", name); err != nil {
		slog.Warn("save meta failed", "error", err)
	}

	writeJSON(w, map[string]any{
		"id":      id,
		"name":    name,
		"tiles":   s.session.Map().Len(),
		"message": "snapshot saved",
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "map library not available", http.StatusServiceUnavailable)
		return
	}
	name, ok := decodeName(w, r)
	if !ok {
		return
	}

	m, err := s.DB.LoadMap(name, s.session.Catalog())
	if err != nil {
		http.Error(w, err.Error(), loadStatus(err))
		return
	}
	s.session.Replace(m)
	slog.Info("map restored", "name", name, "tiles", m.Len())
	writeJSON(w, map[string]any{"name": name, "tiles": m.Len()})
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return "", false
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return "", false
	}
	return req.Name, true
}

// editStatus maps edit errors to HTTP status codes.
func editStatus(err error) int {
	switch {
	case errors.Is(err, editor.ErrNoActiveTile):
		return http.StatusConflict
	case errors.Is(err, editor.ErrInvalidCell), errors.Is(err, catalog.ErrNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// loadStatus maps map load errors to HTTP status codes.
func loadStatus(err error) int {
	switch {
	case errors.Is(err, persistence.ErrMapNotFound):
		return http.StatusNotFound
	case errors.Is(err, mapio.ErrMalformedRecord), errors.Is(err, catalog.ErrNotFound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// vec3 is the JSON form of a board point.
type vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func toVec3(v mgl64.Vec3) vec3 { return vec3{v[0], v[1], v[2]} }
