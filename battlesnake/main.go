// Package main implements a Battlesnake API server backed by the alpha-beta
// decision engine.
//
// The server answers the four standard Battlesnake endpoints and can
// optionally record every decision it makes as parquet rows for later
// analysis with cmd/stats.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/danielmussell/ubiquitous-funicular/engine"
	"github.com/danielmussell/ubiquitous-funicular/game"
	"github.com/danielmussell/ubiquitous-funicular/logging"
	"github.com/danielmussell/ubiquitous-funicular/store"
)

// Battlesnake API request/response types

type BattlesnakeInfoResponse struct {
	APIVersion string `json:"apiversion"`
	Author     string `json:"author"`
	Color      string `json:"color"`
	Head       string `json:"head"`
	Tail       string `json:"tail"`
	Version    string `json:"version"`
}

type GameRequest struct {
	Game  Game        `json:"game"`
	Turn  int         `json:"turn"`
	Board Board       `json:"board"`
	You   Battlesnake `json:"you"`
}

type Game struct {
	ID      string  `json:"id"`
	Ruleset Ruleset `json:"ruleset"`
	Map     string  `json:"map"`
	Timeout int     `json:"timeout"`
	Source  string  `json:"source"`
}

type Ruleset struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Settings RulesetSettings `json:"settings"`
}

type RulesetSettings struct {
	FoodSpawnChance     int `json:"foodSpawnChance"`
	MinimumFood         int `json:"minimumFood"`
	HazardDamagePerTurn int `json:"hazardDamagePerTurn"`
}

type Board struct {
	Height  int           `json:"height"`
	Width   int           `json:"width"`
	Food    []Coord       `json:"food"`
	Hazards []Coord       `json:"hazards"`
	Snakes  []Battlesnake `json:"snakes"`
}

type Battlesnake struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Health         int     `json:"health"`
	Body           []Coord `json:"body"`
	Latency        string  `json:"latency"`
	Head           Coord   `json:"head"`
	Length         int     `json:"length"`
	Shout          string  `json:"shout"`
	Squad          string  `json:"squad"`
	Customizations struct {
		Color string `json:"color"`
		Head  string `json:"head"`
		Tail  string `json:"tail"`
	} `json:"customizations"`
}

type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type MoveResponse struct {
	Move  string `json:"move"`
	Shout string `json:"shout,omitempty"`
}

// Server wires the engine to the HTTP handlers. A non-nil writer records
// every /move decision.
type Server struct {
	engine *engine.Engine
	log    *slog.Logger

	mu     sync.Mutex
	writer *store.Writer
}

func NewServer(e *engine.Engine, log *slog.Logger, writer *store.Writer) *Server {
	return &Server{engine: e, log: log, writer: writer}
}

// handleIndex returns the Battlesnake info
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	response := BattlesnakeInfoResponse{
		APIVersion: "1",
		Author:     "danielmussell",
		Color:      "#3b5b92",
		Head:       "default",
		Tail:       "default",
		Version:    "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleStart is called when a game starts
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.log.Info("game started",
		slog.String("game_id", req.Game.ID),
		slog.String("you", req.You.Name),
		slog.Int("snakes", len(req.Board.Snakes)))
	w.WriteHeader(http.StatusOK)
}

// handleMove runs the search and answers with the chosen direction.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	state := convertToGameState(&req)
	decision, err := s.engine.Decide(state)
	if err != nil {
		// Malformed or unsupported snapshots are the caller's problem.
		s.log.Warn("rejected snapshot",
			slog.String("game_id", req.Game.ID),
			slog.Int("turn", req.Turn),
			slog.String("error", err.Error()))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	elapsed := time.Since(start)
	s.log.Info("move",
		slog.String("game_id", req.Game.ID),
		slog.Int("turn", req.Turn),
		slog.String("move", game.MoveName(decision.Move)),
		slog.Int("score", int(decision.Score)),
		slog.Int("territory", int(decision.Territory[0])),
		slog.Duration("elapsed", elapsed))

	s.record(&req, decision, elapsed)

	response := MoveResponse{Move: game.MoveName(decision.Move)}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleEnd is called when a game ends
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	youAlive := false
	for _, snake := range req.Board.Snakes {
		if snake.ID == req.You.ID {
			youAlive = true
			break
		}
	}

	result := "lost"
	if youAlive {
		result = "won"
	} else if len(req.Board.Snakes) == 0 {
		result = "draw"
	}

	s.log.Info("game ended",
		slog.String("game_id", req.Game.ID),
		slog.Int("turn", req.Turn),
		slog.String("result", result))

	s.mu.Lock()
	writer := s.writer
	s.mu.Unlock()
	if writer != nil {
		writer.NoteGameWritten()
	}

	w.WriteHeader(http.StatusOK)
}

// record appends one decision row to the parquet batch, if recording is on.
func (s *Server) record(req *GameRequest, d engine.Decision, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return
	}

	rivals := int32(0)
	for i := 1; i < d.Snakes; i++ {
		rivals += d.Territory[i]
	}
	row := store.DecisionRow{
		GameID:          req.Game.ID,
		Turn:            int32(req.Turn),
		Snakes:          int32(len(req.Board.Snakes)),
		Health:          int32(req.You.Health),
		Move:            int32(d.Move),
		Score:           d.Score,
		ScoreUp:         d.Scores[game.MoveUp],
		ScoreDown:       d.Scores[game.MoveDown],
		ScoreLeft:       d.Scores[game.MoveLeft],
		ScoreRight:      d.Scores[game.MoveRight],
		TerritoryEgo:    d.Territory[0],
		TerritoryRivals: rivals,
		PlayedMove:      int32(d.Move),
		ElapsedUs:       elapsed.Microseconds(),
		Source:          "live",
	}
	if err := s.writer.WriteRows([]store.DecisionRow{row}); err != nil {
		s.log.Warn("record decision", slog.String("error", err.Error()))
	}
}

// convertToGameState converts a Battlesnake API request to our game state
func convertToGameState(req *GameRequest) *game.GameState {
	state := &game.GameState{
		Width:  int32(req.Board.Width),
		Height: int32(req.Board.Height),
		YouId:  req.You.ID,
		Turn:   int32(req.Turn),
	}

	state.Food = make([]game.Point, len(req.Board.Food))
	for i, f := range req.Board.Food {
		state.Food[i] = game.Point{X: int32(f.X), Y: int32(f.Y)}
	}

	state.Snakes = make([]game.Snake, len(req.Board.Snakes))
	for i, s := range req.Board.Snakes {
		snake := game.Snake{
			Id:     s.ID,
			Health: int32(s.Health),
			Body:   make([]game.Point, len(s.Body)),
		}
		for j, b := range s.Body {
			snake.Body[j] = game.Point{X: int32(b.X), Y: int32(b.Y)}
		}
		state.Snakes[i] = snake
	}

	return state
}

// parseTieBreak maps the flag value onto the engine's territory modes.
func parseTieBreak(s string) (engine.TieBreak, error) {
	switch s {
	case "neutral":
		return engine.TieBreakNeutral, nil
	case "scan":
		return engine.TieBreakScanOrder, nil
	default:
		return engine.TieBreakNeutral, fmt.Errorf("unknown tie-break %q (want neutral or scan)", s)
	}
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", ":8080", "HTTP listen address")
	depth := fs.Int("depth", engine.DefaultConfig().Depth, "Search depth in plies")
	healthBuffer := fs.Int("health-buffer", int(engine.DefaultConfig().HealthBuffer), "Health at or below this counts as starved")
	tieBreak := fs.String("tie-break", "neutral", "Territory tie-break: neutral or scan")
	recordDir := fs.String("record-dir", "", "Directory for parquet decision records (empty disables recording)")
	debug := fs.Bool("debug", false, "Enable debug logging")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := logging.New(os.Stdout, level)

	tb, err := parseTieBreak(*tieBreak)
	if err != nil {
		log.Error("bad flag", slog.String("error", err.Error()))
		os.Exit(2)
	}
	cfg := engine.Config{
		Depth:        *depth,
		HealthBuffer: int32(*healthBuffer),
		TieBreak:     tb,
	}

	var writer *store.Writer
	if *recordDir != "" {
		writer, err = store.NewWriter(*recordDir)
		if err != nil {
			log.Error("open decision store", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	e := engine.New(cfg)
	srv := NewServer(e, log, writer)

	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleIndex)
	mux.HandleFunc("/start", srv.handleStart)
	mux.HandleFunc("/move", srv.handleMove)
	mux.HandleFunc("/end", srv.handleEnd)

	httpSrv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("battlesnake server listening", slog.String("addr", *listen))
	serveErr := serve(ctx, httpSrv)
	if serveErr != nil {
		log.Error("server stopped", slog.String("error", serveErr.Error()))
	}

	// Finalize before exiting, on the failure path too, so recorded rows
	// are never stranded in tmp/.
	if writer != nil {
		path, rows, err := writer.Finalize()
		if err != nil {
			log.Error("finalize decision store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if path != "" {
			log.Info("decisions written", slog.String("path", path), slog.Int("rows", rows))
		}
	}
	if serveErr != nil {
		os.Exit(1)
	}
}

// serve runs the server until it fails or the context asks for shutdown.
// A clean shutdown returns nil.
func serve(ctx context.Context, httpSrv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
