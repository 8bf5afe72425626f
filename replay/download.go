package replay

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielmussell/ubiquitous-funicular/game"
)

// DownloadConfig controls the websocket frame download.
type DownloadConfig struct {
	// EngineURL is a format string taking the game ID.
	EngineURL      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

func DefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		EngineURL:      "wss://engine.battlesnake.com/games/%s/events",
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    30 * time.Second,
	}
}

// Game is a downloaded game: board geometry plus one Frame per turn.
type Game struct {
	ID      string
	Width   int32
	Height  int32
	Ruleset string
	Winner  string
	Frames  []Frame
}

// Frame is one turn of a downloaded game.
type Frame struct {
	Turn   int32
	Snakes []FrameSnake
	Food   []game.Point
}

type FrameSnake struct {
	ID     string
	Name   string
	Health int32
	Body   []game.Point
	Dead   bool
}

// State converts a frame into a snapshot from egoID's point of view. Dead
// snakes are dropped. Returns false if egoID is not alive in the frame.
func (g *Game) State(frame int, egoID string) (*game.GameState, bool) {
	f := &g.Frames[frame]

	state := &game.GameState{
		Width:  g.Width,
		Height: g.Height,
		Turn:   f.Turn,
		YouId:  egoID,
		Food:   append([]game.Point(nil), f.Food...),
	}

	egoAlive := false
	for i := range f.Snakes {
		s := &f.Snakes[i]
		if s.Dead || s.Health <= 0 || len(s.Body) == 0 {
			continue
		}
		if s.ID == egoID {
			egoAlive = true
		}
		state.Snakes = append(state.Snakes, game.Snake{
			Id:     s.ID,
			Health: s.Health,
			Body:   append([]game.Point(nil), s.Body...),
		})
	}
	return state, egoAlive
}

// Wire format of the engine's event stream.

type gameEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gameInfoEvent struct {
	Game struct {
		ID string `json:"id"`
	} `json:"game"`
	Ruleset struct {
		Name string `json:"name"`
	} `json:"ruleset"`
}

type frameEvent struct {
	Turn   int          `json:"turn"`
	Snakes []frameSnake `json:"snakes"`
	Food   []coord      `json:"food"`
	Board  struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"board"`
}

type frameSnake struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Health int     `json:"health"`
	Body   []coord `json:"body"`
	Death  *struct {
		Cause string `json:"cause"`
		Turn  int    `json:"turn"`
	} `json:"death"`
}

type coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Download connects to the public game engine's websocket for one game and
// reads frames until the stream closes.
func Download(cfg DownloadConfig, gameID string) (*Game, error) {
	url := fmt.Sprintf(cfg.EngineURL, gameID)

	dialer := websocket.Dialer{HandshakeTimeout: cfg.ConnectTimeout}
	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", gameID, err)
	}
	defer conn.Close()

	g := &Game{ID: gameID}
	var lastFrame *frameEvent

	for {
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				break
			}
			// A timeout after some frames still yields a usable game.
			if len(g.Frames) > 0 {
				break
			}
			return nil, fmt.Errorf("read %s: %w", gameID, err)
		}

		var event gameEvent
		if err := json.Unmarshal(message, &event); err != nil {
			continue
		}

		switch event.Type {
		case "game_info":
			var info gameInfoEvent
			if err := json.Unmarshal(event.Data, &info); err == nil {
				g.Ruleset = info.Ruleset.Name
			}

		case "frame":
			var f frameEvent
			if err := json.Unmarshal(event.Data, &f); err != nil {
				continue
			}
			if g.Width == 0 && f.Board.Width > 0 {
				g.Width = int32(f.Board.Width)
				g.Height = int32(f.Board.Height)
			}
			g.Frames = append(g.Frames, convertFrame(&f))
			lastFrame = &f

		case "game_end":
			g.Winner = determineWinner(lastFrame)
			return g, nil
		}
	}

	g.Winner = determineWinner(lastFrame)
	return g, nil
}

func convertFrame(f *frameEvent) Frame {
	out := Frame{Turn: int32(f.Turn)}
	for _, c := range f.Food {
		out.Food = append(out.Food, game.Point{X: int32(c.X), Y: int32(c.Y)})
	}
	for _, s := range f.Snakes {
		body := make([]game.Point, len(s.Body))
		for i, c := range s.Body {
			body[i] = game.Point{X: int32(c.X), Y: int32(c.Y)}
		}
		out.Snakes = append(out.Snakes, FrameSnake{
			ID:     s.ID,
			Name:   s.Name,
			Health: int32(s.Health),
			Body:   body,
			Dead:   s.Death != nil,
		})
	}
	return out
}

func determineWinner(f *frameEvent) string {
	if f == nil {
		return "unknown"
	}
	var alive []frameSnake
	for _, s := range f.Snakes {
		if s.Death == nil && s.Health > 0 {
			alive = append(alive, s)
		}
	}
	if len(alive) == 1 {
		return alive[0].Name
	}
	return "draw"
}
