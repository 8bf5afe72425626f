// Package replay finds public games on play.battlesnake.com, downloads
// their frame streams, and replays them through the engine to measure how
// often it agrees with the move a snake actually played.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DiscoverConfig controls the leaderboard crawl.
type DiscoverConfig struct {
	// LeaderboardURLs are scraped in order.
	LeaderboardURLs []string
	// RequestDelay spaces out HTTP requests.
	RequestDelay time.Duration
	// MaxPlayers caps how many players are checked per leaderboard.
	// Zero means unlimited.
	MaxPlayers int
}

func DefaultDiscoverConfig() DiscoverConfig {
	return DiscoverConfig{
		LeaderboardURLs: []string{
			"https://play.battlesnake.com/leaderboard/standard",
			"https://play.battlesnake.com/leaderboard/standard-duels",
		},
		RequestDelay: 500 * time.Millisecond,
		MaxPlayers:   100,
	}
}

// Discoverer scrapes game IDs from leaderboard and player stats pages.
type Discoverer struct {
	cfg    DiscoverConfig
	log    *slog.Logger
	client *http.Client

	known map[string]bool

	gameIDRe *regexp.Regexp
	playerRe *regexp.Regexp
}

func NewDiscoverer(cfg DiscoverConfig, log *slog.Logger) *Discoverer {
	return &Discoverer{
		cfg:      cfg,
		log:      log,
		client:   &http.Client{Timeout: 30 * time.Second},
		known:    make(map[string]bool),
		gameIDRe: regexp.MustCompile(`/game/([a-f0-9-]+)`),
		// Matches /leaderboard/{arena}/{username}/stats.
		playerRe: regexp.MustCompile(`/leaderboard/[^/]+/([^/]+)/stats`),
	}
}

// Discover crawls every configured leaderboard once and sends unseen game
// IDs to out. It returns the number of new games found.
func (d *Discoverer) Discover(ctx context.Context, out chan<- string) (int, error) {
	totalNew := 0

	for _, leaderboardURL := range d.cfg.LeaderboardURLs {
		d.log.Info("scraping leaderboard", slog.String("url", leaderboardURL))

		players, err := d.leaderboardPlayers(ctx, leaderboardURL)
		if err != nil {
			d.log.Warn("leaderboard fetch failed",
				slog.String("url", leaderboardURL),
				slog.String("error", err.Error()))
			continue
		}
		if d.cfg.MaxPlayers > 0 && len(players) > d.cfg.MaxPlayers {
			players = players[:d.cfg.MaxPlayers]
		}
		d.log.Info("found players", slog.Int("count", len(players)))

		for _, p := range players {
			if err := ctx.Err(); err != nil {
				return totalNew, err
			}

			gameIDs, err := d.playerGames(ctx, p.statsURL)
			if err != nil {
				d.log.Warn("player fetch failed",
					slog.String("player", p.username),
					slog.String("error", err.Error()))
				continue
			}

			for _, id := range gameIDs {
				if d.known[id] {
					continue
				}
				d.known[id] = true
				select {
				case out <- id:
					totalNew++
				case <-ctx.Done():
					return totalNew, ctx.Err()
				}
			}

			select {
			case <-time.After(d.cfg.RequestDelay):
			case <-ctx.Done():
				return totalNew, ctx.Err()
			}
		}
	}

	return totalNew, nil
}

// MarkKnown records a game ID so Discover will not emit it again.
func (d *Discoverer) MarkKnown(gameID string) {
	d.known[gameID] = true
}

type playerInfo struct {
	username string
	statsURL string
}

func (d *Discoverer) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "snake-replay/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func (d *Discoverer) leaderboardPlayers(ctx context.Context, url string) ([]playerInfo, error) {
	doc, err := d.fetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	var players []playerInfo
	seen := make(map[string]bool)
	doc.Find("a[href*='/leaderboard/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		matches := d.playerRe.FindStringSubmatch(href)
		if len(matches) < 2 {
			return
		}
		username := matches[1]
		if seen[username] {
			return
		}
		seen[username] = true
		players = append(players, playerInfo{
			username: username,
			statsURL: "https://play.battlesnake.com" + href,
		})
	})
	return players, nil
}

func (d *Discoverer) playerGames(ctx context.Context, statsURL string) ([]string, error) {
	doc, err := d.fetchDocument(ctx, statsURL)
	if err != nil {
		return nil, err
	}

	var gameIDs []string
	seen := make(map[string]bool)
	doc.Find("a[href*='/game/']").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		matches := d.gameIDRe.FindStringSubmatch(href)
		if len(matches) < 2 {
			return
		}
		if seen[matches[1]] {
			return
		}
		seen[matches[1]] = true
		gameIDs = append(gameIDs, matches[1])
	})
	return gameIDs, nil
}
