package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lepinkainen/cricket-forge/pkg/cricket"
)

const rosterSchema = `
	CREATE TABLE IF NOT EXISTS teams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		country TEXT NOT NULL DEFAULT '',
		flag TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		full_name TEXT NOT NULL DEFAULT '',
		team_id INTEGER REFERENCES teams(id),
		role TEXT NOT NULL DEFAULT '',
		batting_style TEXT NOT NULL DEFAULT '',
		bowling_style TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT NOT NULL DEFAULT '',
		place_of_birth TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		wikipedia_url TEXT NOT NULL DEFAULT '',
		is_in_playing11 INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS player_stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER NOT NULL REFERENCES players(id) ON DELETE CASCADE,
		format TEXT NOT NULL,
		matches INTEGER NOT NULL DEFAULT 0,
		runs INTEGER NOT NULL DEFAULT 0,
		wickets INTEGER NOT NULL DEFAULT 0,
		batting_average REAL NOT NULL DEFAULT 0,
		bowling_average REAL NOT NULL DEFAULT 0,
		strike_rate REAL NOT NULL DEFAULT 0,
		economy REAL NOT NULL DEFAULT 0,
		highest_score TEXT NOT NULL DEFAULT '',
		best_bowling TEXT NOT NULL DEFAULT '',
		centuries INTEGER NOT NULL DEFAULT 0,
		half_centuries INTEGER NOT NULL DEFAULT 0,
		five_wickets INTEGER NOT NULL DEFAULT 0,
		UNIQUE(player_id, format)
	);

	CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id);
`

// Roster persists teams, players and per-format stats written by scrape-all.
type Roster struct {
	db *Database
}

// NewRoster creates the roster tables if needed.
func NewRoster(db *Database) (*Roster, error) {
	if err := db.ExecuteSchema(rosterSchema); err != nil {
		return nil, fmt.Errorf("failed to initialize roster tables: %w", err)
	}
	return &Roster{db: db}, nil
}

// UpsertTeam inserts or updates a team by name and returns its id.
func (r *Roster) UpsertTeam(ctx context.Context, team cricket.TeamInfo) (int64, error) {
	var id int64
	err := r.db.DB().QueryRowContext(ctx, `
		INSERT INTO teams (name, country, flag)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			country = excluded.country,
			flag = excluded.flag,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, team.Name, team.Country, team.Flag).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert team %s: %w", team.Name, err)
	}
	return id, nil
}

// UpsertPlayer stores a player and its stats in one transaction.
func (r *Roster) UpsertPlayer(ctx context.Context, teamID int64, player cricket.PlayerInfo, inPlaying11 bool) (int64, error) {
	var playerID int64

	err := r.db.Transaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO players (name, full_name, team_id, role, batting_style, bowling_style,
				date_of_birth, place_of_birth, image_url, wikipedia_url, is_in_playing11)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				full_name = excluded.full_name,
				team_id = excluded.team_id,
				role = excluded.role,
				batting_style = excluded.batting_style,
				bowling_style = excluded.bowling_style,
				date_of_birth = excluded.date_of_birth,
				place_of_birth = excluded.place_of_birth,
				image_url = excluded.image_url,
				wikipedia_url = excluded.wikipedia_url,
				is_in_playing11 = excluded.is_in_playing11,
				updated_at = CURRENT_TIMESTAMP
			RETURNING id
		`, player.Name, player.FullName, teamID, player.Role, player.BattingStyle, player.BowlingStyle,
			player.DateOfBirth, player.PlaceOfBirth, player.ImageURL, player.WikipediaURL, inPlaying11).Scan(&playerID)
		if err != nil {
			return fmt.Errorf("failed to upsert player %s: %w", player.Name, err)
		}

		for format, s := range player.Stats {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO player_stats (player_id, format, matches, runs, wickets, batting_average,
					bowling_average, strike_rate, economy, highest_score, best_bowling,
					centuries, half_centuries, five_wickets)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(player_id, format) DO UPDATE SET
					matches = excluded.matches,
					runs = excluded.runs,
					wickets = excluded.wickets,
					batting_average = excluded.batting_average,
					bowling_average = excluded.bowling_average,
					strike_rate = excluded.strike_rate,
					economy = excluded.economy,
					highest_score = excluded.highest_score,
					best_bowling = excluded.best_bowling,
					centuries = excluded.centuries,
					half_centuries = excluded.half_centuries,
					five_wickets = excluded.five_wickets
			`, playerID, string(format), s.Matches, s.Runs, s.Wickets, s.BattingAverage,
				s.BowlingAverage, s.StrikeRate, s.Economy, s.HighestScore, s.BestBowling,
				s.Centuries, s.HalfCenturies, s.FiveWickets)
			if err != nil {
				return fmt.Errorf("failed to upsert %s stats for %s: %w", format, player.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return playerID, nil
}

// TeamPlayers returns the names of a team's stored players.
func (r *Roster) TeamPlayers(ctx context.Context, teamName string) ([]string, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT p.name FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE t.name = ?
		ORDER BY p.id
	`, teamName)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for %s: %w", teamName, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PlayerStats returns the stored stats for a player keyed by format.
func (r *Roster) PlayerStats(ctx context.Context, playerName string) (map[cricket.MatchType]cricket.FormatStats, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT s.format, s.matches, s.runs, s.wickets, s.batting_average, s.bowling_average,
			s.strike_rate, s.economy, s.highest_score, s.best_bowling,
			s.centuries, s.half_centuries, s.five_wickets
		FROM player_stats s
		JOIN players p ON p.id = s.player_id
		WHERE p.name = ?
	`, playerName)
	if err != nil {
		return nil, fmt.Errorf("failed to read stats for %s: %w", playerName, err)
	}
	defer rows.Close()

	stats := make(map[cricket.MatchType]cricket.FormatStats)
	for rows.Next() {
		var (
			format string
			s      cricket.FormatStats
		)
		if err := rows.Scan(&format, &s.Matches, &s.Runs, &s.Wickets, &s.BattingAverage, &s.BowlingAverage,
			&s.StrikeRate, &s.Economy, &s.HighestScore, &s.BestBowling,
			&s.Centuries, &s.HalfCenturies, &s.FiveWickets); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[cricket.MatchType(format)] = s
	}
	return stats, rows.Err()
}
