package store

import (
	"context"
	"fmt"
	"github.com/doug-martin/goqu/v9"
	"github.com/gobuffalo/nulls"
	"github.com/google/uuid"
	"github.com/lefinal/vrcafe-server/errors"
	"time"
)

// gamesCodeConstraint is the name of the unique constraint for game codes.
const gamesCodeConstraint = "games_code_key"

// Game is a stored game. Players and Config hold raw JSON.
type Game struct {
	ID           uuid.UUID
	Code         string
	Name         string
	Mode         string
	Map          string
	MaxPlayers   int
	TotalPlayers int
	// Captain is the display name of the captain if known.
	Captain   nulls.String
	CaptainID string
	Players   []byte
	// Config is the compiled config. It is nil for games that are not ready.
	Config    []byte
	Status    string
	CreatedAt time.Time
}

// gameColumns returns the columns to select for scanning with scanGame.
func gameColumns() []interface{} {
	return []interface{}{
		goqu.C("id"),
		goqu.C("code"),
		goqu.C("name"),
		goqu.C("mode"),
		goqu.C("map"),
		goqu.C("max_players"),
		goqu.C("total_players"),
		goqu.C("captain"),
		goqu.C("captain_id"),
		goqu.C("players"),
		goqu.C("config"),
		goqu.C("status"),
		goqu.C("created_at"),
	}
}

// rowScanner is implemented by pgx.Rows and pgx.Row.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (Game, error) {
	var game Game
	err := row.Scan(&game.ID,
		&game.Code,
		&game.Name,
		&game.Mode,
		&game.Map,
		&game.MaxPlayers,
		&game.TotalPlayers,
		&game.Captain,
		&game.CaptainID,
		&game.Players,
		&game.Config,
		&game.Status,
		&game.CreatedAt)
	return game, err
}

// CreateGame inserts the given Game. If the code is already taken, an
// errors.ErrBadRequest error with errors.KindDuplicateCode is returned.
func (m *Mall) CreateGame(ctx context.Context, game Game) error {
	record := goqu.Record{
		"id":            game.ID,
		"code":          game.Code,
		"name":          game.Name,
		"mode":          game.Mode,
		"map":           game.Map,
		"max_players":   game.MaxPlayers,
		"total_players": game.TotalPlayers,
		"captain":       game.Captain,
		"captain_id":    game.CaptainID,
		"players":       string(game.Players),
		"status":        game.Status,
		"created_at":    game.CreatedAt,
	}
	if game.Config != nil {
		record["config"] = string(game.Config)
	}
	q, _, err := m.dialect.Insert(goqu.T("games")).Rows(record).ToSQL()
	if err != nil {
		return errors.NewQueryToSQLError(err, errors.Details{"game_code": game.Code})
	}
	_, err = m.db.Exec(ctx, q)
	if err != nil {
		if isUniqueViolation(err, gamesCodeConstraint) {
			return errors.Error{
				Code:    errors.ErrBadRequest,
				Kind:    errors.KindDuplicateCode,
				Err:     err,
				Message: fmt.Sprintf("game code %s already taken", game.Code),
				Details: errors.Details{"game_code": game.Code},
			}
		}
		return errors.NewExecQueryError(err, "exec query", q)
	}
	return nil
}

// GameByCode retrieves the Game with the given canonical code. If none was
// found, an errors.ErrNotFound error is returned.
func (m *Mall) GameByCode(ctx context.Context, code string) (Game, error) {
	q, _, err := m.dialect.From(goqu.T("games")).
		Select(gameColumns()...).
		Where(goqu.C("code").Eq(code)).ToSQL()
	if err != nil {
		return Game{}, errors.NewQueryToSQLError(err, errors.Details{"game_code": code})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return Game{}, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	if !rows.Next() {
		if rows.Err() != nil {
			return Game{}, errors.NewExecQueryError(rows.Err(), "query db", q)
		}
		return Game{}, errors.NewResourceNotFoundError("game not found", errors.Details{"game_code": code})
	}
	game, err := scanGame(rows)
	if err != nil {
		return Game{}, errors.NewScanDBRowError(err, "scan row", q)
	}
	return game, nil
}

// GamesByStatus retrieves the newest games with the given status. At most limit
// games are returned.
func (m *Mall) GamesByStatus(ctx context.Context, status string, limit int) ([]Game, error) {
	q, _, err := m.dialect.From(goqu.T("games")).
		Select(gameColumns()...).
		Where(goqu.C("status").Eq(status)).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).ToSQL()
	if err != nil {
		return nil, errors.NewQueryToSQLError(err, errors.Details{"status": status})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	games := make([]Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, errors.NewScanDBRowError(err, "scan row", q)
		}
		games = append(games, game)
	}
	if rows.Err() != nil {
		return nil, errors.NewExecQueryError(rows.Err(), "read rows", q)
	}
	return games, nil
}

// DeleteGamesByStatusBefore deletes all games with the given status that were
// created before the given time. It returns the number of deleted games.
func (m *Mall) DeleteGamesByStatusBefore(ctx context.Context, status string, before time.Time) (int, error) {
	q, _, err := m.dialect.Delete(goqu.T("games")).
		Where(goqu.C("status").Eq(status),
			goqu.C("created_at").Lt(before)).ToSQL()
	if err != nil {
		return 0, errors.NewQueryToSQLError(err, errors.Details{"status": status})
	}
	result, err := m.db.Exec(ctx, q)
	if err != nil {
		return 0, errors.NewExecQueryError(err, "exec query", q)
	}
	return int(result.RowsAffected()), nil
}

// GameCountByStatus counts all games grouped by their status.
func (m *Mall) GameCountByStatus(ctx context.Context) (map[string]int, error) {
	q, _, err := m.dialect.From(goqu.T("games")).
		Select(goqu.C("status"), goqu.COUNT("*")).
		GroupBy(goqu.C("status")).ToSQL()
	if err != nil {
		return nil, errors.NewQueryToSQLError(err, nil)
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		err = rows.Scan(&status, &count)
		if err != nil {
			return nil, errors.NewScanDBRowError(err, "scan row", q)
		}
		counts[status] = count
	}
	if rows.Err() != nil {
		return nil, errors.NewExecQueryError(rows.Err(), "read rows", q)
	}
	return counts, nil
}
