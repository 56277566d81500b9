package store

import (
	"context"
	"github.com/doug-martin/goqu/v9"
	"github.com/gobuffalo/nulls"
	"github.com/lefinal/vrcafe-server/errors"
	"time"
)

// PlayerStats are the accumulated statistics of a user.
type PlayerStats struct {
	UserID    string
	Kills     int
	Deaths    int
	Wins      int
	Matches   int
	Score     int
	UpdatedAt time.Time
}

// MatchResult is the result of one user in a played match.
type MatchResult struct {
	UserID string
	Kills  int
	Deaths int
	Won    bool
	Score  int
}

// LeaderboardEntry is one row of a leaderboard.
type LeaderboardEntry struct {
	UserID string
	// Name is the profile name. Empty if the user has no profile.
	Name string
	// Group is the value of the grouping column like school or college. It is not
	// set for the overall leaderboard.
	Group   nulls.String
	Kills   int
	Matches int
	Wins    int
	Score   int
}

// PlayerStatsByUser retrieves the PlayerStats for the user with the given id.
// If none were found, an errors.ErrNotFound error is returned.
func (m *Mall) PlayerStatsByUser(ctx context.Context, userID string) (PlayerStats, error) {
	q, _, err := m.dialect.From(goqu.T("player_stats")).
		Select(goqu.C("user_id"),
			goqu.C("kills"),
			goqu.C("deaths"),
			goqu.C("wins"),
			goqu.C("matches"),
			goqu.C("score"),
			goqu.C("updated_at")).
		Where(goqu.C("user_id").Eq(userID)).ToSQL()
	if err != nil {
		return PlayerStats{}, errors.NewQueryToSQLError(err, errors.Details{"user_id": userID})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return PlayerStats{}, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	if !rows.Next() {
		if rows.Err() != nil {
			return PlayerStats{}, errors.NewExecQueryError(rows.Err(), "query db", q)
		}
		return PlayerStats{}, errors.NewResourceNotFoundError("player stats not found", errors.Details{"user_id": userID})
	}
	var stats PlayerStats
	err = rows.Scan(&stats.UserID,
		&stats.Kills,
		&stats.Deaths,
		&stats.Wins,
		&stats.Matches,
		&stats.Score,
		&stats.UpdatedAt)
	if err != nil {
		return PlayerStats{}, errors.NewScanDBRowError(err, "scan row", q)
	}
	return stats, nil
}

// RecordMatchResults adds the given results to the statistics of the respective
// users in one transaction. Each result counts as one played match.
func (m *Mall) RecordMatchResults(ctx context.Context, results []MatchResult, at time.Time) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return errors.NewDBTxBeginError(err)
	}
	for _, result := range results {
		wins := 0
		if result.Won {
			wins = 1
		}
		q, _, err := m.dialect.Insert(goqu.T("player_stats")).Rows(goqu.Record{
			"user_id":    result.UserID,
			"kills":      result.Kills,
			"deaths":     result.Deaths,
			"wins":       wins,
			"matches":    1,
			"score":      result.Score,
			"updated_at": at,
		}).OnConflict(goqu.DoUpdate("user_id", goqu.Record{
			"kills":      goqu.L("player_stats.kills + excluded.kills"),
			"deaths":     goqu.L("player_stats.deaths + excluded.deaths"),
			"wins":       goqu.L("player_stats.wins + excluded.wins"),
			"matches":    goqu.L("player_stats.matches + excluded.matches"),
			"score":      goqu.L("player_stats.score + excluded.score"),
			"updated_at": goqu.L("excluded.updated_at"),
		})).ToSQL()
		if err != nil {
			m.rollbackTx(ctx, tx, "query to sql failed")
			return errors.NewQueryToSQLError(err, errors.Details{"user_id": result.UserID})
		}
		_, err = tx.Exec(ctx, q)
		if err != nil {
			m.rollbackTx(ctx, tx, "upsert player stats failed")
			return errors.NewExecQueryError(err, "exec query", q)
		}
	}
	err = tx.Commit(ctx)
	if err != nil {
		m.rollbackTx(ctx, tx, "commit failed")
		return errors.NewDBTxCommitError(err)
	}
	return nil
}

// Leaderboard retrieves the users with the highest score. If groupColumn is not
// empty, only users whose profile has a value for this column are included and
// the value is returned as LeaderboardEntry.Group.
func (m *Mall) Leaderboard(ctx context.Context, groupColumn string, limit int) ([]LeaderboardEntry, error) {
	columns := []interface{}{
		goqu.I("player_stats.user_id"),
		goqu.COALESCE(goqu.I("profiles.name"), ""),
		goqu.I("player_stats.kills"),
		goqu.I("player_stats.matches"),
		goqu.I("player_stats.wins"),
		goqu.I("player_stats.score"),
	}
	query := m.dialect.From(goqu.T("player_stats")).
		LeftJoin(goqu.T("profiles"), goqu.On(goqu.I("profiles.user_id").Eq(goqu.I("player_stats.user_id"))))
	if groupColumn != "" {
		group := goqu.T("profiles").Col(groupColumn)
		columns = append(columns, group)
		query = query.Where(group.IsNotNull(), group.Neq(""))
	}
	q, _, err := query.Select(columns...).
		Order(goqu.I("player_stats.score").Desc(), goqu.I("player_stats.user_id").Asc()).
		Limit(uint(limit)).ToSQL()
	if err != nil {
		return nil, errors.NewQueryToSQLError(err, errors.Details{"group_column": groupColumn})
	}
	rows, err := m.db.Query(ctx, q)
	if err != nil {
		return nil, errors.NewExecQueryError(err, "query db", q)
	}
	defer rows.Close()
	entries := make([]LeaderboardEntry, 0)
	for rows.Next() {
		var entry LeaderboardEntry
		dest := []interface{}{
			&entry.UserID,
			&entry.Name,
			&entry.Kills,
			&entry.Matches,
			&entry.Wins,
			&entry.Score,
		}
		if groupColumn != "" {
			dest = append(dest, &entry.Group)
		}
		err = rows.Scan(dest...)
		if err != nil {
			return nil, errors.NewScanDBRowError(err, "scan row", q)
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, errors.NewExecQueryError(rows.Err(), "read rows", q)
	}
	return entries, nil
}
