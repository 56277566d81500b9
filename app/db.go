package app

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/jackc/pgx/v4/pgxpool"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/lefinal/vrcafe-server/embedded"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/logging"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// defaultMaxDBConnections is the maximum number of database connections.
const defaultMaxDBConnections = 16

// gooseLogger is a goose.Logger that logs to a zap.Logger.
type gooseLogger struct {
	logger *zap.SugaredLogger
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Errorf(format, v...)
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf(format, v...)
}

// migrateDB performs all pending database migrations from embedded.Migrations.
func migrateDB(ctx context.Context, logger *zap.Logger, connectionStr string) error {
	db, err := sql.Open("pgx", connectionStr)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "open database for migrations",
		}
	}
	defer func() { _ = db.Close() }()
	goose.SetBaseFS(embedded.Migrations)
	goose.SetLogger(gooseLogger{logger: logger.With(logging.NoPublish).Sugar()})
	err = goose.SetDialect("postgres")
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "set goose dialect", nil)
	}
	err = goose.UpContext(ctx, db, embedded.MigrationsDir)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "migrate database",
		}
	}
	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "get database version",
		}
	}
	logger.Info("database migrated", zap.Int64("version", version))
	return nil
}

// connectDB connects to the database with the given connection string and
// returns the connection pool.
func connectDB(ctx context.Context, connectionStr string, maxDBConnections int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connectionStr)
	if err != nil {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "parse db connection string",
		}
	}
	poolConfig.MaxConns = int32(maxDBConnections)
	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "connect to database",
		}
	}
	// Perform test query.
	var got int
	err = pool.QueryRow(ctx, "SELECT 1").Scan(&got)
	if err != nil {
		pool.Close()
		return nil, errors.NewScanDBRowError(err, "test query", "SELECT 1")
	}
	if got != 1 {
		pool.Close()
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Message: fmt.Sprintf("test db connection: expected 1 as result but got %d", got),
			Details: errors.Details{"got": got},
		}
	}
	return pool, nil
}
