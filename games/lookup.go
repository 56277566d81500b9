package games

import (
	"context"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/store"
	"go.uber.org/zap"
)

// LookupStore is the persistence needed by Lookup.
type LookupStore interface {
	// GameByCode retrieves the game with the given canonical code. If not found,
	// an errors.ErrNotFound error is returned.
	GameByCode(ctx context.Context, code string) (store.Game, error)
}

// Cache caches ready games for lookups.
type Cache interface {
	// CachedGame returns the cached game for the given code. The second return
	// value is false on cache miss.
	CachedGame(ctx context.Context, code string) (GameRecord, bool, error)
	// CacheGame caches the given game record.
	CacheGame(ctx context.Context, record GameRecord) error
}

// Lookup retrieves compiled games by their code.
type Lookup struct {
	logger *zap.Logger
	store  LookupStore
	// cache is optional.
	cache Cache
}

// NewLookup creates a new Lookup. The Cache is optional and may be nil.
func NewLookup(logger *zap.Logger, store LookupStore, cache Cache) *Lookup {
	return &Lookup{
		logger: logger,
		store:  store,
		cache:  cache,
	}
}

// gameNotFound creates the error for unknown codes.
func gameNotFound(code string) error {
	return errors.Error{
		Code:    errors.ErrNotFound,
		Kind:    errors.KindGameNotFound,
		Message: "game not found, please check the game code",
		Details: errors.Details{"game_code": code},
	}
}

// gameNotReady creates the error for games that were found but are not ready.
func gameNotReady(code string, status GameStatus) error {
	return errors.Error{
		Code:    errors.ErrNotReady,
		Kind:    errors.KindGameNotReady,
		Message: "game is not ready yet, please wait for the captain to finish setup",
		Details: errors.Details{"game_code": code, "status": status},
	}
}

// Lookup retrieves the ready game with the given code. Case does not matter.
// Unknown codes result in errors.KindGameNotFound, games that are not ready in
// errors.KindGameNotReady and store failures in errors.KindLookupTransport.
func (l *Lookup) Lookup(ctx context.Context, code string) (GameRecord, error) {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return GameRecord{}, gameNotFound(code)
	}
	if l.cache != nil {
		record, ok, err := l.cache.CachedGame(ctx, code)
		if err != nil {
			errors.Log(l.logger, errors.Wrap(err, "cached game", errors.Details{"game_code": code}))
		} else if ok {
			return record, nil
		}
	}
	game, err := l.store.GameByCode(ctx, code)
	if err != nil {
		if e, _ := errors.Cast(err); e.Code == errors.ErrNotFound {
			return GameRecord{}, gameNotFound(code)
		}
		return GameRecord{}, errors.NewLookupTransportError(err, "game by code")
	}
	record, err := recordFromStoreGame(game)
	if err != nil {
		return GameRecord{}, errors.Wrap(err, "record from store game", nil)
	}
	if record.Status != GameStatusReady || record.Config == nil {
		return GameRecord{}, gameNotReady(code, record.Status)
	}
	if l.cache != nil {
		err = l.cache.CacheGame(ctx, record)
		if err != nil {
			errors.Log(l.logger, errors.Wrap(err, "cache game", errors.Details{"game_code": code}))
		}
	}
	return record, nil
}

// Config retrieves only the compiled config of the ready game with the given
// code. See Lookup for errors.
func (l *Lookup) Config(ctx context.Context, code string) (CompiledConfig, error) {
	record, err := l.Lookup(ctx, code)
	if err != nil {
		return CompiledConfig{}, err
	}
	return *record.Config, nil
}
