// Package gamesvc serves game lookups for operators and receives match results
// from the VR engine over MQTT.
package gamesvc

import (
	"context"
	"encoding/json"
	"github.com/lefinal/vrcafe-server/errors"
	"github.com/lefinal/vrcafe-server/event"
	"github.com/lefinal/vrcafe-server/games"
	"github.com/lefinal/vrcafe-server/portal"
	"github.com/lefinal/vrcafe-server/service"
	"github.com/lefinal/vrcafe-server/stats"
	"go.uber.org/zap"
	"sync"
)

// Topics.
const (
	// topicLookup is where operators request games by code.
	topicLookup portal.Topic = "vrcafe/games/lookup"
	// topicLookupResponse is where responses for topicLookup are published.
	topicLookupResponse portal.Topic = "vrcafe/games/lookup/response"
	// topicResults is where the VR engine reports match results.
	topicResults portal.Topic = "vrcafe/games/results"
)

// GameLookup looks up ready games.
type GameLookup interface {
	Lookup(ctx context.Context, code string) (games.GameRecord, error)
}

// ResultRecorder records match results.
type ResultRecorder interface {
	RecordMatchResults(ctx context.Context, results []stats.MatchResult) error
}

// gameService handles game related MQTT traffic.
type gameService struct {
	logger *zap.Logger
	// portal to use for communication.
	portal   portal.Portal
	lookup   GameLookup
	recorder ResultRecorder
}

// NewGameService creates a new service.Service ready to run.
func NewGameService(logger *zap.Logger, portal portal.Portal, lookup GameLookup, recorder ResultRecorder) service.Service {
	return &gameService{
		logger:   logger,
		portal:   portal,
		lookup:   lookup,
		recorder: recorder,
	}
}

// Run the service until the given context is done.
func (s *gameService) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	// Handle lookup requests.
	lookupNewsletter := portal.Subscribe[event.LookupRequestEvent](ctx, s.portal, topicLookup)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range lookupNewsletter.Receive {
			s.handleLookupRequestEvent(ctx, e.Payload)
		}
	}()
	// Handle match results.
	resultsNewsletter := portal.Subscribe[event.MatchResultEvent](ctx, s.portal, topicResults)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for e := range resultsNewsletter.Receive {
			s.handleMatchResultEvent(ctx, e.Payload)
		}
	}()
	wg.Wait()
	return nil
}

// handleLookupRequestEvent handles topicLookup and responds to
// topicLookupResponse.
func (s *gameService) handleLookupRequestEvent(ctx context.Context, e event.LookupRequestEvent) {
	response := event.LookupResponseEvent{
		RequestID: e.RequestID,
		Code:      games.NormalizeCode(e.Code),
	}
	record, err := s.lookup.Lookup(ctx, e.Code)
	if err == nil {
		response.Record, err = json.Marshal(record)
		if err != nil {
			err = errors.NewInternalErrorFromErr(err, "marshal game record", nil)
		}
	}
	if err != nil {
		errors.Log(s.logger, errors.Wrap(err, "lookup", errors.Details{
			"request_id": e.RequestID,
			"game_code":  e.Code,
		}))
		errorPayload := event.ErrorEventPayloadFromError(err)
		response.Record = nil
		response.Error = &errorPayload
	}
	s.portal.Publish(ctx, topicLookupResponse, response)
}

// handleMatchResultEvent handles topicResults.
func (s *gameService) handleMatchResultEvent(ctx context.Context, e event.MatchResultEvent) {
	results := make([]stats.MatchResult, 0, len(e.Results))
	for _, result := range e.Results {
		results = append(results, stats.MatchResult{
			UserID: result.UserID,
			Kills:  result.Kills,
			Deaths: result.Deaths,
			Won:    result.Won,
			Score:  result.Score,
		})
	}
	err := s.recorder.RecordMatchResults(ctx, results)
	if err != nil {
		errors.Log(s.logger, errors.Wrap(err, "record match results", errors.Details{"game_code": e.GameCode}))
		return
	}
}
