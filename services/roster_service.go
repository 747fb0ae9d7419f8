package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/darwkzm/sopo/models"
	"github.com/darwkzm/sopo/storage"
)

// Record kinds accepted by AppendRecord and collection tags accepted by
// ReplaceCollection. These are wire constants, not free-form strings.
const (
	KindApplication = "application"
	KindNewPlayer   = "new_player"
	KindSelection   = "selection"

	CollectionPlayers      = "players"
	CollectionApplications = "applications"
)

type RosterService interface {
	// GetDocument returns the current document, seeding the store with the
	// default roster on first access.
	GetDocument(ctx context.Context) (*models.Document, error)

	// AppendRecord validates the payload, assigns an id per the record
	// kind's rule, appends it to the matching collection and persists the
	// whole document.
	AppendRecord(ctx context.Context, kind string, payload json.RawMessage) (*models.Document, error)

	// ReplaceCollection swaps a named collection wholesale after
	// normalizing every record, then persists the whole document.
	ReplaceCollection(ctx context.Context, collection string, payload json.RawMessage) (*models.Document, error)
}

type rosterService struct {
	store  storage.BlobStore
	key    string
	clock  clockwork.Clock
	logger *slog.Logger
	seedSF singleflight.Group
}

func NewRosterService(store storage.BlobStore, key string, clock clockwork.Clock, logger *slog.Logger) RosterService {
	return &rosterService{
		store:  store,
		key:    key,
		clock:  clock,
		logger: logger,
	}
}

func (s *rosterService) GetDocument(ctx context.Context) (*models.Document, error) {
	return s.load(ctx)
}

func (s *rosterService) AppendRecord(ctx context.Context, kind string, payload json.RawMessage) (*models.Document, error) {
	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindApplication:
		var in struct {
			Name     string `json:"name"`
			Number   string `json:"number"`
			Position string `json:"position"`
			Skill    string `json:"skill"`
		}
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
		if in.Name == "" || in.Number == "" || in.Position == "" || in.Skill == "" {
			return nil, ErrApplicationFieldsMissing
		}
		doc.Applications = append(doc.Applications, models.Application{
			ID:       s.clock.Now().UnixMilli(),
			Name:     in.Name,
			Number:   in.Number,
			Position: in.Position,
			Skill:    in.Skill,
		})

	case KindNewPlayer:
		var in struct {
			Name          string `json:"name"`
			Position      string `json:"position"`
			Skill         string `json:"skill"`
			NumberCurrent *int   `json:"number_current"`
		}
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
		if in.Name == "" || in.Position == "" || in.Skill == "" {
			return nil, ErrPlayerFieldsMissing
		}
		if !models.ValidPosition(in.Position) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, in.Position)
		}
		if in.NumberCurrent != nil {
			n := *in.NumberCurrent
			if n < 1 || n > 99 {
				return nil, ErrNumberOutOfRange
			}
			if doc.NumberTaken(n, 0) {
				return nil, fmt.Errorf("%w: number %d is already held by another player", ErrNumberTaken, n)
			}
		}
		player := models.Player{
			ID:            doc.NextPlayerID(),
			Name:          in.Name,
			Position:      in.Position,
			Skill:         in.Skill,
			NumberCurrent: in.NumberCurrent,
		}
		player.Normalize()
		doc.Players = append(doc.Players, player)

	case KindSelection:
		var in struct {
			PlayerID   int    `json:"playerId"`
			PlayerName string `json:"playerName"`
			Number     int    `json:"number"`
		}
		if err := json.Unmarshal(payload, &in); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
		if (in.PlayerID == 0 && in.PlayerName == "") || in.Number == 0 {
			return nil, ErrSelectionFieldsMissing
		}
		if in.Number < 1 || in.Number > 99 {
			return nil, ErrNumberOutOfRange
		}
		doc.Selections = append(doc.Selections, models.Selection{
			ID:         s.clock.Now().UnixMilli(),
			PlayerID:   in.PlayerID,
			PlayerName: in.PlayerName,
			Number:     in.Number,
			Date:       s.clock.Now().Format("02/01/2006"),
		})

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordKind, kind)
	}

	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *rosterService) ReplaceCollection(ctx context.Context, collection string, payload json.RawMessage) (*models.Document, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(payload), []byte("[")) {
		return nil, ErrPayloadNotSequence
	}

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	switch collection {
	case CollectionPlayers:
		var players []models.Player
		if err := json.Unmarshal(payload, &players); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
		if players == nil {
			players = []models.Player{}
		}
		for i := range players {
			players[i].Normalize()
		}
		if n, ok := models.ConflictingNumber(players); ok {
			return nil, fmt.Errorf("%w: number %d is claimed by two different players", ErrNumberTaken, n)
		}
		doc.Players = players

	case CollectionApplications:
		var apps []models.Application
		if err := json.Unmarshal(payload, &apps); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPayloadMalformed, err)
		}
		if apps == nil {
			apps = []models.Application{}
		}
		doc.Applications = apps

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}

	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// load reads and normalizes the stored document. A key that was never
// written, or a document without a players array (possible after manual
// store edits), is replaced by the default roster, matching the original
// deployment's recovery behavior.
func (s *rosterService) load(ctx context.Context) (*models.Document, error) {
	data, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return s.seed(ctx)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil || doc.Players == nil {
		s.logger.Warn("stored document unreadable, reseeding", slog.String("key", s.key), slog.Any("error", err))
		fresh := models.DefaultDocument()
		if err := s.persist(ctx, fresh); err != nil {
			return nil, err
		}
		return fresh, nil
	}

	doc.Normalize()
	return &doc, nil
}

// seed creates the default document under the key, but only if no other
// writer got there first. Concurrent first requests collapse onto one
// in-process call and the store-level conditional write settles races
// between processes.
func (s *rosterService) seed(ctx context.Context) (*models.Document, error) {
	v, err, _ := s.seedSF.Do(s.key, func() (interface{}, error) {
		fresh := models.DefaultDocument()
		data, err := json.Marshal(fresh)
		if err != nil {
			return nil, fmt.Errorf("failed to encode seed document: %w", err)
		}

		err = s.store.PutIfAbsent(ctx, s.key, data)
		switch {
		case errors.Is(err, storage.ErrKeyExists):
			// Lost the race: read whatever the winner wrote.
			data, err = s.store.Get(ctx, s.key)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			var doc models.Document
			if err := json.Unmarshal(data, &doc); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			doc.Normalize()
			return &doc, nil
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		s.logger.Info("seeded initial roster document", slog.String("key", s.key), slog.Int("players", len(fresh.Players)))
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Document), nil
}

func (s *rosterService) persist(ctx context.Context, doc *models.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	// Whole-document overwrite, no version check: concurrent writers race
	// and the last write wins at document granularity.
	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
