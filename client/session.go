package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/brunoga/deep"
	"github.com/jonboulle/clockwork"

	"github.com/darwkzm/sopo/models"
	"github.com/darwkzm/sopo/services"
)

// State is the session lifecycle: loading → ready on a successful initial
// fetch, loading → load_failed on error or timeout. load_failed is terminal
// until the caller reloads.
type State int

const (
	StateLoading State = iota
	StateReady
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadFailed:
		return "load_failed"
	default:
		return "unknown"
	}
}

var (
	ErrNotReady            = errors.New("roster not loaded")
	ErrNumberConflict      = errors.New("jersey number already in use")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrApplicationNotFound = errors.New("application not found")
)

// The staff gate: a fixed literal pair, same as the admin panel it mirrors.
// Explicitly not a security boundary.
const (
	staffUsername = "staff"
	staffPassword = "newells2024"
)

// Session holds the in-memory mirror of the document and applies mutations
// optimistically: the mirror changes and re-renders first, then the server
// round-trip confirms or rolls it back. The mirror is a cache, never a
// second source of truth.
//
// Session is not safe for concurrent use; it models a single event loop.
// Two overlapping edits of the same player are not defended against; the
// last response wins.
type Session struct {
	api      *Client
	renderer Renderer
	notifier Notifier
	clock    clockwork.Clock

	state    State
	mutating bool
	staff    bool
	doc      models.Document
}

type SessionOption func(*Session)

// WithClock replaces the session's clock, used for the provisional ids the
// mirror assigns before the server confirms.
func WithClock(clock clockwork.Clock) SessionOption {
	return func(s *Session) { s.clock = clock }
}

func NewSession(api *Client, renderer Renderer, notifier Notifier, opts ...SessionOption) *Session {
	s := &Session{
		api:      api,
		renderer: renderer,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		state:    StateLoading,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State        { return s.state }
func (s *Session) Mutating() bool      { return s.mutating }
func (s *Session) StaffLoggedIn() bool { return s.staff }

// Document returns a deep copy of the mirror so callers cannot bypass the
// mutation protocol.
func (s *Session) Document() models.Document {
	return deep.MustCopy(s.doc)
}

// Load fetches the document and populates the mirror. On failure the mirror
// stays empty, the session is left in load_failed and a blocking error
// notification fires; there is no automatic retry.
func (s *Session) Load(ctx context.Context) error {
	s.state = StateLoading

	doc, err := s.api.FetchDocument(ctx)
	if err != nil {
		s.state = StateLoadFailed
		switch {
		case errors.Is(err, ErrLoadTimeout):
			s.notifier.Error("Loading the roster took too long. Reload the page to retry.")
		case errors.Is(err, ErrUnreachable):
			s.notifier.Error("Could not reach the roster service. Reload the page to retry.")
		default:
			s.notifier.Error("Failed to load the roster. Reload the page to retry.")
		}
		return err
	}

	s.doc = *doc
	s.state = StateReady
	s.renderer.Render(&s.doc)
	return nil
}

// mutate is the one optimistic-update path every mutation goes through:
// snapshot the mirror, apply locally, re-render, persist remotely; on
// persistence failure restore the snapshot, re-render and notify once.
func (s *Session) mutate(ctx context.Context, apply func(doc *models.Document) error, persist func(ctx context.Context) error, successMessage string) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	snapshot := deep.MustCopy(s.doc)
	s.mutating = true
	defer func() { s.mutating = false }()

	if err := apply(&s.doc); err != nil {
		s.doc = snapshot
		return err
	}
	s.renderer.Render(&s.doc)

	if err := persist(ctx); err != nil {
		s.doc = snapshot
		s.renderer.Render(&s.doc)
		s.notifier.Error("Failed to save changes. Your edit was undone.")
		return err
	}

	if successMessage != "" {
		s.notifier.Success(successMessage)
	}
	return nil
}

// guardNumber refuses, without a server round-trip, any number already held
// by a different player. The refusal names the conflicting number.
func (s *Session) guardNumber(n int, excludeID int) error {
	if s.doc.NumberTaken(n, excludeID) {
		s.notifier.Error(fmt.Sprintf("Number %d is already taken by another player.", n))
		return fmt.Errorf("%w: %d", ErrNumberConflict, n)
	}
	return nil
}

// UpdatePlayer replaces one player's record and persists the full players
// collection.
func (s *Session) UpdatePlayer(ctx context.Context, updated models.Player) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	for _, n := range []*int{updated.NumberCurrent, updated.NumberNew} {
		if n == nil {
			continue
		}
		if err := s.guardNumber(*n, updated.ID); err != nil {
			return err
		}
	}

	return s.mutate(ctx,
		func(doc *models.Document) error {
			i := playerIndex(doc.Players, updated.ID)
			if i < 0 {
				return fmt.Errorf("%w: id %d", ErrPlayerNotFound, updated.ID)
			}
			updated.Normalize()
			doc.Players[i] = updated
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.ReplaceCollection(ctx, services.CollectionPlayers, s.doc.Players)
			return err
		},
		"Player updated.",
	)
}

// SubmitApplication files a join request. The mirror gets a provisional
// timestamp id; the server assigns the durable one.
func (s *Session) SubmitApplication(ctx context.Context, name, number, position, skill string) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	if n, err := strconv.Atoi(number); err == nil {
		if err := s.guardNumber(n, 0); err != nil {
			return err
		}
	}

	app := models.Application{
		ID:       s.clock.Now().UnixMilli(),
		Name:     name,
		Number:   number,
		Position: position,
		Skill:    skill,
	}

	return s.mutate(ctx,
		func(doc *models.Document) error {
			doc.Applications = append(doc.Applications, app)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.CreateRecord(ctx, services.KindApplication, map[string]string{
				"name":     name,
				"number":   number,
				"position": position,
				"skill":    skill,
			})
			return err
		},
		"Application submitted.",
	)
}

// SelectNumber records a jersey-number request for the upcoming season: it
// appends a Selection to the audit log, then marks the player's number_new.
// If the first step's round-trip fails, the log entry is rolled back and the
// player record is never touched.
func (s *Session) SelectNumber(ctx context.Context, playerID, number int) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	i := playerIndex(s.doc.Players, playerID)
	if i < 0 {
		return fmt.Errorf("%w: id %d", ErrPlayerNotFound, playerID)
	}
	playerName := s.doc.Players[i].Name

	if err := s.guardNumber(number, playerID); err != nil {
		return err
	}

	sel := models.Selection{
		ID:         s.clock.Now().UnixMilli(),
		PlayerID:   playerID,
		PlayerName: playerName,
		Number:     number,
		Date:       s.clock.Now().Format("02/01/2006"),
	}

	err := s.mutate(ctx,
		func(doc *models.Document) error {
			doc.Selections = append(doc.Selections, sel)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.CreateRecord(ctx, services.KindSelection, map[string]interface{}{
				"playerId":   playerID,
				"playerName": playerName,
				"number":     number,
			})
			return err
		},
		"",
	)
	if err != nil {
		return err
	}

	return s.mutate(ctx,
		func(doc *models.Document) error {
			i := playerIndex(doc.Players, playerID)
			if i < 0 {
				return fmt.Errorf("%w: id %d", ErrPlayerNotFound, playerID)
			}
			doc.Players[i].NumberNew = models.Number(number)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.ReplaceCollection(ctx, services.CollectionPlayers, s.doc.Players)
			return err
		},
		fmt.Sprintf("Number %d requested for next season.", number),
	)
}

// ApproveApplication converts a pending application into a player, then
// removes it from the queue. The two server steps are separate round-trips;
// a failed first step rolls back the local player-list addition before the
// second step is ever attempted.
func (s *Session) ApproveApplication(ctx context.Context, applicationID int64) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	app, ok := s.findApplication(applicationID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrApplicationNotFound, applicationID)
	}

	var numberCurrent *int
	if n, err := strconv.Atoi(app.Number); err == nil {
		if err := s.guardNumber(n, 0); err != nil {
			return err
		}
		numberCurrent = models.Number(n)
	}

	err := s.mutate(ctx,
		func(doc *models.Document) error {
			player := models.Player{
				ID:            doc.NextPlayerID(),
				Name:          app.Name,
				Position:      app.Position,
				Skill:         app.Skill,
				NumberCurrent: numberCurrent,
			}
			player.Normalize()
			doc.Players = append(doc.Players, player)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.CreateRecord(ctx, services.KindNewPlayer, map[string]interface{}{
				"name":           app.Name,
				"position":       app.Position,
				"skill":          app.Skill,
				"number_current": numberCurrent,
			})
			return err
		},
		"",
	)
	if err != nil {
		return err
	}

	return s.mutate(ctx,
		func(doc *models.Document) error {
			doc.Applications = removeApplication(doc.Applications, applicationID)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.ReplaceCollection(ctx, services.CollectionApplications, s.doc.Applications)
			return err
		},
		fmt.Sprintf("%s joined the roster.", app.Name),
	)
}

// RejectApplication removes a pending application with no side effect.
func (s *Session) RejectApplication(ctx context.Context, applicationID int64) error {
	if s.state != StateReady {
		return ErrNotReady
	}

	if _, ok := s.findApplication(applicationID); !ok {
		return fmt.Errorf("%w: id %d", ErrApplicationNotFound, applicationID)
	}

	return s.mutate(ctx,
		func(doc *models.Document) error {
			doc.Applications = removeApplication(doc.Applications, applicationID)
			return nil
		},
		func(ctx context.Context) error {
			_, err := s.api.ReplaceCollection(ctx, services.CollectionApplications, s.doc.Applications)
			return err
		},
		"Application rejected.",
	)
}

// StaffLogin reveals the admin panel on a literal credential match.
func (s *Session) StaffLogin(username, password string) bool {
	if username == staffUsername && password == staffPassword {
		s.staff = true
		s.notifier.Success("Staff access granted.")
		return true
	}
	s.notifier.Error("Invalid staff credentials.")
	return false
}

func (s *Session) findApplication(id int64) (models.Application, bool) {
	for _, app := range s.doc.Applications {
		if app.ID == id {
			return app, true
		}
	}
	return models.Application{}, false
}

func playerIndex(players []models.Player, id int) int {
	for i := range players {
		if players[i].ID == id {
			return i
		}
	}
	return -1
}

func removeApplication(apps []models.Application, id int64) []models.Application {
	out := apps[:0]
	for _, app := range apps {
		if app.ID != id {
			out = append(out, app)
		}
	}
	return out
}
