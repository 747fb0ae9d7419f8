package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/darwkzm/sopo/models"
	"github.com/darwkzm/sopo/storage"
)

// fakeStore wraps the in-memory store with error injection.
type fakeStore struct {
	*storage.MemoryStore
	getErr error
	putErr error
}

func (s *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *fakeStore) Put(ctx context.Context, key string, data []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, key, data)
}

const testKey = "roster-test"

var testTime = time.Date(2024, time.July, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (RosterService, *fakeStore, *clockwork.FakeClock) {
	t.Helper()
	store := &fakeStore{MemoryStore: storage.NewMemoryStore()}
	clock := clockwork.NewFakeClockAt(testTime)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRosterService(store, testKey, clock, logger), store, clock
}

func mustMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func storedBytes(t *testing.T, store *fakeStore) []byte {
	t.Helper()
	data, err := store.MemoryStore.Get(context.Background(), testKey)
	if err != nil {
		t.Fatalf("reading stored document: %v", err)
	}
	return data
}

func TestGetDocumentSeedsEmptyStore(t *testing.T) {
	svc, store, _ := newTestService(t)

	doc, err := svc.GetDocument(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Players) != 13 {
		t.Errorf("expected 13 seeded players, got %d", len(doc.Players))
	}
	if len(doc.Applications) != 0 || len(doc.Selections) != 0 {
		t.Errorf("expected empty applications and selections")
	}

	// The seed must be persisted, not just returned.
	if data := storedBytes(t, store); len(data) == 0 {
		t.Error("expected seed document to be written to the store")
	}
}

func TestGetDocumentIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetDocument(ctx)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := svc.GetDocument(ctx)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}

	if string(mustMarshal(t, first)) != string(mustMarshal(t, second)) {
		t.Error("two reads without intervening writes returned different documents")
	}
}

func TestAppendApplication(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := mustMarshal(t, map[string]string{
		"name": "Ana", "number": "14", "position": "DC", "skill": "Tiro",
	})
	doc, err := svc.AppendRecord(ctx, KindApplication, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Applications) != 1 {
		t.Fatalf("expected 1 application, got %d", len(doc.Applications))
	}
	app := doc.Applications[0]
	if app.ID != testTime.UnixMilli() {
		t.Errorf("expected timestamp id %d, got %d", testTime.UnixMilli(), app.ID)
	}
	if app.Name != "Ana" || app.Number != "14" {
		t.Errorf("unexpected application content: %+v", app)
	}

	// Visible on a subsequent read.
	got, err := svc.GetDocument(ctx)
	if err != nil {
		t.Fatalf("get after append: %v", err)
	}
	if len(got.Applications) != 1 || got.Applications[0].Name != "Ana" {
		t.Error("appended application not visible on subsequent read")
	}
}

func TestAppendApplicationMissingFields(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	before := storedAfterGet(t, svc, store)

	payload := mustMarshal(t, map[string]string{"name": "Ana"})
	if _, err := svc.AppendRecord(ctx, KindApplication, payload); !errors.Is(err, ErrApplicationFieldsMissing) {
		t.Fatalf("expected ErrApplicationFieldsMissing, got %v", err)
	}

	if string(before) != string(storedBytes(t, store)) {
		t.Error("validation failure must not alter the stored document")
	}
}

func TestAppendNewPlayerAssignsNextID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := mustMarshal(t, map[string]interface{}{
		"name": "Nico", "position": "DC", "skill": "Tiro",
	})
	doc, err := svc.AppendRecord(ctx, KindNewPlayer, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	added := doc.Players[len(doc.Players)-1]
	if added.ID != 14 {
		t.Errorf("seed ids run 1..13, expected new id 14, got %d", added.ID)
	}
	if added.Stats == nil {
		t.Error("new player must have stats filled")
	}
	if added.IsExpelled {
		t.Error("new player must not start expelled")
	}
	if added.NumberCurrent != nil || added.NumberNew != nil {
		t.Error("new player without a number must have both number fields absent")
	}
}

func TestAppendNewPlayerValidation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	before := storedAfterGet(t, svc, store)

	cases := []struct {
		name    string
		payload map[string]interface{}
		want    error
	}{
		{"missing name", map[string]interface{}{"position": "DC", "skill": "Tiro"}, ErrPlayerFieldsMissing},
		{"missing position", map[string]interface{}{"name": "Nico", "skill": "Tiro"}, ErrPlayerFieldsMissing},
		{"missing skill", map[string]interface{}{"name": "Nico", "position": "DC"}, ErrPlayerFieldsMissing},
		{"unknown position", map[string]interface{}{"name": "Nico", "position": "XX", "skill": "Tiro"}, ErrInvalidPosition},
		{"number out of range", map[string]interface{}{"name": "Nico", "position": "DC", "skill": "Tiro", "number_current": 100}, ErrNumberOutOfRange},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AppendRecord(ctx, KindNewPlayer, mustMarshal(t, tc.payload))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if string(before) != string(storedBytes(t, store)) {
		t.Error("validation failures must not alter the stored document")
	}
}

func TestAppendNewPlayerDuplicateNumber(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	// Saul holds 5 in the seed roster.
	payload := mustMarshal(t, map[string]interface{}{
		"name": "Nico", "position": "DC", "skill": "Tiro", "number_current": 5,
	})
	_, err := svc.AppendRecord(ctx, KindNewPlayer, payload)
	if !errors.Is(err, ErrNumberTaken) {
		t.Fatalf("expected ErrNumberTaken, got %v", err)
	}
	if !strings.Contains(err.Error(), "5") {
		t.Errorf("conflict error should name the offending number: %v", err)
	}
}

func TestAppendSelection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := mustMarshal(t, map[string]interface{}{
		"playerId": 7, "playerName": "Kevin", "number": 17,
	})
	doc, err := svc.AppendRecord(ctx, KindSelection, payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Selections) != 1 {
		t.Fatalf("expected 1 selection, got %d", len(doc.Selections))
	}
	sel := doc.Selections[0]
	if sel.ID != testTime.UnixMilli() {
		t.Errorf("expected timestamp id, got %d", sel.ID)
	}
	if sel.Date != "14/07/2024" {
		t.Errorf("expected human-readable date 14/07/2024, got %q", sel.Date)
	}
}

func TestAppendUnknownKind(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.AppendRecord(context.Background(), "bogus", json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownRecordKind) {
		t.Fatalf("expected ErrUnknownRecordKind, got %v", err)
	}
}

func TestReplacePlayersRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	replacement := []models.Player{
		{ID: 1, Name: "Ana", Position: "DC", Skill: "Tiro", NumberCurrent: models.Number(14)},
		{ID: 2, Name: "Luz", Position: "POR", Skill: "Reflejos"},
	}
	doc, err := svc.ReplaceCollection(ctx, CollectionPlayers, mustMarshal(t, replacement))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.GetDocument(ctx)
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if len(got.Players) != 2 {
		t.Fatalf("expected 2 players after replace, got %d", len(got.Players))
	}
	for _, p := range got.Players {
		if p.Stats == nil {
			t.Errorf("player %d missing normalized stats", p.ID)
		}
	}
	if string(mustMarshal(t, doc.Players)) != string(mustMarshal(t, got.Players)) {
		t.Error("replaced players differ from subsequent read")
	}
}

func TestReplacePayloadNotSequence(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	before := storedAfterGet(t, svc, store)

	for _, payload := range []string{`{"id":1}`, `null`, `"players"`, `42`} {
		if _, err := svc.ReplaceCollection(ctx, CollectionPlayers, json.RawMessage(payload)); !errors.Is(err, ErrPayloadNotSequence) {
			t.Errorf("payload %s: expected ErrPayloadNotSequence, got %v", payload, err)
		}
	}

	if string(before) != string(storedBytes(t, store)) {
		t.Error("rejected payloads must not alter the stored document")
	}
}

func TestReplacePlayersDuplicateNumberRejected(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	before := storedAfterGet(t, svc, store)

	replacement := []models.Player{
		{ID: 1, Name: "Ana", NumberCurrent: models.Number(14)},
		{ID: 2, Name: "Luz", NumberNew: models.Number(14)},
	}
	_, err := svc.ReplaceCollection(ctx, CollectionPlayers, mustMarshal(t, replacement))
	if !errors.Is(err, ErrNumberTaken) {
		t.Fatalf("expected ErrNumberTaken, got %v", err)
	}

	if string(before) != string(storedBytes(t, store)) {
		t.Error("rejected replacement must not alter the stored document")
	}
}

func TestReplaceUnknownCollection(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.ReplaceCollection(context.Background(), "selections", json.RawMessage(`[]`))
	if !errors.Is(err, ErrUnknownCollection) {
		t.Fatalf("expected ErrUnknownCollection, got %v", err)
	}
}

func TestStoreWriteFailureSurfaces(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	// Seed first so the failure hits the mutation write.
	if _, err := svc.GetDocument(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.putErr = errors.New("kv is down")

	payload := mustMarshal(t, map[string]string{
		"name": "Ana", "number": "14", "position": "DC", "skill": "Tiro",
	})
	_, err := svc.AppendRecord(ctx, KindApplication, payload)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestStoreReadFailureSurfaces(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.getErr = errors.New("kv is down")

	_, err := svc.GetDocument(context.Background())
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSeedLostRaceReadsWinner(t *testing.T) {
	winner := models.DefaultDocument()
	winner.Players = winner.Players[:1]

	store := &racingStore{winner: mustMarshal(t, winner)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRosterService(store, testKey, clockwork.NewFakeClockAt(testTime), logger)

	doc, err := svc.GetDocument(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Players) != 1 {
		t.Errorf("expected the racing winner's document, got %d players", len(doc.Players))
	}
}

// racingStore simulates another process creating the document between this
// process's Get and PutIfAbsent.
type racingStore struct {
	winner  []byte
	created bool
}

func (s *racingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.created {
		return nil, storage.ErrKeyNotFound
	}
	return s.winner, nil
}

func (s *racingStore) Put(ctx context.Context, key string, data []byte) error {
	return nil
}

func (s *racingStore) PutIfAbsent(ctx context.Context, key string, data []byte) error {
	s.created = true
	return storage.ErrKeyExists
}

// storedAfterGet seeds via GetDocument and returns the persisted bytes, so
// tests can assert the store did not change across a rejected mutation.
func storedAfterGet(t *testing.T, svc RosterService, store *fakeStore) []byte {
	t.Helper()
	if _, err := svc.GetDocument(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return storedBytes(t, store)
}
