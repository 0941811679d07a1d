package database

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/example/srscore/internal/config"
	"github.com/example/srscore/internal/forgetting"
	"github.com/example/srscore/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Connect(context.Background(), config.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "nested", "srs.db"),
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testCard(id, user, concept string, next time.Time) models.Card {
	return models.Card{
		ID:        id,
		UserID:    user,
		ConceptID: concept,
		Content: models.Content{
			Question:         "What is " + concept + "?",
			Answer:           "an answer",
			Difficulty:       models.DifficultyIntermediate,
			EstimatedSeconds: 20,
		},
		MasteryLevel:  models.MasteryLearning,
		Interval:      1,
		EaseFactor:    2.5,
		NextReview:    next,
		PriorityScore: 50,
		Algorithm:     models.AlgorithmSM2,
		Stats:         models.CardStats{Trend: models.TrendStable},
		CreatedAt:     t0,
		UpdatedAt:     t0,
	}
}

func TestDialectFor(t *testing.T) {
	cases := map[string]string{
		"":           "sqlite",
		"sqlite3":    "sqlite",
		"PostgreSQL": "postgres",
		"mysql":      "mysql",
	}
	for in, want := range cases {
		d, err := DialectFor(in)
		if err != nil || d.Name() != want {
			t.Errorf("DialectFor(%q) = %v, %v; want %s", in, d, err, want)
		}
	}
	if _, err := DialectFor("oracle"); err == nil {
		t.Error("expected error for unsupported type")
	}
}

func TestMySQLDSNForcesParseTime(t *testing.T) {
	dsn, err := NewMySQLDialect().DSN(DialectConfig{URL: "srs:secret@tcp(localhost:3306)/srs"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("dsn = %s", dsn)
	}
	if _, err := NewMySQLDialect().DSN(DialectConfig{}); err == nil {
		t.Error("expected error without url")
	}
	if _, err := NewPostgresDialect().DSN(DialectConfig{}); err == nil {
		t.Error("expected error without url")
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "srs.db")
	for i := 0; i < 2; i++ {
		db, err := Connect(context.Background(), config.DatabaseConfig{Type: "sqlite", Path: path})
		if err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
		db.Close()
	}
}

func TestCardRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCardRepository(newTestDB(t))

	reviewed := t0.Add(-24 * time.Hour)
	card := testCard("c1", "u1", "algebra", t0.AddDate(0, 0, 4))
	card.Prerequisites = []string{"arith", "numbers"}
	card.LastReviewed = &reviewed
	card.Stats = models.CardStats{
		TotalReviews: 3, CorrectReviews: 2, CurrentStreak: 1, MaxStreak: 2,
		AverageResponseMs: 4200, LastAccuracy: 0.51, RetentionRate: 0.66, Trend: models.TrendImproving,
	}

	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != card.Content || got.Stats != card.Stats {
		t.Errorf("got %+v\nwant %+v", got, card)
	}
	if !got.NextReview.Equal(card.NextReview) || got.LastReviewed == nil || !got.LastReviewed.Equal(reviewed) {
		t.Errorf("times = %v %v", got.NextReview, got.LastReviewed)
	}
	if len(got.Prerequisites) != 2 || got.Prerequisites[1] != "numbers" {
		t.Errorf("prerequisites = %v", got.Prerequisites)
	}

	card.Interval = 6
	card.MasteryLevel = models.MasteryYoung
	card.LastReviewed = nil
	if err := repo.Save(ctx, card); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = repo.Get(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Interval != 6 || got.MasteryLevel != models.MasteryYoung || got.LastReviewed != nil {
		t.Errorf("after update = %+v", got)
	}
}

func TestGetMissingCard(t *testing.T) {
	repo := NewCardRepository(newTestDB(t))
	if _, err := repo.Get(context.Background(), "nope"); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("err = %v, want ErrCardNotFound", err)
	}
}

func TestListQueries(t *testing.T) {
	ctx := context.Background()
	repo := NewCardRepository(newTestDB(t))

	suspended := testCard("c4", "u1", "d", t0.Add(-time.Hour))
	suspended.MasteryLevel = models.MasterySuspended
	cards := []models.Card{
		testCard("c1", "u1", "a", t0.Add(-2*time.Hour)),
		testCard("c2", "u1", "b", t0.Add(time.Hour)),
		testCard("c3", "u2", "a", t0.Add(-time.Hour)),
		suspended,
		testCard("c5", "u1", "e", t0),
	}
	if err := repo.SaveAll(ctx, cards); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	byUser, err := repo.ListByUser(ctx, "u1")
	if err != nil || len(byUser) != 4 {
		t.Fatalf("ListByUser = %d cards, %v", len(byUser), err)
	}

	due, err := repo.ListDue(ctx, "u1", t0)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].ID != "c1" || due[1].ID != "c5" {
		t.Errorf("due = %v", cardIDs(due))
	}

	all, err := repo.ListAll(ctx)
	if err != nil || len(all) != 5 {
		t.Errorf("ListAll = %d, %v", len(all), err)
	}

	users, err := repo.Users(ctx)
	if err != nil || len(users) != 2 || users[0] != "u1" {
		t.Errorf("Users = %v, %v", users, err)
	}
}

func cardIDs(cards []models.Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func TestCurveSnapshots(t *testing.T) {
	ctx := context.Background()
	repo := NewCurveRepository(newTestDB(t))

	curve := models.ForgettingCurve{
		UserID: "u1", ConceptID: "algebra", Model: models.CurvePower,
		InitialRetention: 0.95, DecayRate: 0.3, StabilityFactor: 1 / 0.3,
		RetrievabilityThreshold: 0.9, Confidence: 0.7,
		DataPoints: []models.DataPoint{
			{TimeElapsedHours: 0, Retention: 1, WasCorrect: true, ResponseTimeMs: 3000, Confidence: 0.95, RecordedAt: t0},
			{TimeElapsedHours: 24, Retention: 0.6, WasCorrect: true, ResponseTimeMs: 8000, Confidence: 0.87, RecordedAt: t0.Add(24 * time.Hour)},
		},
		LastUpdated: t0.Add(24 * time.Hour),
	}
	other := models.ForgettingCurve{UserID: "u2", ConceptID: "geo", Model: models.CurveExponential, DecayRate: 0.1, LastUpdated: t0}

	if err := repo.SaveAll(ctx, []models.ForgettingCurve{curve, other}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	curve.Confidence = 0.8
	if err := repo.SaveAll(ctx, []models.ForgettingCurve{curve}); err != nil {
		t.Fatalf("resave: %v", err)
	}

	loaded, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d curves", len(loaded))
	}
	got := loaded[0]
	if got.Model != models.CurvePower || got.Confidence != 0.8 || len(got.DataPoints) != 2 {
		t.Errorf("curve = %+v", got)
	}
	if !got.DataPoints[1].RecordedAt.Equal(t0.Add(24*time.Hour)) || got.DataPoints[1].Retention != 0.6 {
		t.Errorf("data point = %+v", got.DataPoints[1])
	}

	removed, err := repo.DeleteKeys(ctx, []forgetting.Key{
		{UserID: "u2", ConceptID: "geo"},
		{UserID: "u2", ConceptID: "never-stored"},
	})
	if err != nil || removed != 1 {
		t.Fatalf("DeleteKeys = %d, %v", removed, err)
	}
	loaded, _ = repo.LoadAll(ctx)
	if len(loaded) != 1 || loaded[0].UserID != "u1" {
		t.Errorf("after delete = %+v", loaded)
	}
}

func TestReviewLog(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	if err := NewCardRepository(db).Save(ctx, testCard("c1", "u1", "a", t0)); err != nil {
		t.Fatal(err)
	}
	logs := NewReviewLogRepository(db)

	for i, q := range []int{5, 2} {
		entry := models.ReviewLog{
			ID: string(rune('a' + i)), CardID: "c1", UserID: "u1", ConceptID: "a",
			Quality: q, ResponseTimeMs: 4000, ElapsedHours: float64(i * 24),
			Interval: 4 - 3*i, EaseFactor: 2.5, MasteryLevel: "learning",
			ReviewedAt: t0.Add(time.Duration(i) * 24 * time.Hour),
		}
		if err := logs.Append(ctx, entry); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	entries, err := logs.ListByCard(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].Quality != 5 || entries[1].Interval != 1 {
		t.Errorf("entries = %+v", entries)
	}
	if !entries[1].ReviewedAt.Equal(t0.Add(24 * time.Hour)) {
		t.Errorf("reviewed at = %v", entries[1].ReviewedAt)
	}

	n, err := logs.CountByUser(ctx, "u1")
	if err != nil || n != 2 {
		t.Errorf("CountByUser = %d, %v", n, err)
	}
}
