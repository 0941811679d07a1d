package excel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/srscore/internal/config"
	"github.com/example/srscore/internal/database"
	"github.com/example/srscore/internal/engine"
	"github.com/example/srscore/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func mustEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.DefaultConfig(), engine.WithClock(func() time.Time { return t0 }))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func newTestRepo(t *testing.T) *database.CardRepository {
	t.Helper()
	db, err := database.Connect(context.Background(), config.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "srs.db"),
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return database.NewCardRepository(db)
}

func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			t.Fatal(err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "cards.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

var header = []interface{}{"concept", "question", "answer", "explanation", "difficulty", "prerequisites", "seconds"}

func TestImportExcel(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	path := writeWorkbook(t, "Deck", [][]interface{}{
		header,
		{"algebra", "2x = 4, x?", "2", "divide by two", "beginner", "", 20},
		{"calculus", "d/dx x^2", "2x", "", "4", "algebra; limits", ""},
		{"", "orphan question", "", "", "", "", ""},
		{},
		{"algebra", "x + 1 = 3, x?", "2", "", "impossible", "", ""},
	})

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = "u1"

	res, err := NewImporter(mustEngine(t), repo, nil).Import(ctx, cfg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 || res.TotalProcessed != 4 || len(res.Errors) != 2 {
		t.Errorf("result = %+v", res)
	}

	cards, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cards) != 2 {
		t.Fatalf("stored %d cards", len(cards))
	}
	byConcept := map[string]models.Card{}
	for _, c := range cards {
		byConcept[c.ConceptID] = c
	}
	alg := byConcept["algebra"]
	if alg.Content.Difficulty != models.DifficultyBeginner || alg.Content.EstimatedSeconds != 20 || alg.Content.Explanation != "divide by two" {
		t.Errorf("algebra card = %+v", alg.Content)
	}
	calc := byConcept["calculus"]
	if calc.Content.Difficulty != models.DifficultyAdvanced {
		t.Errorf("difficulty = %s", calc.Content.Difficulty)
	}
	if len(calc.Prerequisites) != 2 || calc.Prerequisites[0] != "algebra" || calc.Prerequisites[1] != "limits" {
		t.Errorf("prerequisites = %v", calc.Prerequisites)
	}
	if calc.MasteryLevel != models.MasteryLearning || !calc.NextReview.Equal(t0) {
		t.Errorf("new card state = %+v", calc)
	}
}

func TestImportUpdatesExistingCards(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	im := NewImporter(mustEngine(t), repo, nil)

	cfg := DefaultImportConfig()
	cfg.UserID = "u1"
	cfg.FilePath = writeWorkbook(t, "Sheet1", [][]interface{}{
		header,
		{"algebra", "2x = 4, x?", "two", "", "", "", ""},
	})
	if _, err := im.Import(ctx, cfg); err != nil {
		t.Fatal(err)
	}

	cfg.FilePath = writeWorkbook(t, "Sheet1", [][]interface{}{
		header,
		{"Algebra", "2X = 4, X?", "2", "", "advanced", "algebra;geometry;geometry", ""},
		{"algebra", "new one", "x", "", "", "", ""},
	})
	res, err := im.Import(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || res.Created != 1 {
		t.Errorf("result = %+v", res)
	}

	cards, _ := repo.ListByUser(ctx, "u1")
	if len(cards) != 2 {
		t.Fatalf("stored %d cards", len(cards))
	}
	for _, c := range cards {
		if c.Content.Question != "2X = 4, X?" {
			continue
		}
		if c.Content.Answer != "2" || c.Content.Difficulty != models.DifficultyAdvanced {
			t.Errorf("updated card = %+v", c.Content)
		}
		if len(c.Prerequisites) != 1 || c.Prerequisites[0] != "geometry" {
			t.Errorf("updated prerequisites = %v, want [geometry]", c.Prerequisites)
		}
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	path := filepath.Join(t.TempDir(), "cards.csv")
	data := strings.Join([]string{
		"concept,question,answer,explanation,difficulty,prerequisites,seconds",
		`geometry,"Sum of angles in a triangle?",180,,intermediate,,45`,
		"geometry,Right angle?,90",
	}, "\n")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultImportConfig()
	cfg.FilePath = path
	cfg.UserID = "u2"
	res, err := NewImporter(mustEngine(t), repo, nil).Import(ctx, cfg)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Created != 2 || len(res.Errors) != 0 {
		t.Errorf("result = %+v", res)
	}
	cards, _ := repo.ListByUser(ctx, "u2")
	if len(cards) != 2 {
		t.Errorf("stored %d cards", len(cards))
	}
}

func TestImportRequiresUser(t *testing.T) {
	cfg := DefaultImportConfig()
	cfg.FilePath = "cards.xlsx"
	if _, err := NewImporter(mustEngine(t), newTestRepo(t), nil).Import(context.Background(), cfg); err == nil {
		t.Fatal("expected error without user")
	}
}

func TestParseDifficulty(t *testing.T) {
	cases := []struct {
		in   string
		want models.Difficulty
		ok   bool
	}{
		{"", "", true},
		{"Beginner", models.DifficultyBeginner, true},
		{"medium", models.DifficultyIntermediate, true},
		{"HARD", models.DifficultyAdvanced, true},
		{"1", models.DifficultyBeginner, true},
		{"3", models.DifficultyIntermediate, true},
		{"5", models.DifficultyAdvanced, true},
		{"6", "", false},
		{"tricky", "", false},
	}
	for _, tc := range cases {
		got, err := parseDifficulty(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("parseDifficulty(%q) = %q, %v", tc.in, got, err)
		}
	}
}
