package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/database"
	"github.com/example/srscore/internal/engine"
	"github.com/example/srscore/pkg/models"
)

// CardStore is the persistence the importer writes to
type CardStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Card, error)
	SaveAll(ctx context.Context, cards []models.Card) error
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath string // Path to the Excel or CSV file
	UserID   string // Owner of the imported cards

	ConceptColumn          string
	QuestionColumn         string
	AnswerColumn           string
	ExplanationColumn      string
	DifficultyColumn       string
	PrerequisitesColumn    string // concept ids separated by ';'
	EstimatedSecondsColumn string

	SheetName string // Name of the sheet to import; empty means the first sheet
	StartRow  int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ConceptColumn:          "A",
		QuestionColumn:         "B",
		AnswerColumn:           "C",
		ExplanationColumn:      "D",
		DifficultyColumn:       "E",
		PrerequisitesColumn:    "F",
		EstimatedSecondsColumn: "G",
		StartRow:               2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer turns spreadsheet rows into cards
type Importer struct {
	engine *engine.Engine
	cards  CardStore
	logger *zap.Logger
}

// NewImporter creates an importer
func NewImporter(e *engine.Engine, cards CardStore, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{engine: e, cards: cards, logger: logger}
}

// Import reads cards from an Excel or CSV file. Rows matching an existing card of
// the user by concept and question update its content; other rows create cards.
func (im *Importer) Import(ctx context.Context, cfg ImportConfig) (*ImportResult, error) {
	if strings.TrimSpace(cfg.UserID) == "" {
		return nil, fmt.Errorf("import: user id is required")
	}
	if cfg.StartRow < 1 {
		cfg.StartRow = 1
	}
	cols, err := resolveColumns(cfg)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(cfg.FilePath)) == ".csv" {
		rows, err = readCSV(cfg.FilePath)
	} else {
		rows, err = readExcel(cfg.FilePath, cfg.SheetName)
	}
	if err != nil {
		return nil, err
	}

	existing, err := im.cards.ListByUser(ctx, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing cards: %w", err)
	}
	index := make(map[string]int, len(existing))
	for i, c := range existing {
		index[cardKey(c.ConceptID, c.Content.Question)] = i
	}

	result := &ImportResult{Errors: make([]string, 0)}
	var pending []models.Card
	for i, row := range rows {
		rowNum := i + 1
		if rowNum < cfg.StartRow {
			continue
		}
		if blank(row) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++

		rec, err := cols.record(row)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		key := cardKey(rec.concept, rec.content.Question)
		if idx, ok := index[key]; ok {
			c, err := im.engine.UpdateCardContent(existing[idx], rec.content, rec.prerequisites)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
				continue
			}
			existing[idx] = c
			pending = append(pending, c)
			result.Updated++
			continue
		}

		card, err := im.engine.CreateCard(cfg.UserID, rec.concept, rec.content, rec.prerequisites)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		existing = append(existing, card)
		index[key] = len(existing) - 1
		pending = append(pending, card)
		result.Created++
	}

	if err := im.cards.SaveAll(ctx, pending); err != nil {
		return nil, fmt.Errorf("failed to save imported cards: %w", err)
	}
	im.logger.Info("cards imported",
		zap.String("file", cfg.FilePath),
		zap.String("user", cfg.UserID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

// readExcel returns every row of the sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type columns struct {
	concept, question, answer, explanation, difficulty, prerequisites, seconds int
}

type record struct {
	concept       string
	content       models.Content
	prerequisites []string
}

// resolveColumns converts column letters to zero-based indexes; an empty letter disables the column
func resolveColumns(cfg ImportConfig) (columns, error) {
	var cols columns
	letters := []struct {
		letter string
		dst    *int
	}{
		{cfg.ConceptColumn, &cols.concept},
		{cfg.QuestionColumn, &cols.question},
		{cfg.AnswerColumn, &cols.answer},
		{cfg.ExplanationColumn, &cols.explanation},
		{cfg.DifficultyColumn, &cols.difficulty},
		{cfg.PrerequisitesColumn, &cols.prerequisites},
		{cfg.EstimatedSecondsColumn, &cols.seconds},
	}
	for _, s := range letters {
		if s.letter == "" {
			*s.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(s.letter)
		if err != nil {
			return columns{}, fmt.Errorf("invalid column %q: %w", s.letter, err)
		}
		*s.dst = n - 1
	}
	if cols.concept < 0 || cols.question < 0 {
		return columns{}, fmt.Errorf("concept and question columns are required")
	}
	return cols, nil
}

func (c columns) record(row []string) (record, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	rec := record{
		concept: cell(c.concept),
		content: models.Content{
			Question:    cell(c.question),
			Answer:      cell(c.answer),
			Explanation: cell(c.explanation),
		},
	}
	if rec.concept == "" {
		return record{}, fmt.Errorf("concept cannot be empty")
	}
	if rec.content.Question == "" {
		return record{}, fmt.Errorf("question cannot be empty")
	}

	difficulty, err := parseDifficulty(cell(c.difficulty))
	if err != nil {
		return record{}, err
	}
	rec.content.Difficulty = difficulty

	if s := cell(c.seconds); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return record{}, fmt.Errorf("invalid estimated seconds %q", s)
		}
		rec.content.EstimatedSeconds = n
	}

	for _, p := range strings.Split(cell(c.prerequisites), database.PrerequisiteSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			rec.prerequisites = append(rec.prerequisites, p)
		}
	}
	return rec, nil
}

// parseDifficulty accepts a level name or a 1-5 rating
func parseDifficulty(s string) (models.Difficulty, error) {
	switch strings.ToLower(s) {
	case "":
		return "", nil
	case string(models.DifficultyBeginner), "easy":
		return models.DifficultyBeginner, nil
	case string(models.DifficultyIntermediate), "medium":
		return models.DifficultyIntermediate, nil
	case string(models.DifficultyAdvanced), "hard":
		return models.DifficultyAdvanced, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return "", fmt.Errorf("invalid difficulty %q", s)
	}
	switch {
	case n <= 2:
		return models.DifficultyBeginner, nil
	case n == 3:
		return models.DifficultyIntermediate, nil
	default:
		return models.DifficultyAdvanced, nil
	}
}

func cardKey(concept, question string) string {
	return strings.ToLower(concept) + "\x00" + strings.ToLower(question)
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
