package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/srscore/internal/forgetting"
	"github.com/example/srscore/pkg/models"
)

type curveRow struct {
	UserID                  string    `db:"user_id"`
	ConceptID               string    `db:"concept_id"`
	Model                   string    `db:"model"`
	InitialRetention        float64   `db:"initial_retention"`
	DecayRate               float64   `db:"decay_rate"`
	StabilityFactor         float64   `db:"stability_factor"`
	RetrievabilityThreshold float64   `db:"retrievability_threshold"`
	Confidence              float64   `db:"confidence"`
	DataPoints              string    `db:"data_points"`
	LastUpdated             time.Time `db:"last_updated"`
}

// CurveRepository persists forgetting-curve snapshots
type CurveRepository struct {
	db *DB
}

// NewCurveRepository creates a new repository instance
func NewCurveRepository(db *DB) *CurveRepository {
	return &CurveRepository{db: db}
}

// SaveAll replaces the stored snapshot of every given curve
func (r *CurveRepository) SaveAll(ctx context.Context, curves []models.ForgettingCurve) error {
	if len(curves) == 0 {
		return nil
	}
	return r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, c := range curves {
			points, err := json.Marshal(c.DataPoints)
			if err != nil {
				return fmt.Errorf("failed to encode data points: %w", err)
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM curves WHERE user_id = ? AND concept_id = ?`), c.UserID, c.ConceptID); err != nil {
				return fmt.Errorf("failed to replace curve: %w", err)
			}
			_, err = tx.NamedExecContext(ctx, `INSERT INTO curves (
					user_id, concept_id, model, initial_retention, decay_rate, stability_factor,
					retrievability_threshold, confidence, data_points, last_updated
				) VALUES (
					:user_id, :concept_id, :model, :initial_retention, :decay_rate, :stability_factor,
					:retrievability_threshold, :confidence, :data_points, :last_updated
				)`, curveRow{
				UserID:                  c.UserID,
				ConceptID:               c.ConceptID,
				Model:                   string(c.Model),
				InitialRetention:        c.InitialRetention,
				DecayRate:               c.DecayRate,
				StabilityFactor:         c.StabilityFactor,
				RetrievabilityThreshold: c.RetrievabilityThreshold,
				Confidence:              c.Confidence,
				DataPoints:              string(points),
				LastUpdated:             c.LastUpdated.UTC(),
			})
			if err != nil {
				return fmt.Errorf("failed to insert curve: %w", err)
			}
		}
		return nil
	})
}

// DeleteKeys removes the stored curves of the given (user, concept) pairs
func (r *CurveRepository) DeleteKeys(ctx context.Context, keys []forgetting.Key) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	removed := 0
	err := r.db.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, k := range keys {
			res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM curves WHERE user_id = ? AND concept_id = ?`), k.UserID, k.ConceptID)
			if err != nil {
				return fmt.Errorf("failed to delete curve: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				removed += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// LoadAll returns every stored curve ordered by user and concept
func (r *CurveRepository) LoadAll(ctx context.Context) ([]models.ForgettingCurve, error) {
	var rows []curveRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT user_id, concept_id, model, initial_retention,
			decay_rate, stability_factor, retrievability_threshold, confidence, data_points, last_updated
		FROM curves ORDER BY user_id, concept_id`); err != nil {
		return nil, fmt.Errorf("failed to load curves: %w", err)
	}

	curves := make([]models.ForgettingCurve, 0, len(rows))
	for _, row := range rows {
		var points []models.DataPoint
		if err := json.Unmarshal([]byte(row.DataPoints), &points); err != nil {
			return nil, fmt.Errorf("failed to decode data points of %s/%s: %w", row.UserID, row.ConceptID, err)
		}
		curves = append(curves, models.ForgettingCurve{
			UserID:                  row.UserID,
			ConceptID:               row.ConceptID,
			Model:                   models.CurveModel(row.Model),
			InitialRetention:        row.InitialRetention,
			DecayRate:               row.DecayRate,
			StabilityFactor:         row.StabilityFactor,
			RetrievabilityThreshold: row.RetrievabilityThreshold,
			Confidence:              row.Confidence,
			DataPoints:              points,
			LastUpdated:             row.LastUpdated.UTC(),
		})
	}
	return curves, nil
}
