package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/srscore/internal/spaced_repetition"
	"github.com/example/srscore/pkg/models"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Record one review of a card",
	RunE: func(cmd *cobra.Command, args []string) error {
		cardID, _ := cmd.Flags().GetString("card")
		qualityArg, _ := cmd.Flags().GetString("quality")
		responseMs, _ := cmd.Flags().GetInt("response-ms")

		quality, err := spaced_repetition.ParseQuality(qualityArg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		card, err := a.cards.Get(ctx, cardID)
		if err != nil {
			return err
		}
		r, err := a.engine.ProcessReview(card, quality, responseMs)
		if err != nil {
			return err
		}

		if err := a.cards.Save(ctx, r.Card); err != nil {
			return err
		}
		if err := a.logs.Append(ctx, r.Log); err != nil {
			return err
		}
		if curve, ok := a.engine.Curves().Curve(r.Card.UserID, r.Card.ConceptID); ok {
			if err := a.curves.SaveAll(ctx, []models.ForgettingCurve{curve}); err != nil {
				return err
			}
		}

		a.logger.Info("review recorded", zap.String("card", cardID), zap.Int("quality", quality))
		fmt.Fprintf(cmd.OutOrStdout(), "next review in %d days (%s), mastery %s, ease %.2f\n",
			r.Card.Interval, r.Card.NextReview.Format("2006-01-02"), r.Card.MasteryLevel, r.Card.EaseFactor)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("card", "", "card id")
	reviewCmd.Flags().String("quality", "", "recall quality 0-5")
	reviewCmd.Flags().Int("response-ms", 0, "response time in milliseconds")
	_ = reviewCmd.MarkFlagRequired("card")
	_ = reviewCmd.MarkFlagRequired("quality")
}
