package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/srscore/pkg/models"
)

type statsReport struct {
	UserID     string                        `json:"user_id"`
	System     models.SystemStatistics       `json:"system"`
	Forgetting models.ForgettingAnalysis     `json:"forgetting"`
	Settings   models.SettingsRecommendation `json:"settings"`
	Reviews    int                           `json:"reviews"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show card, curve and settings statistics for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		cards, err := a.cards.ListByUser(ctx, user)
		if err != nil {
			return err
		}
		reviews, err := a.logs.CountByUser(ctx, user)
		if err != nil {
			return err
		}

		report := statsReport{
			UserID:     user,
			System:     a.engine.GetSystemStatistics(cards),
			Forgetting: a.engine.AnalyzeRetention(user),
			Settings:   a.engine.OptimizeSettings(user, cards, nil),
			Reviews:    reviews,
		}
		if asJSON {
			return printJSON(cmd.OutOrStdout(), report)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "cards\t%d\n", report.System.TotalCards)
		for _, level := range []models.MasteryLevel{
			models.MasteryLearning, models.MasteryYoung, models.MasteryMature,
			models.MasteryMaster, models.MasterySuspended,
		} {
			fmt.Fprintf(w, "  %s\t%d\n", level, report.System.ByMastery[level])
		}
		fmt.Fprintf(w, "due\t%d\n", report.System.DueCards)
		fmt.Fprintf(w, "overdue\t%d\n", report.System.OverdueCards)
		fmt.Fprintf(w, "average retention\t%.2f\n", report.System.AverageRetention)
		fmt.Fprintf(w, "average ease\t%.2f\n", report.System.AverageEase)
		fmt.Fprintf(w, "reviews logged\t%d\n", report.Reviews)
		fmt.Fprintf(w, "curves\t%d\n", report.System.Curves.TotalCurves)
		if err := w.Flush(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(report.Forgetting.Recommendations) > 0 {
			fmt.Fprintln(out, "\nrecommendations:")
			for _, r := range report.Forgetting.Recommendations {
				fmt.Fprintln(out, "  - "+r)
			}
		}
		if report.Settings.Changed {
			fmt.Fprintln(out, "\nsuggested settings:")
			for _, r := range report.Settings.Reasons {
				fmt.Fprintln(out, "  - "+r)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("user", "", "user to report on")
	statsCmd.Flags().Bool("json", false, "print the report as JSON")
	_ = statsCmd.MarkFlagRequired("user")
}
