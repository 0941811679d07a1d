package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/srscore/internal/engine"
	"github.com/example/srscore/pkg/models"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Print the review queue for a study session",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		minutes, _ := cmd.Flags().GetInt("minutes")
		queueType, _ := cmd.Flags().GetString("type")
		concepts, _ := cmd.Flags().GetStringSlice("concept")
		asJSON, _ := cmd.Flags().GetBool("json")

		switch models.QueueType(queueType) {
		case models.QueueDaily, models.QueueNew, models.QueueReview, models.QueueWeak:
		default:
			return fmt.Errorf("unknown queue type %q", queueType)
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		cards, err := a.cards.ListByUser(cmd.Context(), user)
		if err != nil {
			return err
		}
		q := a.engine.GenerateStudySession(user, cards, engine.SessionOptions{
			ConceptIDs:    concepts,
			QueueType:     models.QueueType(queueType),
			TargetMinutes: minutes,
		})

		if asJSON {
			return printJSON(cmd.OutOrStdout(), q)
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCARD\tCONCEPT\tTYPE\tPRIORITY\tSECONDS\tQUESTION")
		for i, c := range q.Cards {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%.0f\t%s\n",
				i+1, c.Card.ID, c.Card.ConceptID, c.ReviewType, c.Priority, c.EstimatedSeconds, c.Card.Content.Question)
		}
		fmt.Fprintf(w, "\n%d cards (%d new, %d review, %d relearn), about %d minutes\n",
			q.Statistics.TotalCards, q.Statistics.NewCards, q.Statistics.ReviewCards,
			q.Statistics.RelearnCards, q.Metadata.EstimatedMinutes)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	sessionCmd.Flags().String("user", "", "user to build the session for")
	sessionCmd.Flags().Int("minutes", 0, "target session length (default: queue.session_minutes)")
	sessionCmd.Flags().String("type", string(models.QueueDaily), "queue type: daily, new, review or weak")
	sessionCmd.Flags().StringSlice("concept", nil, "restrict to these concepts (repeatable)")
	sessionCmd.Flags().Bool("json", false, "print the queue as JSON")
	_ = sessionCmd.MarkFlagRequired("user")
}
