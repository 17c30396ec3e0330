package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/riskradar/riskradar/internal/auditstore"
	"github.com/riskradar/riskradar/internal/config"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect stored audit traces",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent audit traces",
	RunE:  runAuditList,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <trace-id>",
	Short: "Print a stored audit trace",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

func init() {
	auditListCmd.Flags().String("repo", "", "filter by repository (owner/repo)")
	auditListCmd.Flags().Int("pr", 0, "filter by PR number")
	auditListCmd.Flags().Int("limit", 20, "maximum rows")

	auditShowCmd.Flags().Bool("verify", false, "recompute the score from the recorded inputs")

	auditCmd.AddCommand(auditListCmd)
	auditCmd.AddCommand(auditShowCmd)
}

func openAuditStore() (*auditstore.Store, error) {
	if result := cfg.Validate(config.ValidationContextAudit); result.HasErrors() {
		return nil, fmt.Errorf("%s", result.Error())
	}
	return auditstore.Open(cfg.Audit.DatabasePath)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repo, _ := cmd.Flags().GetString("repo")
	pr, _ := cmd.Flags().GetInt("pr")
	limit, _ := cmd.Flags().GetInt("limit")

	summaries, err := store.List(context.Background(), repo, pr, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No audit traces found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tREPOSITORY\tPR\tSCORE\tLEVEL\tTRACE ID")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t#%d\t%.3f\t%s\t%s\n",
			s.Timestamp.Format("2006-01-02 15:04"), s.Repository, s.PRNumber, s.FinalScore, s.RiskLevel, s.TraceID)
	}
	return w.Flush()
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	trace, err := store.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	payload, err := trace.ToJSON()
	if err != nil {
		return err
	}
	fmt.Println(string(payload))

	if verify, _ := cmd.Flags().GetBool("verify"); verify {
		recomputed := trace.Recompute()
		if math.Abs(recomputed-trace.FinalScore) > 1e-9 {
			return fmt.Errorf("verification failed: recorded %.3f, recomputed %.3f", trace.FinalScore, recomputed)
		}
		fmt.Fprintf(os.Stderr, "Verified: recomputed score %.3f matches the recorded score.\n", recomputed)
	}
	return nil
}
