package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
)

var (
	schedulePrincipal float64
	scheduleRate      float64
	scheduleTerm      int32
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print a loan amortization schedule",
	Long: `Print the equated monthly installment and the full amortization
schedule of a loan. No database connection is needed.

Example:
  pgedge-ledgergen schedule --principal 120000 --rate 6 --term 12`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().Float64Var(&schedulePrincipal, "principal", 0,
		"loan amount")
	scheduleCmd.Flags().Float64Var(&scheduleRate, "rate", 0,
		"annual interest rate in percent")
	scheduleCmd.Flags().Int32Var(&scheduleTerm, "term", 0,
		"number of monthly installments")
	_ = scheduleCmd.MarkFlagRequired("principal")
	_ = scheduleCmd.MarkFlagRequired("rate")
	_ = scheduleCmd.MarkFlagRequired("term")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	emi, err := ledger.EMI(schedulePrincipal, scheduleRate, scheduleTerm)
	if err != nil {
		return err
	}
	rows, err := ledger.Schedule(schedulePrincipal, scheduleRate, scheduleTerm)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "EMI: %.2f\n\n", emi)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "No\tPayment\tPrincipal\tInterest\tOutstanding\t")
	var totalPrincipal, totalInterest float64
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			r.Number, r.EMI, r.Principal, r.Interest, r.Outstanding)
		totalPrincipal += r.Principal
		totalInterest += r.Interest
	}
	fmt.Fprintf(w, "Total\t%.2f\t%.2f\t%.2f\t\t\n",
		ledger.Round2(totalPrincipal+totalInterest), ledger.Round2(totalPrincipal), ledger.Round2(totalInterest))
	return w.Flush()
}
