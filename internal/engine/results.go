package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/donggangwhy/ClassicSim/internal/attack"
)

// PrintResults writes the damage breakdown, averaged per iteration.
func (r *SimulationResult) PrintResults(w io.Writer) {
	rule := strings.Repeat("-", 96)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Simulation Results")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Duration: %.0fs\n", r.Duration.Seconds())
	fmt.Fprintf(w, "Iterations: %d\n", r.Iterations)
	if r.InactiveExecutors > 0 {
		fmt.Fprintf(w, "Inactive rotation entries: %d\n", r.InactiveExecutors)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Total DPS: %.2f\n", r.TotalDPS)
	fmt.Fprintf(w, "Total Damage: %.0f\n", r.TotalDamage)
	fmt.Fprintln(w)

	if r.Breakdown == nil {
		return
	}
	iterations := float64(r.Iterations)
	if iterations < 1 {
		iterations = 1
	}
	total := r.Breakdown.Total()

	fmt.Fprintln(w, "Damage Breakdown (average per iteration):")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%-22s | %7s | %12s | %6s | %7s | %7s | %7s | %6s | %6s\n",
		"Source", "Casts", "Damage", "Share", "Avg", "Min", "Max", "Crit%", "Miss%")
	fmt.Fprintln(w, rule)
	for _, name := range r.Breakdown.Sources() {
		stats, _ := r.Breakdown.Source(name)
		if stats.Attempts == 0 {
			continue
		}
		share := 0.0
		if total > 0 {
			share = stats.Damage / total * 100
		}
		minDamage := stats.MinDamage
		if stats.Damage <= 0 {
			minDamage = 0
		}
		attempts := float64(stats.Attempts)
		crits := float64(stats.Outcomes[attack.OutcomeCritical.String()] + stats.Outcomes[attack.OutcomeBlockCritical.String()])
		misses := float64(stats.Outcomes[attack.OutcomeMiss.String()])
		fmt.Fprintf(w, "%-22s | %7.1f | %12.0f | %5.1f%% | %7.0f | %7.0f | %7.0f | %5.1f%% | %5.1f%%\n",
			name,
			attempts/iterations,
			stats.Damage/iterations,
			share,
			stats.Damage/attempts,
			minDamage,
			stats.MaxDamage,
			crits/attempts*100,
			misses/attempts*100)
	}
	fmt.Fprintln(w, rule)
}
