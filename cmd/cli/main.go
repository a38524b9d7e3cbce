package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"medinsight/adapters/excel"
	"medinsight/adapters/pk"
	"medinsight/app"
	"medinsight/domain/core"
	"medinsight/domain/insight"
	"medinsight/domain/medication"
	"medinsight/internal/config"
	"medinsight/internal/testkit"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medinsight-cli",
		Short: "MedInsight CLI for concentration curves and insight reports",
	}

	rootCmd.AddCommand(
		newCurveCmd(),
		newReportCmd(),
		newSimulateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCurveCmd() *cobra.Command {
	var halfLife float64
	var vd float64
	var bioavailability float64
	var absorptionRate float64
	var doseMg float64
	var doseCount int
	var intervalHours int
	var weight float64
	var hours int
	var stepHours int
	var mode string

	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Print the concentration curve for a dosing schedule",
		Long: `Simulate one-compartment plasma concentrations for a medication and
dosing schedule, sampled on an hourly grid starting at the first dose.

Example: medinsight-cli curve --half-life 26 --vd 20 --bioavailability 0.44 --dose 50 --doses 5 --interval 24 --hours 120 --step 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			med := medication.Medication{
				ID:                    "cli-curve",
				Name:                  "curve",
				HalfLifeHours:         halfLife,
				VolumeOfDistributionL: vd,
				Bioavailability:       bioavailability,
				AbsorptionRatePerHour: absorptionRate,
			}
			if err := med.Validate(); err != nil {
				return err
			}
			if doseMg <= 0 {
				return fmt.Errorf("dose must be positive, got %v", doseMg)
			}
			if doseCount < 1 || intervalHours < 1 || hours < 1 {
				return fmt.Errorf("doses, interval and hours must all be at least 1")
			}

			return runCurve(med, doseMg, doseCount, intervalHours, weight, hours, stepHours, mode)
		},
	}

	cmd.Flags().Float64Var(&halfLife, "half-life", 24, "Elimination half-life in hours")
	cmd.Flags().Float64Var(&vd, "vd", 20, "Volume of distribution in L per kg body weight")
	cmd.Flags().Float64Var(&bioavailability, "bioavailability", 1, "Absorbed fraction, in (0,1]")
	cmd.Flags().Float64Var(&absorptionRate, "absorption-rate", 1, "Absorption rate constant per hour")
	cmd.Flags().Float64Var(&doseMg, "dose", 100, "Dose amount in mg")
	cmd.Flags().IntVar(&doseCount, "doses", 1, "Number of repeated doses")
	cmd.Flags().IntVar(&intervalHours, "interval", 24, "Hours between repeated doses")
	cmd.Flags().Float64Var(&weight, "weight", pk.DefaultBodyWeightKg, "Body weight in kg")
	cmd.Flags().IntVar(&hours, "hours", 72, "Hours of curve to print")
	cmd.Flags().IntVar(&stepHours, "step", 1, "Grid step in hours")
	cmd.Flags().StringVar(&mode, "mode", "instant", "Sampling mode: instant|trend")

	return cmd
}

func runCurve(med medication.Medication, doseMg float64, doseCount, intervalHours int, weight float64, hours, stepHours int, modeStr string) error {
	mode := pk.Mode(modeStr)
	if mode != pk.ModeInstant && mode != pk.ModeTrend {
		return fmt.Errorf("unknown sampling mode %q: want instant or trend", modeStr)
	}

	// The grid only ever prints offsets from the first dose, so the
	// anchor date is arbitrary.
	start := core.NewTimestamp(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	doses := make([]medication.Dose, 0, doseCount)
	for i := 0; i < doseCount; i++ {
		doses = append(doses, medication.Dose{
			MedicationID: med.ID,
			Timestamp:    start.Add(time.Duration(i*intervalHours) * time.Hour),
			AmountMg:     doseMg,
		})
	}

	window := core.Window{From: start, To: start.Add(time.Duration(hours) * time.Hour)}
	grid := pk.HourlyGrid(window, time.Duration(stepHours)*time.Hour)
	samples := pk.SampleSeries(med, doses, grid, mode, weight)

	fmt.Printf("📈 CONCENTRATION CURVE\n")
	fmt.Printf("Half-life: %.1fh, Vd: %.1f L/kg, F: %.2f, ka: %.2f/h\n",
		med.HalfLifeHours, med.VolumeOfDistributionL, med.Bioavailability, med.AbsorptionRatePerHour)
	fmt.Printf("Schedule: %d x %.1f mg every %dh, body weight %.1f kg, %s sampling\n\n",
		doseCount, doseMg, intervalHours, weight, mode)

	fmt.Printf("%8s  %12s\n", "hour", "ng/mL")
	for i, ts := range grid {
		if pk.IsUndefined(samples[i]) {
			fmt.Printf("%8.1f  %12s\n", ts.HoursSince(start), "-")
			continue
		}
		fmt.Printf("%8.1f  %12.3f\n", ts.HoursSince(start), samples[i])
	}

	profile := pk.Profile(med, doses, window, weight)
	fmt.Printf("\nCmax: %.3f ng/mL at %s (k=%.4f/h)\n",
		profile.CmaxNgPerML, profile.Tmax, profile.EliminationConstant)
	return nil
}

func newReportCmd() *cobra.Command {
	var windowDays int
	var weight float64
	var nowStr string
	var format string

	cmd := &cobra.Command{
		Use:   "report [history-file]",
		Short: "Generate an insight report from an exported history",
		Long: `Load a dose and mood history (an .xlsx workbook or a directory of CSV
files), run the full analysis, and print the report. With no argument the
DATA_FILE environment variable names the history.

Example: medinsight-cli report history.xlsx --window-days 30 --format text`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runReport(cmd.Context(), path, windowDays, weight, nowStr, format)
		},
	}

	cmd.Flags().IntVar(&windowDays, "window-days", 0, "Analysis window in days (0 uses WINDOW_DAYS)")
	cmd.Flags().Float64Var(&weight, "weight", 0, "Body weight in kg (0 uses BODY_WEIGHT_KG)")
	cmd.Flags().StringVar(&nowStr, "now", "", "Report end time, RFC3339 or epoch milliseconds (default: wall clock)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	return cmd
}

func runReport(ctx context.Context, path string, windowDays int, weight float64, nowStr, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if path == "" {
		path = cfg.Data.File
	}
	if path == "" {
		return fmt.Errorf("no history file given and DATA_FILE is not set")
	}
	if windowDays <= 0 {
		windowDays = cfg.Analysis.WindowDays
	}
	if weight <= 0 {
		weight = cfg.Analysis.BodyWeightKg
	}

	var now core.Timestamp
	if nowStr != "" {
		if now, err = core.ParseTimestamp(nowStr); err != nil {
			return err
		}
	}

	profile, err := config.LoadProfile(cfg.Analysis.ProfilePath)
	if err != nil {
		return fmt.Errorf("failed to load analysis profile: %w", err)
	}

	history, err := excel.NewHistoryReader(path).Load(ctx)
	if err != nil {
		return err
	}

	service := app.NewInsightService(profile, nil)
	report, err := service.GenerateReport(ctx, app.ReportRequest{
		Medications:  history.Medications,
		Doses:        history.Doses,
		MoodEntries:  history.MoodEntries,
		WindowDays:   windowDays,
		Now:          now,
		BodyWeightKg: weight,
	})
	if err != nil {
		return err
	}

	return printReport(report, format)
}

func newSimulateCmd() *cobra.Command {
	var seed int64
	var days int
	var format string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Analyze a synthetic history with planted effects",
		Long: `Generate the deterministic demo scenario (a chronic and an acute
medication whose concentrations drive mood metrics), run the full
analysis over it, and print the report.

Example: medinsight-cli simulate --seed 42 --days 60 --format text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 1 {
				return fmt.Errorf("days must be at least 1, got %d", days)
			}
			return runSimulate(cmd.Context(), seed, days, format)
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for the generated history")
	cmd.Flags().IntVar(&days, "days", 60, "Days of history to generate")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text|json")

	return cmd
}

func runSimulate(ctx context.Context, seed int64, days int, format string) error {
	scenario := testkit.DefaultScenarioConfig()
	scenario.Seed = seed
	scenario.Days = days

	kit := testkit.NewTestKitWithConfig(scenario)
	history := kit.History()

	service := app.NewInsightService(config.DefaultProfile(), nil)
	report, err := service.GenerateReport(ctx, app.ReportRequest{
		Medications: history.Medications,
		Doses:       history.Doses,
		MoodEntries: history.MoodEntries,
		WindowDays:  days,
		Now:         core.NewTimestamp(scenario.Start.AddDate(0, 0, scenario.Days)),
	})
	if err != nil {
		return err
	}

	return printReport(report, format)
}

func printReport(report *insight.Report, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		fmt.Println(string(data))
		return nil
	case "text":
		renderReport(os.Stdout, report)
		return nil
	default:
		return fmt.Errorf("unknown output format %q: want text or json", format)
	}
}

func renderReport(w io.Writer, r *insight.Report) {
	q := r.DataQuality
	fmt.Fprintf(w, "📊 MEDICATION INSIGHT REPORT\n")
	fmt.Fprintf(w, "Window: %s .. %s (%d days)\n", r.Window.From, r.Window.To, q.WindowDays)
	fmt.Fprintf(w, "Data: %d mood entries, %d doses, %d medications analyzed, %d excluded\n",
		q.MoodEntries, q.Doses, q.MedicationsAnalyzed, q.MedicationsExcluded)

	if !q.Sufficient {
		fmt.Fprintf(w, "\n⚠️  INSUFFICIENT DATA\n")
		fmt.Fprintf(w, "Too little history in this window for reliable findings; log more doses and mood entries.\n")
	}

	if len(r.TopPositiveImpacts) > 0 {
		fmt.Fprintf(w, "\n✅ TOP POSITIVE IMPACTS\n")
		renderInsights(w, r.TopPositiveImpacts)
	}
	if len(r.TopNegativeImpacts) > 0 {
		fmt.Fprintf(w, "\n❌ TOP NEGATIVE IMPACTS\n")
		renderInsights(w, r.TopNegativeImpacts)
	}

	if len(r.Insights) > 0 {
		fmt.Fprintf(w, "\n📋 ALL FINDINGS (%d)\n", len(r.Insights))
		for _, ins := range r.Insights {
			fmt.Fprintf(w, "• %s → %s: %s, lag %s, r=%.2f, q=%.4f, confidence %s\n",
				ins.MedicationName, ins.MetricLabel, ins.Direction, ins.Lag,
				ins.Correlation.R, ins.AdjustedP, ins.Confidence)
		}
	}

	if len(r.RedFlags) > 0 {
		fmt.Fprintf(w, "\n🚩 RED FLAGS\n")
		for _, flag := range r.RedFlags {
			fmt.Fprintf(w, "• [%s] %s: %s\n", flag.Severity, flag.MedicationName, flag.Summary)
		}
	}

	if len(r.StabilityMetrics) > 0 {
		fmt.Fprintf(w, "\n📉 METRIC STABILITY\n")
		for _, m := range r.StabilityMetrics {
			fmt.Fprintf(w, "• %s: mean %.1f, sd %.1f, stability %.2f, %s (n=%d)\n",
				m.Label, m.Mean, m.StdDev, m.Stability, m.Trend, m.N)
		}
	}

	if len(r.MetricAssociations) > 0 {
		fmt.Fprintf(w, "\n🔗 METRIC ASSOCIATIONS\n")
		for _, pair := range r.MetricAssociations {
			fmt.Fprintf(w, "• %s and %s: r=%.2f (p=%.4f, n=%d)\n",
				pair.A, pair.B, pair.R, pair.P, pair.N)
		}
	}

	if len(r.Excluded) > 0 {
		fmt.Fprintf(w, "\n🚫 EXCLUDED MEDICATIONS\n")
		for _, ex := range r.Excluded {
			fmt.Fprintf(w, "• %s (%s): %s\n", ex.Name, ex.Reason, ex.Detail)
		}
	}

	fmt.Fprintf(w, "\nReport %s, fingerprint %s\n", r.ID, r.Fingerprint.Short())
}

func renderInsights(w io.Writer, insights []insight.Insight) {
	for i, ins := range insights {
		fmt.Fprintf(w, "%d. %s → %s (lag %s)\n", i+1, ins.MedicationName, ins.MetricLabel, ins.Lag)
		fmt.Fprintf(w, "   r=%.2f, q=%.4f, n=%d, effect %+.2f, confidence %s\n",
			ins.Correlation.R, ins.AdjustedP, ins.Correlation.N, ins.EffectSize, ins.Confidence)
		if ins.BestDoseHour != nil {
			fmt.Fprintf(w, "   Best dose hour: %02d:00\n", *ins.BestDoseHour)
		}
		if ins.AdherenceLagDays != nil {
			fmt.Fprintf(w, "   Adherence lag: %d day(s)\n", *ins.AdherenceLagDays)
		}
		fmt.Fprintf(w, "   %s\n", ins.Interpretation)
		if ins.Recommendation != "" {
			fmt.Fprintf(w, "   💡 %s\n", ins.Recommendation)
		}
	}
}
