// Package app orchestrates the analysis pipeline: it wires dose and mood
// history through the PK model and the statistics engine and assembles the
// insight report. Services here hold configuration and concurrency limits
// but no data; every request is self-contained.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"medinsight/adapters/pk"
	"medinsight/adapters/stats/engine"
	"medinsight/domain/core"
	"medinsight/domain/insight"
	"medinsight/domain/medication"
	"medinsight/domain/mood"
	"medinsight/domain/stats"
	"medinsight/internal"
	"medinsight/internal/config"
	"medinsight/internal/errors"
	"medinsight/internal/metrics"
)

// DefaultWindowDays bounds the analysis when a request leaves it unset
const DefaultWindowDays = 30

// InsightService turns raw history into insight reports. It fans out
// per-medication analysis under a weighted semaphore and reassembles
// results in deterministic order; the functions it calls are pure, so the
// fan-out introduces no races.
type InsightService struct {
	profile config.AnalysisProfile
	logger  *internal.Logger
	sem     *semaphore.Weighted
}

// NewInsightService creates the service. A nil logger falls back to the
// process default.
func NewInsightService(profile config.AnalysisProfile, logger *internal.Logger) *InsightService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	parallel := profile.MaxParallelMedications
	if parallel < 1 {
		parallel = 1
	}
	return &InsightService{
		profile: profile,
		logger:  logger.Named("insight"),
		sem:     semaphore.NewWeighted(parallel),
	}
}

// ReportRequest carries everything one report is computed from. Now is
// explicit so identical requests yield byte-identical reports; a zero Now
// falls back to the wall clock.
type ReportRequest struct {
	Medications  []medication.Medication `json:"medications"`
	Doses        []medication.Dose       `json:"doses"`
	MoodEntries  []mood.Entry            `json:"moodEntries"`
	WindowDays   int                     `json:"windowDays,omitempty"`
	Now          core.Timestamp          `json:"now,omitempty"`
	BodyWeightKg float64                 `json:"bodyWeightKg,omitempty"`
}

// GenerateReport runs the full pipeline: window restriction, exclusion
// checks, per-medication lag scans, report-wide FDR correction, and report
// assembly. Degenerate data produces a report describing its own
// insufficiency, never an error; the only error paths are cancellation and
// serialization.
func (s *InsightService) GenerateReport(ctx context.Context, req ReportRequest) (*insight.Report, error) {
	start := time.Now()

	now := req.Now
	if now.IsZero() {
		now = core.Now()
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	weight := req.BodyWeightKg
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight <= 0 {
		weight = pk.DefaultBodyWeightKg
	}
	window := core.NewWindowEnding(now, windowDays)

	entries := mood.SortedByTime(mood.InWindow(req.MoodEntries, window))
	windowDoses := medication.InWindow(req.Doses, window)
	meds := sortedMedications(req.Medications)

	analyzable, excluded := s.partition(meds, windowDoses, len(entries))
	s.logger.Info("report window %s..%s: %d mood entries, %d doses, %d/%d medications analyzable",
		window.From, window.To, len(entries), len(windowDoses), len(analyzable), len(meds))

	// Acquire can succeed on an already-done context, so check up front
	if err := ctx.Err(); err != nil {
		metrics.ObserveReport(time.Since(start), "error")
		return nil, errors.Wrap(err, "insight analysis interrupted")
	}

	results := make([]medicationAnalysis, len(analyzable))
	var wg sync.WaitGroup
	for i := range analyzable {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := s.sem.Acquire(ctx, 1); err != nil {
				results[i].err = err
				return
			}
			defer s.sem.Release(1)
			results[i] = s.analyzeMedication(analyzable[i], req.Doses, entries, window, weight)
		}(i)
	}
	wg.Wait()

	var findings []finding
	var rangeFlags []insight.RedFlag
	for _, res := range results {
		if res.err != nil {
			metrics.ObserveReport(time.Since(start), "error")
			return nil, errors.Wrap(res.err, "insight analysis interrupted")
		}
		findings = append(findings, res.findings...)
		rangeFlags = append(rangeFlags, res.rangeFlags...)
	}

	report := s.assemble(now, window, windowDays, entries, windowDoses, len(analyzable), excluded, findings, rangeFlags)
	if err := fingerprintReport(report); err != nil {
		metrics.ObserveReport(time.Since(start), "error")
		return nil, errors.Wrap(err, "fingerprint report")
	}

	for _, ex := range excluded {
		metrics.CountExclusion(string(ex.Reason))
	}
	metrics.CountInsights(len(report.Insights))
	metrics.ObserveReport(time.Since(start), "success")
	s.logger.Info("report %s: %d insights, %d red flags, %d medications excluded",
		report.ID, len(report.Insights), len(report.RedFlags), len(excluded))
	return report, nil
}

// partition splits medications into analyzable and excluded. Exclusion
// reasons are checked in a fixed order so the reported reason is stable:
// invalid PK first, then the dose floor, then the dataset mood floor.
func (s *InsightService) partition(meds []medication.Medication, windowDoses []medication.Dose, moodCount int) ([]medication.Medication, []insight.ExcludedMedication) {
	analyzable := make([]medication.Medication, 0, len(meds))
	excluded := make([]insight.ExcludedMedication, 0)

	for _, med := range meds {
		doseCount := len(medication.ForMedication(windowDoses, med.ID))
		switch {
		case !med.HasValidPK():
			excluded = append(excluded, insight.ExcludedMedication{
				MedicationID: med.ID,
				Name:         med.Name,
				Reason:       insight.ExcludedInvalidPK,
				Detail:       "pharmacokinetic parameters missing or non-physical",
			})
		case doseCount < s.profile.MinDoses:
			excluded = append(excluded, insight.ExcludedMedication{
				MedicationID: med.ID,
				Name:         med.Name,
				Reason:       insight.ExcludedFewDoses,
				Detail:       fmt.Sprintf("%d doses in window, need %d", doseCount, s.profile.MinDoses),
			})
		case moodCount < s.profile.MinMoodEntries:
			excluded = append(excluded, insight.ExcludedMedication{
				MedicationID: med.ID,
				Name:         med.Name,
				Reason:       insight.ExcludedFewMoodPoints,
				Detail:       fmt.Sprintf("%d mood entries in window, need %d", moodCount, s.profile.MinMoodEntries),
			})
		default:
			analyzable = append(analyzable, med)
		}
	}
	return analyzable, excluded
}

// medicationAnalysis is one medication's fan-out result
type medicationAnalysis struct {
	findings   []finding
	rangeFlags []insight.RedFlag
	err        error
}

// finding is one (medication, metric) result before FDR correction
type finding struct {
	med       medication.Medication
	metric    mood.MetricKey
	lag       core.LagHours
	corr      stats.CorrelationResult
	viable    bool
	effect    float64
	bestHour  *int
	adherence *int
}

// analyzeMedication scans every candidate lag for every metric the entries
// carry, keeps the best viable lag per metric (falling back to the best
// overall when none reaches the pair floor), and attaches the auxiliary
// signals. Pure over its inputs.
func (s *InsightService) analyzeMedication(med medication.Medication, allDoses []medication.Dose, entries []mood.Entry, window core.Window, weightKg float64) medicationAnalysis {
	own := medication.SortedByTime(medication.ForMedication(allDoses, med.ID))
	windowOwn := medication.InWindow(own, window)
	class := medication.Classify(med, windowOwn)
	lags := s.profile.LagsFor(class)

	// Doses before the window still matter at lagged sample points, so the
	// lookback extends past the window start by the largest candidate lag.
	maxLag := 0
	for _, l := range lags {
		if l > maxLag {
			maxLag = l
		}
	}
	sampleWindow := core.Window{From: window.From.Add(-time.Duration(maxLag) * time.Hour), To: window.To}
	recent := pk.RecentDoses(own, sampleWindow, med.HalfLifeHours)

	s.logger.Debug("analyzing %s: class=%s, %d doses in scope, %d candidate lags",
		med.Name, class, len(recent), len(lags))

	bestHour := bestDoseHour(windowOwn, entries, class.TrendWindow())
	var adherence *int
	if class == medication.ClassChronic {
		adherence = adherenceLagDays(windowOwn, entries, window, s.profile.MinPairs)
	}

	var analysis medicationAnalysis
	for _, metric := range mood.AllMetrics() {
		times, values := mood.MetricSeries(entries, metric)
		if len(values) == 0 {
			continue
		}

		f := finding{med: med, metric: metric}
		var bestConcs []float64
		chosen := false
		for _, lagHours := range lags {
			concs := concentrationSeriesAt(med, recent, times, lagHours, weightKg)
			corr := engine.Correlate(concs, values, stats.MethodPearson)
			viable := corr.N >= s.profile.MinPairs

			switch {
			case !chosen:
			case viable && !f.viable:
			case viable == f.viable && math.Abs(corr.R) > math.Abs(f.corr.R):
			default:
				continue
			}
			f.lag = core.NewLagHours(lagHours)
			f.corr = corr
			f.viable = viable
			bestConcs = concs
			chosen = true
		}

		if effect, ok := engine.MedianSplitDifference(bestConcs, values); ok {
			f.effect = effect
		}
		if metric == mood.MetricMood {
			f.bestHour = bestHour
			f.adherence = adherence
		}
		analysis.findings = append(analysis.findings, f)
	}

	if flag, ok := rangeFlag(med, recent, window, weightKg); ok {
		analysis.rangeFlags = append(analysis.rangeFlags, flag)
	}
	return analysis
}

// assemble corrects the collected p-values report-wide, recomputes each
// finding's significance and confidence from the adjusted values, and
// builds the report in deterministic order.
func (s *InsightService) assemble(now core.Timestamp, window core.Window, windowDays int, entries []mood.Entry, windowDoses []medication.Dose, analyzedCount int, excluded []insight.ExcludedMedication, findings []finding, rangeFlags []insight.RedFlag) *insight.Report {
	pvals := make([]float64, len(findings))
	for i, f := range findings {
		pvals[i] = f.corr.P
	}
	fdr := engine.AdjustFDR(pvals, s.profile.Alpha)

	insights := make([]insight.Insight, 0, len(findings))
	for i, f := range findings {
		adjusted := fdr.Adjusted[i]
		corr := f.corr
		corr.Significance = stats.TierForP(adjusted)

		direction := insight.DirectionWithGates(corr.R, f.effect, f.metric,
			s.profile.DirectionMinR, s.profile.DirectionMinEffect)
		confidence := insight.ConfidenceFor(adjusted, corr.N, f.viable)

		insights = append(insights, insight.Insight{
			ID:               insight.NewInsightID(f.med.ID, f.metric, f.lag),
			MedicationID:     f.med.ID,
			MedicationName:   f.med.Name,
			Metric:           f.metric,
			MetricLabel:      f.metric.Label(),
			Lag:              f.lag,
			Correlation:      corr,
			AdjustedP:        adjusted,
			ViableLag:        f.viable,
			EffectSize:       f.effect,
			Direction:        direction,
			Confidence:       confidence,
			BestDoseHour:     f.bestHour,
			AdherenceLagDays: f.adherence,
			Interpretation:   insight.Interpretation(f.med.Name, f.metric, direction, f.lag, corr.R, f.effect),
			Recommendation:   insight.Recommendation(f.med.Name, f.metric, direction, confidence, f.bestHour),
		})
	}

	redFlags := harmfulAssociationFlags(insights)
	redFlags = append(redFlags, rangeFlags...)

	return &insight.Report{
		GeneratedAt:        now,
		Window:             window,
		TopPositiveImpacts: topByDirection(insights, insight.DirectionPositive, s.profile.TopImpacts),
		TopNegativeImpacts: topByDirection(insights, insight.DirectionNegative, s.profile.TopImpacts),
		Insights:           insights,
		RedFlags:           redFlags,
		StabilityMetrics:   stabilityMetrics(entries, window),
		MetricAssociations: metricAssociations(entries),
		DataQuality:        s.dataQuality(windowDays, entries, windowDoses, analyzedCount, len(excluded)),
		Excluded:           excluded,
	}
}

// dataQuality summarizes what the report had to work with
func (s *InsightService) dataQuality(windowDays int, entries []mood.Entry, doses []medication.Dose, analyzed, excludedCount int) insight.DataQuality {
	coverage := make([]insight.MetricCount, 0, len(mood.AllMetrics()))
	for _, metric := range mood.AllMetrics() {
		coverage = append(coverage, insight.MetricCount{
			Metric: metric,
			Count:  mood.CountWithMetric(entries, metric),
		})
	}
	return insight.DataQuality{
		WindowDays:          windowDays,
		MoodEntries:         len(entries),
		Doses:               len(doses),
		MedicationsAnalyzed: analyzed,
		MedicationsExcluded: excludedCount,
		MetricCoverage:      coverage,
		Sufficient:          analyzed > 0 && len(entries) >= s.profile.MinMoodEntries,
	}
}

// harmfulAssociationFlags lifts negative findings with at least moderate
// confidence into red flags, critical when confidence is high.
func harmfulAssociationFlags(insights []insight.Insight) []insight.RedFlag {
	flags := make([]insight.RedFlag, 0)
	for _, ins := range insights {
		if ins.Direction != insight.DirectionNegative || ins.Confidence == insight.ConfidenceLow {
			continue
		}
		severity := insight.SeverityWarning
		if ins.Confidence == insight.ConfidenceHigh {
			severity = insight.SeverityCritical
		}
		flags = append(flags, insight.RedFlag{
			Kind:           insight.FlagHarmfulAssociation,
			MedicationID:   ins.MedicationID,
			MedicationName: ins.MedicationName,
			Metric:         ins.Metric,
			Severity:       severity,
			Summary:        insight.RedFlagSummary(ins.MedicationName, ins.Metric, ins.Correlation.R, ins.AdjustedP),
		})
	}
	return flags
}

// topByDirection filters insights by direction and returns the strongest,
// ordered by |r| descending with name and metric tie-breaks.
func topByDirection(insights []insight.Insight, d insight.Direction, limit int) []insight.Insight {
	matched := make([]insight.Insight, 0, len(insights))
	for _, ins := range insights {
		if ins.Direction == d {
			matched = append(matched, ins)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		ri, rj := math.Abs(matched[i].Correlation.R), math.Abs(matched[j].Correlation.R)
		if ri != rj {
			return ri > rj
		}
		if matched[i].MedicationName != matched[j].MedicationName {
			return matched[i].MedicationName < matched[j].MedicationName
		}
		return matched[i].Metric < matched[j].Metric
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// stabilityMetrics describes how steady each recorded metric was across
// the window, with a linear drift direction in points per day.
func stabilityMetrics(entries []mood.Entry, window core.Window) []insight.StabilityMetric {
	out := make([]insight.StabilityMetric, 0)
	for _, metric := range mood.AllMetrics() {
		times, values := mood.MetricSeries(entries, metric)
		if len(values) == 0 {
			continue
		}
		d := engine.Describe(values)
		cv := 0.0
		if d.Mean != 0 {
			cv = d.StdDev / d.Mean
		}
		days := make([]float64, len(times))
		for i, ts := range times {
			days[i] = ts.HoursSince(window.From) / 24
		}
		trend := insight.TrendStable
		if slope, ok := engine.LinearSlope(days, values); ok {
			trend = insight.TrendForSlope(slope)
		}
		out = append(out, insight.StabilityMetric{
			Metric:    metric,
			Label:     metric.Label(),
			Mean:      d.Mean,
			StdDev:    d.StdDev,
			CV:        cv,
			N:         d.N,
			Stability: insight.StabilityScore(d.StdDev),
			Trend:     trend,
		})
	}
	return out
}

// metricAssociations runs the correlation matrix across the mood metrics
// themselves, aligned per entry with absent values as missing.
func metricAssociations(entries []mood.Entry) []stats.VariablePair {
	if len(entries) == 0 {
		return []stats.VariablePair{}
	}
	series := make([]stats.NamedSeries, 0, len(mood.AllMetrics()))
	for _, metric := range mood.AllMetrics() {
		values := make([]float64, len(entries))
		present := 0
		for i, e := range entries {
			if v, ok := e.Metric(metric); ok {
				values[i] = v
				present++
			} else {
				values[i] = math.NaN()
			}
		}
		if present == 0 {
			continue
		}
		series = append(series, stats.NamedSeries{Name: string(metric), Values: values})
	}
	if len(series) < 2 {
		return []stats.VariablePair{}
	}
	return engine.Matrix(series, stats.MethodPearson).SignificantPairs
}

// fingerprintReport hashes the canonical JSON body with identity fields
// zeroed, then derives the report ID from the fingerprint. Identical
// inputs and reference time therefore yield byte-identical reports.
func fingerprintReport(r *insight.Report) error {
	r.ID = ""
	r.Fingerprint = ""
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	r.Fingerprint = core.NewFingerprint(body)
	r.ID = core.ReportID(r.Fingerprint.Short())
	return nil
}

// sortedMedications returns an id-ascending copy so fan-out and report
// order never depend on caller order.
func sortedMedications(meds []medication.Medication) []medication.Medication {
	out := make([]medication.Medication, len(meds))
	copy(out, meds)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
