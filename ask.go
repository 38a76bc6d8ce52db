package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

// App wires the pipeline: data service, router, engines, composition
// and the question log.
type App struct {
	cfg    Config
	data   *DataService
	router *Router
	llm    LLMClient
	store  *Store
}

func NewApp(cfg Config, data *DataService, router *Router, llm LLMClient, store *Store) *App {
	return &App{cfg: cfg, data: data, router: router, llm: llm, store: store}
}

// Ask answers one natural-language question. Classification may use the
// LLM; every figure in the answer comes from the deterministic engines.
func (a *App) Ask(ctx context.Context, question string) (Answer, error) {
	started := time.Now()

	ds, err := a.data.Dataset(ctx)
	if err != nil {
		return Answer{}, fmt.Errorf("loading dataset: %w", err)
	}
	profile := a.data.Profile(ctx, ds)

	route := a.router.Route(ctx, question, profile)
	answer := a.dispatch(ctx, ds, route)
	answer.Assumptions = route.Assumptions

	if a.cfg.ComposeWithLLM {
		switch route.State {
		case RouteResolved:
			answer.Text = PolishAnswer(ctx, a.llm, question, answer.Facts, answer.Text)
		case RouteUnclassified:
			// No engine fits, so the dataset portrait is the only
			// ground the model may answer from.
			summary := BuildRichSummary(ds, profile)
			answer.Text = PolishAnswer(ctx, a.llm, question, summary, answer.Text)
		}
	}

	elapsed := time.Since(started)
	if a.store != nil {
		if err := a.store.InsertQuestionLog(question, route.Intent, route.Confidence, route.NeedsClarification(), elapsed); err != nil {
			log.Printf("question log insert failed: %v", err)
		}
	}
	log.Printf("ask intent=%s state=%s elapsed=%s", route.Intent, route.State, elapsed.Round(time.Millisecond))
	return answer, nil
}

func (a *App) dispatch(ctx context.Context, ds *Dataset, route Route) Answer {
	answer := Answer{Intent: route.Intent}

	switch route.State {
	case RouteUnclassified:
		answer.Text = unknownAnswerText
		return answer
	case RouteNeedsClarification:
		answer.Text = route.ClarificationQuestion
		return answer
	}

	slots := route.Slots
	monthA, monthB := monthPair(slots.Months)

	switch route.Intent {
	case IntentCountDistinctCentersByDate:
		r := CountDistinctCentersByDate(a.data.Index(ctx, ds), slots.Date)
		answer.Facts, answer.Text = r, ComposeDistinctCenters(r)

	case IntentCountMovementsByDate:
		r := CountMovementsByDate(ds, slots.Date, a.cfg.EvidenceEnabled)
		answer.Facts, answer.Text = r, ComposeMovements(r)

	case IntentTopCentersByMovementsOnDate:
		r := TopCentersByMovementsOnDate(ds, slots.Date, slots.TopN, a.cfg.EvidenceEnabled)
		answer.Facts, answer.Text = r, ComposeTopCenters(r)

	case IntentCountDistinctCentersByDateRange:
		r := CountDistinctCentersByDateRange(ds, slots.From, slots.To)
		answer.Facts, answer.Text = r, ComposeRangeDistinct(r)

	case IntentSumSumaNetaByGroupAndDate:
		r, err := SumSumaNetaByGroupAndDate(ds, slots.Date, slots.Group, SumaNetaOptions{BreakdownByCenter: true, Top: slots.TopN})
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeSumaNeta(r)

	case IntentCompareActivityByMonths:
		r := CompareMonths(ds, slots.Year, monthA, monthB, slots.Metric)
		answer.Facts, answer.Text = r, ComposeCompareMonths(r)

	case IntentPatternsInQuarter:
		r, err := QuarterPatterns(ds, slots.Year, slots.Quarter)
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeQuarterPatterns(r)

	case IntentMaxActiveCentersDay:
		r := MaxActiveCentersDay(ds, slots.Year)
		answer.Facts, answer.Text = r, ComposeMaxActiveDay(r)

	case IntentPrioritizeCentersOverPeriod:
		r := PrioritizeCenters(ds, PrioritizeOptions{Year: slots.Year})
		answer.Facts, answer.Text = r, ComposePrioritize(r)

	case IntentDiffDistinctCentersMonths:
		r := DiffDistinctCentersMonths(ds, slots.Year, monthA, monthB)
		answer.Facts, answer.Text = r, ComposeDiffCenters(r)

	case IntentCompareSumaNetaMonths:
		r, err := CompareSumaNetaMonths(ds, slots.Year, monthA, monthB)
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeCompareSumaNeta(r)

	case IntentDistinctCentersByGroupMonths:
		r, err := DistinctCentersByGroupMonths(ds, slots.Year, monthA, monthB, slots.Group)
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeGroupCenters(r)

	case IntentMaterialsWithoutMovements:
		r, err := MaterialsWithoutMovementsMonths(ds, slots.Year, monthA, monthB)
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeMaterialsDiff(r)

	case IntentCompareTotalVolumeMonths:
		r, err := CompareTotalVolumeMonths(ds, slots.Year, monthA, monthB, slots.Metric)
		if err != nil {
			return columnMissingAnswer(route.Intent, err)
		}
		answer.Facts, answer.Text = r, ComposeVolume(r)

	default:
		answer.Text = unknownAnswerText
	}
	return answer
}

func columnMissingAnswer(intent string, err error) Answer {
	return Answer{
		Intent: intent,
		Text:   fmt.Sprintf("No puedo calcularlo con este dataset: %v.", err),
	}
}

func monthPair(months []int) (int, int) {
	if len(months) < 2 {
		return 0, 0
	}
	return months[0], months[1]
}

// Summary computes the statistical portrait of the loaded dataset.
func (a *App) Summary(ctx context.Context) (RichSummary, error) {
	ds, err := a.data.Dataset(ctx)
	if err != nil {
		return RichSummary{}, err
	}
	return BuildRichSummary(ds, a.data.Profile(ctx, ds)), nil
}

// Status summarizes the loaded dataset for operational commands.
func (a *App) Status(ctx context.Context) (string, error) {
	ds, err := a.data.Dataset(ctx)
	if err != nil {
		return "", err
	}
	profile := a.data.Profile(ctx, ds)
	return fmt.Sprintf("Dataset: %d filas, %d columnas. Fechas %s a %s (año por defecto %d).",
		len(ds.Records), len(ds.Header), profile.MinDate, profile.MaxDate, profile.DefaultYear), nil
}
