package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
)

// Intent names. They are the contract between the classifier prompt,
// the router post-processing and the dispatcher switch.
const (
	IntentCountDistinctCentersByDate      = "count_distinct_centers_by_date"
	IntentCountMovementsByDate            = "count_movements_by_date"
	IntentTopCentersByMovementsOnDate     = "top_centers_by_movements_on_date"
	IntentCountDistinctCentersByDateRange = "count_distinct_centers_by_date_range"
	IntentSumSumaNetaByGroupAndDate       = "sum_suma_neta_by_group_and_date"
	IntentCompareActivityByMonths         = "compare_activity_by_months"
	IntentPatternsInQuarter               = "patterns_in_quarter"
	IntentMaxActiveCentersDay             = "max_active_centers_day"
	IntentPrioritizeCentersOverPeriod     = "prioritize_centers_over_period"
	IntentDiffDistinctCentersMonths       = "diff_distinct_centers_between_months"
	IntentCompareSumaNetaMonths           = "compare_suma_neta_between_months"
	IntentDistinctCentersByGroupMonths    = "distinct_centers_by_group_between_months"
	IntentMaterialsWithoutMovements       = "materials_without_movements_feb_vs_jan"
	IntentCompareTotalVolumeMonths        = "compare_total_volume_between_months"
	IntentUnknown                         = "unknown"
)

// RouteState makes the routing outcome explicit instead of being
// implied by which fields happen to be filled.
type RouteState string

const (
	RouteUnclassified       RouteState = "unclassified"
	RouteResolved           RouteState = "resolved"
	RouteNeedsClarification RouteState = "needs_clarification"
)

// Slots carry the extracted parameters of a routed question. Zero
// values mean "not provided".
type Slots struct {
	Date    string `json:"date,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Year    int    `json:"year,omitempty"`
	Months  []int  `json:"months,omitempty"`
	Quarter int    `json:"quarter,omitempty"`
	Group   string `json:"group,omitempty"`
	Metric  string `json:"metric,omitempty"`
	TopN    int    `json:"topN,omitempty"`
}

type Route struct {
	Intent                string     `json:"intent"`
	Confidence            float64    `json:"confidence"`
	Slots                 Slots      `json:"slots"`
	State                 RouteState `json:"state"`
	ClarificationQuestion string     `json:"clarificationQuestion,omitempty"`
	Assumptions           []string   `json:"assumptions,omitempty"`
	Usage                 LLMUsage   `json:"-"`
}

func (r Route) NeedsClarification() bool {
	return r.State == RouteNeedsClarification
}

// Router classifies a question with the LLM, then repairs and defaults
// the slots deterministically. The model proposes; the code disposes.
type Router struct {
	llm LLMClient
}

func NewRouter(llm LLMClient) *Router {
	return &Router{llm: llm}
}

type routedResponse struct {
	Intent                string  `json:"intent"`
	Confidence            float64 `json:"confidence"`
	Slots                 Slots   `json:"slots"`
	NeedsClarification    bool    `json:"needs_clarification"`
	ClarificationQuestion string  `json:"clarification_question"`
}

const routerSystemPrompt = `Eres un enrutador de intenciones para preguntas sobre un dataset de movimientos de materiales entre centros.
Clasifica la pregunta del usuario en exactamente una de estas intenciones:

- count_distinct_centers_by_date: cuántos centros distintos tuvieron movimientos en una fecha concreta
- count_movements_by_date: cuántos movimientos (filas) hubo en una fecha concreta
- top_centers_by_movements_on_date: ranking de centros con más movimientos en una fecha
- count_distinct_centers_by_date_range: centros distintos activos en un rango de fechas (desde/hasta)
- sum_suma_neta_by_group_and_date: suma de SUMA_NETA para un grupo de artículos en una fecha
- compare_activity_by_months: comparar actividad (movimientos o centros) entre dos meses
- patterns_in_quarter: patrones y picos de actividad en un trimestre
- max_active_centers_day: día del año con más centros activos
- prioritize_centers_over_period: qué centros priorizar según su actividad en un periodo
- diff_distinct_centers_between_months: diferencia de centros distintos entre dos meses
- compare_suma_neta_between_months: comparar la suma de SUMA_NETA entre dos meses
- distinct_centers_by_group_between_months: centros distintos de un grupo de artículos en dos meses
- materials_without_movements_feb_vs_jan: materiales que se movieron en un mes pero no en el otro
- compare_total_volume_between_months: comparar el volumen total entre dos meses
- unknown: nada de lo anterior

Extrae los slots presentes en la pregunta:
date (YYYY-MM-DD), from, to, year, months (lista de números de mes), quarter (1-4), group, metric, topN.
No inventes valores que la pregunta no da.

Responde SOLO con JSON (sin markdown):
{"intent": "...", "confidence": 0.0, "slots": {"date": "", "from": "", "to": "", "year": 0, "months": [], "quarter": 0, "group": "", "metric": "", "topN": 0}, "needs_clarification": false, "clarification_question": ""}`

// Route classifies the question and applies deterministic repair. An
// LLM failure degrades to the unknown intent rather than an error so
// the caller can still answer something honest.
func (r *Router) Route(ctx context.Context, question string, profile DatasetProfile) Route {
	userPrompt := fmt.Sprintf("Rango del dataset: %s a %s (año por defecto %d).\nPregunta: %s",
		profile.MinDate, profile.MaxDate, profile.DefaultYear, question)

	responseText, usage, err := r.llm.Complete(ctx, routerSystemPrompt, userPrompt)
	if err != nil {
		log.Printf("router llm error: %v", err)
		return Route{Intent: IntentUnknown, State: RouteUnclassified, Usage: usage}
	}

	var parsed routedResponse
	if err := json.Unmarshal([]byte(stripJSONFences(responseText)), &parsed); err != nil {
		log.Printf("router parse error: %v response=%q", err, responseText)
		return Route{Intent: IntentUnknown, State: RouteUnclassified, Usage: usage}
	}

	route := Route{
		Intent:                strings.TrimSpace(parsed.Intent),
		Confidence:            parsed.Confidence,
		Slots:                 parsed.Slots,
		ClarificationQuestion: strings.TrimSpace(parsed.ClarificationQuestion),
		Usage:                 usage,
	}
	if parsed.NeedsClarification {
		route.State = RouteNeedsClarification
	} else {
		route.State = RouteResolved
	}

	resolved := resolveRoute(route, question, profile)
	log.Printf("router intent=%s confidence=%.2f state=%s assumptions=%d", resolved.Intent, resolved.Confidence, resolved.State, len(resolved.Assumptions))
	return resolved
}

var quarterWordReg = regexp.MustCompile(`\b(primer|segundo|tercer|cuarto)\s+trimestre\b`)
var quarterNumReg = regexp.MustCompile(`\b(?:q|trimestre\s*)([1-4])\b`)

// resolveRoute is the deterministic half of routing. Model output is
// never trusted for slot completeness: dates are renormalized, missing
// years come from the dataset profile, and each intent family has its
// own clarification rule.
func resolveRoute(route Route, question string, profile DatasetProfile) Route {
	route.Slots.Date = normalizeSlotDate(route.Slots.Date)
	route.Slots.From = normalizeSlotDate(route.Slots.From)
	route.Slots.To = normalizeSlotDate(route.Slots.To)

	lower := strings.ToLower(stripDiacritics(question))

	switch route.Intent {
	case IntentCountDistinctCentersByDate, IntentCountMovementsByDate, IntentTopCentersByMovementsOnDate:
		if route.Slots.Date == "" {
			return clarify(route, "¿Para qué fecha deseas consultar?")
		}
		return resolved(route)

	case IntentSumSumaNetaByGroupAndDate:
		if route.Slots.Date == "" {
			return clarify(route, "¿Para qué fecha deseas consultar?")
		}
		if strings.TrimSpace(route.Slots.Group) == "" {
			return clarify(route, "¿Para qué grupo de artículo exacto deseas consultar?")
		}
		return resolved(route)

	case IntentCountDistinctCentersByDateRange:
		if dr := ExtractDateRange(question, profile.DefaultYear); dr != nil {
			route.Slots.From, route.Slots.To = dr.From, dr.To
			return resolved(route)
		}
		if route.Slots.From == "" || route.Slots.To == "" {
			return clarify(route, "¿Cuál es el rango de fechas (desde/hasta)?")
		}
		return resolved(route)

	case IntentCompareActivityByMonths, IntentDiffDistinctCentersMonths,
		IntentCompareSumaNetaMonths, IntentDistinctCentersByGroupMonths,
		IntentMaterialsWithoutMovements, IntentCompareTotalVolumeMonths:
		if route.Slots.Year == 0 {
			route.Slots.Year = profile.DefaultYear
			route.Assumptions = append(route.Assumptions, fmt.Sprintf("Asumiendo año %d para la métrica mensual", profile.DefaultYear))
		}
		if len(route.Slots.Months) < 2 {
			return clarify(route, "¿Qué meses deseas procesar?")
		}
		if route.Intent == IntentDistinctCentersByGroupMonths && strings.TrimSpace(route.Slots.Group) == "" {
			return clarify(route, "¿Para qué grupo de artículo exacto deseas consultar?")
		}
		return resolved(route)

	case IntentPatternsInQuarter:
		if route.Slots.Year == 0 {
			route.Slots.Year = profile.DefaultYear
			route.Assumptions = append(route.Assumptions, fmt.Sprintf("Asumiendo año %d para el trimestre", profile.DefaultYear))
		}
		if route.Slots.Quarter == 0 {
			if q := inferQuarter(lower); q != 0 {
				route.Slots.Quarter = q
				route.Assumptions = append(route.Assumptions, fmt.Sprintf("Trimestre %d (Q%d) inferido por texto explícito", q, q))
			}
		}
		if route.Slots.Quarter < 1 || route.Slots.Quarter > 4 {
			return clarify(route, "¿De qué año y de qué trimestre (Q1-4) hablamos?")
		}
		return resolved(route)

	case IntentMaxActiveCentersDay:
		if route.Slots.Year == 0 {
			route.Slots.Year = profile.DefaultYear
			route.Assumptions = append(route.Assumptions, fmt.Sprintf("Asumiendo año %d para buscar el día pico", profile.DefaultYear))
		}
		return resolved(route)

	case IntentPrioritizeCentersOverPeriod:
		if route.Slots.From == "" || route.Slots.To == "" {
			route.Slots.From, route.Slots.To = profile.MinDate, profile.MaxDate
			route.Assumptions = append(route.Assumptions, fmt.Sprintf("Priorización usando rango global del CSV (%s a %s)", profile.MinDate, profile.MaxDate))
		}
		if route.Slots.Metric == "" {
			route.Slots.Metric = MetricMovements
		}
		return resolved(route)

	case IntentUnknown:
		route.State = RouteUnclassified
		return route

	default:
		log.Printf("router unrecognized intent=%q, treating as unknown", route.Intent)
		route.Intent = IntentUnknown
		route.State = RouteUnclassified
		return route
	}
}

func resolved(route Route) Route {
	route.State = RouteResolved
	route.ClarificationQuestion = ""
	return route
}

func clarify(route Route, question string) Route {
	route.State = RouteNeedsClarification
	route.ClarificationQuestion = question
	return route
}

func normalizeSlotDate(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	if normalized, ok := NormalizeDate(raw); ok {
		return normalized
	}
	return ""
}

var quarterWords = map[string]int{"primer": 1, "segundo": 2, "tercer": 3, "cuarto": 4}

func inferQuarter(lower string) int {
	if m := quarterWordReg.FindStringSubmatch(lower); m != nil {
		return quarterWords[m[1]]
	}
	if m := quarterNumReg.FindStringSubmatch(lower); m != nil {
		return int(m[1][0] - '0')
	}
	return 0
}
