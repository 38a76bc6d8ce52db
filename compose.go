package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Answer pairs the prose with the exact facts it was rendered from, so
// every figure in the text is auditable against the computation.
type Answer struct {
	Intent      string   `json:"intent"`
	Text        string   `json:"text"`
	Facts       any      `json:"facts,omitempty"`
	Assumptions []string `json:"assumptions,omitempty"`
}

const unknownAnswerText = "No he podido interpretar la pregunta. Prueba con algo como: ¿cuántos centros distintos tuvieron movimientos el 15/01/2024?"

// Phrases that signal the model drifted from the computed facts. An
// answer containing any of them is discarded in favor of the template.
var hedgingPhrases = []string{
	"aproximadamente",
	"alrededor de",
	"creo que",
	"probablemente",
	"quizas",
	"podria ser",
	"no estoy seguro",
	"estimo",
	"me parece que",
}

func answerIsGrounded(text string) bool {
	lower := strings.ToLower(stripDiacritics(text))
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}

// PolishAnswer optionally rewrites the template answer with the LLM,
// constrained to the computed facts. Any failure or hedge keeps the
// deterministic text: phrasing is negotiable, figures are not.
func PolishAnswer(ctx context.Context, llm LLMClient, question string, facts any, fallback string) string {
	if llm == nil {
		return fallback
	}
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return fallback
	}

	systemPrompt := `Redacta en español una respuesta breve (1-3 frases) a la pregunta del usuario usando EXCLUSIVAMENTE los datos calculados que se te dan.
No inventes cifras, no redondees, no uses lenguaje especulativo. Responde solo con el texto de la respuesta.`
	userPrompt := fmt.Sprintf("Pregunta: %s\nDatos calculados: %s\nRespuesta base: %s", question, factsJSON, fallback)

	text, _, err := llm.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("compose polish error, keeping template: %v", err)
		return fallback
	}
	text = strings.TrimSpace(stripJSONFences(text))
	if text == "" || !answerIsGrounded(text) {
		log.Printf("compose polish rejected (hedging or empty), keeping template")
		return fallback
	}
	return text
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func ComposeDistinctCenters(r DistinctCentersResult) string {
	text := fmt.Sprintf("El %s hubo %d centros distintos con movimientos.", r.Date, r.DistinctCenters)
	if len(r.SampleCenters) > 0 {
		text += fmt.Sprintf(" Ejemplos: %s.", strings.Join(r.SampleCenters, ", "))
	}
	return text
}

func ComposeMovements(r MovementsResult) string {
	return fmt.Sprintf("El %s se registraron %d movimientos.", r.Date, r.Movements)
}

func ComposeTopCenters(r TopCentersResult) string {
	if len(r.Results) == 0 {
		return fmt.Sprintf("El %s no se registraron movimientos.", r.Date)
	}
	parts := make([]string, 0, len(r.Results))
	for i, c := range r.Results {
		parts = append(parts, fmt.Sprintf("%d) %s (%d)", i+1, c.Center, c.Movements))
	}
	return fmt.Sprintf("Top %d centros por movimientos el %s: %s. Total del día: %d movimientos en %d centros.",
		r.TopN, r.Date, strings.Join(parts, ", "), r.Totals.Movements, r.Totals.DistinctCenters)
}

func ComposeRangeDistinct(r RangeDistinctResult) string {
	return fmt.Sprintf("Entre %s y %s hubo %d centros distintos con actividad.", r.From, r.To, r.DistinctCenters)
}

func ComposeSumaNeta(r SumaNetaResult) string {
	text := fmt.Sprintf("La suma de SUMA_NETA del grupo %q el %s fue %s (%d filas, %d centros).",
		r.Group, r.Date, formatFloat(r.TotalSumaNeta), r.RowsMatched, r.DistinctCenters)
	if len(r.TopCenters) > 0 {
		parts := make([]string, 0, len(r.TopCenters))
		for _, c := range r.TopCenters {
			parts = append(parts, fmt.Sprintf("%s (%s)", c.Center, formatFloat(c.SumaNeta)))
		}
		text += fmt.Sprintf(" Principales centros: %s.", strings.Join(parts, ", "))
	}
	return text
}

func ComposeCompareMonths(r CompareMonthsResult) string {
	metric := "movimientos"
	if r.Metric == MetricDistinctCenters {
		metric = "centros distintos"
	}
	return fmt.Sprintf("Comparando %s de %d: mes %d tuvo %d y mes %d tuvo %d. Resultado: %s.",
		metric, r.Year, r.MonthA, r.AValue, r.MonthB, r.BValue, r.Winner)
}

func ComposeQuarterPatterns(r QuarterResult) string {
	text := fmt.Sprintf("T%d de %d (meses %d-%d): %d movimientos en %d centros distintos.",
		r.Quarter, r.Year, r.MonthsRange[0], r.MonthsRange[1], r.Totals.Movements, r.Totals.DistinctCenters)
	if len(r.PeakDaysByMovements) > 0 {
		peak := r.PeakDaysByMovements[0]
		text += fmt.Sprintf(" Día pico por movimientos: %s (%d).", peak.Date, peak.Movements)
	}
	if len(r.TopCentersByMovements) > 0 {
		top := r.TopCentersByMovements[0]
		text += fmt.Sprintf(" Centro más activo: %s (%d movimientos).", top.Center, top.Movements)
	}
	if len(r.TopMovementClasses) > 0 {
		cls := r.TopMovementClasses[0]
		text += fmt.Sprintf(" Clase de movimiento dominante: %s (%d).", cls.Class, cls.Count)
	}
	return text
}

func ComposeMaxActiveDay(r MaxActiveDayResult) string {
	if r.Date == "" {
		return fmt.Sprintf("No hay datos de centros activos para %d.", r.Year)
	}
	return fmt.Sprintf("El día de %d con más centros activos fue %s, con %d centros distintos.", r.Year, r.Date, r.DistinctCenters)
}

func ComposePrioritize(r PrioritizeResult) string {
	if len(r.Results) == 0 {
		return "No hay actividad registrada en el periodo para priorizar centros."
	}
	parts := make([]string, 0, len(r.Results))
	for i, c := range r.Results {
		parts = append(parts, fmt.Sprintf("%d) %s (%d)", i+1, c.Center, c.Movements))
	}
	return fmt.Sprintf("Entre %s y %s hubo %d centros activos. Priorización por movimientos: %s.",
		r.From, r.To, r.DistinctCentersTotal, strings.Join(parts, ", "))
}

func ComposeDiffCenters(r DiffCentersResult) string {
	return fmt.Sprintf("Centros distintos en %d: mes %d tuvo %d y mes %d tuvo %d (diferencia %+d). Solo en el mes %d: %d centros; solo en el mes %d: %d centros.",
		r.Year, r.MonthA, r.DistinctCentersA, r.MonthB, r.DistinctCentersB, r.Diff,
		r.MonthA, r.OnlyMonthA, r.MonthB, r.OnlyMonthB)
}

func ComposeCompareSumaNeta(r CompareSumaNetaResult) string {
	return fmt.Sprintf("SUMA_NETA en %d: mes %d sumó %s y mes %d sumó %s. Resultado: %s (diferencia %s, %.2f%%).",
		r.Year, r.MonthA, formatFloat(r.SumA), r.MonthB, formatFloat(r.SumB), r.Winner, formatFloat(r.DiffAbs), r.DiffPct)
}

func ComposeGroupCenters(r GroupCentersResult) string {
	return fmt.Sprintf("Grupo %q en %d: mes %d tuvo %d centros distintos y mes %d tuvo %d. En ambos meses combinados: %d centros.",
		r.Group, r.Year, r.MonthA, r.MonthADistinctCenters, r.MonthB, r.MonthBDistinctCenters, r.TotalDistinctCenters)
}

func ComposeMaterialsDiff(r MaterialsDiffResult) string {
	text := fmt.Sprintf("Materiales con movimiento solo en el mes %d: %d; solo en el mes %d: %d (año %d).",
		r.MonthA, r.CountOnlyA, r.MonthB, r.CountOnlyB, r.Year)
	if len(r.SampleOnlyA) > 0 {
		text += fmt.Sprintf(" Ejemplos solo mes %d: %s.", r.MonthA, strings.Join(r.SampleOnlyA, ", "))
	}
	if len(r.SampleOnlyB) > 0 {
		text += fmt.Sprintf(" Ejemplos solo mes %d: %s.", r.MonthB, strings.Join(r.SampleOnlyB, ", "))
	}
	return text
}

// ComposeSummary renders the dataset portrait as a compact multiline
// report: one line per numeric column, one per categorical column.
func ComposeSummary(s RichSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset: %d filas, %d columnas. Fechas %s a %s (año por defecto %d).\n",
		s.Rows, len(s.Columns), s.Profile.MinDate, s.Profile.MaxDate, s.Profile.DefaultYear)
	for _, ns := range s.NumericStats {
		fmt.Fprintf(&b, "%s: n=%d min=%s max=%s media=%s p50=%s p90=%s\n",
			ns.Column, ns.Count, formatFloat(ns.Min), formatFloat(ns.Max),
			formatFloat(ns.Avg), formatFloat(ns.P50), formatFloat(ns.P90))
	}
	for _, bd := range s.Breakdowns {
		if len(bd.Top) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s: valor más frecuente %s (%d)\n", bd.Column, bd.Top[0].Value, bd.Top[0].Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

func ComposeVolume(r VolumeResult) string {
	return fmt.Sprintf("Volumen total (%s) en %d: mes %d sumó %s y mes %d sumó %s. Resultado: %s (diferencia %s).",
		r.MetricKey, r.Year, r.A.Month, formatFloat(r.A.VolumeTotal), r.B.Month, formatFloat(r.B.VolumeTotal), r.Winner, formatFloat(r.DiffAbs))
}
