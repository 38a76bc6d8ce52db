package main

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAnswerIsGrounded(t *testing.T) {
	if !answerIsGrounded("El 2024-01-15 hubo 12 centros distintos.") {
		t.Fatalf("plain factual answer must pass")
	}
	hedged := []string{
		"Hubo aproximadamente 12 centros.",
		"Creo que fueron 12.",
		"Probablemente 12 centros.",
		"QUIZÁS fueron 12.",
		"No estoy seguro, pero 12.",
	}
	for _, text := range hedged {
		if answerIsGrounded(text) {
			t.Fatalf("expected hedged answer to fail: %q", text)
		}
	}
}

func TestPolishAnswerKeepsTemplateOnHedge(t *testing.T) {
	llm := &cannedLLM{response: "Fueron aproximadamente 12 centros."}
	got := PolishAnswer(context.Background(), llm, "pregunta", map[string]int{"n": 12}, "Hubo 12 centros.")
	if got != "Hubo 12 centros." {
		t.Fatalf("expected template fallback, got %q", got)
	}
}

func TestPolishAnswerKeepsTemplateOnError(t *testing.T) {
	llm := &cannedLLM{err: errors.New("boom")}
	got := PolishAnswer(context.Background(), llm, "pregunta", nil, "Hubo 12 centros.")
	if got != "Hubo 12 centros." {
		t.Fatalf("expected template fallback, got %q", got)
	}
}

func TestPolishAnswerAcceptsGroundedRewrite(t *testing.T) {
	llm := &cannedLLM{response: "En esa fecha operaron 12 centros distintos."}
	got := PolishAnswer(context.Background(), llm, "pregunta", map[string]int{"n": 12}, "Hubo 12 centros.")
	if got != "En esa fecha operaron 12 centros distintos." {
		t.Fatalf("expected polished answer, got %q", got)
	}
}

func TestPolishAnswerNilClient(t *testing.T) {
	if got := PolishAnswer(context.Background(), nil, "q", nil, "base"); got != "base" {
		t.Fatalf("expected base answer, got %q", got)
	}
}

func TestComposeDistinctCenters(t *testing.T) {
	text := ComposeDistinctCenters(DistinctCentersResult{
		Date:            "2024-01-15",
		DistinctCenters: 3,
		SampleCenters:   []string{"C001", "C002"},
	})
	if !strings.Contains(text, "2024-01-15") || !strings.Contains(text, "3 centros") {
		t.Fatalf("unexpected text %q", text)
	}
	if !strings.Contains(text, "C001, C002") {
		t.Fatalf("expected sample centers in text, got %q", text)
	}
}

func TestComposeCompareSumaNetaExactFigures(t *testing.T) {
	text := ComposeCompareSumaNeta(CompareSumaNetaResult{
		Year: 2024, MonthA: 1, MonthB: 2,
		SumA: 1907753.5, SumB: 2000000,
		Winner: "Mes B", DiffAbs: 92246.5, DiffPct: 4.61,
	})
	if !strings.Contains(text, "1907753.5") {
		t.Fatalf("expected exact figure, got %q", text)
	}
	if !strings.Contains(text, "Mes B") {
		t.Fatalf("expected winner, got %q", text)
	}
}

func TestComposeTopCentersEmptyDay(t *testing.T) {
	text := ComposeTopCenters(TopCentersResult{Date: "2024-01-15", TopN: 5, Results: []CenterMovements{}})
	if !strings.Contains(text, "no se registraron movimientos") {
		t.Fatalf("unexpected empty-day text %q", text)
	}
}
