package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	types "github.com/yungbote/maia-backend/internal/domain"
)

func TestFilterSinceBoundary(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-reportWindow)
	at := &ThreadMessage{Timestamp: cutoff, Content: "exactly"}
	before := &ThreadMessage{Timestamp: cutoff.Add(-time.Second), Content: "too old"}
	local := &ThreadMessage{Timestamp: cutoff.In(time.FixedZone("X", 5*3600)), Content: "same instant, other zone"}

	got := FilterSince([]*ThreadMessage{before, at, local}, cutoff)
	if len(got) != 2 || got[0] != at || got[1] != local {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}

func TestBuildWeeklyReportPrompt(t *testing.T) {
	ts := time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)
	prompt := BuildWeeklyReportPrompt([]*ThreadMessage{
		{Timestamp: ts, Content: "slept badly"},
		{Timestamp: ts.Add(time.Hour), Content: "went for a walk"},
	})
	for _, want := range []string{
		"[2026-03-09T08:30:00Z] slept badly\n[2026-03-09T09:30:00Z] went for a walk",
		"1. Overview",
		"6. Suggested Focus for Next Week",
		"Do not diagnose.",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGuidanceTiersAreDistinct(t *testing.T) {
	high, med, low := Guidance(types.RiskHigh), Guidance(types.RiskMedium), Guidance(types.RiskLow)
	if !strings.Contains(high, "emergency services") || !strings.Contains(high, "crisis line") {
		t.Fatalf("high guidance must point at emergency services or a crisis line: %q", high)
	}
	if high == med || med == low || high == low {
		t.Fatalf("guidance tiers must differ")
	}
}

func TestLoadProvisioning(t *testing.T) {
	dir := t.TempDir()
	promptPath := filepath.Join(dir, "prompt.txt")
	docs := filepath.Join(dir, "docs")
	if err := os.WriteFile(promptPath, []byte("be kind"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(docs, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "cbt.md"), []byte("# CBT"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, ".hidden"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProvisioning(promptPath, docs)
	if err != nil {
		t.Fatalf("LoadProvisioning: %v", err)
	}
	if p.SystemPrompt != "be kind" || len(p.KnowledgeDocs) != 1 || p.KnowledgeDocs[0].Name != "cbt.md" {
		t.Fatalf("unexpected provisioning: %+v", p)
	}

	p, err = LoadProvisioning("", filepath.Join(dir, "missing"))
	if err != nil || len(p.KnowledgeDocs) != 0 {
		t.Fatalf("missing docs dir should be empty: %+v %v", p, err)
	}
}
