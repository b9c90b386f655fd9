package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
)

const NoActivityReport = "No patient activity in the last 7 days."

const reportWindow = 7 * 24 * time.Hour

const weeklyReportTemplate = `
You are generating a clinical-style weekly summary for a therapist.

Rules:
- Be factual and neutral.
- Do not diagnose.
- Do not invent information.
- Highlight themes, emotional patterns, progress, and risks.
- If no risks are present, explicitly say so.

Conversation from the last 7 days:
%s

Produce the report with the following sections:
1. Overview
2. Main Themes
3. Emotional Trends
4. Progress / Improvements
5. Risks or Alerts
6. Suggested Focus for Next Week
`

var guidanceByRisk = map[types.RiskLevel]string{
	types.RiskHigh: "Your safety matters most right now. Please contact your local emergency services " +
		"or call or text a crisis line (988 in the US) immediately, and if you can, reach out to someone " +
		"you trust and stay with them.",
	types.RiskMedium: "It sounds like things have been really hard lately. Please schedule a session " +
		"with your therapist soon so you can talk this through together.",
	types.RiskLow: "Thank you for sharing how you feel. Reaching out to your therapist or someone you " +
		"trust can help, and you can keep talking with me anytime.",
}

// Guidance returns the fixed safety message for a risk tier.
func Guidance(level types.RiskLevel) string {
	return guidanceByRisk[level]
}

// KnowledgeDoc is a file uploaded to every new patient assistant.
type KnowledgeDoc struct {
	Name string
	Data []byte
}

// Provisioning is what a new patient assistant is created with.
type Provisioning struct {
	SystemPrompt  string
	KnowledgeDocs []KnowledgeDoc
}

// LoadProvisioning reads the system prompt file and every regular file in
// docsDir. A missing docsDir yields no knowledge documents.
func LoadProvisioning(promptPath, docsDir string) (Provisioning, error) {
	var p Provisioning
	if promptPath != "" {
		raw, err := os.ReadFile(promptPath)
		if err != nil {
			return p, fmt.Errorf("read system prompt: %w", err)
		}
		p.SystemPrompt = string(raw)
	}
	if docsDir == "" {
		return p, nil
	}
	entries, err := os.ReadDir(docsDir)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read knowledge docs: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(docsDir, e.Name()))
		if err != nil {
			return p, fmt.Errorf("read knowledge doc %s: %w", e.Name(), err)
		}
		p.KnowledgeDocs = append(p.KnowledgeDocs, KnowledgeDoc{Name: e.Name(), Data: data})
	}
	return p, nil
}

// ThreadMessage is one message of a conversation thread.
type ThreadMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
}

func toThreadMessages(msgs []*assistant.Message) []*ThreadMessage {
	out := make([]*ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, &ThreadMessage{Timestamp: m.CreatedAt, Content: m.Content, Role: m.Role})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// FilterSince keeps messages at or after cutoff. Timestamps are compared in UTC.
func FilterSince(msgs []*ThreadMessage, cutoff time.Time) []*ThreadMessage {
	cutoff = cutoff.UTC()
	out := make([]*ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		if !m.Timestamp.UTC().Before(cutoff) {
			out = append(out, m)
		}
	}
	return out
}

func BuildWeeklyReportPrompt(msgs []*ThreadMessage) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, fmt.Sprintf("[%s] %s", m.Timestamp.UTC().Format(time.RFC3339), m.Content))
	}
	return fmt.Sprintf(weeklyReportTemplate, strings.Join(lines, "\n"))
}
