package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/repos"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

// GuardianArgs are the arguments of a guardian_check tool call.
type GuardianArgs struct {
	RiskLevel string   `json:"risk_level" validate:"required,oneof=low medium high"`
	Cause     string   `json:"cause" validate:"required"`
	Signals   []string `json:"signals,omitempty"`
	Urgency   string   `json:"urgency,omitempty" validate:"omitempty,oneof=none soon immediate"`
}

type GuardianResult struct {
	Alert    *types.Alert `json:"alert"`
	Guidance string       `json:"guidance"`
}

type GuardianService interface {
	// Record persists one alert and returns it with the canned guidance for
	// its tier. The commit completes before Record returns.
	Record(ctx context.Context, patientID uuid.UUID, args GuardianArgs) (*GuardianResult, error)
	// HandleToolCalls answers every call of a tool-submit event. Only a failed
	// alert write is returned as an error; bad calls get a rejected output.
	HandleToolCalls(ctx context.Context, patientID uuid.UUID, calls []openai.ToolCall) ([]assistant.ToolOutput, error)
}

type guardianService struct {
	db      *gorm.DB
	log     *logger.Logger
	links   repos.LinkRepo
	alerts  repos.AlertRepo
	metrics *observability.Metrics
	now     Clock
}

func NewGuardianService(
	db *gorm.DB,
	baseLog *logger.Logger,
	links repos.LinkRepo,
	alerts repos.AlertRepo,
	metrics *observability.Metrics,
) GuardianService {
	return &guardianService{
		db:      db,
		log:     baseLog.With("service", "GuardianService"),
		links:   links,
		alerts:  alerts,
		metrics: metrics,
		now:     systemClock,
	}
}

func (s *guardianService) Record(ctx context.Context, patientID uuid.UUID, args GuardianArgs) (*GuardianResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "guardian.record")
	defer span.End()

	if err := validate.Struct(args); err != nil {
		return nil, fmt.Errorf("invalid guardian arguments: %w", err)
	}
	level, err := types.ParseRiskLevel(args.RiskLevel)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("risk_level", string(level)))

	var alert *types.Alert
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		therapistID, err := s.links.LatestAcceptedTherapist(dbc, patientID)
		if err != nil {
			return fmt.Errorf("resolve therapist: %w", err)
		}
		alert = &types.Alert{
			ID:          uuid.New(),
			TherapistID: therapistID,
			PatientID:   patientID,
			RiskLevel:   level,
			Cause:       args.Cause,
			CreatedAt:   s.now(),
		}
		if err := s.alerts.Create(dbc, alert); err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("alert write failed", "patient_id", patientID, "risk_level", level, "error", err)
		span.RecordError(err)
		return nil, err
	}

	s.metrics.AlertRecorded(string(level))
	s.log.Info("alert recorded",
		"alert_id", alert.ID,
		"patient_id", patientID,
		"risk_level", level,
		"has_therapist", alert.TherapistID != nil,
		"urgency", args.Urgency,
		"signals", len(args.Signals),
	)
	return &GuardianResult{Alert: alert, Guidance: Guidance(level)}, nil
}

func (s *guardianService) HandleToolCalls(ctx context.Context, patientID uuid.UUID, calls []openai.ToolCall) ([]assistant.ToolOutput, error) {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		if call.Function.Name != assistant.GuardianToolName {
			s.log.Warn("unknown tool call", "tool", call.Function.Name)
			s.metrics.GuardianRejected("unknown_tool")
			outputs = append(outputs, rejectedOutput(call.ID, "unknown tool"))
			continue
		}
		var args GuardianArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			s.log.Warn("undecodable guardian arguments", "error", err)
			s.metrics.GuardianRejected("decode")
			outputs = append(outputs, rejectedOutput(call.ID, "arguments are not valid JSON"))
			continue
		}
		if err := validate.Struct(args); err != nil {
			s.log.Warn("invalid guardian arguments", "error", err)
			s.metrics.GuardianRejected("validation")
			outputs = append(outputs, rejectedOutput(call.ID, "risk_level (low|medium|high) and cause are required"))
			continue
		}
		res, err := s.Record(ctx, patientID, args)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode guardian output: %w", err)
		}
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: call.ID, Output: string(raw)})
	}
	return outputs, nil
}

func rejectedOutput(callID, reason string) assistant.ToolOutput {
	raw, _ := json.Marshal(map[string]string{"status": "rejected", "reason": reason})
	return assistant.ToolOutput{ToolCallID: callID, Output: string(raw)}
}
