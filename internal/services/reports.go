package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/repos"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/observability"
	"github.com/yungbote/maia-backend/internal/platform/apierr"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
	"github.com/yungbote/maia-backend/internal/policy"
)

// ReportView is a report as returned to clients. ID is nil for the
// no-activity report, which is never stored.
type ReportView struct {
	ID        *uuid.UUID `json:"id"`
	Content   string     `json:"content"`
	PatientID uuid.UUID  `json:"patient_id"`
	CreatedAt time.Time  `json:"created_at"`
}

func reportView(r *types.Report) *ReportView {
	id := r.ID
	return &ReportView{ID: &id, Content: r.Content, PatientID: r.PatientID, CreatedAt: r.CreatedAt}
}

type ReportService interface {
	Generate(dbc dbctx.Context, patientID uuid.UUID) (*ReportView, error)
	List(dbc dbctx.Context, patientID uuid.UUID) ([]*ReportView, error)
	Get(dbc dbctx.Context, patientID, reportID uuid.UUID) (*ReportView, error)
}

type reportService struct {
	db        *gorm.DB
	log       *logger.Logger
	patients  repos.PatientRepo
	links     repos.LinkRepo
	reports   repos.ReportRepo
	assistant assistant.Client
	metrics   *observability.Metrics
	now       Clock
}

func NewReportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	patients repos.PatientRepo,
	links repos.LinkRepo,
	reports repos.ReportRepo,
	client assistant.Client,
	metrics *observability.Metrics,
) ReportService {
	return &reportService{
		db:        db,
		log:       baseLog.With("service", "ReportService"),
		patients:  patients,
		links:     links,
		reports:   reports,
		assistant: client,
		metrics:   metrics,
		now:       systemClock,
	}
}

func (s *reportService) authorize(dbc dbctx.Context, patientID uuid.UUID) (policy.Caller, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return caller, err
	}
	return caller, policy.CanActOnPatient(dbc.Ctx, caller, linkChecker{links: s.links, tx: dbc.Tx}, patientID)
}

func (s *reportService) Generate(dbc dbctx.Context, patientID uuid.UUID) (*ReportView, error) {
	ctx, span := observability.Tracer().Start(dbc.Ctx, "report.generate")
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	caller, err := s.authorize(dbc, patientID)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByUserID(dbc, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, apierr.NotFound("patient not found")
	}

	thread, err := s.assistant.GetThread(ctx, patient.ThreadID)
	if err != nil {
		s.metrics.AssistantError("get_thread")
		return nil, chatServiceError(err)
	}
	now := s.now()
	recent := FilterSince(toThreadMessages(thread.Messages), now.Add(-reportWindow))
	span.SetAttributes(attribute.Int("messages", len(recent)))
	if len(recent) == 0 {
		s.metrics.Report("no_activity")
		return &ReportView{Content: NoActivityReport, PatientID: patientID, CreatedAt: now}, nil
	}

	reply, err := s.assistant.AddMessage(ctx, patient.ReportThreadID, BuildWeeklyReportPrompt(recent), assistant.MemoryOff)
	if err != nil {
		s.metrics.AssistantError("add_message")
		return nil, chatServiceError(err)
	}

	report := &types.Report{
		ID:          uuid.New(),
		TherapistID: caller.UserID,
		PatientID:   patientID,
		Content:     reply.Content,
		CreatedAt:   now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.reports.Create(dbc.WithTx(tx), report)
	})
	if err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}
	s.metrics.Report("persisted")
	s.log.Info("report generated", "report_id", report.ID, "patient_id", patientID, "therapist_id", caller.UserID)
	return reportView(report), nil
}

func (s *reportService) List(dbc dbctx.Context, patientID uuid.UUID) ([]*ReportView, error) {
	caller, err := s.authorize(dbc, patientID)
	if err != nil {
		return nil, err
	}
	rows, err := s.reports.List(dbc, caller.UserID, patientID)
	if err != nil {
		return nil, err
	}
	out := make([]*ReportView, 0, len(rows))
	for _, r := range rows {
		out = append(out, reportView(r))
	}
	return out, nil
}

func (s *reportService) Get(dbc dbctx.Context, patientID, reportID uuid.UUID) (*ReportView, error) {
	caller, err := s.authorize(dbc, patientID)
	if err != nil {
		return nil, err
	}
	r, err := s.reports.Get(dbc, caller.UserID, patientID, reportID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apierr.NotFound("report not found")
	}
	return reportView(r), nil
}
