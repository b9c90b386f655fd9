package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
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

// MaxNoteBytes caps therapist note uploads.
const MaxNoteBytes = 5 << 20

type TherapistService interface {
	ListPatients(dbc dbctx.Context) ([]*types.User, error)
	GetPatient(dbc dbctx.Context, patientID uuid.UUID) (*types.User, error)
	ListAlerts(dbc dbctx.Context) ([]*types.AlertView, error)
	ListPatientAlerts(dbc dbctx.Context, patientID uuid.UUID) ([]*types.AlertView, error)
	UploadNote(dbc dbctx.Context, patientID uuid.UUID, fileName string, data []byte) (*types.PatientNote, error)
	ListNotes(dbc dbctx.Context, patientID uuid.UUID) ([]*types.PatientNote, error)
}

type therapistService struct {
	db        *gorm.DB
	log       *logger.Logger
	users     repos.UserRepo
	patients  repos.PatientRepo
	links     repos.LinkRepo
	alerts    repos.AlertRepo
	notes     repos.NoteRepo
	documents repos.DocumentRepo
	assistant assistant.Client
	metrics   *observability.Metrics
}

func NewTherapistService(
	db *gorm.DB,
	baseLog *logger.Logger,
	users repos.UserRepo,
	patients repos.PatientRepo,
	links repos.LinkRepo,
	alerts repos.AlertRepo,
	notes repos.NoteRepo,
	documents repos.DocumentRepo,
	client assistant.Client,
	metrics *observability.Metrics,
) TherapistService {
	return &therapistService{
		db:        db,
		log:       baseLog.With("service", "TherapistService"),
		users:     users,
		patients:  patients,
		links:     links,
		alerts:    alerts,
		notes:     notes,
		documents: documents,
		assistant: client,
		metrics:   metrics,
	}
}

func (s *therapistService) therapist(dbc dbctx.Context) (policy.Caller, error) {
	caller, err := policy.CallerFrom(dbc.Ctx)
	if err != nil {
		return caller, err
	}
	return caller, policy.RequireTherapist(caller)
}

func (s *therapistService) canView(dbc dbctx.Context, caller policy.Caller, patientID uuid.UUID) error {
	return policy.CanViewPatient(dbc.Ctx, caller, linkChecker{links: s.links, tx: dbc.Tx}, patientID)
}

func (s *therapistService) ListPatients(dbc dbctx.Context) ([]*types.User, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	accepted := types.LinkAccepted
	links, err := s.links.ListForUser(dbc, caller.UserID, types.RoleTherapist, &accepted)
	if err != nil {
		return nil, err
	}
	out := make([]*types.User, 0, len(links))
	for _, l := range links {
		if l.Patient != nil {
			out = append(out, l.Patient)
		}
	}
	return out, nil
}

func (s *therapistService) GetPatient(dbc dbctx.Context, patientID uuid.UUID) (*types.User, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.canView(dbc, caller, patientID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(dbc, patientID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apierr.NotFound("patient not found")
	}
	return u, nil
}

func (s *therapistService) ListAlerts(dbc dbctx.Context) ([]*types.AlertView, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	return s.alerts.ListForTherapist(dbc, caller.UserID, nil)
}

func (s *therapistService) ListPatientAlerts(dbc dbctx.Context, patientID uuid.UUID) ([]*types.AlertView, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.canView(dbc, caller, patientID); err != nil {
		return nil, err
	}
	return s.alerts.ListForTherapist(dbc, caller.UserID, &patientID)
}

func (s *therapistService) UploadNote(dbc dbctx.Context, patientID uuid.UUID, fileName string, data []byte) (*types.PatientNote, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxNoteBytes {
		return nil, apierr.InvalidRequest("file exceeds the 5 MB limit")
	}
	if len(data) == 0 {
		return nil, apierr.InvalidRequest("file is empty")
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	if fileName == "" || fileName == "." || fileName == "/" {
		return nil, apierr.InvalidRequest("file name is required")
	}
	if err := policy.CanActOnPatient(dbc.Ctx, caller, linkChecker{links: s.links, tx: dbc.Tx}, patientID); err != nil {
		return nil, err
	}
	patient, err := s.patients.GetByUserID(dbc, patientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, apierr.NotFound("patient not found")
	}

	doc, err := s.assistant.UploadDocument(dbc.Ctx, patient.AssistantID, fileName, data)
	if err != nil {
		s.metrics.AssistantError("upload_document")
		return nil, chatServiceError(err)
	}

	meta, _ := json.Marshal(map[string]any{
		"size_bytes":   len(data),
		"therapist_id": caller.UserID,
		"status":       doc.Status,
	})
	note := &types.PatientNote{
		ID:          uuid.New(),
		TherapistID: caller.UserID,
		PatientID:   patientID,
		FileName:    fileName,
	}
	err = s.db.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbc.WithTx(tx)
		if err := s.notes.Create(inner, note); err != nil {
			return err
		}
		return s.documents.Create(inner, []*types.Document{{
			ID:                 uuid.New(),
			OwnerUserID:        patientID,
			AssistantID:        patient.AssistantID,
			Source:             types.SourcePatientNote,
			FileName:           fileName,
			ProviderDocumentID: doc.DocumentID,
			Metadata:           datatypes.JSON(meta),
		}})
	})
	if err != nil {
		return nil, fmt.Errorf("persist note: %w", err)
	}
	s.log.Info("patient note uploaded", "patient_id", patientID, "therapist_id", caller.UserID, "size", len(data))
	return note, nil
}

func (s *therapistService) ListNotes(dbc dbctx.Context, patientID uuid.UUID) ([]*types.PatientNote, error) {
	caller, err := s.therapist(dbc)
	if err != nil {
		return nil, err
	}
	if err := s.canView(dbc, caller, patientID); err != nil {
		return nil, err
	}
	return s.notes.List(dbc, caller.UserID, patientID)
}
