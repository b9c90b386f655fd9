package care

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type NoteRepo interface {
	Create(dbc dbctx.Context, note *types.PatientNote) error
	List(dbc dbctx.Context, therapistID, patientID uuid.UUID) ([]*types.PatientNote, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(dbc dbctx.Context, note *types.PatientNote) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(note).Error
}

func (r *noteRepo) List(dbc dbctx.Context, therapistID, patientID uuid.UUID) ([]*types.PatientNote, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.PatientNote
	if err := txx.WithContext(dbc.Ctx).
		Where("therapist_id = ? AND patient_id = ?", therapistID, patientID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type DocumentRepo interface {
	Create(dbc dbctx.Context, docs []*types.Document) error
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Document, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, docs []*types.Document) error {
	if len(docs) == 0 {
		return nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(&docs).Error
}

func (r *documentRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID) ([]*types.Document, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Document
	if err := txx.WithContext(dbc.Ctx).
		Where("owner_user_id = ?", ownerID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
