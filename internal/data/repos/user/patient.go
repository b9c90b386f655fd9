package user

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type PatientRepo interface {
	Create(dbc dbctx.Context, p *types.Patient) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Patient, error)
}

type patientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatientRepo(db *gorm.DB, baseLog *logger.Logger) PatientRepo {
	return &patientRepo{db: db, log: baseLog.With("repo", "PatientRepo")}
}

func (r *patientRepo) Create(dbc dbctx.Context, p *types.Patient) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(p).Error
}

// GetByUserID returns nil, nil when the user has no patient profile.
func (r *patientRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Patient, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var p types.Patient
	err := txx.WithContext(dbc.Ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
