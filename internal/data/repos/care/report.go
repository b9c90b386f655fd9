package care

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type ReportRepo interface {
	Create(dbc dbctx.Context, report *types.Report) error
	List(dbc dbctx.Context, therapistID, patientID uuid.UUID) ([]*types.Report, error)
	Get(dbc dbctx.Context, therapistID, patientID, reportID uuid.UUID) (*types.Report, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	return &reportRepo{db: db, log: baseLog.With("repo", "ReportRepo")}
}

func (r *reportRepo) Create(dbc dbctx.Context, report *types.Report) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(report).Error
}

func (r *reportRepo) List(dbc dbctx.Context, therapistID, patientID uuid.UUID) ([]*types.Report, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Report
	if err := txx.WithContext(dbc.Ctx).
		Where("therapist_id = ? AND patient_id = ?", therapistID, patientID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns nil, nil when no matching report exists.
func (r *reportRepo) Get(dbc dbctx.Context, therapistID, patientID, reportID uuid.UUID) (*types.Report, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rep types.Report
	err := txx.WithContext(dbc.Ctx).
		Where("id = ? AND therapist_id = ? AND patient_id = ?", reportID, therapistID, patientID).
		First(&rep).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
