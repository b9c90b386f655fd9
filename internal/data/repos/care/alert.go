package care

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

// AlertRepo is append-only: there is no update or delete.
type AlertRepo interface {
	Create(dbc dbctx.Context, alert *types.Alert) error
	// ListForTherapist returns alerts addressed to the therapist for patients
	// they currently hold an accepted link with. patientID narrows to one patient.
	ListForTherapist(dbc dbctx.Context, therapistID uuid.UUID, patientID *uuid.UUID) ([]*types.AlertView, error)
}

type alertRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAlertRepo(db *gorm.DB, baseLog *logger.Logger) AlertRepo {
	return &alertRepo{db: db, log: baseLog.With("repo", "AlertRepo")}
}

func (r *alertRepo) Create(dbc dbctx.Context, alert *types.Alert) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(alert).Error
}

func (r *alertRepo) ListForTherapist(dbc dbctx.Context, therapistID uuid.UUID, patientID *uuid.UUID) ([]*types.AlertView, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Table("alerts").
		Select("alerts.id, alerts.therapist_id, alerts.patient_id, alerts.risk_level, alerts.cause, alerts.created_at, users.full_name AS patient_name").
		Joins("JOIN users ON users.id = alerts.patient_id").
		Joins("JOIN patient_links ON patient_links.patient_id = alerts.patient_id AND patient_links.therapist_id = alerts.therapist_id AND patient_links.link_status = ?", types.LinkAccepted).
		Where("alerts.therapist_id = ?", therapistID)
	if patientID != nil {
		q = q.Where("alerts.patient_id = ?", *patientID)
	}
	var out []*types.AlertView
	if err := q.Order("alerts.created_at DESC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
