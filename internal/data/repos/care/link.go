package care

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
	"github.com/yungbote/maia-backend/internal/platform/logger"
)

type LinkRepo interface {
	Create(dbc dbctx.Context, link *types.PatientLink) error
	Get(dbc dbctx.Context, patientID, therapistID uuid.UUID) (*types.PatientLink, error)
	UpdateStatus(dbc dbctx.Context, linkID uuid.UUID, status types.LinkStatus) error
	// ListForUser returns links where userID is on the side given by role,
	// with the counterpart user preloaded. A nil status means any status.
	ListForUser(dbc dbctx.Context, userID uuid.UUID, role types.Role, status *types.LinkStatus) ([]*types.PatientLink, error)
	HasAcceptedLink(dbc dbctx.Context, therapistID, patientID uuid.UUID) (bool, error)
	// LatestAcceptedTherapist returns nil when the patient has no accepted link.
	LatestAcceptedTherapist(dbc dbctx.Context, patientID uuid.UUID) (*uuid.UUID, error)
}

type linkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLinkRepo(db *gorm.DB, baseLog *logger.Logger) LinkRepo {
	return &linkRepo{db: db, log: baseLog.With("repo", "LinkRepo")}
}

func (r *linkRepo) Create(dbc dbctx.Context, link *types.PatientLink) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Create(link).Error
}

func (r *linkRepo) Get(dbc dbctx.Context, patientID, therapistID uuid.UUID) (*types.PatientLink, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var l types.PatientLink
	err := txx.WithContext(dbc.Ctx).
		Where("patient_id = ? AND therapist_id = ?", patientID, therapistID).
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *linkRepo) UpdateStatus(dbc dbctx.Context, linkID uuid.UUID, status types.LinkStatus) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.PatientLink{}).
		Where("id = ?", linkID).
		Updates(map[string]any{
			"link_status": status,
			"updated_at":  time.Now().UTC(),
		}).Error
}

func (r *linkRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID, role types.Role, status *types.LinkStatus) ([]*types.PatientLink, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).Model(&types.PatientLink{})
	switch role {
	case types.RoleTherapist:
		q = q.Where("therapist_id = ?", userID).Preload("Patient")
	case types.RolePatient:
		q = q.Where("patient_id = ?", userID).Preload("Therapist")
	default:
		return nil, errors.New("unknown role")
	}
	if status != nil {
		q = q.Where("link_status = ?", *status)
	}
	var out []*types.PatientLink
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *linkRepo) HasAcceptedLink(dbc dbctx.Context, therapistID, patientID uuid.UUID) (bool, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var n int64
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.PatientLink{}).
		Where("therapist_id = ? AND patient_id = ? AND link_status = ?", therapistID, patientID, types.LinkAccepted).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *linkRepo) LatestAcceptedTherapist(dbc dbctx.Context, patientID uuid.UUID) (*uuid.UUID, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var l types.PatientLink
	err := txx.WithContext(dbc.Ctx).
		Where("patient_id = ? AND link_status = ?", patientID, types.LinkAccepted).
		Order("updated_at DESC").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	id := l.TherapistID
	return &id, nil
}
