package care

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/domain/user"
)

type LinkStatus string

const (
	LinkPending  LinkStatus = "pending"
	LinkAccepted LinkStatus = "accepted"
	LinkDenied   LinkStatus = "denied"
)

func ParseLinkStatus(raw string) (LinkStatus, error) {
	switch LinkStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case LinkPending:
		return LinkPending, nil
	case LinkAccepted:
		return LinkAccepted, nil
	case LinkDenied:
		return LinkDenied, nil
	default:
		return "", fmt.Errorf("unknown link status %q", raw)
	}
}

// PatientLink is the consent edge between a patient and a therapist.
// At most one row exists per (patient, therapist) pair.
type PatientLink struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_patient_links_pair,priority:1;column:patient_id" json:"patient_id"`
	TherapistID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_patient_links_pair,priority:2;index;column:therapist_id" json:"therapist_id"`
	Status      LinkStatus `gorm:"type:varchar(16);not null;column:link_status" json:"link_status"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`

	Patient   *user.User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Therapist *user.User `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PatientLink) TableName() string { return "patient_links" }

func (l *PatientLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
