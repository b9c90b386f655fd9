package care

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/domain/user"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func ParseRiskLevel(raw string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level %q", raw)
	}
}

// Alert is an append-only record of an assessed risk signal.
// TherapistID is nil when the patient had no accepted therapist at the time.
type Alert struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TherapistID *uuid.UUID `gorm:"type:uuid;index:idx_alerts_therapist_created,priority:1;column:therapist_id" json:"therapist_id"`
	PatientID   uuid.UUID  `gorm:"type:uuid;not null;index;column:patient_id" json:"patient_id"`
	RiskLevel   RiskLevel  `gorm:"type:varchar(16);not null;column:risk_level" json:"risk_level"`
	Cause       string     `gorm:"type:text;not null;column:cause" json:"cause"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_alerts_therapist_created,priority:2" json:"created_at"`

	Patient   *user.User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Therapist *user.User `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Alert) TableName() string { return "alerts" }

func (a *Alert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AlertView is an alert joined with the patient's display name.
type AlertView struct {
	Alert
	PatientName string `gorm:"column:patient_name" json:"patient_name"`
}
