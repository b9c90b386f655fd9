package care

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/domain/user"
)

type Report struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TherapistID uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_owner,priority:1;column:therapist_id" json:"therapist_id"`
	PatientID   uuid.UUID `gorm:"type:uuid;not null;index:idx_reports_owner,priority:2;column:patient_id" json:"patient_id"`
	Content     string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt   time.Time `gorm:"not null;index:idx_reports_owner,priority:3" json:"created_at"`

	Patient   *user.User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Therapist *user.User `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Report) TableName() string { return "reports" }

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type PatientNote struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TherapistID uuid.UUID `gorm:"type:uuid;not null;index;column:therapist_id" json:"therapist_id"`
	PatientID   uuid.UUID `gorm:"type:uuid;not null;index;column:patient_id" json:"patient_id"`
	FileName    string    `gorm:"not null;column:file_name" json:"file_name"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	Patient   *user.User `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE" json:"-"`
	Therapist *user.User `gorm:"foreignKey:TherapistID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PatientNote) TableName() string { return "patient_notes" }

func (n *PatientNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

type DocumentSource string

const (
	SourceKnowledgeBase DocumentSource = "knowledge_base"
	SourcePatientNote   DocumentSource = "patient_note"
)

// Document tracks a file uploaded into a patient's assistant.
type Document struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID        uuid.UUID      `gorm:"type:uuid;not null;index;column:owner_user_id" json:"owner_user_id"`
	AssistantID        string         `gorm:"not null;column:assistant_id" json:"assistant_id"`
	Source             DocumentSource `gorm:"type:varchar(32);not null;column:source" json:"source"`
	FileName           string         `gorm:"not null;column:file_name" json:"file_name"`
	ProviderDocumentID string         `gorm:"column:provider_document_id" json:"provider_document_id"`
	Metadata           datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt          time.Time      `gorm:"not null" json:"created_at"`

	Owner *user.User `gorm:"foreignKey:OwnerUserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Document) TableName() string { return "documents" }

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
