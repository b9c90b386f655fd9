package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleTherapist Role = "therapist"
)

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RolePatient:
		return RolePatient, nil
	case RoleTherapist:
		return RoleTherapist, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

func (r Role) Valid() bool {
	return r == RolePatient || r == RoleTherapist
}

type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string    `gorm:"not null;column:password" json:"-"`
	FullName    string    `gorm:"not null;column:full_name" json:"full_name"`
	PhoneNumber string    `gorm:"column:phone_number" json:"phone_number"`
	// Set once at signup; nothing updates it afterwards.
	Role      Role      `gorm:"type:varchar(16);not null;column:role" json:"role"`
	IsActive  bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Patient holds the conversational-service handles owned by a patient user.
type Patient struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:user_id" json:"user_id"`
	AssistantID    string    `gorm:"not null;column:assistant_id" json:"assistant_id"`
	ThreadID       string    `gorm:"not null;column:thread_id" json:"thread_id"`
	ReportThreadID string    `gorm:"not null;column:report_thread_id" json:"report_thread_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Patient) TableName() string { return "patients" }

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
