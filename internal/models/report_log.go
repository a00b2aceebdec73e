package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrReportLogImmutable is returned when code attempts to change an existing log row.
var ErrReportLogImmutable = errors.New("report logs are append-only")

// ReportLog is an append-only audit entry for one report status transition.
type ReportLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ReportID  uint           `gorm:"index;not null" json:"report_id"`
	ActorID   *string        `gorm:"size:64" json:"actor_id"`
	OldStatus ReportStatus   `gorm:"size:32" json:"old_status"`
	NewStatus ReportStatus   `gorm:"size:32" json:"new_status"`
	Auto      bool           `gorm:"not null;default:false;index" json:"auto"`
	Reason    string         `gorm:"type:text" json:"reason"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// BeforeUpdate rejects updates of persisted log rows.
func (l *ReportLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrReportLogImmutable
}

// BeforeDelete rejects deletion of log rows.
func (l *ReportLog) BeforeDelete(tx *gorm.DB) error {
	return ErrReportLogImmutable
}
