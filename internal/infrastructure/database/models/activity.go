package models

import "time"

type Activity struct {
	ID     int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID string    `json:"innohassleId" gorm:"type:text;not null;index:idx_activity_user_cdate,priority:1"`
	Email  string    `json:"email" gorm:"type:text;not null"`
	Kind   string    `json:"kind" gorm:"type:text;not null"`
	CaseID *int64    `json:"caseId"`
	CDate  time.Time `json:"cdate" gorm:"type:timestamp with time zone;not null;index:idx_activity_user_cdate,priority:2,sort:desc"`
}
