package dto

import "github.com/noah-isme/class-scheduler/internal/models"

// RescheduleRequest moves the class on OriginalDate to NewDate at NewTime.
type RescheduleRequest struct {
	ProfessorID  string `json:"professorId" validate:"required"`
	OriginalDate string `json:"originalDate" validate:"required,datetime=2006-01-02"`
	NewDate      string `json:"newDate" validate:"required,datetime=2006-01-02"`
	NewTime      string `json:"newTime" validate:"required"`
}

// RescheduleResult is returned after a committed reschedule. Usage already
// counts the new record; it is reconciled on the next full fetch.
type RescheduleResult struct {
	Record             models.RescheduleRecord `json:"record"`
	Usage              models.RescheduleUsage  `json:"usage"`
	NotificationQueued bool                    `json:"notificationQueued"`
}

// RescheduleQuery selects a student's history with one professor.
type RescheduleQuery struct {
	ProfessorID string `form:"professor_id" validate:"required"`
}
