package dto

// AvailabilitySlotInput is one slot of a SaveAvailabilityRequest.
type AvailabilitySlotInput struct {
	ID                string `json:"id"`
	DayOfWeek         *int   `json:"dayOfWeek" validate:"omitempty,min=0,max=6"`
	Date              string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime         string `json:"startTime" validate:"required"`
	EndTime           string `json:"endTime" validate:"required"`
	IsRecurring       bool   `json:"isRecurring"`
	RecurrenceEndDate string `json:"recurrenceEndDate" validate:"omitempty,datetime=2006-01-02"`
}

// SaveAvailabilityRequest replaces a professor's availability wholesale.
type SaveAvailabilityRequest struct {
	Slots []AvailabilitySlotInput `json:"slots" validate:"dive"`
}

// UpdateRulesRequest sets a professor's rescheduling rules.
type UpdateRulesRequest struct {
	MinAdvanceHours        *int `json:"minAdvanceHours" validate:"required,min=0,max=8760"`
	MaxReschedulesPerWeek  *int `json:"maxReschedulesPerWeek" validate:"required,min=0"`
	MaxReschedulesPerMonth *int `json:"maxReschedulesPerMonth" validate:"required,min=0"`
}
