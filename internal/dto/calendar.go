package dto

// CalendarQuery narrows a calendar view to [From, To], both inclusive dates.
type CalendarQuery struct {
	From   string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Format string `form:"format" validate:"omitempty,oneof=csv pdf CSV PDF"`
}
