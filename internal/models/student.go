package models

import (
	"strconv"
	"strings"
	"time"
)

// LedgerCancelled marks a fixed-class occurrence that no longer happens.
const LedgerCancelled = "Cancelada"

// ClassLedger is the sparse per-date status map: year -> month name -> day of month -> status.
type ClassLedger map[string]map[string]map[string]string

// LedgerKeys returns the (year, month, day) keys addressing date.
func LedgerKeys(date time.Time) (string, string, string) {
	return strconv.Itoa(date.Year()), date.Month().String(), strconv.Itoa(date.Day())
}

// Status returns the ledger status for date, or "" when the occurrence is untouched.
func (l ClassLedger) Status(date time.Time) string {
	year, month, day := LedgerKeys(date)
	months, ok := l[year]
	if !ok {
		return ""
	}
	days, ok := months[month]
	if !ok {
		return ""
	}
	return days[day]
}

// Set records status for date, creating intermediate maps as needed.
func (l ClassLedger) Set(date time.Time, status string) {
	year, month, day := LedgerKeys(date)
	if l[year] == nil {
		l[year] = map[string]map[string]string{}
	}
	if l[year][month] == nil {
		l[year][month] = map[string]string{}
	}
	l[year][month][day] = status
}

// LedgerEntry builds a ledger holding exactly one entry, suitable for a merge write.
func LedgerEntry(date time.Time, status string) ClassLedger {
	l := ClassLedger{}
	l.Set(date, status)
	return l
}

// Student carries the fixed weekly classes as parallel arrays: ClassDays[i] pairs with ClassTimes[i].
type Student struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	ProfessorID string      `json:"professor_id"`
	ClassDays   []string    `json:"dia_aula"`
	ClassTimes  []string    `json:"horario"`
	Classes     ClassLedger `json:"classes,omitempty"`
}

// FixedClass is one recurring class commitment derived from a student's parallel arrays.
type FixedClass struct {
	StudentID   string
	StudentName string
	ProfessorID string
	DayOfWeek   time.Weekday
	StartTime   string
}

// FixedClasses pairs ClassDays with ClassTimes. A missing index or an unknown day name is skipped, not fatal.
func (s Student) FixedClasses() []FixedClass {
	n := len(s.ClassDays)
	if len(s.ClassTimes) < n {
		n = len(s.ClassTimes)
	}
	classes := make([]FixedClass, 0, n)
	for i := 0; i < n; i++ {
		day, ok := ParseWeekday(s.ClassDays[i])
		start := strings.TrimSpace(s.ClassTimes[i])
		if !ok || start == "" {
			continue
		}
		classes = append(classes, FixedClass{
			StudentID:   s.ID,
			StudentName: s.Name,
			ProfessorID: s.ProfessorID,
			DayOfWeek:   day,
			StartTime:   start,
		})
	}
	return classes
}

var weekdayNames = map[string]time.Weekday{
	"domingo": time.Sunday, "sunday": time.Sunday, "sun": time.Sunday, "dom": time.Sunday,
	"segunda": time.Monday, "monday": time.Monday, "mon": time.Monday, "seg": time.Monday,
	"terca": time.Tuesday, "tuesday": time.Tuesday, "tue": time.Tuesday, "ter": time.Tuesday,
	"quarta": time.Wednesday, "wednesday": time.Wednesday, "wed": time.Wednesday, "qua": time.Wednesday,
	"quinta": time.Thursday, "thursday": time.Thursday, "thu": time.Thursday, "qui": time.Thursday,
	"sexta": time.Friday, "friday": time.Friday, "fri": time.Friday, "sex": time.Friday,
	"sabado": time.Saturday, "saturday": time.Saturday, "sat": time.Saturday, "sab": time.Saturday,
}

var accentFolder = strings.NewReplacer("ç", "c", "á", "a", "à", "a", "ã", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "ô", "o", "õ", "o", "ú", "u")

// ParseWeekday accepts Portuguese or English weekday names ("Segunda", "Terça-feira", "monday").
func ParseWeekday(name string) (time.Weekday, bool) {
	key := accentFolder.Replace(strings.ToLower(strings.TrimSpace(name)))
	key = strings.TrimSuffix(key, "-feira")
	key = strings.TrimSuffix(key, " feira")
	day, ok := weekdayNames[key]
	return day, ok
}
