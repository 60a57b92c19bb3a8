package models

import "github.com/nvandessel/txsim/internal/constants"

// StepCalendar maps a step to its zero-based month, day of month and hour of
// day.
func StepCalendar(step int) (month, day, hour int) {
	hours := step / constants.StepsPerHour
	hour = hours % constants.HoursPerDay
	days := hours / constants.HoursPerDay
	day = days % constants.DaysPerMonth
	month = days / constants.DaysPerMonth
	return month, day, hour
}
