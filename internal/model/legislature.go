package model

import "time"

// CurrentLegislatureApprox estimates the legislature in session during the given year, the 33rd
// started in 2023 and each one lasts two years.
func CurrentLegislatureApprox(year int) int {
	diff := year - 2023
	// floor division, 2022 belongs to the 32nd
	q := diff / 2
	if diff%2 != 0 && diff < 0 {
		q--
	}
	return q + 33
}

// LegislatureYears returns the two calendar years of a legislature given the year it started in.
func LegislatureYears(startYear int16) (int16, int16) {
	return startYear, startYear + 1
}

// LegislatureOf returns the approximate legislature for an instant.
func LegislatureOf(t time.Time) int {
	return CurrentLegislatureApprox(t.Year())
}

// LegislatureStartYear is the year a legislature convened, the 1st convened in 1959.
func LegislatureStartYear(number int16) int16 {
	return 1957 + 2*number
}
