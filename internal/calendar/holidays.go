package calendar

// HolidayDay is the day of the month on which every holiday falls.
const HolidayDay = 15

// Holidays alternate by year parity: odd years celebrate mid-month in the
// odd months, even years in the even months.
var oddYearHolidays = map[int]string{
	1:  "Hearthmend Eve",
	3:  "Mossbirth Day",
	5:  "Embershare Day",
	7:  "Deep Toll",
	9:  "Honeyguard Day",
	11: "Quietbound Night",
}

var evenYearHolidays = map[int]string{
	2:  "River's Wake",
	4:  "Lanternveil Night",
	6:  "Milkmoon Festival",
	8:  "Bloomstride Parade",
	10: "Rainsong Carnival",
	12: "Wishfrost Morning",
}

// HolidayFor returns the holiday falling on the given date, if any.
func HolidayFor(d Date) (string, bool) {
	if d.Day != HolidayDay {
		return "", false
	}
	if d.Year%2 == 1 {
		name, ok := oddYearHolidays[d.Month]
		return name, ok
	}
	name, ok := evenYearHolidays[d.Month]
	return name, ok
}
