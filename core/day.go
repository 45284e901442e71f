package core

// Day is one of the five operating weekdays. The school week runs Sunday
// through Thursday; Friday and Saturday hold no lessons.
type Day string

const (
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
)

// Days lists the operating weekdays in order.
var Days = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday}

var dayLabels = map[Day]string{
	Sunday:    "Sunday",
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
}

func (d Day) IsValid() bool {
	_, ok := dayLabels[d]
	return ok
}

// Label returns the human-readable weekday name.
func (d Day) Label() string {
	return dayLabels[d]
}

func (d Day) String() string { return string(d) }
