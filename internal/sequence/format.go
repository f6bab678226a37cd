package sequence

import (
	"fmt"
	"time"
)

// FormatConfig describes how a counter value is rendered into a public
// identifier. Section is an optional segment (e.g. a department code)
// inserted between the prefix and the number. When Date is non-zero the
// identifier carries the day as YYYYMMDD ahead of the padded number.
type FormatConfig struct {
	Prefix  string
	Section string
	Pad     int
	Date    time.Time
}

func (c FormatConfig) Format(value int64) string {
	datePart := ""
	if !c.Date.IsZero() {
		datePart = c.Date.Format("20060102")
	}
	if c.Pad > 0 {
		return fmt.Sprintf("%s%s%s%0*d", c.Prefix, c.Section, datePart, c.Pad, value)
	}
	return fmt.Sprintf("%s%s%s%d", c.Prefix, c.Section, datePart, value)
}

// DayKey builds a date-scoped entity type such as "queue:2024-05-01" so the
// underlying counter restarts per facility-local day.
func DayKey(kind string, at time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return kind + ":" + at.In(loc).Format("2006-01-02")
}
