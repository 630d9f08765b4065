package mail

import (
	"fmt"
	"time"

	"github.com/goodsign/monday"
)

// FormatLongDate renders t in loc as "dia 05 de julho, às 9:30h".
func FormatLongDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return fmt.Sprintf("dia %02d de %s, às %d:%02dh",
		local.Day(), monday.Format(local, "January", monday.LocalePtBR), local.Hour(), local.Minute())
}
