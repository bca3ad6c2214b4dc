package util

import (
	"fmt"
	"time"
)

var churchLocation *time.Location

func init() {
	var err error
	churchLocation, err = time.LoadLocation("Europe/Madrid")
	if err != nil {
		churchLocation = time.FixedZone("CET", 1*60*60)
	}
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var spanishWeekdays = [...]string{
	"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
}

// FormatServiceDate renders a liturgy date the way it appears on slides,
// e.g. "domingo 2 de marzo de 2026".
func FormatServiceDate(t time.Time) string {
	t = t.In(churchLocation)
	return fmt.Sprintf("%s %d de %s de %d",
		spanishWeekdays[int(t.Weekday())], t.Day(), spanishMonths[int(t.Month())-1], t.Year())
}

// FormatChurchTime formats a timestamp in the church's timezone.
func FormatChurchTime(t time.Time, layout string) string {
	return t.In(churchLocation).Format(layout)
}
