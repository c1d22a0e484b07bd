// Package alert следит за частотой атак и рассылает email-оповещения.
package alert

import (
	"fmt"
	"time"

	models "github.com/RoGogDBD/honeypot-dashboard/internal/model"
)

// Notification - оповещение о превышении порога атак.
type Notification struct {
	Recipient        string
	Count            int
	ThresholdCount   int
	ThresholdMinutes int
	At               time.Time
}

// Subject возвращает тему письма.
func (n Notification) Subject() string {
	return fmt.Sprintf("Honeypot alert: %d attacks in the last %d minutes", n.Count, n.ThresholdMinutes)
}

// Body возвращает текст письма.
func (n Notification) Body() string {
	return fmt.Sprintf(
		"The honeypot registered %d attacks in the last %d minutes (threshold %d).\n\nDetected at %s UTC.\n",
		n.Count, n.ThresholdMinutes, n.ThresholdCount, n.At.UTC().Format(models.TimestampLayout),
	)
}
