package booking

import "time"

// CancellationWindow is how long before the event start a confirmed or
// pending ticket may still be cancelled.
const CancellationWindow = 24 * time.Hour

// CanCancel reports whether a ticket for an event starting at eventDate may
// be cancelled at instant now. Pure so it can be tested without persistence.
func CanCancel(eventDate, now time.Time) bool {
	return eventDate.Sub(now) >= CancellationWindow
}
