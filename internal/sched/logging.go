package sched

import "log"

// dropError is a lightweight diagnostic logger for scheduler warnings
// that must not panic the control thread: PDCCH exhaustion, collision
// rejects, and the like are frequent under load and are logged, not
// escalated.
//
// If err is nil it is used as a cheap trace tag; otherwise the error
// is appended.
func dropError(prefix string, err error) {
	if err != nil {
		log.Printf("%s: %v", prefix, err)
	} else {
		log.Print(prefix)
	}
}
