package redisx

import "fmt"

const ns = "venuegate:v1"

func KeyEventSummary(eventID uint64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventAvailability(eventID uint64) string {
	return fmt.Sprintf("%s:event:%d:availability", ns, eventID)
}

func KeyEventSeating(eventID uint64) string {
	return fmt.Sprintf("%s:event:%d:seating", ns, eventID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelEventsChanged() string {
	return ns + ":events:changed"
}
