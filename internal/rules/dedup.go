package rules

// ShouldSkipNotification reports whether a reminder about the candidate set
// of missing dates would duplicate one already sent today. Equality is
// order-insensitive set comparison; a prior reminder about a subset or
// superset does not suppress the new one. An empty candidate always skips,
// since there is nothing to notify about.
//
// Callers that fail to load priors should pass what they have: the check is
// biased toward sending, so a read failure at worst over-notifies rather
// than silently dropping reminders.
func ShouldSkipNotification(candidate []Date, priorSameDay [][]Date) bool {
	if len(candidate) == 0 {
		return true
	}
	for _, prior := range priorSameDay {
		if equalDateSets(candidate, prior) {
			return true
		}
	}
	return false
}

func equalDateSets(a, b []Date) bool {
	as := toDateSet(a)
	bs := toDateSet(b)
	if len(as) != len(bs) {
		return false
	}
	for d := range as {
		if _, ok := bs[d]; !ok {
			return false
		}
	}
	return true
}

func toDateSet(dates []Date) map[Date]struct{} {
	set := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}
