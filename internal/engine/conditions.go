package engine

// MatchesConditions reports whether payload satisfies the flat equality
// condition map. An empty or nil condition map matches everything. Otherwise
// every condition key must be present in the payload with an exactly equal
// value; there is no partial matching and no type coercion.
func MatchesConditions(conditions map[string]string, payload EventPayload) bool {
	for key, want := range conditions {
		got, ok := payload.Get(key)
		if !ok || got != want {
			return false
		}
	}
	return true
}
