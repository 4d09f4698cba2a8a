package pipeline

// State maps stage name to the payload of every prior successful stage. Each
// Run owns its own State; it is never shared across requests.
type State map[string]any

// Lookup returns the payload stored for stage, asserted to T.
func Lookup[T any](s State, stage string) (T, bool) {
	var zero T
	if s == nil {
		return zero, false
	}
	v, ok := s[stage]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
