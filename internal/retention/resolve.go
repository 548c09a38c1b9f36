package retention

// Nearest walks chain (the node itself first, then its ancestors up to the
// root) and returns the first value lookup reports as present, together with
// the ID of the node that supplied it. Absence at a level is an explicit
// false from lookup, never a zero value.
func Nearest[T any](chain []string, lookup func(id string) (T, bool, error)) (T, string, error) {
	var zero T
	for _, id := range chain {
		v, ok, err := lookup(id)
		if err != nil {
			return zero, "", err
		}
		if ok {
			return v, id, nil
		}
	}
	return zero, "", nil
}
