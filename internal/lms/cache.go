package lms

// cached holds the result of the first successful fetch. Failed fetches are
// not stored, so the next call tries again.
type cached[T any] struct {
	value T
	ok    bool
}

func (c *cached[T]) get(fetch func() (T, error)) (T, error) {
	if c.ok {
		return c.value, nil
	}
	v, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value, c.ok = v, true
	return v, nil
}

func (c *cached[T]) peek() (T, bool) {
	return c.value, c.ok
}

func (c *cached[T]) reset() {
	var zero T
	c.value, c.ok = zero, false
}
