package cache

import "context"

// ComputeFunc produces the result for a cache miss.
type ComputeFunc func(ctx context.Context) (Table, error)

// Load returns the cached result for key under sessionID, computing and
// offering it to Put on a miss.
//
// Concurrent Loads for the same session and key share one compute call and
// its result. Compute errors are returned to every waiting caller and are
// never cached. The returned table is whatever Put returned: the cached
// Snapshot when admitted, otherwise the computed table itself.
//
// The shared compute runs with the starting caller's values but without
// its cancellation, so one caller giving up does not fail the others. A
// caller whose ctx ends stops waiting and gets ctx.Err().
func (c *Cache) Load(ctx context.Context, sessionID string, key DataKey, compute ComputeFunc) (Table, error) {
	if compute == nil {
		return nil, ErrNilCompute
	}
	if t, ok := c.Get(ctx, sessionID, key); ok {
		return t, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(NewCompositeKey(sessionID, key).String(), func() (any, error) {
		// Another flight may have stored it since the first lookup.
		if t, ok := c.Get(flightCtx, sessionID, key); ok {
			return t, nil
		}
		t, err := compute(flightCtx)
		if err != nil {
			return nil, err
		}
		return c.Put(flightCtx, sessionID, key, t), nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		t, _ := res.Val.(Table)
		return t, nil
	}
}
