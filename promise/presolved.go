package promise

// Succeeded returns a Future already fulfilled with value, bound to loop.
// Used to implement EventLoop.newSucceededFuture.
func Succeeded(loop Loop, value any) *Future {
	p := New(loop, nil, nil)
	p.Succeed(value)
	return p.Future()
}

// Failed returns a Future already failed with err, bound to loop.
// Used to implement EventLoop.newFailedFuture.
func Failed(loop Loop, err error) *Future {
	p := New(loop, nil, nil)
	p.Fail(err)
	return p.Future()
}
