package promise

import "time"

// DelayCond selects which resolutions a Delay call holds back.
type DelayCond int

func (m DelayCond) String() string {
	switch m {
	case OnAll:
		return "OnAll"
	case OnSuccess:
		return "OnSuccess"
	case OnError:
		return "OnError"
	case OnCancel:
		return "OnCancel"
	default:
		return "<unknown condition>"
	}
}

// any values other than the listed below will be ignored
const (
	OnAll     DelayCond = iota // the default behavior if no conditions are passed
	OnSuccess DelayCond = iota
	OnError   DelayCond = iota
	OnCancel  DelayCond = iota
)

// delayFlags packs the selected conditions into one bit per State value,
// so the resolution's own State indexes straight into it.
type delayFlags uint8

const delayAllFlags = delayFlags(1<<Fulfilled | 1<<Rejected | 1<<Cancelled)

func (f delayFlags) holds(s State) bool {
	return f&(1<<s) != 0
}

func getDelayFlags(conds []DelayCond) delayFlags {
	if len(conds) == 0 {
		return delayAllFlags
	}
	var flags delayFlags
	for _, cond := range conds {
		switch cond {
		case OnAll:
			return delayAllFlags
		case OnSuccess:
			flags |= 1 << Fulfilled
		case OnError:
			flags |= 1 << Rejected
		case OnCancel:
			flags |= 1 << Cancelled
		}
	}
	return flags
}

// Delay returns a Promise that mirrors p's result, delivered d after p
// resolves.
// The conds select which resolutions are held back; with no conds, every
// resolution is. A resolution that doesn't match any cond passes through
// without delay.
//
// A cancel request on the derived promise while the delivery is pending
// stops the timer and resolves the derived promise as cancelled.
func (p *Promise[T]) Delay(on Executor, d time.Duration, conds ...DelayCond) *Promise[T] {
	flags := getDelayFlags(conds)
	return chain[T, T](p, on, nil, func(r Result[T], res Resolver[T]) {
		if !flags.holds(r.State()) {
			mirrorResult(res, r)
			return
		}
		timer := time.AfterFunc(d, func() {
			mirrorResult(res, r)
		})
		res.OnCancel(func(dr Resolver[T]) {
			if timer.Stop() {
				dr.Cancel()
			}
		})
	})
}

// Timeout returns a Promise that mirrors p's result, unless p is still
// pending d from now, in which case the returned promise resolves as
// cancelled.
//
// With cancelSource set, an expired timeout also requests cancellation of
// p itself, for when the timed-out wait was the only consumer that cared.
func (p *Promise[T]) Timeout(on Executor, d time.Duration, cancelSource bool) *Promise[T] {
	if p == nil {
		panic(nilPromisePanicMsg)
	}
	if on == nil {
		on = Immediate()
	}

	counted := p.c.addObserver()
	child := &Promise[T]{c: newCell[T]()}
	parent := p.c
	child.c.detach = func() {
		if counted {
			parent.observerGone()
		}
	}
	res := Resolver[T]{c: child.c}

	timer := time.AfterFunc(d, func() {
		if res.Cancel() && cancelSource {
			p.RequestCancel()
		}
	})
	p.c.subscribeResult(func(r Result[T]) {
		on.Schedule(func() {
			if mirrorResult(res, r) {
				timer.Stop()
			}
		})
	})
	return child
}
