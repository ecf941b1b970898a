// Package ratelimit counts requests per client in fixed windows and decides
// whether another request is admitted.
package ratelimit

import "time"

// Policy is a named request budget: at most Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// GlobalPolicy applies to every API request.
func GlobalPolicy() Policy {
	return Policy{Name: "global", Limit: 30, Window: time.Minute}
}

// LoginPolicy applies to the login endpoint on top of GlobalPolicy.
func LoginPolicy() Policy {
	return Policy{Name: "login", Limit: 5, Window: time.Minute}
}

// Valid reports whether the policy can admit anything at all.
func (p Policy) Valid() bool {
	return p.Name != "" && p.Limit > 0 && p.Window > 0
}

func (p Policy) key(identifier string) string {
	return p.Name + ":" + identifier
}

// Decision is the outcome of Limiter.Admit.
type Decision struct {
	Allowed bool
	Count   int
	Limit   int
}

// Remaining is the number of further requests the window will admit.
func (d Decision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}
