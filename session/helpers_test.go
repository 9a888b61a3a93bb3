package session

import "time"

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func timeout() <-chan time.Time { return time.After(waitFor) }
