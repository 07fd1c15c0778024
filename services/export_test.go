package services

import "time"

// SetClock подменяет часы сервиса в тестах.
func SetClock(svc any, now func() time.Time) {
	switch s := svc.(type) {
	case *authService:
		s.now = now
	case *inviteService:
		s.now = now
	case *matchService:
		s.now = now
	case *statsService:
		s.now = now
	case *userService:
		s.now = now
	default:
		panic("services: SetClock on a service without a clock")
	}
}

var PairMatches = pairMatches
