package actors

import "time"

// TimeProvider lets tests pin created/updated timestamps
type TimeProvider interface {
	Now() time.Time
}

type systemTime struct{}

func (systemTime) Now() time.Time {
	return time.Now().UTC()
}

// SystemTime returns a TimeProvider backed by the wall clock
func SystemTime() TimeProvider {
	return systemTime{}
}
