package chrono

import (
	"time"
	// the container images have no zoneinfo
	_ "time/tzdata"
)

var anchorage *time.Location

func init() {
	var err error
	anchorage, err = time.LoadLocation("America/Anchorage")
	if err != nil {
		panic(err)
	}
}

// Anchorage returns a [*time.Location] for America/Anchorage, the legislature's local time.
func Anchorage() *time.Location {
	return anchorage
}

// API is the interface that anything depending on the system clock should use.
type API interface {
	// Now returns the current time in America/Anchorage.
	Now() time.Time
}

// StandardImpl is the standard implementation of API using the standard library.
type StandardImpl struct{}

func NewStandardImpl() StandardImpl {
	return StandardImpl{}
}

func (StandardImpl) Now() time.Time {
	return time.Now().In(anchorage)
}

// FixedImpl always returns the same instant, it is meant for tests.
type FixedImpl struct {
	Time time.Time
}

func (f FixedImpl) Now() time.Time {
	return f.Time.In(anchorage)
}
