package deployment

// Mode selects the filesystem layout the shell was built for.
// It is fixed at build time: binaries built with the `release` tag run in
// Production mode, every other build runs in Development mode.
type Mode int

const (
	Development Mode = iota
	Production
)

func (m Mode) String() string {
	switch m {
	case Development:
		return "development"
	case Production:
		return "production"
	default:
		return "unknown"
	}
}

func (m Mode) Valid() bool {
	return m == Development || m == Production
}

// Current returns the mode compiled into this binary
func Current() Mode {
	return buildMode
}
