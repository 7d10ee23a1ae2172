package simulate

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	AdminTokenTTL        = time.Hour
	simulatorActor       = "simulator"
	progressInterval     = time.Second
)
