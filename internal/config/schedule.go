package config

import (
	"regexp"
	"strconv"
	"time"

	"github.com/aleister1102/firefoxversions/internal/common"
)

// ScheduleNever disables periodic checks; the agent only runs on demand.
const ScheduleNever = "never"

var scheduleRe = regexp.MustCompile(`^every_(\d+)([mhd])$`)

// ParseSchedule converts a schedule name such as every_1h or every_30m into
// its interval. ScheduleNever yields zero.
func ParseSchedule(schedule string) (time.Duration, error) {
	if schedule == ScheduleNever {
		return 0, nil
	}

	m := scheduleRe.FindStringSubmatch(schedule)
	if m == nil {
		return 0, common.NewConfigurationError("host_config", "schedule", "unknown schedule '"+schedule+"'")
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, common.NewConfigurationError("host_config", "schedule", "schedule interval must be positive")
	}

	unit := time.Minute
	switch m[2] {
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	}
	return time.Duration(n) * unit, nil
}
