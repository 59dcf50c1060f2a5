package discord

import (
	"strconv"
	"time"
)

// Epoch is the first millisecond of 2015, the zero point of snowflake ids.
const Epoch = 1420070400000

// SnowflakeTime returns the creation time encoded in a snowflake id.
func SnowflakeTime(id string) (time.Time, bool) {
	value, err := strconv.ParseUint(id, 10, 64)
	if err != nil || value == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(value>>22) + Epoch), true
}
