package render

import (
	"math"
	"time"
)

// The app's audience lives in UTC+8; timestamps render in that zone
// regardless of where the bot runs.
var utcPlus8 = time.FixedZone("UTC+8", 8*3600)

// ClockEmoji picks the clock-face emoji (🕐..🕧) nearest the local time
// of the given unix timestamp, rounding to the closest half hour.
func ClockEmoji(timestamp int64) string {
	a := int(math.Mod((float64(timestamp)+8*3600)/900-3, 48) / 2)
	return string(rune(128336 + a/2 + a%2*12))
}

// FormatTime renders a unix timestamp in the fixed UTC+8 display form.
func FormatTime(timestamp int64) string {
	return time.Unix(timestamp, 0).In(utcPlus8).Format("2006-01-02 15:04:05") + " UTC+0800"
}
