package units

import "fmt"

type NumSys int

const (
	Binary NumSys = iota
	Decimal
)

var (
	binaryUnits  = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}
	decimalUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
)

// Str renders a byte count. Counts that do not exceed one unit step are
// printed as whole bytes, so Str(1024, Binary) is "1024 B".
func Str(n uint64, sys NumSys) string {
	base, names := 1024.0, binaryUnits
	if sys == Decimal {
		base, names = 1000.0, decimalUnits
	}

	if float64(n) <= base {
		return fmt.Sprintf("%d B", n)
	}

	value := float64(n)
	i := 0
	for value > base && i < len(names)-1 {
		value /= base
		i++
	}
	return fmt.Sprintf("%.2f %s", value, names[i])
}

// Time renders a duration given in seconds the way apt prints elapsed
// download time: "3s", "2min 5s", "1h 0min 7s", "2d 1h 0min 0s".
func Time(seconds uint64) string {
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
	)

	d := seconds / day
	h := seconds % day / hour
	m := seconds % hour / minute
	s := seconds % minute

	switch {
	case seconds > day:
		return fmt.Sprintf("%dd %dh %dmin %ds", d, h, m, s)
	case seconds > hour:
		return fmt.Sprintf("%dh %dmin %ds", seconds/hour, m, s)
	case seconds > minute:
		return fmt.Sprintf("%dmin %ds", seconds/minute, s)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
