package util

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatSize renders a byte count with a binary unit, e.g. "1.5 KB".
// Up to three decimals are kept and trailing zeros dropped, but at least one
// decimal is shown whenever the value is not an exact multiple of the unit.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	exp := 0
	div := int64(1)
	for exp < len(sizeUnits)-1 && size/div >= unit {
		div *= unit
		exp++
	}

	value := size / div
	remainder := size % div
	if remainder == 0 {
		return fmt.Sprintf("%d %s", value, sizeUnits[exp])
	}

	// remainder < div <= 1024^5, so remainder*1000 stays inside int64
	decimal := (remainder * 1000) / div
	switch {
	case decimal%10 != 0:
		return fmt.Sprintf("%d.%03d %s", value, decimal, sizeUnits[exp])
	case decimal%100 != 0:
		return fmt.Sprintf("%d.%02d %s", value, decimal/10, sizeUnits[exp])
	default:
		return fmt.Sprintf("%d.%d %s", value, decimal/100, sizeUnits[exp])
	}
}
