package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const numberTimeLayout = "20060102150405"

// DocumentNumber renders PREFIX-YYYYMMDDHHMMSS-XXXXXXXX. The suffix comes
// from a random UUID so two numbers minted in the same second still differ.
func DocumentNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return prefix + "-" + now.UTC().Format(numberTimeLayout) + "-" + suffix
}
