package license

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/devasol/dlms-backend/internal/apperrors"
)

// LegacyNumberPrefix marks license numbers issued by the previous system
const LegacyNumberPrefix = "DL-"

// FormatNumber builds a license number, e.g. ETH-2026-000001
func FormatNumber(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, seq)
}

// ParseNumber extracts the issuance year and sequence from a license number.
// Legacy DL- numbers carry neither and are rejected; use IsLegacyNumber to
// detect them first.
func ParseNumber(number string) (year int, seq int64, err error) {
	if IsLegacyNumber(number) {
		return 0, 0, apperrors.NewValidationError("legacy license number %q has no year component", number)
	}

	parts := strings.Split(number, "-")
	if len(parts) != 3 {
		return 0, 0, apperrors.NewValidationError("malformed license number %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, apperrors.NewValidationError("malformed license number %q", number)
	}

	seq, err = strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, 0, apperrors.NewValidationError("malformed license number %q", number)
	}

	return year, seq, nil
}

// IsLegacyNumber reports whether the number predates the current scheme
func IsLegacyNumber(number string) bool {
	return strings.HasPrefix(number, LegacyNumberPrefix)
}
