package scheduler

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// DefaultStockCheckSchedule runs the stock check at 06:00, 12:00 and 20:00
const DefaultStockCheckSchedule = "0 6,12,20 * * *"

// ParseSchedule parses a standard five-field cron expression. Descriptors such as "@daily"
// and a CRON_TZ= prefix are accepted. An empty expression yields DefaultStockCheckSchedule.
func ParseSchedule(expr string) (cron.Schedule, error) {
	if strings.TrimSpace(expr) == "" {
		expr = DefaultStockCheckSchedule
	}
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, expr, err)
	}
	return schedule, nil
}
