package vm

import "github.com/xyproto/env/v2"

// DefaultTickLimit bounds runaway loops when STACKC_TICK_LIMIT is unset
const DefaultTickLimit = 1_000_000

// TickLimitFromEnv reads the tick limit from STACKC_TICK_LIMIT
func TickLimitFromEnv() int64 {
	return int64(env.Int("STACKC_TICK_LIMIT", DefaultTickLimit))
}
