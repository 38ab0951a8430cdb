package entity

import "time"

// TierStat tracks which tier has been serving an operation.
type TierStat struct {
	Operation    string
	LastTier     string
	LastServedAt time.Time
	Served       map[string]int64
	Failed       map[string]int64
}
