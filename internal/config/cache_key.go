package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StatisticsPrefix is shared by every cached statistics report.
const StatisticsPrefix = "statistics:"

// StatisticsReportKey returns the cache key for a statistics report over a
// set of tasks. Task order does not matter.
func (r *CacheKeyStruct) StatisticsReportKey(taskIDs []int64, minFinalized int) string {
	ids := make([]int64, len(taskIDs))
	copy(ids, taskIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%stasks:%s:min:%d", StatisticsPrefix, strings.Join(parts, ","), minFinalized)
}

// StatisticsPattern matches every cached statistics report.
func (r *CacheKeyStruct) StatisticsPattern() string {
	return StatisticsPrefix + "*"
}

// TaskSettingsKey returns the cache key for a task's settings snapshot.
func (r *CacheKeyStruct) TaskSettingsKey(taskID int64) string {
	return fmt.Sprintf("task:%d:settings", taskID)
}

// AuthRateLimitKey returns the counter key for login attempts from one client.
func (r *CacheKeyStruct) AuthRateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:auth:%s", clientIP)
}

var CacheKey = NewCacheKeyStruct()
