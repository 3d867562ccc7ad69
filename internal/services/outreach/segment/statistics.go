package segment

import (
	"sort"
	"strings"
	"time"
)

// Statistics summarizes the customers of a materialized segment.
type Statistics struct {
	MemberCount       int             `json:"member_count"`
	AverageAge        float64         `json:"average_age"`
	TotalRevenue      float64         `json:"total_revenue"`
	AverageRevenue    float64         `json:"average_revenue"`
	PurchaseCount     int             `json:"purchase_count"`
	ActiveCount       int             `json:"active_count"`
	LocationBreakdown []LocationCount `json:"location_breakdown"`
	ActiveWindowDays  int             `json:"active_window_days"`
}

// LocationCount is the number of members sharing a location.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// DefaultActiveWindowDays is the recency window used to count active members.
const DefaultActiveWindowDays = 90

// Summarize computes statistics over the members of seg. Customers not in the
// segment are ignored. A member is active when their last purchase is within
// activeWindowDays of the materialization time.
func Summarize(seg Segment, customers []Customer, activeWindowDays int) Statistics {
	if activeWindowDays <= 0 {
		activeWindowDays = DefaultActiveWindowDays
	}
	byID := make(map[string]Customer, len(customers))
	for _, c := range customers {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}

	stats := Statistics{ActiveWindowDays: activeWindowDays}
	var ageSum int
	locations := map[string]*LocationCount{}
	for _, memberID := range seg.MemberIDs {
		c, ok := byID[memberID]
		if !ok {
			continue
		}
		stats.MemberCount++
		ageSum += c.Age
		stats.TotalRevenue += c.PurchaseTotal()
		stats.PurchaseCount += len(c.Purchases)
		if isActive(c, seg.MaterializedAt, activeWindowDays) {
			stats.ActiveCount++
		}

		key := foldCase(strings.TrimSpace(c.Location))
		if entry, ok := locations[key]; ok {
			entry.Count++
		} else {
			locations[key] = &LocationCount{Location: strings.TrimSpace(c.Location), Count: 1}
		}
	}
	if stats.MemberCount > 0 {
		stats.AverageAge = float64(ageSum) / float64(stats.MemberCount)
		stats.AverageRevenue = stats.TotalRevenue / float64(stats.MemberCount)
	}

	stats.LocationBreakdown = make([]LocationCount, 0, len(locations))
	for _, entry := range locations {
		stats.LocationBreakdown = append(stats.LocationBreakdown, *entry)
	}
	sort.Slice(stats.LocationBreakdown, func(i, j int) bool {
		a, b := stats.LocationBreakdown[i], stats.LocationBreakdown[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Location < b.Location
	})
	return stats
}

func isActive(c Customer, asOf time.Time, windowDays int) bool {
	last, ok := c.LastPurchaseAt()
	if !ok {
		return false
	}
	return DaysBetween(last, asOf) <= float64(windowDays)
}
