// Package reports derives the aggregate views the UI charts from the
// movement history. All folds are pure and run in memory.
package reports

import (
	"fmt"
	"sort"
	"time"

	"github.com/sitestock/sitestock-backend/pkg/db/models"
	"github.com/sitestock/sitestock-backend/pkg/enums"
)

const displayDateLayout = "2/1/2006"

// AreaConsumption totals outbound quantities charged to one area.
type AreaConsumption struct {
	Area   string `json:"area"`
	Ice    int    `json:"ice"`
	Bottle int    `json:"bottle"`
	Total  int    `json:"total"`
}

// Entry is one inbound movement inside a report range.
type Entry struct {
	Date           string `json:"date"`
	Area           string `json:"area"`
	IceQuantity    int    `json:"ice_quantity"`
	BottleQuantity int    `json:"bottle_quantity"`
	Notes          string `json:"notes"`
}

// TimelinePoint sums entry quantities per display date.
type TimelinePoint struct {
	Date   string `json:"date"`
	Ice    int    `json:"ice"`
	Bottle int    `json:"bottle"`
}

// Totals is the grand total across all areas.
type Totals struct {
	Ice    int `json:"ice"`
	Bottle int `json:"bottle"`
	Total  int `json:"total"`
}

// ConsumptionByArea seeds every known area at zero, then folds the
// outbound movements into it. Movements pointing at a deleted area fall
// into a shared orphan bucket. Output order follows the area list, with
// the orphan bucket appended when it appears.
func ConsumptionByArea(movements []models.Movement, areaNames []string) []AreaConsumption {
	index := make(map[string]int, len(areaNames))
	out := make([]AreaConsumption, 0, len(areaNames)+1)
	for _, name := range areaNames {
		if _, seen := index[name]; seen {
			continue
		}
		index[name] = len(out)
		out = append(out, AreaConsumption{Area: name})
	}

	for i := range movements {
		if movements[i].Type != enums.MovementOut {
			continue
		}
		name := movements[i].AreaName()
		pos, ok := index[name]
		if !ok {
			pos = len(out)
			index[name] = pos
			out = append(out, AreaConsumption{Area: name})
		}
		out[pos].Ice += movements[i].IceQuantity
		out[pos].Bottle += movements[i].BottleQuantity
		out[pos].Total += movements[i].IceQuantity + movements[i].BottleQuantity
	}

	return out
}

// TopAreas ranks consumption by total descending and keeps the first n.
// Ties keep their list order.
func TopAreas(consumption []AreaConsumption, n int) []AreaConsumption {
	if n <= 0 {
		n = 5
	}
	ranked := make([]AreaConsumption, len(consumption))
	copy(ranked, consumption)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TotalConsumption sums the per-area rows into a grand total.
func TotalConsumption(consumption []AreaConsumption) Totals {
	var totals Totals
	for _, row := range consumption {
		totals.Ice += row.Ice
		totals.Bottle += row.Bottle
		totals.Total += row.Total
	}
	return totals
}

// EntriesInRange filters inbound movements to a calendar-date range,
// inclusive on both ends. Start and end are YYYY-MM-DD; the comparison
// is on the movement's calendar date, not its full timestamp.
func EntriesInRange(movements []models.Movement, start, end string) ([]Entry, error) {
	if _, err := time.Parse("2006-01-02", start); err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	if _, err := time.Parse("2006-01-02", end); err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", end, err)
	}

	entries := []Entry{}
	for i := range movements {
		if movements[i].Type != enums.MovementIn {
			continue
		}
		day := movements[i].CreatedAt.UTC().Format("2006-01-02")
		if day < start || day > end {
			continue
		}
		notes := ""
		if movements[i].Notes != nil {
			notes = *movements[i].Notes
		}
		entries = append(entries, Entry{
			Date:           movements[i].CreatedAt.UTC().Format(displayDateLayout),
			Area:           movements[i].AreaName(),
			IceQuantity:    movements[i].IceQuantity,
			BottleQuantity: movements[i].BottleQuantity,
			Notes:          notes,
		})
	}
	return entries, nil
}

// Timeline buckets entries by their display date, summing quantities.
// Bucket order follows the first appearance of each date in the input.
func Timeline(entries []Entry) []TimelinePoint {
	index := make(map[string]int, len(entries))
	out := []TimelinePoint{}
	for _, entry := range entries {
		pos, ok := index[entry.Date]
		if !ok {
			pos = len(out)
			index[entry.Date] = pos
			out = append(out, TimelinePoint{Date: entry.Date})
		}
		out[pos].Ice += entry.IceQuantity
		out[pos].Bottle += entry.BottleQuantity
	}
	return out
}

// EntryTotals sums the filtered entries for the range footer.
func EntryTotals(entries []Entry) Totals {
	var totals Totals
	for _, entry := range entries {
		totals.Ice += entry.IceQuantity
		totals.Bottle += entry.BottleQuantity
	}
	totals.Total = totals.Ice + totals.Bottle
	return totals
}
