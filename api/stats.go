package main

type statusTally struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type categoryStats struct {
	Category   string        `json:"category"`
	Statuses   []statusTally `json:"statuses"`
	TotalTasks int           `json:"totalTasks"`
}

// buildTaskStats folds (category, status) groups into one entry per category.
// Categories keep the order in which they first appear in counts; a category
// without tasks never appears.
func buildTaskStats(counts []statusCount) []categoryStats {
	stats := []categoryStats{}
	index := make(map[string]int)
	for _, c := range counts {
		i, ok := index[c.Category]
		if !ok {
			i = len(stats)
			index[c.Category] = i
			stats = append(stats, categoryStats{Category: c.Category})
		}
		stats[i].Statuses = append(stats[i].Statuses, statusTally{Status: c.Status, Count: c.Count})
		stats[i].TotalTasks += c.Count
	}
	return stats
}
