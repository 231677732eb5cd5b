// Package dashboard summarizes the task list for the overview screen.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"sort"

	"pmdesk/internal/domain"
	"pmdesk/internal/query"
)

// maxPages bounds Load when the server keeps reporting a next page.
const maxPages = 100

type Slice struct {
	Status  string  `json:"status"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type Breakdown struct {
	Total  int     `json:"total"`
	Slices []Slice `json:"slices"`
}

var labels = map[string]string{
	domain.TaskStatusTodo:       "Todo",
	domain.TaskStatusInProgress: "In progress",
	domain.TaskStatusDone:       "Done",
}

var order = []string{domain.TaskStatusTodo, domain.TaskStatusInProgress, domain.TaskStatusDone}

// FromTasks counts tasks per status. The board statuses always appear, in
// board order; any other status follows alphabetically.
func FromTasks(tasks []domain.Task) Breakdown {
	counts := make(map[string]int)
	for _, t := range tasks {
		counts[t.Status]++
	}

	var extra []string
	for status := range counts {
		if _, known := labels[status]; !known {
			extra = append(extra, status)
		}
	}
	sort.Strings(extra)

	b := Breakdown{Total: len(tasks)}
	for _, status := range append(append([]string{}, order...), extra...) {
		label, ok := labels[status]
		if !ok {
			label = status
		}
		b.Slices = append(b.Slices, Slice{
			Status:  status,
			Label:   label,
			Count:   counts[status],
			Percent: percent(counts[status], b.Total),
		})
	}
	return b
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}

type TaskLister interface {
	Find(ctx context.Context, f domain.Filter) query.Result[domain.Page[domain.Task]]
}

// Load walks every page of f and returns the breakdown of all tasks.
func Load(ctx context.Context, tasks TaskLister, f domain.Filter) (Breakdown, error) {
	var all []domain.Task
	page := 1
	if f.Page != nil && *f.Page > 0 {
		page = *f.Page
	}

	for i := 0; i < maxPages; i++ {
		f.Page = domain.Int(page)
		res := tasks.Find(ctx, f)
		if res.Err != nil {
			return Breakdown{}, fmt.Errorf("failed to load tasks page %d: %w", page, res.Err)
		}
		all = append(all, res.Data.Items...)
		if !res.Data.HasNextPage {
			break
		}
		page++
	}
	return FromTasks(all), nil
}
