package site

import (
	"cmp"
	"slices"
)

const topTags = 14

// Breakdown orders for the charts.
var (
	StageOrder    = []string{"startup", "scaleup", "established", "unknown"}
	HiringOrder   = []string{"actively_hiring", "possibly_hiring", "no_info"}
	EmployeeOrder = []string{"1-10", "11-50", "51-200", "200-1000", "1000+", "?"}
)

// Stats are the headline numbers and chart series.
type Stats struct {
	Total      int      `json:"total"`
	Hiring     int      `json:"hiring"`
	Startups   int      `json:"startups"`
	Scaleups   int      `json:"scaleups"`
	CHVerified int      `json:"ch_verified"`
	Sectors    int      `json:"sectors"`
	Roles      int      `json:"roles"`
	TagLabels  []string `json:"tag_labels"`
	TagVals    []int    `json:"tag_vals"`
	StageVals  []int    `json:"stage_vals"`
	HireVals   []int    `json:"hire_vals"`
	EmpVals    []int    `json:"emp_vals"`
}

func computeStats(companies []Company, roles int) Stats {
	stages := make(map[string]int)
	hiring := make(map[string]int)
	employees := make(map[string]int)
	tags := make(map[string]int)
	var tagOrder []string

	s := Stats{Total: len(companies), Roles: roles}
	for _, c := range companies {
		stages[c.Stage]++
		hiring[c.Hiring]++
		employees[c.Employees]++
		if c.CH {
			s.CHVerified++
		}
		for _, t := range c.Tags {
			if tags[t] == 0 {
				tagOrder = append(tagOrder, t)
			}
			tags[t]++
		}
	}
	s.Hiring = hiring["actively_hiring"]
	s.Startups = stages["startup"]
	s.Scaleups = stages["scaleup"]
	s.Sectors = len(tags)

	// Most common first; ties keep first-seen order.
	slices.SortStableFunc(tagOrder, func(a, b string) int {
		return cmp.Compare(tags[b], tags[a])
	})
	tagOrder = tagOrder[:min(topTags, len(tagOrder))]
	s.TagLabels = tagOrder
	s.TagVals = make([]int, len(tagOrder))
	for i, t := range tagOrder {
		s.TagVals[i] = tags[t]
	}
	if s.TagLabels == nil {
		s.TagLabels = []string{}
	}

	s.StageVals = series(stages, StageOrder)
	s.HireVals = series(hiring, HiringOrder)
	s.EmpVals = series(employees, EmployeeOrder)
	return s
}

func series(counts map[string]int, order []string) []int {
	out := make([]int, len(order))
	for i, k := range order {
		out[i] = counts[k]
	}
	return out
}

// sectors lists every tag in use, sorted.
func sectors(companies []Company) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, c := range companies {
		for _, t := range c.Tags {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	slices.Sort(out)
	return out
}
