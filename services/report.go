package services

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"taskrabbit-scraper/models"
)

type CategoryReport struct {
	Key          string
	Name         string
	Taskers      int
	Pages        int
	Skipped      int
	AverageRate  float64
	MinRate      float64
	MaxRate      float64
	EliteTaskers int
	File         string
	Err          error
}

type RatedTasker struct {
	Category string
	models.Tasker
}

type Report struct {
	Categories []CategoryReport
	Succeeded  int
	Failed     int
	Taskers    int
	TopRated   []RatedTasker
}

// topRatedLimit is how many taskers the top-rated table lists.
const topRatedLimit = 5

// GenerateReport summarises a run across categories.
func GenerateReport(outcomes []models.CategoryOutcome) Report {
	var report Report
	var rated []RatedTasker

	for _, o := range outcomes {
		if o.Err != nil || o.Result == nil {
			report.Failed++
			report.Categories = append(report.Categories, CategoryReport{Key: o.Key, Err: o.Err})
			continue
		}

		res := o.Result
		report.Succeeded++
		report.Taskers += len(res.Taskers)

		cr := CategoryReport{
			Key:     res.CategoryKey,
			Name:    res.CategoryName,
			Taskers: len(res.Taskers),
			Pages:   res.Pages,
			Skipped: res.Skipped,
			File:    res.OutputPath,
		}

		var (
			rateSum   float64
			rateCount int
			minRate   = math.MaxFloat64
			maxRate   = -1.0
		)
		for _, t := range res.Taskers {
			if t.EliteStatus {
				cr.EliteTaskers++
			}
			if t.HourlyRate != nil && *t.HourlyRate > 0 {
				rateSum += *t.HourlyRate
				rateCount++
				minRate = math.Min(minRate, *t.HourlyRate)
				maxRate = math.Max(maxRate, *t.HourlyRate)
			}
			if t.ReviewRating != nil {
				rated = append(rated, RatedTasker{Category: res.CategoryKey, Tasker: t})
			}
		}
		if rateCount > 0 {
			cr.AverageRate = rateSum / float64(rateCount)
			cr.MinRate = minRate
			cr.MaxRate = maxRate
		}

		report.Categories = append(report.Categories, cr)
	}

	sort.SliceStable(rated, func(i, j int) bool {
		ri, rj := *rated[i].ReviewRating, *rated[j].ReviewRating
		if ri == rj {
			return reviewCount(rated[i].Tasker) > reviewCount(rated[j].Tasker)
		}
		return ri > rj
	})
	if len(rated) > topRatedLimit {
		rated = rated[:topRatedLimit]
	}
	report.TopRated = rated

	return report
}

func reviewCount(t models.Tasker) int {
	if t.ReviewCount == nil {
		return 0
	}
	return *t.ReviewCount
}

// PrintReport renders the report as tables on w.
func PrintReport(w io.Writer, report Report) {
	fmt.Fprintln(w)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("TaskRabbit Scrape Summary")
	t.AppendHeader(table.Row{"Category", "Taskers", "Pages", "Skipped", "Avg $/hr", "Min $/hr", "Max $/hr", "Elite", "File"})
	for _, c := range report.Categories {
		if c.Err != nil {
			t.AppendRow(table.Row{c.Key, "-", "-", "-", "-", "-", "-", "-", "FAILED: " + truncateText(c.Err.Error(), 60)})
			continue
		}
		t.AppendRow(table.Row{
			c.Key,
			c.Taskers,
			c.Pages,
			c.Skipped,
			formatRate(c.AverageRate),
			formatRate(c.MinRate),
			formatRate(c.MaxRate),
			c.EliteTaskers,
			filepath.Base(c.File),
		})
	}
	t.AppendFooter(table.Row{
		fmt.Sprintf("%d ok / %d failed", report.Succeeded, report.Failed),
		report.Taskers,
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(report.TopRated) == 0 {
		return
	}

	fmt.Fprintln(w)
	top := table.NewWriter()
	top.SetOutputMirror(w)
	top.SetTitle(fmt.Sprintf("Top %d Highest Rated Taskers", topRatedLimit))
	top.AppendHeader(table.Row{"#", "Name", "Category", "Rating", "Reviews", "$/hr"})
	for i, rt := range report.TopRated {
		rate := "-"
		if rt.HourlyRate != nil {
			rate = formatRate(*rt.HourlyRate)
		}
		top.AppendRow(table.Row{i + 1, truncateText(rt.Name, 30), rt.Category, *rt.ReviewRating, reviewCount(rt.Tasker), rate})
	}
	top.SetStyle(table.StyleRounded)
	top.Render()
}

func formatRate(v float64) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
