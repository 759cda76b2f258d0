// Package aggregate derives dashboard statistics from canonical orders.
package aggregate

import (
	"math"
	"time"

	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// Result holds every statistic derived from one canonical order set
type Result struct {
	// Orders is the canonical set the statistics were computed from
	Orders       []sales.Order
	TotalOrders  int
	TotalRevenue int64
	// PendingCount counts every order awaiting shipment, uncapped
	PendingCount int
	Breakdown    []dashboard.ChannelBreakdown
	// Weekly has exactly seven points, oldest first
	Weekly []dashboard.WeeklySalesPoint
	// Pending holds at most dashboard.MaxPendingShipments orders in merge order
	Pending      []sales.Order
	StatusCounts map[sales.OrderStatus]int
}

// Aggregate computes the dashboard statistics. The weekly series ends on
// now's calendar day in now's location. An empty input yields zeroed
// statistics with a full seven-day series.
func Aggregate(orders []sales.Order, now time.Time) Result {
	res := Result{
		Orders:       orders,
		TotalOrders:  len(orders),
		Pending:      []sales.Order{},
		StatusCounts: make(map[sales.OrderStatus]int, len(sales.AllOrderStatuses())),
	}
	if res.Orders == nil {
		res.Orders = []sales.Order{}
	}
	for _, st := range sales.AllOrderStatuses() {
		res.StatusCounts[st] = 0
	}

	revenueByChannel := make(map[sales.Channel]int64)
	countByChannel := make(map[sales.Channel]int)

	for _, o := range orders {
		res.TotalRevenue += o.TotalAmount
		revenueByChannel[o.Channel] += o.TotalAmount
		countByChannel[o.Channel]++
		res.StatusCounts[o.Status]++

		if o.AwaitingShipment() {
			res.PendingCount++
			if len(res.Pending) < dashboard.MaxPendingShipments {
				res.Pending = append(res.Pending, o)
			}
		}
	}

	channels := sales.AllChannels()
	res.Breakdown = make([]dashboard.ChannelBreakdown, 0, len(channels))
	for _, ch := range channels {
		res.Breakdown = append(res.Breakdown, dashboard.ChannelBreakdown{
			Channel:    ch,
			OrderCount: countByChannel[ch],
			Revenue:    revenueByChannel[ch],
			Percentage: Percentage(revenueByChannel[ch], res.TotalRevenue),
		})
	}

	res.Weekly = WeeklySeries(orders, now)
	return res
}

// Percentage returns part/total as a percentage with one decimal place.
// A zero total yields 0.
func Percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// WeeklySeries sums order amounts per channel for the seven calendar days
// ending on now's day, oldest first. Orders are matched on the YYYY-MM-DD
// prefix of their order date; days without orders yield zero points.
func WeeklySeries(orders []sales.Order, now time.Time) []dashboard.WeeklySalesPoint {
	series := make([]dashboard.WeeklySalesPoint, dashboard.WeeklySeriesDays)
	days := make([]string, dashboard.WeeklySeriesDays)

	for i := range dashboard.WeeklySeriesDays {
		day := now.AddDate(0, 0, i-(dashboard.WeeklySeriesDays-1))
		days[i] = day.Format(dashboard.DateLayout)
		series[i] = dashboard.WeeklySalesPoint{Date: day.Format(dashboard.WeeklyDateLayout)}
	}

	for _, o := range orders {
		for i, day := range days {
			if o.OrderedOn(day) {
				series[i].Add(o.Channel, o.TotalAmount)
				break
			}
		}
	}
	return series
}
