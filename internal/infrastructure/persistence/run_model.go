package persistence

import (
	"time"

	"github.com/google/uuid"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/domain/dashboard"
	"github.com/shopdash/backend/internal/domain/sales"
)

// RunModel is the GORM model for one aggregation run. The headline figures
// are denormalized next to the payload for listing without decoding JSON.
type RunModel struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	StartedAt        time.Time           `gorm:"not null"`
	FinishedAt       time.Time           `gorm:"not null;index"`
	SummaryDate      string              `gorm:"type:varchar(10);not null"`
	TotalOrders      int                 `gorm:"not null;default:0"`
	TotalRevenue     int64               `gorm:"not null;default:0"`
	PendingShipments int                 `gorm:"not null;default:0"`
	LowStockAlerts   int                 `gorm:"not null;default:0"`
	Degraded         bool                `gorm:"not null;default:false"`
	Payload          dashboard.Payload   `gorm:"type:jsonb;serializer:json;not null"`
	Outcomes         []app.SourceOutcome `gorm:"type:jsonb;serializer:json"`
	Warnings         []string            `gorm:"type:jsonb;serializer:json"`
	SinkErrors       map[string]string   `gorm:"type:jsonb;serializer:json"`
	Orders           []RunOrderModel     `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"autoCreateTime"`
}

// TableName returns the table name for the model
func (RunModel) TableName() string {
	return "dashboard_runs"
}

// RunOrderModel is one canonical order of a run. Position keeps the merge
// order (channel order, then source order).
type RunOrderModel struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	RunID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Position       int       `gorm:"not null"`
	Channel        string    `gorm:"type:varchar(16);not null;index:idx_run_orders_channel_order"`
	OrderID        string    `gorm:"type:text;not null;index:idx_run_orders_channel_order"`
	OrderedAt      string    `gorm:"type:text"`
	CustomerName   string    `gorm:"type:text"`
	ProductName    string    `gorm:"type:text"`
	TotalAmount    int64     `gorm:"not null;default:0"`
	Status         string    `gorm:"type:varchar(16);not null"`
	Quantity       int       `gorm:"not null;default:1"`
	TrackingNumber string    `gorm:"type:text"`
}

// TableName returns the table name for the model
func (RunOrderModel) TableName() string {
	return "dashboard_run_orders"
}

// RunModelFromRun creates a model from a completed run
func RunModelFromRun(run *app.Run) (*RunModel, error) {
	id, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, err
	}

	m := &RunModel{
		ID:               id,
		StartedAt:        run.StartedAt,
		FinishedAt:       run.FinishedAt,
		SummaryDate:      run.Payload.Summary.Date,
		TotalOrders:      run.Payload.Summary.TotalOrders,
		TotalRevenue:     run.Payload.Summary.TotalRevenue,
		PendingShipments: run.Payload.Summary.PendingShipments,
		LowStockAlerts:   run.Payload.Summary.LowStockAlerts,
		Degraded:         run.Degraded(),
		Payload:          run.Payload,
		Outcomes:         run.Outcomes,
		Warnings:         run.Warnings,
		SinkErrors:       run.SinkErrors,
		Orders:           make([]RunOrderModel, len(run.Orders)),
	}
	for i, o := range run.Orders {
		m.Orders[i] = RunOrderModel{
			RunID:          id,
			Position:       i,
			Channel:        string(o.Channel),
			OrderID:        o.OrderID,
			OrderedAt:      o.OrderedAt,
			CustomerName:   o.CustomerName,
			ProductName:    o.ProductName,
			TotalAmount:    o.TotalAmount,
			Status:         string(o.Status),
			Quantity:       o.Quantity,
			TrackingNumber: o.TrackingNumber,
		}
	}
	return m, nil
}

// ToRun converts the model back to a run. Orders must be loaded in position order.
func (m *RunModel) ToRun() *app.Run {
	run := &app.Run{
		ID:         m.ID.String(),
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Payload:    m.Payload,
		Orders:     make([]sales.Order, len(m.Orders)),
		Outcomes:   m.Outcomes,
		Warnings:   m.Warnings,
		SinkErrors: m.SinkErrors,
	}
	for i, o := range m.Orders {
		run.Orders[i] = o.ToOrder()
	}
	return run
}

// ToOrder converts the row to a canonical order
func (o RunOrderModel) ToOrder() sales.Order {
	return sales.Order{
		OrderID:        o.OrderID,
		Channel:        sales.Channel(o.Channel),
		OrderedAt:      o.OrderedAt,
		CustomerName:   o.CustomerName,
		ProductName:    o.ProductName,
		TotalAmount:    o.TotalAmount,
		Status:         sales.OrderStatus(o.Status),
		Quantity:       o.Quantity,
		TrackingNumber: o.TrackingNumber,
	}
}

func (m *RunModel) toSummary() app.RunSummary {
	return app.RunSummary{
		ID:               m.ID.String(),
		FinishedAt:       m.FinishedAt,
		Date:             m.SummaryDate,
		TotalOrders:      m.TotalOrders,
		TotalRevenue:     m.TotalRevenue,
		PendingShipments: m.PendingShipments,
		LowStockAlerts:   m.LowStockAlerts,
		Degraded:         m.Degraded,
	}
}
