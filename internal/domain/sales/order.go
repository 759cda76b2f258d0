package sales

// ---------------------------------------------------------------------------
// Order status
// ---------------------------------------------------------------------------

// OrderStatus is the canonical order status shared by all channels
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	// OrderStatusUnknown is assigned when a channel status cannot be mapped.
	// It is a valid value, not an error.
	OrderStatusUnknown OrderStatus = "unknown"
)

// AllOrderStatuses returns the closed status enumeration
func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusShipping,
		OrderStatusDelivered,
		OrderStatusCancelled,
		OrderStatusUnknown,
	}
}

// ParseOrderStatus converts a string into an OrderStatus
func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.IsValid() {
		return "", ErrUnknownStatus
	}
	return st, nil
}

// IsValid returns true if the status belongs to the canonical enumeration
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipping, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusUnknown:
		return true
	}
	return false
}

// AwaitingShipment reports whether the order has not reached the customer yet.
// Unknown statuses never count.
func (s OrderStatus) AwaitingShipment() bool {
	return s == OrderStatusPending || s == OrderStatusShipping
}

// String returns the status code
func (s OrderStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Canonical order
// ---------------------------------------------------------------------------

// Order is the channel-agnostic form of an order produced by normalization.
// Values are never mutated after normalization.
type Order struct {
	// OrderID is unique within its channel only
	OrderID string `json:"order_id"`
	// Channel the order was placed on
	Channel Channel `json:"channel"`
	// OrderedAt is an ISO-8601 date or date-time; precision depends on the source
	OrderedAt string `json:"ordered_at"`
	// CustomerName may be empty
	CustomerName string `json:"customer_name"`
	// ProductName may be empty and is never truncated here
	ProductName string `json:"product_name"`
	// TotalAmount in KRW, never negative
	TotalAmount int64 `json:"total_amount"`
	// Status from the canonical enumeration
	Status OrderStatus `json:"status"`
	// Quantity is at least 1
	Quantity int `json:"quantity"`
	// TrackingNumber is only reported by shipping-integrated channels
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// Key returns the global identity of the order (channel plus order ID)
func (o Order) Key() string {
	return string(o.Channel) + ":" + o.OrderID
}

// AwaitingShipment reports whether the order still has to reach the customer
func (o Order) AwaitingShipment() bool {
	return o.Status.AwaitingShipment()
}

// OrderedOn reports whether the order date starts with the given YYYY-MM-DD day
func (o Order) OrderedOn(day string) bool {
	return day != "" && len(o.OrderedAt) >= len(day) && o.OrderedAt[:len(day)] == day
}
