package normalize

import "github.com/shopdash/backend/internal/domain/sales"

// ---------------------------------------------------------------------------
// Cafe24 storefront
// ---------------------------------------------------------------------------

// Cafe24Schema reads Cafe24 admin API orders, the admin page scraper output
// and the older export files with per-state unit counters.
func Cafe24Schema() Schema {
	return Schema{
		Channel:      sales.ChannelCafe24,
		OrderID:      sales.FieldChain{"order_id", "orderId"},
		OrderedAt:    sales.FieldChain{"ordered_at", "order_date"},
		CustomerName: sales.FieldChain{"customer_name", "buyer_name", "buyer.name"},
		ProductName:  sales.FieldChain{"product_name", "items.0.product_name"},
		TotalAmount:  sales.FieldChain{"total_amount", "payment_amount", "actual_order_amount.payment_amount", "total_price"},
		Quantity:     sales.FieldChain{"quantity", "items.0.quantity"},
		StatusLabel:  sales.FieldChain{"status", "order_status", "items.0.order_status"},
		Vocabulary: sales.StatusVocabulary{
			Codes: map[string]sales.OrderStatus{
				"N00": sales.OrderStatusPending,
				"N10": sales.OrderStatusPending,
				"N20": sales.OrderStatusPending,
				"N21": sales.OrderStatusPending,
				"N22": sales.OrderStatusPending,
				"N30": sales.OrderStatusShipping,
				"N40": sales.OrderStatusDelivered,
				"C00": sales.OrderStatusCancelled,
				"C10": sales.OrderStatusCancelled,
				"C34": sales.OrderStatusCancelled,
				"C36": sales.OrderStatusCancelled,
				"C40": sales.OrderStatusCancelled,
				"C47": sales.OrderStatusCancelled,
				"C48": sales.OrderStatusCancelled,
				"C49": sales.OrderStatusCancelled,
				"R00": sales.OrderStatusCancelled,
				"R10": sales.OrderStatusCancelled,
				"R12": sales.OrderStatusCancelled,
				"R13": sales.OrderStatusCancelled,
				"R30": sales.OrderStatusCancelled,
				"R34": sales.OrderStatusCancelled,
				"R36": sales.OrderStatusCancelled,
				"R40": sales.OrderStatusCancelled,
			},
			Tokens: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"취소", "환불", "반품", "cancel", "refund"},
				sales.OrderStatusDelivered: {"배송완료", "구매확정", "delivered"},
				sales.OrderStatusShipping:  {"배송중", "shipping", "shipped"},
				sales.OrderStatusPending: {
					"배송준비중", "배송대기", "상품준비중", "입금전", "입금확인", "결제완료",
					"pending", "confirmed", "processing",
				},
			},
			Flags: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"canceled_count", "refund_count"},
				sales.OrderStatusDelivered: {"delivered_count"},
				sales.OrderStatusShipping:  {"shipping_count"},
				sales.OrderStatusPending:   {"standby_count", "ready_count"},
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Naver SmartStore
// ---------------------------------------------------------------------------

// NaverSchema reads Naver Commerce API product orders and cached exports
func NaverSchema() Schema {
	return Schema{
		Channel:      sales.ChannelNaver,
		OrderID:      sales.FieldChain{"order_id", "productOrderId", "orderId", "order.orderId"},
		OrderedAt:    sales.FieldChain{"ordered_at", "orderDate", "order.orderDate", "paymentDate"},
		CustomerName: sales.FieldChain{"customer_name", "ordererName", "order.ordererName"},
		ProductName:  sales.FieldChain{"product_name", "productName", "productOrder.productName", "productOrders.0.productName"},
		TotalAmount:  sales.FieldChain{"total_amount", "totalPaymentAmount", "productOrder.totalPaymentAmount"},
		Quantity:     sales.FieldChain{"quantity", "productOrder.quantity", "productOrders.0.quantity"},
		StatusLabel:  sales.FieldChain{"status", "productOrderStatus", "productOrder.productOrderStatus", "orderStatus"},
		Vocabulary: sales.StatusVocabulary{
			Codes: map[string]sales.OrderStatus{
				"PAYMENT_WAITING":  sales.OrderStatusPending,
				"PAYED":            sales.OrderStatusPending,
				"DELIVERING":       sales.OrderStatusShipping,
				"DELIVERED":        sales.OrderStatusDelivered,
				"PURCHASE_DECIDED": sales.OrderStatusDelivered,
				"CANCELED":         sales.OrderStatusCancelled,
				"RETURNED":         sales.OrderStatusCancelled,
			},
			Tokens: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"CANCEL", "RETURN", "취소", "반품", "환불"},
				sales.OrderStatusDelivered: {"DELIVERED", "PURCHASE_DECIDED", "배송완료", "구매확정"},
				sales.OrderStatusShipping:  {"DELIVERING", "배송중"},
				sales.OrderStatusPending:   {"PAYED", "PAYMENT_WAITING", "결제완료", "발송대기", "발주확인"},
			},
			Flags: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"cancelCount", "returnCount"},
				sales.OrderStatusDelivered: {"deliveredCount", "decidedCount"},
				sales.OrderStatusShipping:  {"deliveringCount"},
				sales.OrderStatusPending:   {"payedCount", "newOrderCount"},
			},
		},
	}
}

// ---------------------------------------------------------------------------
// Coupang Wing
// ---------------------------------------------------------------------------

// CoupangSchema reads Coupang ordersheets, the only channel that reports
// tracking (invoice) numbers.
func CoupangSchema() Schema {
	return Schema{
		Channel:        sales.ChannelCoupang,
		OrderID:        sales.FieldChain{"order_id", "orderId", "shipmentBoxId"},
		OrderedAt:      sales.FieldChain{"ordered_at", "orderedAt", "paidAt"},
		CustomerName:   sales.FieldChain{"customer_name", "receiver.name", "orderer.name", "ordererName"},
		ProductName:    sales.FieldChain{"product_name", "vendorItemName", "orderItems.0.vendorItemName", "orderItems.0.sellerProductName"},
		TotalAmount:    sales.FieldChain{"total_amount", "totalPrice", "orderPrice", "orderItems.0.orderPrice"},
		Quantity:       sales.FieldChain{"quantity", "shippingCount", "orderItems.0.shippingCount"},
		StatusLabel:    sales.FieldChain{"status"},
		TrackingNumber: sales.FieldChain{"tracking_number", "invoiceNumber", "orderItems.0.invoiceNumber"},
		Vocabulary: sales.StatusVocabulary{
			Codes: map[string]sales.OrderStatus{
				"ACCEPT":         sales.OrderStatusPending,
				"INSTRUCT":       sales.OrderStatusPending,
				"DEPARTURE":      sales.OrderStatusShipping,
				"DELIVERING":     sales.OrderStatusShipping,
				"NONE_TRACKING":  sales.OrderStatusShipping,
				"FINAL_DELIVERY": sales.OrderStatusDelivered,
				"CANCEL":         sales.OrderStatusCancelled,
				"RETURN":         sales.OrderStatusCancelled,
			},
			Tokens: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"CANCEL", "RETURN", "취소", "반품"},
				sales.OrderStatusDelivered: {"FINAL_DELIVERY", "배송완료"},
				sales.OrderStatusShipping:  {"DELIVERING", "DEPARTURE", "NONE_TRACKING", "배송중", "출고"},
				sales.OrderStatusPending:   {"ACCEPT", "INSTRUCT", "결제완료", "상품준비중", "배송지시"},
			},
			Flags: map[sales.OrderStatus][]string{
				sales.OrderStatusCancelled: {"cancelCount", "returnCount"},
				sales.OrderStatusDelivered: {"finalDeliveryCount"},
				sales.OrderStatusShipping:  {"deliveringCount", "departureCount"},
				sales.OrderStatusPending:   {"acceptCount", "instructCount"},
			},
		},
	}
}

// SchemaFor returns the built-in schema for a channel
func SchemaFor(ch sales.Channel) (Schema, error) {
	switch ch {
	case sales.ChannelCafe24:
		return Cafe24Schema(), nil
	case sales.ChannelNaver:
		return NaverSchema(), nil
	case sales.ChannelCoupang:
		return CoupangSchema(), nil
	}
	return Schema{}, sales.ErrUnknownChannel
}
