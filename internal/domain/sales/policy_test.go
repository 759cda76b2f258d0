package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"
)

func testVocabulary() StatusVocabulary {
	return StatusVocabulary{
		Codes: map[string]OrderStatus{
			"N40": OrderStatusDelivered,
		},
		Tokens: map[OrderStatus][]string{
			OrderStatusCancelled: {"취소", "환불", "cancel"},
			OrderStatusDelivered: {"배송완료", "구매확정", "delivered"},
			OrderStatusShipping:  {"배송중", "shipping"},
			OrderStatusPending:   {"결제완료", "배송준비중", "pending"},
		},
		Flags: map[OrderStatus][]string{
			OrderStatusCancelled: {"cancel_count"},
			OrderStatusDelivered: {"delivered_count"},
			OrderStatusShipping:  {"shipping_count"},
			OrderStatusPending:   {"ready_count"},
		},
	}
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("cancel_first")
	require.NoError(t, err)
	assert.Equal(t, CancelFirst.Name, p.Name)

	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.Equal(t, DefaultStatusPolicy.Name, p.Name)

	p, err = PolicyByName("complete_first")
	require.NoError(t, err)
	assert.Equal(t, CompleteFirst.Name, p.Name)

	_, err = PolicyByName("newest_first")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestStatusVocabulary_ClassifyLabel(t *testing.T) {
	v := testVocabulary()

	tests := []struct {
		name  string
		label string
		want  OrderStatus
	}{
		{name: "exact code", label: "N40", want: OrderStatusDelivered},
		{name: "cancel token", label: "주문취소", want: OrderStatusCancelled},
		{name: "refund token", label: "환불완료", want: OrderStatusCancelled},
		{name: "complete token", label: "배송완료", want: OrderStatusDelivered},
		{name: "in transit", label: "배송중", want: OrderStatusShipping},
		{name: "preparing is pending not transit", label: "배송준비중", want: OrderStatusPending},
		{name: "paid is pending", label: "결제완료", want: OrderStatusPending},
		{name: "case sensitive", label: "CANCEL", want: OrderStatusUnknown},
		{name: "unmapped", label: "교환요청", want: OrderStatusUnknown},
		{name: "empty", label: "  ", want: OrderStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.ClassifyLabel(CancelFirst, tt.label))
		})
	}
}

func TestStatusVocabulary_AmbiguousLabelFollowsPolicy(t *testing.T) {
	v := testVocabulary()
	ambiguous := "배송완료 후 환불"

	assert.Equal(t, OrderStatusCancelled, v.ClassifyLabel(CancelFirst, ambiguous))
	assert.Equal(t, OrderStatusDelivered, v.ClassifyLabel(CompleteFirst, ambiguous))
}

func TestStatusVocabulary_DecomposedHangul(t *testing.T) {
	v := testVocabulary()
	decomposed := norm.NFD.String("주문취소")
	require.NotEqual(t, "주문취소", decomposed)

	assert.Equal(t, OrderStatusCancelled, v.ClassifyLabel(CancelFirst, decomposed))
}

func TestStatusVocabulary_ClassifyFlags(t *testing.T) {
	v := testVocabulary()

	tests := []struct {
		name        string
		record      RawRecord
		want        OrderStatus
		wantPresent bool
	}{
		{
			name:        "cancel wins over delivered",
			record:      RawRecord{"cancel_count": float64(1), "delivered_count": float64(2)},
			want:        OrderStatusCancelled,
			wantPresent: true,
		},
		{
			name:        "shipping count",
			record:      RawRecord{"cancel_count": float64(0), "shipping_count": "1"},
			want:        OrderStatusShipping,
			wantPresent: true,
		},
		{
			name:        "all zero",
			record:      RawRecord{"ready_count": float64(0)},
			want:        OrderStatusUnknown,
			wantPresent: true,
		},
		{
			name:   "no flags",
			record: RawRecord{"status": "배송중"},
			want:   OrderStatusUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, present := v.ClassifyFlags(CancelFirst, tt.record)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantPresent, present)
		})
	}
}

func TestOrderStatus(t *testing.T) {
	for _, st := range AllOrderStatuses() {
		assert.True(t, st.IsValid(), st)
	}
	assert.False(t, OrderStatus("returned").IsValid())

	assert.True(t, OrderStatusPending.AwaitingShipment())
	assert.True(t, OrderStatusShipping.AwaitingShipment())
	assert.False(t, OrderStatusDelivered.AwaitingShipment())
	assert.False(t, OrderStatusCancelled.AwaitingShipment())
	assert.False(t, OrderStatusUnknown.AwaitingShipment())

	_, err := ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestChannel(t *testing.T) {
	assert.Equal(t, []Channel{ChannelCafe24, ChannelNaver, ChannelCoupang}, AllChannels())

	c, err := ParseChannel("coupang")
	require.NoError(t, err)
	assert.Equal(t, ChannelCoupang, c)
	assert.Equal(t, "Coupang", c.DisplayName())

	_, err = ParseChannel("gmarket")
	assert.ErrorIs(t, err, ErrUnknownChannel)
}

func TestOrder_OrderedOn(t *testing.T) {
	o := Order{OrderID: "1", Channel: ChannelNaver, OrderedAt: "2024-03-05T10:11:12"}

	assert.True(t, o.OrderedOn("2024-03-05"))
	assert.False(t, o.OrderedOn("2024-03-06"))
	assert.False(t, o.OrderedOn(""))
	assert.False(t, Order{OrderedAt: "2024"}.OrderedOn("2024-03-05"))
	assert.Equal(t, "naver:1", o.Key())
}
