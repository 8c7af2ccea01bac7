package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/platform/services/order/internal/models"
)

func TestMergeItems(t *testing.T) {
	t.Parallel()

	lamp, chair, desk := uuid.New(), uuid.New(), uuid.New()
	items := []models.OrderItem{
		{ID: uuid.New(), ProductID: lamp, Quantity: 1, Price: 2500},
		{ID: uuid.New(), ProductID: chair, Quantity: 2, Price: 9900},
	}

	merged := MergeItems(items, []models.OrderItem{
		{ProductID: chair, Quantity: 1, Price: 8900},
		{ProductID: desk, Quantity: 1, Price: 19900},
	})

	require.Len(t, merged, 3)
	assert.Equal(t, lamp, merged[0].ProductID)
	assert.Equal(t, 1, merged[1].Quantity)
	assert.EqualValues(t, 8900, merged[1].Price)
	assert.Equal(t, desk, merged[2].ProductID)
	assert.NotEqual(t, uuid.Nil, merged[2].ID)
	assert.EqualValues(t, 2500+8900+19900, Total(merged))
}

func TestMergeItems_DuplicateProductInUpdateKeepsLast(t *testing.T) {
	t.Parallel()

	p := uuid.New()
	merged := MergeItems(nil, []models.OrderItem{
		{ProductID: p, Quantity: 1, Price: 100},
		{ProductID: p, Quantity: 3, Price: 120},
	})

	require.Len(t, merged, 1)
	assert.Equal(t, 3, merged[0].Quantity)
	assert.EqualValues(t, 360, Total(merged))
}

func TestOrderEvent(t *testing.T) {
	t.Parallel()

	o := models.Order{ID: uuid.New(), UserID: uuid.New(), TotalPrice: 500, Items: make([]models.OrderItem, 2)}

	ev := OrderEvent(EventOrderCreated, o)
	assert.Equal(t, o.ID.String(), ev.Key)
	assert.EqualValues(t, 500, ev.Data["totalPrice"])
	assert.Equal(t, 2, ev.Data["items"])

	ev = OrderEvent(EventOrderDeleted, o)
	assert.NotContains(t, ev.Data, "totalPrice")
	assert.Equal(t, o.UserID.String(), ev.Data["userId"])
}
