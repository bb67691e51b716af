package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
)

type orderFixture struct {
	svc       *OrderService
	base      *BaseService
	orders    *fakeOrderRepo
	customers *fakeCustomerRepo
}

func newOrderFixture() orderFixture {
	customers := newFakeCustomerRepo()
	customers.seed(1, employeeE.ID, "Acme")
	customers.seed(2, employeeF.ID, "Globex")
	lookups := newFakeLookupRepo()
	lookups.seed(entities.LookupProducts, 7, "CRM Pro")
	orders := newFakeOrderRepo(customers)
	base := newTestBase()
	return orderFixture{
		svc:       NewOrderService(base, orders, customers, lookups),
		base:      base,
		orders:    orders,
		customers: customers,
	}
}

func TestOrderTotal(t *testing.T) {
	items := []entities.OrderItemWrite{{TotalPrice: "399.98"}, {TotalPrice: "50.00"}}

	total, err := OrderTotal("", items)
	require.NoError(t, err)
	assert.Equal(t, "449.98", total)

	total, err = OrderTotal("1000", items)
	require.NoError(t, err)
	assert.Equal(t, "1000.00", total, "explicit amount wins")

	total, err = OrderTotal("12.5", nil)
	require.NoError(t, err)
	assert.Equal(t, "12.50", total)

	_, err = OrderTotal(" ", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = OrderTotal("-1", items)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestOrderCreate_ComputesTotalsAndDefaults(t *testing.T) {
	f := newOrderFixture()

	o, err := f.svc.Create(as(employeeE), dto.CreateOrderDTO{
		CustomerID: 1,
		Items: []dto.OrderItemDTO{
			{ProductName: "Seat", Quantity: 2, UnitPrice: 199.99},
			{ProductID: null.Int64From(7), Quantity: 1, UnitPrice: 50},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "449.98", o.TotalAmount)
	assert.Equal(t, constants.DefaultCurrency, o.Currency)
	assert.Equal(t, constants.OrderStatusPending, o.Status)
	assert.False(t, o.OrderDate.IsZero())
	assert.Regexp(t, `^ORD-\d{14}-[0-9A-F]{8}$`, o.OrderNumber)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "399.98", o.Items[0].TotalPrice)
	assert.Equal(t, "CRM Pro", o.Items[1].ProductName, "name filled from the product catalog")
}

func TestOrderCreate_Rejections(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.Create(as(employeeE), dto.CreateOrderDTO{CustomerID: 2, TotalAmount: null.StringFrom("10")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden, "customer owned by someone else")

	_, err = f.svc.Create(as(employeeE), dto.CreateOrderDTO{CustomerID: 99, TotalAmount: null.StringFrom("10")})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Create(as(employeeE), dto.CreateOrderDTO{CustomerID: 1})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "no items and no total")

	_, err = f.svc.Create(as(employeeE), dto.CreateOrderDTO{CustomerID: 1, Items: []dto.OrderItemDTO{{ProductID: null.Int64From(8), Quantity: 1}}})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "unknown product")

	_, err = f.svc.Create(as(employeeE), dto.CreateOrderDTO{
		CustomerID:  1,
		TotalAmount: null.StringFrom("10"),
		StartDate:   null.TimeFrom(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:     null.TimeFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "end before start")

	assert.Empty(t, f.orders.orders)
}

func TestOrderCreate_RetriesOnNumberCollision(t *testing.T) {
	f := newOrderFixture()
	n := 0
	f.base.newNumber = func(prefix string, now time.Time) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	f.orders.conflicts = 2

	o, err := f.svc.Create(as(admin), dto.CreateOrderDTO{CustomerID: 1, TotalAmount: null.StringFrom("5")})
	require.NoError(t, err)
	assert.Equal(t, "ORD-3", o.OrderNumber)
	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, f.orders.numbers)
}

func TestOrderCreate_GivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newOrderFixture()
	f.orders.conflicts = numberAttempts

	_, err := f.svc.Create(as(admin), dto.CreateOrderDTO{CustomerID: 1, TotalAmount: null.StringFrom("5")})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Len(t, f.orders.numbers, numberAttempts)
}

func TestOrderUpdateAndDelete(t *testing.T) {
	f := newOrderFixture()
	o, err := f.svc.Create(as(employeeE), dto.CreateOrderDTO{CustomerID: 1, TotalAmount: null.StringFrom("5")})
	require.NoError(t, err)

	updated, err := f.svc.Update(as(employeeE), o.ID, dto.UpdateOrderDTO{Status: null.StringFrom(constants.OrderStatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusConfirmed, updated.Status)

	_, err = f.svc.Update(as(employeeE), o.ID, dto.UpdateOrderDTO{Status: null.StringFrom("shipped-to-mars")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Update(as(employeeF), o.ID, dto.UpdateOrderDTO{Notes: null.StringFrom("x")})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	assert.ErrorIs(t, f.svc.Delete(as(employeeE), o.ID), apperrors.ErrForbidden, "only admins delete orders")
	require.NoError(t, f.svc.Delete(as(admin), o.ID))
	_, err = f.svc.Get(as(admin), o.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
