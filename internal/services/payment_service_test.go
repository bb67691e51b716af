package services

import (
	"context"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-crm/internal/authz"
	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/pkg/constants"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

type fakePaymentRepo struct {
	items     map[int64]*entities.Payment
	customers *fakeCustomerRepo
	next      int64
}

func (r *fakePaymentRepo) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Payment, uint64, error) {
	var out []entities.Payment
	for _, p := range r.items {
		out = append(out, *p)
	}
	return out, uint64(len(out)), nil
}

func (r *fakePaymentRepo) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Payment, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("payment")
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	p, ok := r.items[id]
	if !ok {
		return authz.Resource{}, apperrors.NewNotFoundError("payment")
	}
	return authz.Resource{Kind: authz.KindPayment, ID: id, Owner: p.CustomerOwnerID}, nil
}

func (r *fakePaymentRepo) Create(ctx context.Context, tx pgx.Tx, w entities.PaymentWrite) (int64, error) {
	r.next++
	p := &entities.Payment{
		ID: r.next, Customer: types.Ref{ID: w.CustomerID}, PaymentNumber: w.PaymentNumber, Amount: w.Amount,
		Currency: w.Currency, Method: w.Method, Status: w.Status, PaidAt: w.PaidAt,
		CustomerOwnerID: r.customers.customers[w.CustomerID].AssignedSalesperson.ID,
	}
	if w.OrderID.Valid {
		p.Order = &entities.OrderRef{ID: w.OrderID.Int64}
	}
	r.items[r.next] = p
	return r.next, nil
}

func (r *fakePaymentRepo) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.PaymentWrite) error {
	p := r.items[id]
	p.Status, p.ReferenceNumber, p.PaidAt, p.Notes = w.Status, w.ReferenceNumber, w.PaidAt, w.Notes
	return nil
}

func (r *fakePaymentRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	delete(r.items, id)
	return nil
}

type paymentFixture struct {
	svc      *PaymentService
	payments *fakePaymentRepo
	orders   *fakeOrderRepo
}

func newPaymentFixture(t *testing.T) paymentFixture {
	t.Helper()
	customers := newFakeCustomerRepo()
	customers.seed(1, employeeE.ID, "Acme")
	customers.seed(2, employeeF.ID, "Globex")
	orders := newFakeOrderRepo(customers)
	_, err := orders.Create(context.Background(), nil, entities.OrderWrite{CustomerID: 1, OrderNumber: "ORD-A", TotalAmount: "100.00"})
	require.NoError(t, err)
	_, err = orders.Create(context.Background(), nil, entities.OrderWrite{CustomerID: 2, OrderNumber: "ORD-B", TotalAmount: "100.00"})
	require.NoError(t, err)

	payments := &fakePaymentRepo{items: map[int64]*entities.Payment{}, customers: customers}
	return paymentFixture{
		svc:      NewPaymentService(newTestBase(), payments, orders, customers),
		payments: payments,
		orders:   orders,
	}
}

func TestPaymentCreate(t *testing.T) {
	f := newPaymentFixture(t)

	p, err := f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, OrderID: null.Int64From(1), Amount: 49.999, Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, "50.00", p.Amount)
	assert.Equal(t, constants.DefaultCurrency, p.Currency)
	assert.Equal(t, constants.PaymentStatusPending, p.Status)
	assert.False(t, p.PaidAt.Valid)
	assert.Regexp(t, `^PAY-\d{14}-[0-9A-F]{8}$`, p.PaymentNumber)

	p, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, Amount: 10, Method: "card", Status: constants.PaymentStatusCompleted})
	require.NoError(t, err)
	assert.True(t, p.PaidAt.Valid, "completed payments get a paid_at")
}

func TestPaymentCreate_Rejections(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, OrderID: null.Int64From(2), Amount: 10, Method: "cash"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "order of another customer")

	_, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, OrderID: null.Int64From(99), Amount: 10, Method: "cash"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "missing order")

	_, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 2, Amount: 10, Method: "cash"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, Amount: -1, Method: "cash"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, Amount: 10})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, Amount: 10, Method: "barter"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Empty(t, f.payments.items)
}

func TestPaymentUpdateAndDelete(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Create(as(employeeE), dto.CreatePaymentDTO{CustomerID: 1, Amount: 10, Method: "bank_transfer"})
	require.NoError(t, err)

	p, err = f.svc.Update(as(employeeE), p.ID, dto.UpdatePaymentDTO{Status: null.StringFrom(constants.PaymentStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusCompleted, p.Status)
	assert.True(t, p.PaidAt.Valid)

	assert.ErrorIs(t, f.svc.Delete(as(employeeE), p.ID), apperrors.ErrForbidden)
	require.NoError(t, f.svc.Delete(as(admin), p.ID))
	assert.Empty(t, f.payments.items)
}
