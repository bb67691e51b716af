package services

import (
	"context"
	"sync"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/internal/repositories"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

type fakeDashboardRepo struct {
	mu     sync.Mutex
	scopes []string
	counts map[string]uint64
	fail   error
}

func (r *fakeDashboardRepo) record(scope sq.Sqlizer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scopes = append(r.scopes, scopeSQL(scope))
}

func (r *fakeDashboardRepo) Count(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria) (uint64, error) {
	r.record(scope)
	key := spec.From
	if v, ok := criteria.Value("upcoming"); ok && v == "true" {
		key += "/upcoming"
	}
	return r.counts[key], r.fail
}

func (r *fakeDashboardRepo) Sum(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, column string) (string, error) {
	r.record(scope)
	return "1500.00", r.fail
}

func (r *fakeDashboardRepo) GroupCount(ctx context.Context, spec db.ListSpec, scope sq.Sqlizer, criteria types.Criteria, dim repositories.GroupDimension) ([]entities.GroupCount, error) {
	r.record(scope)
	return []entities.GroupCount{{Dimension: dim.Name, Name: "x", Count: 1}}, r.fail
}

func newDashboardFixture(repo *fakeDashboardRepo) *DashboardService {
	customers := newFakeCustomerRepo()
	return NewDashboardService(newTestBase(), repo, newFakeAppointmentRepo(customers), newFakeHistoryRepo(customers))
}

func TestDashboard_Totals(t *testing.T) {
	repo := &fakeDashboardRepo{counts: map[string]uint64{
		repositories.CustomerListSpec().From:                  7,
		repositories.AppointmentListSpec().From:               4,
		repositories.AppointmentListSpec().From + "/upcoming": 2,
		repositories.ContactHistoryListSpec().From:            9,
		repositories.OrderListSpec().From:                     3,
	}}
	svc := newDashboardFixture(repo)

	d, err := svc.Get(as(admin))
	require.NoError(t, err)
	assert.Equal(t, entities.DashboardTotals{
		Customers: 7, Appointments: 4, UpcomingAppointments: 2, ContactHistories: 9, Orders: 3, Revenue: "1500.00",
	}, d.Totals)

	dims := map[string]bool{}
	for _, g := range d.GroupedCounts {
		dims[g.Dimension] = true
	}
	for _, name := range []string{"stage", "customer_type", "temperature", "lead_source", "province", "salesperson", "product", "contact_type", "appointment_status"} {
		assert.True(t, dims[name], "missing dimension %s", name)
	}
	assert.NotNil(t, d.UpcomingAppointments)
	assert.NotNil(t, d.RecentActivity)

	for _, s := range repo.scopes {
		assert.Equal(t, "TRUE", s)
	}
}

func TestDashboard_EmployeeScopes(t *testing.T) {
	repo := &fakeDashboardRepo{}
	svc := newDashboardFixture(repo)

	_, err := svc.Get(as(employeeE))
	require.NoError(t, err)
	require.NotEmpty(t, repo.scopes)
	for _, s := range repo.scopes {
		assert.NotEqual(t, "TRUE", s, "employee aggregates must never be unscoped")
		assert.Contains(t, s, "c.assigned_salesperson")
	}
}

func TestDashboard_PropagatesErrors(t *testing.T) {
	svc := newDashboardFixture(&fakeDashboardRepo{fail: apperrors.NewUpstreamError(assert.AnError)})
	_, err := svc.Get(as(admin))
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
}
