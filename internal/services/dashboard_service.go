package services

import (
	"context"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	db "sales-crm/internal/infrastructure/bd"
	"sales-crm/internal/repositories"
	"sales-crm/pkg/constants"
	"sales-crm/pkg/types"
)

type DashboardServiceInterface interface {
	Get(ctx context.Context) (*entities.Dashboard, error)
}

// DashboardService computes every number from the listing specs and the
// caller's scope, so the dashboard can never count rows the lists would hide.
type DashboardService struct {
	*BaseService
	dashboardRepo   repositories.DashboardRepositoryInterface
	appointmentRepo repositories.AppointmentRepositoryInterface
	historyRepo     repositories.ContactHistoryRepositoryInterface
}

func NewDashboardService(
	base *BaseService,
	dashboardRepo repositories.DashboardRepositoryInterface,
	appointmentRepo repositories.AppointmentRepositoryInterface,
	historyRepo repositories.ContactHistoryRepositoryInterface,
) *DashboardService {
	return &DashboardService{
		BaseService:     base,
		dashboardRepo:   dashboardRepo,
		appointmentRepo: appointmentRepo,
		historyRepo:     historyRepo,
	}
}

type groupSource struct {
	spec db.ListSpec
	kind authz.Kind
	dims []repositories.GroupDimension
}

func (s *DashboardService) Get(ctx context.Context) (*entities.Dashboard, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	var (
		customerSpec    = repositories.CustomerListSpec()
		appointmentSpec = repositories.AppointmentListSpec()
		historySpec     = repositories.ContactHistoryListSpec()
		orderSpec       = repositories.OrderListSpec()
		paymentSpec     = repositories.PaymentListSpec()

		customerScope    = s.policy.Scope(caller, authz.KindCustomer)
		appointmentScope = s.policy.Scope(caller, authz.KindAppointment)
		historyScope     = s.policy.Scope(caller, authz.KindContactHistory)
		all              = types.NewCriteria()
		upcoming         = all.With("upcoming", "true")
	)

	result := &entities.Dashboard{}
	groups := []groupSource{
		{spec: customerSpec, kind: authz.KindCustomer, dims: []repositories.GroupDimension{
			repositories.DimensionStage,
			repositories.DimensionCustomerType,
			repositories.DimensionTemperature,
			repositories.DimensionLeadSource,
			repositories.DimensionProvince,
			repositories.DimensionSalesperson,
			repositories.DimensionProduct,
		}},
		{spec: historySpec, kind: authz.KindContactHistory, dims: []repositories.GroupDimension{repositories.DimensionContactType}},
		{spec: appointmentSpec, kind: authz.KindAppointment, dims: []repositories.GroupDimension{repositories.DimensionAppointmentStatus}},
	}
	slots := 0
	for _, g := range groups {
		slots += len(g.dims)
	}
	grouped := make([][]entities.GroupCount, slots)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(task func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	count := func(dst *uint64, spec db.ListSpec, scope sq.Sqlizer, c types.Criteria) {
		run(func() (err error) {
			*dst, err = s.dashboardRepo.Count(ctx, spec, scope, c)
			return err
		})
	}

	count(&result.Totals.Customers, customerSpec, customerScope, all)
	count(&result.Totals.Appointments, appointmentSpec, appointmentScope, all)
	count(&result.Totals.UpcomingAppointments, appointmentSpec, appointmentScope, upcoming)
	count(&result.Totals.ContactHistories, historySpec, historyScope, all)
	count(&result.Totals.Orders, orderSpec, s.policy.Scope(caller, authz.KindOrder), all)
	run(func() (err error) {
		result.Totals.Revenue, err = s.dashboardRepo.Sum(ctx, paymentSpec, s.policy.Scope(caller, authz.KindPayment),
			all.With("status", constants.PaymentStatusCompleted), "p.amount")
		return err
	})

	slot := 0
	for _, g := range groups {
		g := g
		scope := s.policy.Scope(caller, g.kind)
		for _, dim := range g.dims {
			dim := dim
			i := slot
			slot++
			run(func() (err error) {
				grouped[i], err = s.dashboardRepo.GroupCount(ctx, g.spec, scope, all, dim)
				return err
			})
		}
	}

	run(func() (err error) {
		c := upcoming
		c.SortBy, c.SortDir, c.Limit = "scheduled", types.SortAsc, constants.DashboardUpcomingLimit
		result.UpcomingAppointments, _, err = s.appointmentRepo.List(ctx, appointmentScope, c)
		return err
	})
	run(func() (err error) {
		c := all
		c.SortBy, c.SortDir, c.Limit = "created", types.SortDesc, constants.DashboardRecentLimit
		result.RecentActivity, _, err = s.historyRepo.List(ctx, historyScope, c)
		return err
	})

	wg.Wait()
	if len(errs) > 0 {
		s.logger.Error("dashboard query failed", zap.Int64("user_id", caller.ID), zap.Error(errs[0]))
		return nil, errs[0]
	}

	result.GroupedCounts = make([]entities.GroupCount, 0)
	for _, g := range grouped {
		result.GroupedCounts = append(result.GroupedCounts, g...)
	}
	if result.UpcomingAppointments == nil {
		result.UpcomingAppointments = []entities.Appointment{}
	}
	if result.RecentActivity == nil {
		result.RecentActivity = []entities.ContactHistory{}
	}
	return result, nil
}
