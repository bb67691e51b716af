package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	"sales-crm/internal/repositories"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

var (
	admin     = authz.Caller{ID: 1, Role: authz.RoleAdmin}
	employeeE = authz.Caller{ID: 10, Role: authz.RoleEmployee}
	employeeF = authz.Caller{ID: 20, Role: authz.RoleEmployee}
)

func as(c authz.Caller) context.Context {
	return authz.WithCaller(context.Background(), c)
}

func newTestBase() *BaseService {
	return NewBaseService(authz.NewPolicy(), fakeTx{}, nil, zap.NewNop())
}

// fakeTx runs fn without a real transaction.
type fakeTx struct{}

func (fakeTx) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

func scopeSQL(scope sq.Sqlizer) string {
	s, _, _ := scope.ToSql()
	return s
}

// ---------- users ----------

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[int64]*entities.User
	next  int64
}

func newFakeUserRepo(users ...entities.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[int64]*entities.User{}, next: 100}
	for i := range users {
		u := users[i]
		r.users[u.ID] = &u
	}
	return r
}

func (r *fakeUserRepo) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.User, uint64, error) {
	var out []entities.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, tx pgx.Tx, id int64) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user")
}

func (r *fakeUserRepo) Create(ctx context.Context, tx pgx.Tx, w entities.UserWrite) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.users[r.next] = &entities.User{ID: r.next, Email: w.Email, Name: w.Name, Phone: w.Phone, Role: w.Role,
		Active: w.Active, PasswordHash: w.PasswordHash}
	return r.next, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.UserWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user")
	}
	u.Email, u.Name, u.Phone, u.Role, u.Active = w.Email, w.Name, w.Phone, w.Role, w.Active
	if w.PasswordHash != "" {
		u.PasswordHash = w.PasswordHash
	}
	return nil
}

func (r *fakeUserRepo) SetActive(ctx context.Context, tx pgx.Tx, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user")
	}
	u.Active = active
	return nil
}

func defaultUsers() *fakeUserRepo {
	return newFakeUserRepo(
		entities.User{ID: admin.ID, Email: "admin@example.com", Name: "Admin", Role: "admin", Active: true},
		entities.User{ID: employeeE.ID, Email: "e@example.com", Name: "Emma", Role: "employee", Active: true},
		entities.User{ID: employeeF.ID, Email: "f@example.com", Name: "Frank", Role: "employee", Active: true},
		entities.User{ID: 30, Email: "gone@example.com", Name: "Gone", Role: "employee", Active: false},
	)
}

// ---------- customers ----------

type fakeCustomerRepo struct {
	mu        sync.Mutex
	customers map[int64]*entities.Customer
	writes    map[int64]entities.CustomerWrite
	deleted   map[int64]bool
	next      int64
	updates   int
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{
		customers: map[int64]*entities.Customer{},
		writes:    map[int64]entities.CustomerWrite{},
		deleted:   map[int64]bool{},
	}
}

func (r *fakeCustomerRepo) seed(id, owner int64, name string) {
	r.customers[id] = &entities.Customer{ID: id, Name: name, AssignedSalesperson: types.Ref{ID: owner}}
	r.writes[id] = entities.CustomerWrite{Name: name, AssignedSalesperson: owner}
	if id > r.next {
		r.next = id
	}
}

func (r *fakeCustomerRepo) visible(c *entities.Customer, scope sq.Sqlizer) bool {
	sql, args, _ := scope.ToSql()
	switch sql {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	return len(args) == 1 && args[0] == c.AssignedSalesperson.ID
}

func (r *fakeCustomerRepo) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Customer, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.Customer
	for id, c := range r.customers {
		if !r.deleted[id] && r.visible(c, scope) {
			out = append(out, *c)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeCustomerRepo) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || r.deleted[id] || !r.visible(c, scope) {
		return nil, apperrors.NewNotFoundError("customer")
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || r.deleted[id] {
		return authz.Resource{}, apperrors.NewNotFoundError("customer")
	}
	return authz.Resource{Kind: authz.KindCustomer, ID: id, Owner: c.AssignedSalesperson.ID}, nil
}

func (r *fakeCustomerRepo) FindDuplicate(ctx context.Context, tx pgx.Tx, phone, email null.String, excludeID int64) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, w := range r.writes {
		if id == excludeID || r.deleted[id] {
			continue
		}
		if phone.Valid && w.Phone.Valid && phone.String == w.Phone.String {
			return "phone", nil
		}
		if email.Valid && w.Email.Valid && strings.EqualFold(email.String, w.Email.String) {
			return "email", nil
		}
	}
	return "", nil
}

func (r *fakeCustomerRepo) Create(ctx context.Context, tx pgx.Tx, w entities.CustomerWrite) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.customers[r.next] = &entities.Customer{ID: r.next, Name: w.Name, Phone: w.Phone, Email: w.Email,
		AssignedSalesperson: types.Ref{ID: w.AssignedSalesperson}}
	r.writes[r.next] = w
	return r.next, nil
}

func (r *fakeCustomerRepo) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.CustomerWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok || r.deleted[id] {
		return apperrors.NewNotFoundError("customer")
	}
	r.updates++
	c.Name, c.Phone, c.Email = w.Name, w.Phone, w.Email
	c.AssignedSalesperson = types.Ref{ID: w.AssignedSalesperson}
	r.writes[id] = w
	return nil
}

func (r *fakeCustomerRepo) ReplaceProducts(ctx context.Context, tx pgx.Tx, customerID int64, productIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := make([]types.Ref, len(productIDs))
	for i, id := range productIDs {
		refs[i] = types.Ref{ID: id}
	}
	r.customers[customerID].Products = refs
	return nil
}

func (r *fakeCustomerRepo) SoftDelete(ctx context.Context, tx pgx.Tx, id, actorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok || r.deleted[id] {
		return apperrors.NewNotFoundError("customer")
	}
	r.deleted[id] = true
	return nil
}

// ---------- lookups ----------

type fakeLookupRepo struct {
	mu    sync.Mutex
	items map[entities.LookupTable]map[int64]*entities.LookupItem
	usage map[string]int64
	next  int64
}

func newFakeLookupRepo() *fakeLookupRepo {
	return &fakeLookupRepo{items: map[entities.LookupTable]map[int64]*entities.LookupItem{}, usage: map[string]int64{}}
}

func (r *fakeLookupRepo) seed(table entities.LookupTable, id int64, name string) {
	if r.items[table] == nil {
		r.items[table] = map[int64]*entities.LookupItem{}
	}
	r.items[table][id] = &entities.LookupItem{ID: id, Name: name, Active: true}
	if id > r.next {
		r.next = id
	}
}

func usageKey(table entities.LookupTable, id int64) string {
	return fmt.Sprintf("%s/%d", table, id)
}

func (r *fakeLookupRepo) List(ctx context.Context, table entities.LookupTable, scope sq.Sqlizer, criteria types.Criteria) ([]entities.LookupItem, uint64, error) {
	var out []entities.LookupItem
	for _, it := range r.items[table] {
		out = append(out, *it)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeLookupRepo) FindByID(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (*entities.LookupItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[table][id]
	if !ok {
		return nil, apperrors.NewNotFoundError("lookup item")
	}
	cp := *it
	return &cp, nil
}

func (r *fakeLookupRepo) FindByName(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string) (*entities.LookupItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items[table] {
		if strings.EqualFold(it.Name, strings.TrimSpace(name)) {
			cp := *it
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("lookup item")
}

func (r *fakeLookupRepo) Create(ctx context.Context, tx pgx.Tx, table entities.LookupTable, name string, active bool) (int64, error) {
	if _, err := r.FindByName(ctx, tx, table, name); err == nil {
		return 0, apperrors.NewConflictError("%q already exists", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	if r.items[table] == nil {
		r.items[table] = map[int64]*entities.LookupItem{}
	}
	r.items[table][r.next] = &entities.LookupItem{ID: r.next, Name: name, Active: active}
	return r.next, nil
}

func (r *fakeLookupRepo) Update(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64, name string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[table][id]
	if !ok {
		return apperrors.NewNotFoundError("lookup item")
	}
	it.Name, it.Active = name, active
	return nil
}

func (r *fakeLookupRepo) Delete(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[table][id]; !ok {
		return apperrors.NewNotFoundError("lookup item")
	}
	delete(r.items[table], id)
	return nil
}

func (r *fakeLookupRepo) UsageCount(ctx context.Context, tx pgx.Tx, table entities.LookupTable, id int64) (int64, error) {
	return r.usage[usageKey(table, id)], nil
}

// ---------- orders ----------

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    map[int64]*entities.Order
	writes    map[int64]entities.OrderWrite
	customers *fakeCustomerRepo
	next      int64
	// conflicts makes the first n creates fail with a duplicate number
	conflicts int
	numbers   []string
}

func newFakeOrderRepo(customers *fakeCustomerRepo) *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*entities.Order{}, writes: map[int64]entities.OrderWrite{}, customers: customers}
}

func (r *fakeOrderRepo) List(ctx context.Context, scope sq.Sqlizer, criteria types.Criteria) ([]entities.Order, uint64, error) {
	var out []entities.Order
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, tx pgx.Tx, id int64, scope sq.Sqlizer) (*entities.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("order")
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) Ownership(ctx context.Context, tx pgx.Tx, id int64) (authz.Resource, error) {
	r.mu.Lock()
	o, ok := r.orders[id]
	r.mu.Unlock()
	if !ok {
		return authz.Resource{}, apperrors.NewNotFoundError("order")
	}
	res, err := r.customers.Ownership(ctx, tx, o.Customer.ID)
	res.Kind, res.ID = authz.KindOrder, id
	return res, err
}

func (r *fakeOrderRepo) CustomerIDOf(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return 0, apperrors.NewNotFoundError("order")
	}
	return o.Customer.ID, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, tx pgx.Tx, w entities.OrderWrite) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.numbers = append(r.numbers, w.OrderNumber)
	if r.conflicts > 0 {
		r.conflicts--
		return 0, apperrors.NewConflictError("record (orders_order_number_key) already exists")
	}
	r.next++
	items := make([]entities.OrderItem, len(w.Items))
	for i, it := range w.Items {
		items[i] = entities.OrderItem{ProductName: it.ProductName, Quantity: it.Quantity, UnitPrice: it.UnitPrice, TotalPrice: it.TotalPrice}
	}
	r.orders[r.next] = &entities.Order{ID: r.next, Customer: types.Ref{ID: w.CustomerID}, OrderNumber: w.OrderNumber,
		TotalAmount: w.TotalAmount, Currency: w.Currency, Status: w.Status, Items: items, OrderDate: w.OrderDate}
	r.writes[r.next] = w
	return r.next, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, tx pgx.Tx, id int64, w entities.OrderWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return apperrors.NewNotFoundError("order")
	}
	o.Status, o.LicenseType, o.StartDate, o.EndDate, o.Notes = w.Status, w.LicenseType, w.StartDate, w.EndDate, w.Notes
	return nil
}

func (r *fakeOrderRepo) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return apperrors.NewNotFoundError("order")
	}
	delete(r.orders, id)
	return nil
}

// ---------- cache ----------

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = fmt.Sprint(value)
	c.ttl[key] = expiration
	return nil
}

func (c *fakeCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		delete(c.ttl, k)
	}
	return nil
}

func (c *fakeCache) Take(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	delete(c.data, key)
	delete(c.ttl, key)
	return v, nil
}

func (c *fakeCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	fmt.Sscan(c.data[key], &n)
	n++
	c.data[key] = fmt.Sprint(n)
	if n == 1 {
		c.ttl[key] = window
	}
	return n, nil
}
