package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sales-crm/internal/authz"
	"sales-crm/internal/entities"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf := &bytes.Buffer{}
	require.NoError(t, f.Write(buf))
	return buf
}

func newTransferFixture() (*CustomerTransferService, *fakeCustomerRepo) {
	customers := newFakeCustomerRepo()
	users := defaultUsers()
	lookups := newFakeLookupRepo()
	lookups.seed(entities.LookupStages, 1, "Qualified")
	lookups.seed(entities.LookupProducts, 2, "CRM Pro")
	lookups.seed(entities.LookupProducts, 3, "CRM Lite")

	base := newTestBase()
	customerSvc := NewCustomerService(base, customers, users)
	return NewCustomerTransferService(base, customerSvc, lookups, users), customers
}

func TestImport_BestEffort(t *testing.T) {
	svc, repo := newTransferFixture()
	file := workbook(t, [][]interface{}{
		{"Name", "Phone", "Stage", "Products", "Salesperson email"},
		{"Acme", "0901234567", "qualified", "CRM Pro, CRM Lite", "f@example.com"},
		{"", "0907654321"},
		{},
		{"Globex", "0901234567"},
		{"Initech", "", "Lost in space"},
		{"Umbrella"},
	})

	res, err := svc.Import(as(admin), file)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 3, res.Failed)

	rows := make([]int, len(res.Errors))
	for i, e := range res.Errors {
		rows[i] = e.Row
	}
	assert.Equal(t, []int{3, 5, 6}, rows)
	assert.Contains(t, res.Errors[0].Message, "name")
	assert.Contains(t, res.Errors[1].Message, "phone")
	assert.Contains(t, res.Errors[2].Message, `unknown stage "Lost in space"`)

	var acme *entities.Customer
	for _, c := range repo.customers {
		if c.Name == "Acme" {
			acme = c
		}
	}
	require.NotNil(t, acme)
	assert.Equal(t, employeeF.ID, acme.AssignedSalesperson.ID)
	assert.Equal(t, []types.Ref{{ID: 2}, {ID: 3}}, acme.Products)
	assert.Equal(t, int64(1), repo.writes[acme.ID].StageID.Int64)
}

func TestImport_RowErrorsAreStable(t *testing.T) {
	svc, _ := newTransferFixture()
	rows := [][]interface{}{
		{"Name", "Temperature", "Stage", "Province"},
		{"Acme", "Lukewarm", "Lost in space", "Atlantis"},
	}

	for i := 0; i < 20; i++ {
		res, err := svc.Import(as(admin), workbook(t, rows))
		require.NoError(t, err)
		require.Len(t, res.Errors, 1)
		assert.Contains(t, res.Errors[0].Message, `unknown province "Atlantis"`, "attempt %d", i)
	}
}

func TestImport_EmployeeOwnsImportedRows(t *testing.T) {
	svc, repo := newTransferFixture()
	file := workbook(t, [][]interface{}{
		{"customer_name", "Salesperson Email"},
		{"Acme", "f@example.com"},
	})

	res, err := svc.Import(as(employeeE), file)
	require.NoError(t, err)
	require.Equal(t, 1, res.Created)
	for _, c := range repo.customers {
		assert.Equal(t, employeeE.ID, c.AssignedSalesperson.ID)
	}
}

func TestImport_RejectsBadFiles(t *testing.T) {
	svc, _ := newTransferFixture()

	_, err := svc.Import(as(admin), bytes.NewBufferString("name,phone\nAcme,1\n"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.Import(as(admin), workbook(t, [][]interface{}{{"Phone", "Email"}, {"1", "a@b.c"}}))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExport(t *testing.T) {
	svc, repo := newTransferFixture()
	repo.seed(1, employeeE.ID, "Acme")
	repo.seed(2, employeeF.ID, "Globex")

	buf := &bytes.Buffer{}
	require.NoError(t, svc.Export(as(employeeE), types.NewCriteria(), buf))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one visible customer")
	assert.Equal(t, "Name", rows[0][1])
	assert.Equal(t, "Acme", rows[1][1])
}

func TestExport_FormattingFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := NewBaseService(authz.NewPolicy(), fakeTx{}, nil, zap.New(core))
	svc := NewCustomerTransferService(base, nil, newFakeLookupRepo(), defaultUsers())

	f := excelize.NewFile()
	defer f.Close()
	svc.styleHeader(f) // no Customers sheet yet

	entries := logs.FilterMessage("failed to style export header").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "Customers")
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "customers_2024-03-09.xlsx", ExportFileName(time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)))
}
