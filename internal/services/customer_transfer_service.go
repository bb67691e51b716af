package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"sales-crm/internal/dto"
	"sales-crm/internal/entities"
	"sales-crm/internal/events"
	"sales-crm/internal/repositories"
	apperrors "sales-crm/pkg/errors"
	"sales-crm/pkg/types"
)

const (
	exportSheet    = "Customers"
	exportPageSize = types.MaxLimit
	dateTimeFmt    = "2006-01-02 15:04"
)

var exportHeaders = []interface{}{
	"ID", "Name", "Phone", "Email", "Company", "Tax code", "Website", "Address",
	"Customer type", "Business type", "Company size", "Province", "Lead source", "Stage", "Temperature", "Contact status",
	"Salesperson", "Products", "Latest contact", "Next appointment", "Feedback", "Notes", "Created at",
}

// importColumns maps normalized header text to the field it fills.
var importColumns = map[string]string{
	"name":              "name",
	"customer name":     "name",
	"phone":             "phone",
	"email":             "email",
	"company":           "company",
	"company name":      "company",
	"tax code":          "tax_code",
	"website":           "website",
	"address":           "address",
	"customer type":     "customer_type",
	"business type":     "business_type",
	"company size":      "company_size",
	"province":          "province",
	"lead source":       "lead_source",
	"stage":             "stage",
	"temperature":       "temperature",
	"contact status":    "contact_status",
	"products":          "products",
	"salesperson email": "salesperson",
	"feedback":          "feedback",
	"notes":             "notes",
}

var importLookups = map[string]entities.LookupTable{
	"customer_type":  entities.LookupCustomerTypes,
	"business_type":  entities.LookupBusinessTypes,
	"company_size":   entities.LookupCompanySizes,
	"province":       entities.LookupProvinces,
	"lead_source":    entities.LookupLeadSources,
	"stage":          entities.LookupStages,
	"temperature":    entities.LookupTemperatures,
	"contact_status": entities.LookupContactStatuses,
}

type CustomerTransferServiceInterface interface {
	Export(ctx context.Context, criteria types.Criteria, w io.Writer) error
	Import(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error)
}

// CustomerTransferService moves customers in and out of .xlsx workbooks.
// Both directions go through CustomerService, so scope and validation are
// the same as for the API.
type CustomerTransferService struct {
	*BaseService
	customers  CustomerServiceInterface
	lookupRepo repositories.LookupRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
}

func NewCustomerTransferService(
	base *BaseService,
	customers CustomerServiceInterface,
	lookupRepo repositories.LookupRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
) *CustomerTransferService {
	return &CustomerTransferService{BaseService: base, customers: customers, lookupRepo: lookupRepo, userRepo: userRepo}
}

// Export writes every customer matching criteria, ignoring its paging.
func (s *CustomerTransferService) Export(ctx context.Context, criteria types.Criteria, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return apperrors.NewUpstreamError(err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return apperrors.NewUpstreamError(err)
	}
	s.styleHeader(f)

	criteria.Limit = exportPageSize
	row := 2
	for page := 1; ; page++ {
		criteria.Page = page
		items, total, err := s.customers.List(ctx, criteria)
		if err != nil {
			return err
		}
		for i := range items {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := exportRow(&items[i])
			if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
				return apperrors.NewUpstreamError(err)
			}
			row++
		}
		if len(items) == 0 || uint64(page*exportPageSize) >= total {
			break
		}
	}

	for _, w := range exportColumnWidths {
		if err := f.SetColWidth(exportSheet, w.from, w.to, w.width); err != nil {
			s.logger.Debug("failed to set export column width", zap.String("columns", w.from+":"+w.to), zap.Error(err))
		}
	}

	s.logger.Debug("customers exported", zap.Int("rows", row-2))
	return f.Write(w)
}

var exportColumnWidths = []struct {
	from, to string
	width    float64
}{
	{"B", "B", 30},
	{"C", "H", 20},
	{"R", "T", 30},
}

// styleHeader bolds the header row. Failures are logged, not returned.
func (s *CustomerTransferService) styleHeader(f *excelize.File) {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		s.logger.Debug("failed to create export header style", zap.Error(err))
		return
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, style); err != nil {
		s.logger.Debug("failed to style export header", zap.Error(err))
	}
}

func exportRow(c *entities.Customer) []interface{} {
	var latest, next string
	if c.LatestContact != nil {
		latest = fmt.Sprintf("%s: %s (%s)", c.LatestContact.Type, c.LatestContact.Subject, c.LatestContact.CreatedAt.Format(dateTimeFmt))
	}
	if c.AppointmentInfo != nil && c.AppointmentInfo.NextScheduledAt != nil {
		next = fmt.Sprintf("%s (%s)", c.AppointmentInfo.NextTitle, c.AppointmentInfo.NextScheduledAt.Format(dateTimeFmt))
	}
	products := make([]string, len(c.Products))
	for i, p := range c.Products {
		products[i] = p.Name
	}
	return []interface{}{
		c.ID, c.Name, c.Phone.String, c.Email.String, c.CompanyName.String, c.TaxCode.String, c.Website.String, c.Address.String,
		refName(c.CustomerType), refName(c.BusinessType), refName(c.CompanySize), refName(c.Province),
		refName(c.LeadSource), refName(c.Stage), refName(c.Temperature), refName(c.ContactStatus),
		c.AssignedSalesperson.Name, strings.Join(products, ", "), latest, next,
		c.Feedback.String, c.Notes.String, c.CreatedAt.Format(dateTimeFmt),
	}
}

func refName(r *types.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

// Import creates one customer per data row of the first sheet. A bad row is
// reported and skipped; it never stops the rest of the file.
func (s *CustomerTransferService) Import(ctx context.Context, r io.Reader) (*dto.ImportResultDTO, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewValidationError("file is not a readable .xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewValidationError("cannot read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("sheet %q is empty", sheets[0])
	}

	columns := mapImportHeader(rows[0])
	if _, ok := columns["name"]; !ok {
		return nil, apperrors.NewValidationError("header row must contain a \"Name\" column")
	}

	res := &dto.ImportResultDTO{Errors: []dto.ImportRowError{}}
	resolver := newImportResolver(s.lookupRepo, s.userRepo)
	for i := 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		line := i + 1
		d, err := resolver.customer(ctx, columns, rows[i])
		if err == nil {
			_, err = s.customers.Create(ctx, d)
		}
		if err != nil {
			if apperrors.KindOf(err) == apperrors.ErrUpstream {
				s.logger.Error("import row failed", zap.Int("row", line), zap.Error(err))
			}
			res.Failed++
			res.Errors = append(res.Errors, dto.ImportRowError{Row: line, Message: errMessage(err)})
			continue
		}
		res.Created++
	}

	s.logger.Info("customer import finished", zap.Int64("user_id", caller.ID),
		zap.Int("created", res.Created), zap.Int("failed", res.Failed))
	s.audit(ctx, caller.ID, events.ActionImport, customerAuditEntity, 0, map[string]int{"created": res.Created, "failed": res.Failed})
	return res, nil
}

func mapImportHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(h, "_", " "))), " ")
		if field, ok := importColumns[key]; ok {
			if _, dup := columns[field]; !dup {
				columns[field] = i
			}
		}
	}
	return columns
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// importResolver turns display names into ids, remembering answers for the
// duration of one import.
type importResolver struct {
	lookupRepo repositories.LookupRepositoryInterface
	userRepo   repositories.UserRepositoryInterface
	cache      map[string]int64
}

func newImportResolver(lookupRepo repositories.LookupRepositoryInterface, userRepo repositories.UserRepositoryInterface) *importResolver {
	return &importResolver{lookupRepo: lookupRepo, userRepo: userRepo, cache: make(map[string]int64)}
}

func (r *importResolver) customer(ctx context.Context, columns map[string]int, row []string) (dto.CustomerDTO, error) {
	get := func(field string) string {
		i, ok := columns[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	opt := func(field string) null.String {
		v := get(field)
		return null.NewString(v, v != "")
	}

	d := dto.CustomerDTO{
		Name:        get("name"),
		Phone:       opt("phone"),
		Email:       opt("email"),
		Address:     opt("address"),
		CompanyName: opt("company"),
		TaxCode:     opt("tax_code"),
		Website:     opt("website"),
		Feedback:    opt("feedback"),
		Notes:       opt("notes"),
	}
	if d.Name == "" {
		return d, apperrors.NewValidationError("name is required")
	}

	targets := []struct {
		field string
		dst   *null.Int64
	}{
		{"customer_type", &d.CustomerTypeID},
		{"business_type", &d.BusinessTypeID},
		{"company_size", &d.CompanySizeID},
		{"province", &d.ProvinceID},
		{"lead_source", &d.LeadSourceID},
		{"stage", &d.StageID},
		{"temperature", &d.TemperatureID},
		{"contact_status", &d.ContactStatusID},
	}
	for _, t := range targets {
		name := get(t.field)
		if name == "" {
			continue
		}
		id, err := r.lookup(ctx, importLookups[t.field], strings.ReplaceAll(t.field, "_", " "), name)
		if err != nil {
			return d, err
		}
		*t.dst = null.Int64From(id)
	}

	if products := get("products"); products != "" {
		for _, name := range strings.Split(products, ",") {
			if name = strings.TrimSpace(name); name == "" {
				continue
			}
			id, err := r.lookup(ctx, entities.LookupProducts, "product", name)
			if err != nil {
				return d, err
			}
			d.ProductIDs = append(d.ProductIDs, id)
		}
	}

	if email := get("salesperson"); email != "" {
		id, err := r.salesperson(ctx, email)
		if err != nil {
			return d, err
		}
		d.AssignedSalesperson = null.Int64From(id)
	}
	return d, nil
}

func (r *importResolver) lookup(ctx context.Context, table entities.LookupTable, label, name string) (int64, error) {
	key := string(table) + "\x00" + strings.ToLower(name)
	if id, ok := r.cache[key]; ok {
		return id, nil
	}
	item, err := r.lookupRepo.FindByName(ctx, nil, table, name)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return 0, apperrors.NewValidationError("unknown %s %q", label, name)
		}
		return 0, err
	}
	r.cache[key] = item.ID
	return item.ID, nil
}

func (r *importResolver) salesperson(ctx context.Context, email string) (int64, error) {
	key := "users\x00" + strings.ToLower(email)
	if id, ok := r.cache[key]; ok {
		return id, nil
	}
	u, err := r.userRepo.FindByEmail(ctx, nil, email)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.ErrNotFound {
			return 0, apperrors.NewValidationError("unknown salesperson %q", email)
		}
		return 0, err
	}
	r.cache[key] = u.ID
	return u.ID, nil
}

// ExportFileName names an export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("customers_%s.xlsx", t.Format("2006-01-02"))
}
