package schema

// Table names of the lending star schema.
const (
	TableTime         = "dim_time"
	TableRegion       = "dim_region"
	TableChannel      = "dim_sales_channel"
	TableProduct      = "dim_product"
	TableCustomer     = "dim_customer"
	TableLoan         = "dim_loan"
	TableSales        = "fact_sales"
	TableRepayment    = "fact_loan_repayment"
	TableMetadataName = "ledgergen_metadata"
)

// DimTime has one row per calendar day.
var DimTime = Table{
	Name: TableTime,
	Columns: []Column{
		{"date_id", Int32},
		{"date", Date},
		{"month", Int8},
		{"year", Int16},
	},
	OrderBy:    []string{"date_id"},
	PrimaryKey: true,
}

// DimRegion holds sales regions.
var DimRegion = Table{
	Name: TableRegion,
	Columns: []Column{
		{"region_id", Int32},
		{"region_name", String},
		{"country", String},
		{"sales_manager", String},
	},
	OrderBy:    []string{"region_id"},
	PrimaryKey: true,
}

// DimSalesChannel holds the fixed acquisition channels.
var DimSalesChannel = Table{
	Name: TableChannel,
	Columns: []Column{
		{"channel_id", Int32},
		{"channel_name", String},
		{"platform", String},
	},
	OrderBy:    []string{"channel_id"},
	PrimaryKey: true,
}

// DimProduct holds loan products.
var DimProduct = Table{
	Name: TableProduct,
	Columns: []Column{
		{"product_id", Int32},
		{"product_name", String},
		{"category", String},
		{"price", Float64},
		{"supplier_id", Int32},
	},
	OrderBy:    []string{"product_id"},
	PrimaryKey: true,
}

// DimCustomer holds customers and their risk profile.
var DimCustomer = Table{
	Name: TableCustomer,
	Columns: []Column{
		{"customer_id", Int32},
		{"name", String},
		{"region_id", Int32},
		{"age_group", Nullable(String)},
		{"gender", Nullable(String)},
		{"membership_status", Nullable(String)},
		{"average_balance", Nullable(Float64)},
		{"average_income", Nullable(Float64)},
		{"business_risk_class", Nullable(String)},
		{"is_pep", Bool},
		{"account_balance", Nullable(Float64)},
		{"is_cash_intensive", Bool},
		{"tpr_threshold_exceeded", Bool},
		{"transacts_hr_jurisdictions", Bool},
		{"preferred_channel", Nullable(String)},
		{"interests", StringArray},
		{"occupation", Nullable(String)},
		{"lifecycle_stage", Nullable(String)},
		{"churn_risk_score", Nullable(Float64)},
		{"predicted_clv", Nullable(Float64)},
		{"consent_marketing", Bool},
		{"consent_data_share", Bool},
		{"data_deletion_date", Nullable(Date)},
		{"risk_profile", String},
	},
	OrderBy:    []string{"customer_id"},
	PrimaryKey: true,
}

// DimLoan holds one loan account per approved sale, plus synthetic loans.
var DimLoan = Table{
	Name: TableLoan,
	Columns: []Column{
		{"loan_id", Int32},
		{"customer_id", Int32},
		{"loan_amount", Float64},
		{"interest_rate", Float64},
		{"term_months", Int32},
		{"start_date", Date},
		{"end_date", Date},
		{"loan_status", String},
		{"loan_type", String},
		{"risk_rating", String},
		{"collateral_value", Float64},
		{"application_channel", String},
		{"application_date", Date},
		{"last_payment_date", Nullable(Date)},
		{"next_payment_due_date", Nullable(Date)},
		{"outstanding_balance", Float64},
	},
	OrderBy:    []string{"loan_id"},
	PrimaryKey: true,
}

// FactSales holds loan applications.
var FactSales = Table{
	Name: TableSales,
	Columns: []Column{
		{"sale_id", Int32},
		{"date_id", Int32},
		{"product_id", Int32},
		{"customer_id", Int32},
		{"region_id", Int32},
		{"channel_id", Int32},
		{"units_sold", Int32},
		{"revenue", Float64},
		{"discount_amount", Float64},
		{"processing_fees", Float64},
		{"documentation_fees", Float64},
		{"insurance_fees", Float64},
		{"customer_acquisition_cost", Float64},
		{"emi_bounce_charges", Float64},
		{"npa_loss_amount", Float64},
		{"total_revenue", Float64},
		{"status", String},
	},
	OrderBy:    []string{"sale_id"},
	PrimaryKey: true,
}

// FactLoanRepayment holds simulated installments.
var FactLoanRepayment = Table{
	Name: TableRepayment,
	Columns: []Column{
		{"repayment_id", Int32},
		{"loan_id", Int32},
		{"customer_id", Int32},
		{"emi_number", Int32},
		{"due_date", Date},
		{"payment_date", Nullable(Date)},
		{"emi_amount", Float64},
		{"principal_amount", Float64},
		{"interest_amount", Float64},
		{"penalties", Float64},
		{"payment_status", String},
		{"payment_mode", Nullable(String)},
		{"pending_principal", Float64},
		{"pending_interest", Float64},
		{"days_overdue", Int32},
		{"bounce_reason", Nullable(String)},
		{"collection_agent_id", Nullable(Int32)},
	},
	OrderBy:    []string{"loan_id", "emi_number"},
	PrimaryKey: true,
}

// Metadata is the key/value table describing the last seed run.
var Metadata = Table{
	Name: TableMetadataName,
	Columns: []Column{
		{"key", String},
		{"value", String},
	},
	OrderBy:    []string{"key"},
	PrimaryKey: true,
}

// LendingTables returns the star schema in creation order. Dimensions come
// before the facts that reference them.
func LendingTables() []Table {
	return []Table{
		DimTime,
		DimRegion,
		DimSalesChannel,
		DimProduct,
		DimCustomer,
		FactSales,
		DimLoan,
		FactLoanRepayment,
	}
}

// Lookup returns the lending or metadata table with the given name.
func Lookup(name string) (Table, bool) {
	for _, t := range append(LendingTables(), Metadata) {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
