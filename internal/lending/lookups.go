package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/store"
)

// queryEach runs query and calls scan once per row.
func queryEach(ctx context.Context, s store.Store, query string, scan func(store.Rows) error) error {
	rows, err := s.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
	}
	return rows.Err()
}

// loadIDs returns the values of an Int32 key column in ascending order.
func loadIDs(ctx context.Context, s store.Store, table, column string) ([]int32, error) {
	var ids []int32
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", column, table, column)
	err := queryEach(ctx, s, query, func(r store.Rows) error {
		var id int32
		if err := r.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", table, column, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("load %s.%s: table is empty", table, column)
	}
	return ids, nil
}

// loadDates maps date_id to its calendar date.
func loadDates(ctx context.Context, s store.Store) (map[int32]time.Time, error) {
	dates := make(map[int32]time.Time)
	err := queryEach(ctx, s, "SELECT date_id, date FROM dim_time", func(r store.Rows) error {
		var id int32
		var d time.Time
		if err := r.Scan(&id, &d); err != nil {
			return err
		}
		dates[id] = d.UTC()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dim_time: %w", err)
	}
	return dates, nil
}

// loadCustomerRisk maps customer_id to risk profile.
func loadCustomerRisk(ctx context.Context, s store.Store) (map[int32]ledger.RiskTier, error) {
	risk := make(map[int32]ledger.RiskTier)
	err := queryEach(ctx, s, "SELECT customer_id, risk_profile FROM dim_customer", func(r store.Rows) error {
		var id int32
		var profile string
		if err := r.Scan(&id, &profile); err != nil {
			return err
		}
		tier, err := ledger.ParseRiskTier(profile)
		if err != nil {
			return fmt.Errorf("customer %d: %w", id, err)
		}
		risk[id] = tier
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dim_customer: %w", err)
	}
	return risk, nil
}

type productInfo struct {
	category string
	price    float64
}

// loadProducts maps product_id to category and price.
func loadProducts(ctx context.Context, s store.Store) (map[int32]productInfo, error) {
	products := make(map[int32]productInfo)
	err := queryEach(ctx, s, "SELECT product_id, category, price FROM dim_product", func(r store.Rows) error {
		var id int32
		var p productInfo
		if err := r.Scan(&id, &p.category, &p.price); err != nil {
			return err
		}
		products[id] = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dim_product: %w", err)
	}
	return products, nil
}

// loadChannelNames maps channel_id to channel name.
func loadChannelNames(ctx context.Context, s store.Store) (map[int32]string, error) {
	names := make(map[int32]string)
	err := queryEach(ctx, s, "SELECT channel_id, channel_name FROM dim_sales_channel", func(r store.Rows) error {
		var id int32
		var name string
		if err := r.Scan(&id, &name); err != nil {
			return err
		}
		names[id] = name
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dim_sales_channel: %w", err)
	}
	return names, nil
}

type approvedSale struct {
	saleID     int32
	customerID int32
	productID  int32
	dateID     int32
	tier       ledger.RiskTier
	channelID  int32
}

// loadApprovedSales returns approved sales with the customer's risk profile.
func loadApprovedSales(ctx context.Context, s store.Store) ([]approvedSale, error) {
	var sales []approvedSale
	const query = `
        SELECT fs.sale_id, fs.customer_id, fs.product_id, fs.date_id, dc.risk_profile, fs.channel_id
        FROM fact_sales fs
        JOIN dim_customer dc ON fs.customer_id = dc.customer_id
        WHERE fs.status = 'Approved'
        ORDER BY fs.sale_id`
	err := queryEach(ctx, s, query, func(r store.Rows) error {
		var a approvedSale
		var profile string
		if err := r.Scan(&a.saleID, &a.customerID, &a.productID, &a.dateID, &profile, &a.channelID); err != nil {
			return err
		}
		tier, err := ledger.ParseRiskTier(profile)
		if err != nil {
			return fmt.Errorf("sale %d: %w", a.saleID, err)
		}
		a.tier = tier
		sales = append(sales, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load approved sales: %w", err)
	}
	return sales, nil
}

// loadRepayableLoans returns the loans that have a repayment history.
func loadRepayableLoans(ctx context.Context, s store.Store) ([]ledger.Loan, error) {
	var loans []ledger.Loan
	const query = `
        SELECT loan_id, customer_id, loan_amount, interest_rate, term_months, start_date, loan_status, risk_rating
        FROM dim_loan
        WHERE loan_status IN ('Active', 'Delinquent', 'Defaulted')
        ORDER BY loan_id`
	err := queryEach(ctx, s, query, func(r store.Rows) error {
		var l ledger.Loan
		var status, tier string
		if err := r.Scan(&l.ID, &l.CustomerID, &l.Principal, &l.AnnualRate, &l.TermMonths,
			&l.StartDate, &status, &tier); err != nil {
			return err
		}
		var err error
		if l.Status, err = ledger.ParseLoanStatus(status); err != nil {
			return fmt.Errorf("loan %d: %w", l.ID, err)
		}
		if l.Tier, err = ledger.ParseRiskTier(tier); err != nil {
			return fmt.Errorf("loan %d: %w", l.ID, err)
		}
		l.StartDate = l.StartDate.UTC()
		loans = append(loans, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load dim_loan: %w", err)
	}
	return loans, nil
}
