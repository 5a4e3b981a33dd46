package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/logging"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

var (
	loanTerms = []int32{12, 24, 36, 60, 84, 120, 180, 240, 360}

	loanStatuses      = []ledger.LoanStatus{ledger.LoanActive, ledger.LoanClosed, ledger.LoanDefaulted, ledger.LoanDelinquent}
	loanStatusWeights = []int{70, 20, 5, 5}
)

// rateRange is the annual interest rate band offered to each tier.
var rateRange = map[ledger.RiskTier][2]float64{
	ledger.RiskLow:    {3.0, 5.0},
	ledger.RiskMedium: {5.1, 8.0},
	ledger.RiskHigh:   {8.1, 15.0},
}

// loanApplication is everything a loan account is derived from.
type loanApplication struct {
	customerID int32
	tier       ledger.RiskTier
	category   string
	channel    string
	appliedOn  time.Time
}

// GenerateLoans writes one dim_loan row per approved sale, followed by the
// configured number of synthetic loans.
func (g *Generator) GenerateLoans(ctx context.Context) error {
	sales, err := loadApprovedSales(ctx, g.store)
	if err != nil {
		return err
	}
	dates, err := loadDates(ctx, g.store)
	if err != nil {
		return err
	}
	products, err := loadProducts(ctx, g.store)
	if err != nil {
		return err
	}
	channels, err := loadChannelNames(ctx, g.store)
	if err != nil {
		return err
	}

	logging.Info().
		Int("approved_sales", len(sales)).
		Int("synthetic", g.cfg.SyntheticLoans).
		Msg("Generating loans")

	b := g.newBatcher(schema.DimLoan, len(sales)+g.cfg.SyntheticLoans)
	loanID := int32(0)

	for _, s := range sales {
		appliedOn, ok := dates[s.dateID]
		if !ok {
			return fmt.Errorf("sale %d references unknown date_id %d", s.saleID, s.dateID)
		}
		category := CategoryPersonal
		if p, ok := products[s.productID]; ok {
			category = p.category
		}
		channel, ok := channels[s.channelID]
		if !ok {
			channel = "Unknown"
		}

		loanID++
		row := g.loanRow(loanID, loanApplication{
			customerID: s.customerID,
			tier:       s.tier,
			category:   category,
			channel:    channel,
			appliedOn:  appliedOn,
		})
		if err := b.Add(ctx, row); err != nil {
			return err
		}
	}

	if g.cfg.SyntheticLoans > 0 {
		if err := g.addSyntheticLoans(ctx, b, loanID, products, channels); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableLoan)
}

// addSyntheticLoans appends loans for random customers that are not backed
// by a sale.
func (g *Generator) addSyntheticLoans(ctx context.Context, b *datagen.Batcher, lastID int32,
	products map[int32]productInfo, channels map[int32]string) error {
	risk, err := loadCustomerRisk(ctx, g.store)
	if err != nil {
		return err
	}
	customerIDs, err := loadIDs(ctx, g.store, schema.TableCustomer, "customer_id")
	if err != nil {
		return err
	}
	productIDs, err := loadIDs(ctx, g.store, schema.TableProduct, "product_id")
	if err != nil {
		return err
	}
	channelIDs, err := loadIDs(ctx, g.store, schema.TableChannel, "channel_id")
	if err != nil {
		return err
	}

	f := g.faker
	for i := 1; i <= g.cfg.SyntheticLoans; i++ {
		customerID := datagen.Choose(f, customerIDs)
		row := g.loanRow(lastID+int32(i), loanApplication{
			customerID: customerID,
			tier:       risk[customerID],
			category:   products[datagen.Choose(f, productIDs)].category,
			channel:    channels[datagen.Choose(f, channelIDs)],
			appliedOn:  f.Day(g.cfg.StartDate, g.cfg.EndDate),
		})
		if err := b.Add(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// loanRow draws the terms and state of one loan account.
func (g *Generator) loanRow(id int32, app loanApplication) []any {
	f := g.faker
	asOf := g.cfg.AsOf

	band, ok := rateRange[app.tier]
	if !ok {
		band = rateRange[ledger.RiskHigh]
	}
	rate := ledger.RoundTo(f.Float64(band[0], band[1]), 1)
	amount := ledger.Round2(f.Float64(1000, 500000))
	term := datagen.Choose(f, loanTerms)
	start := app.appliedOn
	end := ledger.DueDate(start, term)

	status := datagen.ChooseWeighted(f, loanStatuses, loanStatusWeights)

	var lastPayment, nextDue *time.Time
	if status == ledger.LoanActive || status == ledger.LoanDelinquent {
		if end.After(asOf) {
			lastPayment = datagen.Ptr(f.Day(start, asOf))
			nextDue = datagen.Ptr(f.Day(asOf, end))
		} else {
			status = ledger.LoanClosed
		}
	}

	collateral := 0.0
	if app.category == CategoryMortgage || app.category == CategoryAuto {
		collateral = ledger.Round2(amount * f.Float64(0.8, 1.5))
	}
	outstanding := 0.0
	if status != ledger.LoanClosed {
		outstanding = ledger.Round2(amount * f.Float64(0.1, 0.9))
	}

	return []any{
		id,
		app.customerID,
		amount,
		rate,
		term,
		start,
		end,
		string(status),
		app.category,
		string(app.tier),
		collateral,
		app.channel,
		start,
		lastPayment,
		nextDue,
		outstanding,
	}
}
