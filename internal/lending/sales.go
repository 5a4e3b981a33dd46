package lending

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// Sale statuses.
const (
	SaleApproved = "Approved"
	SaleRejected = "Rejected"
)

// tierEconomics holds the per-tier approval odds and loss parameters of a
// sale.
type tierEconomics struct {
	approvalPct int
	bounceMin   float64
	bounceMax   float64
	npaChance   float64
	npaMin      float64
	npaMax      float64
}

var saleEconomics = map[ledger.RiskTier]tierEconomics{
	ledger.RiskHigh:   {approvalPct: 20, bounceMin: 500, bounceMax: 2000, npaChance: 0.2, npaMin: 0.1, npaMax: 0.3},
	ledger.RiskMedium: {approvalPct: 60, bounceMin: 200, bounceMax: 1000, npaChance: 0.1, npaMin: 0.05, npaMax: 0.15},
	ledger.RiskLow:    {approvalPct: 90, bounceMin: 0, bounceMax: 500, npaChance: 0.05, npaMin: 0.02, npaMax: 0.08},
}

// GenerateSales writes fact_sales, one loan application per row.
func (g *Generator) GenerateSales(ctx context.Context) error {
	customerRisk, err := loadCustomerRisk(ctx, g.store)
	if err != nil {
		return err
	}
	customerIDs, err := loadIDs(ctx, g.store, schema.TableCustomer, "customer_id")
	if err != nil {
		return err
	}
	dateIDs, err := loadIDs(ctx, g.store, schema.TableTime, "date_id")
	if err != nil {
		return err
	}
	regionIDs, err := loadIDs(ctx, g.store, schema.TableRegion, "region_id")
	if err != nil {
		return err
	}
	channelIDs, err := loadIDs(ctx, g.store, schema.TableChannel, "channel_id")
	if err != nil {
		return err
	}
	productIDs, err := loadIDs(ctx, g.store, schema.TableProduct, "product_id")
	if err != nil {
		return err
	}
	products, err := loadProducts(ctx, g.store)
	if err != nil {
		return err
	}

	f := g.faker
	b := g.newBatcher(schema.FactSales, g.cfg.Sales)
	for id := 1; id <= g.cfg.Sales; id++ {
		customerID := datagen.Choose(f, customerIDs)
		econ, ok := saleEconomics[customerRisk[customerID]]
		if !ok {
			return fmt.Errorf("customer %d has no risk profile", customerID)
		}
		approved := f.Int(1, 100) <= econ.approvalPct
		productID := datagen.Choose(f, productIDs)

		s := saleAmounts{}
		if approved {
			s = approvedAmounts(f, products[productID].price, econ)
		} else {
			s.acquisitionCost = ledger.Round2(f.Float64(500, 2000))
		}
		status := SaleRejected
		if approved {
			status = SaleApproved
		}

		row := []any{
			int32(id),
			datagen.Choose(f, dateIDs),
			productID,
			customerID,
			datagen.Choose(f, regionIDs),
			datagen.Choose(f, channelIDs),
			int32(1),
			s.revenue,
			s.discount,
			s.processingFees,
			s.documentationFees,
			s.insuranceFees,
			s.acquisitionCost,
			s.bounceCharges,
			s.npaLoss,
			s.totalRevenue,
			status,
		}
		if err := b.Add(ctx, row); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableSales)
}

type saleAmounts struct {
	revenue           float64
	discount          float64
	processingFees    float64
	documentationFees float64
	insuranceFees     float64
	acquisitionCost   float64
	bounceCharges     float64
	npaLoss           float64
	totalRevenue      float64
}

func approvedAmounts(f *datagen.Faker, price float64, econ tierEconomics) saleAmounts {
	var s saleAmounts
	s.discount = ledger.Round2(f.Float64(0, price*0.2))
	s.revenue = ledger.Round2(price - s.discount)
	s.processingFees = ledger.Round2(s.revenue * f.Float64(0.01, 0.02))
	s.documentationFees = ledger.Round2(f.Float64(500, 2000))
	s.insuranceFees = ledger.Round2(s.revenue * f.Float64(0.005, 0.015))
	s.acquisitionCost = ledger.Round2(f.Float64(1000, 5000))
	s.bounceCharges = ledger.Round2(f.Float64(econ.bounceMin, econ.bounceMax))
	if f.Chance(econ.npaChance) {
		s.npaLoss = ledger.Round2(s.revenue * f.Float64(econ.npaMin, econ.npaMax))
	}
	s.totalRevenue = ledger.Round2(s.revenue + s.processingFees + s.documentationFees +
		s.insuranceFees + s.bounceCharges - s.npaLoss)
	return s
}
