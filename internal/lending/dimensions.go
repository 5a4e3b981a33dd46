package lending

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-ledgergen/internal/datagen"
	"github.com/pgEdge/pgedge-ledgergen/internal/ledger"
	"github.com/pgEdge/pgedge-ledgergen/internal/schema"
)

// Product categories. The first two carry collateral.
const (
	CategoryAuto     = "Auto Loan"
	CategoryMortgage = "Mortgage"
	CategoryBusiness = "Business Loan"
	CategoryPersonal = "Personal Loan"
	CategoryCard     = "Credit Card"
)

var (
	productCategories = []string{CategoryAuto, CategoryMortgage, CategoryBusiness, CategoryPersonal, CategoryCard}
	categoryWeights   = []int{30, 25, 20, 15, 10}

	riskProfiles = []ledger.RiskTier{ledger.RiskLow, ledger.RiskMedium, ledger.RiskHigh}
	riskWeights  = []int{70, 20, 10}

	ageGroups         = []string{"18-24", "25-34", "35-44", "45-54", "55+"}
	genders           = []string{"M", "F", "O"}
	membershipLevels  = []string{"Gold", "Silver", "Bronze", "None"}
	businessRiskClass = []string{"High Risk", "Medium Risk", "Low Risk", "Not Classified"}
	contactChannels   = []string{"Email", "SMS", "App Notification", "Post"}
	interestOptions   = []string{"Sports", "Tech", "Fashion", "Books"}
	lifecycleStages   = []string{"Prospect", "First-Time", "Regular", "VIP"}
)

// SalesChannel is a fixed acquisition channel.
type SalesChannel struct {
	ID       int32
	Name     string
	Platform string
}

// SalesChannels are the rows of dim_sales_channel.
var SalesChannels = []SalesChannel{
	{1, "Ads", "Online"},
	{2, "Third Party NBFCs", "Partner"},
	{3, "Agents", "Field"},
	{4, "Branch", "In-Person"},
	{5, "Telemarketing", "Phone"},
}

// GenerateDimensions writes the time, region, channel, product and customer
// dimensions.
func (g *Generator) GenerateDimensions(ctx context.Context) error {
	steps := []func(context.Context) error{
		g.generateTime,
		g.generateRegions,
		g.generateChannels,
		g.generateProducts,
		g.generateCustomers,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generateTime(ctx context.Context) error {
	start := datagen.TruncateDay(g.cfg.StartDate)
	end := datagen.TruncateDay(g.cfg.EndDate)
	if end.Before(start) {
		return fmt.Errorf("end date %s is before start date %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	days := int(end.Sub(start).Hours()/24) + 1

	b := g.newBatcher(schema.DimTime, days)
	id := int32(1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := b.Add(ctx, []any{id, d, int8(d.Month()), int16(d.Year())}); err != nil {
			return err
		}
		id++
	}
	return g.closeBatcher(ctx, b, schema.TableTime)
}

func (g *Generator) generateRegions(ctx context.Context) error {
	f := g.faker
	b := g.newBatcher(schema.DimRegion, g.cfg.Regions)
	for id := 1; id <= g.cfg.Regions; id++ {
		if err := b.Add(ctx, []any{int32(id), f.StateName(), f.Country(), f.Name()}); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableRegion)
}

func (g *Generator) generateChannels(ctx context.Context) error {
	b := g.newBatcher(schema.DimSalesChannel, len(SalesChannels))
	for _, c := range SalesChannels {
		if err := b.Add(ctx, []any{c.ID, c.Name, c.Platform}); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableChannel)
}

// productFor draws a product name and price for a category.
func productFor(f *datagen.Faker, category string) (string, float64) {
	switch category {
	case CategoryAuto:
		name := fmt.Sprintf("%s Auto Loan %s",
			datagen.Choose(f, []string{"New", "Used"}),
			datagen.Choose(f, []string{"Standard", "Premium"}))
		return name, ledger.Round2(f.Float64(100, 500))
	case CategoryMortgage:
		name := fmt.Sprintf("%s Rate Mortgage %s",
			datagen.Choose(f, []string{"Fixed", "Adjustable"}),
			datagen.Choose(f, []string{"30-Year", "15-Year"}))
		return name, ledger.Round2(f.Float64(500, 2000))
	case CategoryBusiness:
		name := "Business Loan " + datagen.Choose(f, []string{"Short-Term", "Long-Term"})
		return name, ledger.Round2(f.Float64(200, 1000))
	case CategoryPersonal:
		return "Personal Loan", ledger.Round2(f.Float64(50, 300))
	default:
		return "Credit Card", ledger.Round2(f.Float64(0, 100))
	}
}

func (g *Generator) generateProducts(ctx context.Context) error {
	f := g.faker
	b := g.newBatcher(schema.DimProduct, g.cfg.Products)
	for id := 1; id <= g.cfg.Products; id++ {
		category := datagen.ChooseWeighted(f, productCategories, categoryWeights)
		name, price := productFor(f, category)
		if err := b.Add(ctx, []any{int32(id), name, category, price, f.Int32(1, 50)}); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableProduct)
}

// decadeStart returns January 1st of the decade containing t.
func decadeStart(t time.Time) time.Time {
	return time.Date(t.Year()-t.Year()%10, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (g *Generator) generateCustomers(ctx context.Context) error {
	f := g.faker
	b := g.newBatcher(schema.DimCustomer, g.cfg.Customers)
	regions := max(1, g.cfg.Regions)

	for id := 1; id <= g.cfg.Customers; id++ {
		risk := datagen.ChooseWeighted(f, riskProfiles, riskWeights)

		var deletion *time.Time
		if f.Chance(0.2) {
			deletion = datagen.Ptr(f.Day(decadeStart(g.cfg.AsOf), g.cfg.AsOf))
		}

		row := []any{
			int32(id),
			f.Name(),
			f.Int32(1, int32(regions)),
			datagen.Ptr(datagen.Choose(f, ageGroups)),
			datagen.Ptr(datagen.Choose(f, genders)),
			datagen.Ptr(datagen.Choose(f, membershipLevels)),
			datagen.Ptr(ledger.Round2(f.Float64(1000, 100000))),
			datagen.Ptr(ledger.Round2(f.Float64(20000, 150000))),
			datagen.Ptr(datagen.Choose(f, businessRiskClass)),
			f.Chance(0.1),
			datagen.Ptr(ledger.Round2(f.Float64(0, 50000))),
			f.Chance(0.2),
			f.Chance(0.3),
			f.Chance(0.1),
			datagen.Ptr(datagen.Choose(f, contactChannels)),
			datagen.Sample(f, interestOptions, f.Int(1, 3)),
			datagen.Ptr(f.Job()),
			datagen.Ptr(datagen.Choose(f, lifecycleStages)),
			datagen.Ptr(ledger.Round2(f.Float64(0, 5))),
			datagen.Ptr(ledger.Round2(f.Float64(100, 10000))),
			f.Bool(),
			f.Bool(),
			deletion,
			string(risk),
		}
		if err := b.Add(ctx, row); err != nil {
			return err
		}
	}
	return g.closeBatcher(ctx, b, schema.TableCustomer)
}
