package order

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trademill/wholesale-api/internal/domain/pricing"
	"github.com/trademill/wholesale-api/internal/domain/product"
)

// ErrEmptyLines is returned when an order or quote request has no lines.
var ErrEmptyLines = fmt.Errorf("lines required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientStockError indicates a line requests more base units than the
// product has on hand. Requested includes free items granted by offers.
type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d base units, %d available",
		e.ProductID, e.Requested, e.Available)
}

// Service encapsulates quoting and order placement.
type Service struct {
	products product.Repository
	orders   Repository
	calc     *pricing.Calculator
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository, calc *pricing.Calculator) *Service {
	return &Service{
		products: products,
		orders:   orders,
		calc:     calc,
	}
}

// Quote prices the given lines without persisting anything or touching
// stock. Quantities are converted to base units through each product's pack
// configuration before the promotional pricing engine runs.
func (s *Service) Quote(ctx context.Context, lines []Line) (*Quote, error) {
	priced, products, err := s.price(ctx, lines)
	if err != nil {
		return nil, err
	}
	return buildQuote(s.calc, priced, products), nil
}

// PlaceOrder prices the lines, verifies and decrements stock (free items
// ship too, so they count against stock), persists the order, and returns it.
// Stock claims are aggregated per product before any decrement, and every
// committed decrement is restored when a later step fails, so a rejected
// order never leaks stock.
func (s *Service) PlaceOrder(ctx context.Context, lines []Line) (*Order, error) {
	priced, products, err := s.price(ctx, lines)
	if err != nil {
		return nil, err
	}

	claims, err := aggregateClaims(priced, products)
	if err != nil {
		return nil, err
	}

	// One conditional decrement per product. The SQL guard serializes
	// concurrent orders; a conflict here means another order won the stock,
	// so everything claimed so far is handed back.
	var claimed []stockClaim
	for _, c := range claims {
		if err := s.products.DecrementStock(ctx, c.productID, c.baseUnits); err != nil {
			if errors.Is(err, product.ErrInsufficientStock) {
				err = &InsufficientStockError{
					ProductID: c.productID,
					Requested: c.baseUnits,
					Available: c.available,
				}
			} else {
				err = fmt.Errorf("decrement stock for %s: %w", c.productID, err)
			}
			return nil, s.releaseClaims(ctx, claimed, err)
		}
		claimed = append(claimed, c)
	}

	q := buildQuote(s.calc, priced, products)
	o := &Order{
		ID:           uuid.New().String(),
		Lines:        priced,
		Subtotal:     q.Subtotal,
		Discounts:    q.Discounts,
		Total:        q.Total,
		FreeShipping: q.FreeShipping,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, s.releaseClaims(ctx, claimed, fmt.Errorf("create order: %w", err))
	}
	return o, nil
}

// stockClaim is the total base units an order takes from one product, with
// the stock snapshot the claim was checked against.
type stockClaim struct {
	productID string
	baseUnits int64
	available int64
}

// aggregateClaims sums shipped base units per product, preserving first-seen
// line order, and rejects the order when any product's combined claim exceeds
// the fetched stock snapshot. Checking the sum up front keeps multiple lines
// for one product from decrementing piecemeal.
func aggregateClaims(priced []PricedLine, products []product.Product) ([]stockClaim, error) {
	index := make(map[string]int, len(priced))
	claims := make([]stockClaim, 0, len(priced))
	for i, pl := range priced {
		need := shippedBaseUnits(pl)
		if j, ok := index[pl.ProductID]; ok {
			claims[j].baseUnits += need
			continue
		}
		index[pl.ProductID] = len(claims)
		claims = append(claims, stockClaim{
			productID: pl.ProductID,
			baseUnits: need,
			available: products[i].StockBaseUnits,
		})
	}

	for _, c := range claims {
		if c.baseUnits > c.available {
			return nil, &InsufficientStockError{
				ProductID: c.productID,
				Requested: c.baseUnits,
				Available: c.available,
			}
		}
	}
	return claims, nil
}

// releaseClaims restores every committed decrement and returns the original
// cause. All claims are attempted even when one restore fails; a restore
// failure is appended to the cause so it is never silently dropped.
func (s *Service) releaseClaims(ctx context.Context, claimed []stockClaim, cause error) error {
	var restoreErr error
	for _, c := range claimed {
		if err := s.products.RestoreStock(ctx, c.productID, c.baseUnits); err != nil && restoreErr == nil {
			restoreErr = fmt.Errorf("restore %d base units of %s: %w", c.baseUnits, c.productID, err)
		}
	}
	if restoreErr != nil {
		return fmt.Errorf("%w (stock restore also failed: %v)", cause, restoreErr)
	}
	return cause
}

// price validates lines, batch-fetches products, and runs the pricing engine
// per line. The returned product slice is parallel to the priced lines.
func (s *Service) price(ctx context.Context, lines []Line) ([]PricedLine, []product.Product, error) {
	if len(lines) == 0 {
		return nil, nil, ErrEmptyLines
	}

	ids := make([]string, len(lines))
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, nil, &InvalidQuantityError{ProductID: l.ProductID}
		}
		ids[i] = l.ProductID
	}

	fetched, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("get products: %w", err)
	}
	byID := make(map[string]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	priced := make([]PricedLine, len(lines))
	products := make([]product.Product, len(lines))
	for i, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			return nil, nil, &ProductNotFoundError{ProductID: l.ProductID}
		}
		products[i] = p

		baseUnits := p.Pack.BaseUnits(l.Quantity, l.Unit)
		res := s.calc.Calculate(p.BasePrice, int(baseUnits), p.Offers, p.Sale)

		priced[i] = PricedLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Unit:      l.Unit,
			BaseUnits: baseUnits,
			Pricing:   res,
			UnitPrice: res.EffectivePrice,
			LineTotal: res.TotalCost,
		}
	}
	return priced, products, nil
}

// shippedBaseUnits is the stock a line consumes: paid units plus free items.
func shippedBaseUnits(pl PricedLine) int64 {
	return pl.BaseUnits + int64(pl.Pricing.FreeItems)
}

func buildQuote(calc *pricing.Calculator, priced []PricedLine, products []product.Product) *Quote {
	subtotal := decimal.Zero
	discounts := decimal.Zero
	total := decimal.Zero
	var allOffers []pricing.Offer

	for i, pl := range priced {
		subtotal = subtotal.Add(products[i].BasePrice.Mul(decimal.NewFromInt(pl.BaseUnits)))
		discounts = discounts.Add(pl.Pricing.TotalDiscount)
		total = total.Add(pl.LineTotal)
		allOffers = append(allOffers, products[i].Offers...)
	}

	return &Quote{
		Lines:        priced,
		Subtotal:     subtotal.Round(2),
		Discounts:    discounts.Round(2),
		Total:        total.Round(2),
		FreeShipping: calc.QualifiesForFreeShipping(allOffers, total),
	}
}
