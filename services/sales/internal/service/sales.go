package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/internal/util"
	"github.com/Skotchmaster/till_shop/pkg/session"
	"github.com/Skotchmaster/till_shop/services/sales/internal/repo"
	"github.com/Skotchmaster/till_shop/services/sales/internal/transport"
)

var ErrValidation = errors.New("validation")

type SalesService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
	// Location sets where a day starts; nil means UTC.
	Location *time.Location
}

func (s *SalesService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *SalesService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *SalesService) today() repo.Span {
	span, _ := SpanFor(RangeToday, "", s.now(), s.loc())
	return span
}

func (s *SalesService) ListOrders(ctx context.Context, sess session.Session, r Range, date string, page, size int) (*transport.OrderPage, error) {
	span, err := SpanFor(r, date, s.now(), s.loc())
	if err != nil {
		return nil, err
	}
	offset, limit := util.Calculate(page, size)
	total, orders, err := s.Repo.ListOrders(ctx, sess.OwnerID, span, offset, limit)
	if err != nil {
		return nil, err
	}
	return &transport.OrderPage{Data: orders, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *SalesService) GetOrder(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Order, error) {
	return s.Repo.GetOrder(ctx, sess.OwnerID, id)
}

func (s *SalesService) Summary(ctx context.Context, sess session.Session, r Range, date string) (*transport.Summary, error) {
	span, err := SpanFor(r, date, s.now(), s.loc())
	if err != nil {
		return nil, err
	}
	rows, err := s.Repo.TotalsByMethod(ctx, sess.OwnerID, span)
	if err != nil {
		return nil, err
	}
	todayOrders, err := s.Repo.CountOrders(ctx, sess.OwnerID, s.today())
	if err != nil {
		return nil, err
	}

	if r == "" {
		r = RangeAllTime
	}
	out := &transport.Summary{
		Range:       string(r),
		Date:        date,
		TotalSales:  decimal.Zero,
		TodayOrders: todayOrders,
		ByMethod:    make([]transport.MethodSummary, 0, len(rows)),
	}
	for _, row := range rows {
		out.TotalSales = out.TotalSales.Add(row.Total)
		out.OrderCount += row.Orders
		out.ByMethod = append(out.ByMethod, transport.MethodSummary{
			PaymentMethod: row.PaymentMethod,
			Orders:        row.Orders,
			Total:         row.Total,
		})
	}
	return out, nil
}

func sumTotals(rows []repo.MethodTotal) (decimal.Decimal, int64) {
	total := decimal.Zero
	var n int64
	for _, row := range rows {
		total = total.Add(row.Total)
		n += row.Orders
	}
	return total, n
}

func (s *SalesService) Dashboard(ctx context.Context, sess session.Session) (*transport.Dashboard, error) {
	products, err := s.Repo.AllProducts(ctx, sess.OwnerID)
	if err != nil {
		return nil, err
	}
	allTime, err := s.Repo.TotalsByMethod(ctx, sess.OwnerID, repo.Span{})
	if err != nil {
		return nil, err
	}
	today, err := s.Repo.TotalsByMethod(ctx, sess.OwnerID, s.today())
	if err != nil {
		return nil, err
	}

	d := &transport.Dashboard{
		ProductCount:  len(products),
		StockValue:    decimal.Zero,
		LowStockItems: make([]transport.StockItem, 0),
	}
	categories := map[string]struct{}{}
	for _, p := range products {
		d.UnitsOnHand += p.Quantity
		d.StockValue = d.StockValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Quantity))))
		if p.Category != "" {
			categories[p.Category] = struct{}{}
		}
		switch p.StockStatus() {
		case models.StockOut:
			d.OutOfStock++
		case models.StockLow:
			d.LowStock++
		default:
			continue
		}
		d.LowStockItems = append(d.LowStockItems, transport.StockItem{
			ID:          p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Quantity:    p.Quantity,
			StockStatus: p.StockStatus(),
		})
	}
	sort.SliceStable(d.LowStockItems, func(i, j int) bool {
		return d.LowStockItems[i].Quantity < d.LowStockItems[j].Quantity
	})
	d.Categories = len(categories)
	d.StockValue = d.StockValue.Round(2)
	d.TotalSales, _ = sumTotals(allTime)
	d.TodaySales, d.TodayOrders = sumTotals(today)
	return d, nil
}
