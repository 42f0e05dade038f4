// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleAnalyticsRoutes(router *mux.Router) {
	router.HandleFunc("/analytics", b.analyticsWithAuth).Methods(http.MethodGet)
}

// analyticsOverview sums up catalogue and order totals
type analyticsOverview struct {
	TotalProducts     int     `json:"total_products"`
	TotalOrders       int     `json:"total_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
	MaxOrderValue     float64 `json:"max_order_value"`
	MinOrderValue     float64 `json:"min_order_value"`
}

// monthlyBucket is the revenue and order count of one calendar month
type monthlyBucket struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// topProduct is one product ranked by total ordered quantity
type topProduct struct {
	ProductID     uuid.UUID `json:"product_id"`
	Name          string    `json:"name"`
	TotalQuantity int       `json:"total_quantity"`
	OrderCount    int       `json:"order_count"`
}

type analyticsResponse struct {
	Overview        analyticsOverview `json:"overview"`
	MonthlySales    []monthlyBucket   `json:"monthly_sales"`
	RecentOrders    []Order           `json:"recent_orders"`
	StatusBreakdown map[string]int    `json:"status_breakdown"`
	TopProducts     []topProduct      `json:"top_products"`
}

// analyticsWithAuth assembles the five analytics facets. Any failing step
// aborts the whole response, partial analytics are never returned.
func (b *Backend) analyticsWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	var response analyticsResponse
	var err error
	if response.Overview, err = b.overview(); err != nil {
		rlog.WithError(err).Errorln("Error 4601: cannot aggregate overview")
		writeError(w, http.StatusInternalServerError, "Error 4601")
		return
	}
	if response.MonthlySales, err = b.monthlySales(time.Now()); err != nil {
		rlog.WithError(err).Errorln("Error 4602: cannot aggregate monthly sales")
		writeError(w, http.StatusInternalServerError, "Error 4602")
		return
	}
	if response.RecentOrders, err = b.recentOrders(); err != nil {
		rlog.WithError(err).Errorln("Error 4603: cannot load recent orders")
		writeError(w, http.StatusInternalServerError, "Error 4603")
		return
	}
	if response.StatusBreakdown, err = b.statusBreakdown(); err != nil {
		rlog.WithError(err).Errorln("Error 4604: cannot aggregate status breakdown")
		writeError(w, http.StatusInternalServerError, "Error 4604")
		return
	}
	if response.TopProducts, err = b.topProducts(); err != nil {
		rlog.WithError(err).Errorln("Error 4605: cannot aggregate top products")
		writeError(w, http.StatusInternalServerError, "Error 4605")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (b *Backend) overview() (analyticsOverview, error) {
	var overview analyticsOverview
	err := b.db.QueryRow(`SELECT count(*) FROM ` + b.db.Schema + `.product;`).Scan(&overview.TotalProducts)
	if err != nil {
		return overview, err
	}
	var sum, avg, max, min float64
	err = b.db.QueryRow(`SELECT count(*), coalesce(sum(total_amount), 0), coalesce(avg(total_amount), 0),
coalesce(max(total_amount), 0), coalesce(min(total_amount), 0)
FROM ` + b.db.Schema + `."order";`).Scan(&overview.TotalOrders, &sum, &avg, &max, &min)
	if err != nil {
		return overview, err
	}
	overview.TotalRevenue = round2(sum)
	overview.AverageOrderValue = round2(avg)
	overview.MaxOrderValue = max
	overview.MinOrderValue = min
	return overview, nil
}

// monthlySales groups the orders of the last twelve months by calendar
// month, ascending
func (b *Backend) monthlySales(now time.Time) ([]monthlyBucket, error) {
	since := now.AddDate(0, -12, 0)
	rows, err := b.db.Query(`SELECT extract(YEAR FROM created_at)::int, extract(MONTH FROM created_at)::int,
coalesce(sum(total_amount), 0), count(*)
FROM `+b.db.Schema+`."order" WHERE created_at >= $1
GROUP BY 1, 2 ORDER BY 1, 2;`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []monthlyBucket{}
	for rows.Next() {
		var bucket monthlyBucket
		var revenue float64
		if err := rows.Scan(&bucket.Year, &bucket.Month, &revenue, &bucket.Orders); err != nil {
			return nil, err
		}
		bucket.Revenue = round2(revenue)
		bucket.Label = monthLabel(bucket.Year, bucket.Month)
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

func (b *Backend) recentOrders() ([]Order, error) {
	orders, err := b.scanOrders(`SELECT order_id, customer_name, customer_email, products, total_amount, status, created_at
FROM ` + b.db.Schema + `."order" ORDER BY created_at DESC LIMIT 5;`)
	if err != nil {
		return nil, err
	}
	refs, err := b.loadProductRefs(collectProductIDs(orders))
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Products, _ = resolveLines(orders[i].Products, refs)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// statusBreakdown counts orders per status. The three known statuses are
// always present, orders with any other status value are dropped.
func (b *Backend) statusBreakdown() (map[string]int, error) {
	breakdown := map[string]int{
		validate.StatusPending:   0,
		validate.StatusShipped:   0,
		validate.StatusDelivered: 0,
	}
	rows, err := b.db.Query(`SELECT status, count(*) FROM ` + b.db.Schema + `."order" GROUP BY status;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if validate.ValidOrderStatus(status) {
			breakdown[status] = count
		}
	}
	return breakdown, rows.Err()
}

// topProducts unwinds all order lines, ranks products by total ordered
// quantity and resolves the names of the top five. Entries whose product
// has been deleted are dropped after ranking, so the result may hold
// fewer than five products.
func (b *Backend) topProducts() ([]topProduct, error) {
	rows, err := b.db.Query(`SELECT line->>'product_id', sum((line->>'quantity')::int), count(DISTINCT o.order_id)
FROM ` + b.db.Schema + `."order" o, jsonb_array_elements(o.products) line
GROUP BY 1;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranked []topProduct
	for rows.Next() {
		var product topProduct
		var id string
		if err := rows.Scan(&id, &product.TotalQuantity, &product.OrderCount); err != nil {
			return nil, err
		}
		productID, err := uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		product.ProductID = productID
		ranked = append(ranked, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalQuantity > ranked[j].TotalQuantity
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	ids := make([]uuid.UUID, len(ranked))
	for i, product := range ranked {
		ids[i] = product.ProductID
	}
	refs, err := b.loadProductRefs(ids)
	if err != nil {
		return nil, err
	}

	top := []topProduct{}
	for _, product := range ranked {
		ref, ok := refs[product.ProductID]
		if !ok {
			continue
		}
		product.Name = ref.Name
		top = append(top, product)
	}
	return top, nil
}
