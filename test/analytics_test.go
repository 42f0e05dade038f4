package test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type AnalyticsTestSuite struct {
	IntegrationTestSuite
}

func TestAnalyticsTestSuite(t *testing.T) {
	suite.Run(t, &AnalyticsTestSuite{})
}

// backdate moves an order's creation timestamp, since the API always
// stamps orders with the current time
func (s *AnalyticsTestSuite) backdate(orderID string, createdAt time.Time) {
	_, err := s.dbConn.Exec(`UPDATE `+s.dbConn.Schema+`."order" SET created_at = $1 WHERE order_id = $2;`,
		createdAt, orderID)
	s.Require().NoError(err)
}

func (s *AnalyticsTestSuite) createOrder(productID string, quantity int, total float64, status string) string {
	body := map[string]interface{}{
		"customer_name":  "Analytics Customer",
		"customer_email": "analytics@example.com",
		"products":       []map[string]interface{}{{"product_id": productID, "quantity": quantity}},
		"total_amount":   total,
	}
	if status != "" {
		body["status"] = status
	}
	var order struct {
		OrderID string `json:"order_id"`
	}
	httpStatus := s.doRequest(http.MethodPost, "/api/orders", s.token, body, &order)
	s.Require().Equal(http.StatusCreated, httpStatus)
	return order.OrderID
}

func (s *AnalyticsTestSuite) createProduct(name, price, stock string) string {
	var category struct {
		CategoryID string `json:"category_id"`
	}
	status := s.doRequest(http.MethodPost, "/api/categories", s.token,
		map[string]string{"name": "For " + name}, &category)
	s.Require().Equal(http.StatusCreated, status)

	var product struct {
		ProductID string `json:"product_id"`
	}
	status = s.doMultipart(http.MethodPost, "/api/products", s.token, map[string]string{
		"name":        name,
		"price":       price,
		"stock":       stock,
		"category_id": category.CategoryID,
	}, testImage, &product)
	s.Require().Equal(http.StatusCreated, status)
	return product.ProductID
}

type analyticsResponse struct {
	Overview struct {
		TotalProducts     int     `json:"total_products"`
		TotalOrders       int     `json:"total_orders"`
		TotalRevenue      float64 `json:"total_revenue"`
		AverageOrderValue float64 `json:"average_order_value"`
		MaxOrderValue     float64 `json:"max_order_value"`
		MinOrderValue     float64 `json:"min_order_value"`
	} `json:"overview"`
	MonthlySales []struct {
		Year    int     `json:"year"`
		Month   int     `json:"month"`
		Label   string  `json:"label"`
		Revenue float64 `json:"revenue"`
		Orders  int     `json:"orders"`
	} `json:"monthly_sales"`
	RecentOrders []struct {
		OrderID  string `json:"order_id"`
		Products []struct {
			Name  string   `json:"name"`
			Price *float64 `json:"price"`
		} `json:"products"`
	} `json:"recent_orders"`
	StatusBreakdown map[string]int `json:"status_breakdown"`
	TopProducts     []struct {
		ProductID     string `json:"product_id"`
		Name          string `json:"name"`
		TotalQuantity int    `json:"total_quantity"`
		OrderCount    int    `json:"order_count"`
	} `json:"top_products"`
}

func (s *AnalyticsTestSuite) TestAnalyticsAndStats() {
	// catalogue: one product per stock class
	inStockID := s.createProduct("Popular Widget", "10.00", "45")
	lowStockID := s.createProduct("Scarce Widget", "20.00", "5")
	outOfStockID := s.createProduct("Gone Widget", "30.00", "0")

	// three orders this month, one two months back, one over a year back
	s.createOrder(inStockID, 4, 40.0, "")
	s.createOrder(inStockID, 3, 30.0, "shipped")
	s.createOrder(lowStockID, 2, 40.0, "delivered")
	oldID := s.createOrder(lowStockID, 1, 20.0, "delivered")
	ancientID := s.createOrder(outOfStockID, 9, 270.0, "delivered")

	now := time.Now()
	s.backdate(oldID, now.AddDate(0, -2, 0))
	s.backdate(ancientID, now.AddDate(0, -14, 0))

	var analytics analyticsResponse
	status := s.doRequest(http.MethodGet, "/api/analytics", s.token, nil, &analytics)
	s.Require().Equal(http.StatusOK, status)

	// overview covers all five orders
	s.Equal(3, analytics.Overview.TotalProducts)
	s.Equal(5, analytics.Overview.TotalOrders)
	s.Equal(400.0, analytics.Overview.TotalRevenue)
	s.Equal(80.0, analytics.Overview.AverageOrderValue)
	s.Equal(270.0, analytics.Overview.MaxOrderValue)
	s.Equal(20.0, analytics.Overview.MinOrderValue)

	// the ancient order falls outside the twelve month window
	s.Require().Len(analytics.MonthlySales, 2)
	old, current := analytics.MonthlySales[0], analytics.MonthlySales[1]
	twoMonthsBack := now.AddDate(0, -2, 0)
	s.Equal(int(twoMonthsBack.Month()), old.Month)
	s.Equal(20.0, old.Revenue)
	s.Equal(1, old.Orders)
	s.Equal(int(now.Month()), current.Month)
	s.Equal(now.Year(), current.Year)
	s.Equal(current.Label, now.Month().String()[:3]+" "+now.Format("2006"))
	s.Equal(110.0, current.Revenue)
	s.Equal(3, current.Orders)

	s.Require().Len(analytics.RecentOrders, 5)
	s.Require().NotEmpty(analytics.RecentOrders[0].Products)
	s.NotEmpty(analytics.RecentOrders[0].Products[0].Name)

	s.Equal(1, analytics.StatusBreakdown["pending"])
	s.Equal(1, analytics.StatusBreakdown["shipped"])
	s.Equal(3, analytics.StatusBreakdown["delivered"])

	// popular widget ordered 7 times in 2 orders, gone widget 9 in 1
	s.Require().NotEmpty(analytics.TopProducts)
	s.Equal(outOfStockID, analytics.TopProducts[0].ProductID)
	s.Equal(9, analytics.TopProducts[0].TotalQuantity)
	s.Require().Len(analytics.TopProducts, 3)
	s.Equal(inStockID, analytics.TopProducts[1].ProductID)
	s.Equal(7, analytics.TopProducts[1].TotalQuantity)
	s.Equal(2, analytics.TopProducts[1].OrderCount)
	s.Equal("Popular Widget", analytics.TopProducts[1].Name)

	var stats struct {
		Products struct {
			Total          int     `json:"total"`
			InStock        int     `json:"in_stock"`
			LowStock       int     `json:"low_stock"`
			OutOfStock     int     `json:"out_of_stock"`
			InventoryValue float64 `json:"inventory_value"`
		} `json:"products"`
		Orders struct {
			Total        int     `json:"total"`
			Pending      int     `json:"pending"`
			Shipped      int     `json:"shipped"`
			Delivered    int     `json:"delivered"`
			TotalRevenue float64 `json:"total_revenue"`
		} `json:"orders"`
	}
	status = s.doRequest(http.MethodGet, "/api/dashboard/stats", s.token, nil, &stats)
	s.Require().Equal(http.StatusOK, status)

	s.Equal(3, stats.Products.Total)
	s.Equal(1, stats.Products.InStock)
	s.Equal(1, stats.Products.LowStock)
	s.Equal(1, stats.Products.OutOfStock)
	// 45*10 + 5*20 + 0*30
	s.Equal(550.0, stats.Products.InventoryValue)

	s.Equal(5, stats.Orders.Total)
	s.Equal(1, stats.Orders.Pending)
	s.Equal(1, stats.Orders.Shipped)
	s.Equal(3, stats.Orders.Delivered)
	s.Equal(400.0, stats.Orders.TotalRevenue)

	// a vanished product is dropped from the top product ranking
	status = s.doRequest(http.MethodDelete, "/api/products/"+outOfStockID, s.token, nil, nil)
	s.Require().Equal(http.StatusOK, status)
	status = s.doRequest(http.MethodGet, "/api/analytics", s.token, nil, &analytics)
	s.Require().Equal(http.StatusOK, status)
	for _, product := range analytics.TopProducts {
		s.NotEqual(outOfStockID, product.ProductID)
	}
}

// The top five are taken by quantity first, then vanished products are
// dropped. A deleted front runner shortens the list, it never promotes
// the sixth ranked product into it.
func (s *AnalyticsTestSuite) TestTopProductsTruncateBeforeResolve() {
	quantities := []int{100, 90, 80, 70, 60, 50}
	ids := make([]string, len(quantities))
	for i, quantity := range quantities {
		ids[i] = s.createProduct("Ranked Widget "+strconv.Itoa(quantity), "1.00", "10")
		s.createOrder(ids[i], quantity, float64(quantity), "delivered")
	}

	status := s.doRequest(http.MethodDelete, "/api/products/"+ids[0], s.token, nil, nil)
	s.Require().Equal(http.StatusOK, status)

	var analytics analyticsResponse
	status = s.doRequest(http.MethodGet, "/api/analytics", s.token, nil, &analytics)
	s.Require().Equal(http.StatusOK, status)

	s.Require().Len(analytics.TopProducts, 4)
	s.Equal(ids[1], analytics.TopProducts[0].ProductID)
	s.Equal(90, analytics.TopProducts[0].TotalQuantity)
	for _, product := range analytics.TopProducts {
		s.NotEqual(ids[0], product.ProductID, "the deleted front runner is dropped")
		s.NotEqual(ids[5], product.ProductID, "rank six must not be promoted")
	}
}

type AnalyticsEmptyTestSuite struct {
	IntegrationTestSuite
}

func TestAnalyticsEmptyTestSuite(t *testing.T) {
	suite.Run(t, &AnalyticsEmptyTestSuite{})
}

// both aggregation endpoints answer with all-zero results before any
// catalogue or order data exists
func (s *AnalyticsEmptyTestSuite) TestEmptyDatabase() {
	var analytics analyticsResponse
	status := s.doRequest(http.MethodGet, "/api/analytics", s.token, nil, &analytics)
	s.Require().Equal(http.StatusOK, status)

	s.Equal(0, analytics.Overview.TotalProducts)
	s.Equal(0, analytics.Overview.TotalOrders)
	s.Equal(0.0, analytics.Overview.TotalRevenue)
	s.Equal(0.0, analytics.Overview.AverageOrderValue)
	s.Equal(0.0, analytics.Overview.MaxOrderValue)
	s.Equal(0.0, analytics.Overview.MinOrderValue)
	s.Empty(analytics.MonthlySales)
	s.Empty(analytics.RecentOrders)
	s.Empty(analytics.TopProducts)
	s.Equal(0, analytics.StatusBreakdown["pending"])
	s.Equal(0, analytics.StatusBreakdown["shipped"])
	s.Equal(0, analytics.StatusBreakdown["delivered"])

	var stats struct {
		Products struct {
			Total          int     `json:"total"`
			InventoryValue float64 `json:"inventory_value"`
		} `json:"products"`
		Orders struct {
			Total        int     `json:"total"`
			TotalRevenue float64 `json:"total_revenue"`
		} `json:"orders"`
	}
	status = s.doRequest(http.MethodGet, "/api/dashboard/stats", s.token, nil, &stats)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(0, stats.Products.Total)
	s.Equal(0.0, stats.Products.InventoryValue)
	s.Equal(0, stats.Orders.Total)
	s.Equal(0.0, stats.Orders.TotalRevenue)
}
