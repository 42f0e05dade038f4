// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleStatsRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard/stats", b.statsWithAuth).Methods(http.MethodGet)
}

// productStats classifies the catalogue by stock level: in stock means
// more than 10 items, low stock 1 to 10, out of stock none
type productStats struct {
	Total          int     `json:"total"`
	InStock        int     `json:"in_stock"`
	LowStock       int     `json:"low_stock"`
	OutOfStock     int     `json:"out_of_stock"`
	InventoryValue float64 `json:"inventory_value"`
}

type orderStats struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Shipped      int     `json:"shipped"`
	Delivered    int     `json:"delivered"`
	TotalRevenue float64 `json:"total_revenue"`
}

type statsResponse struct {
	Products productStats `json:"products"`
	Orders   orderStats   `json:"orders"`
}

func (b *Backend) statsWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	var response statsResponse
	var inventoryValue float64
	err := b.db.QueryRow(`SELECT count(*),
count(*) FILTER (WHERE stock > 10),
count(*) FILTER (WHERE stock BETWEEN 1 AND 10),
count(*) FILTER (WHERE stock = 0),
coalesce(sum(price * stock), 0)
FROM ` + b.db.Schema + `.product;`).Scan(
		&response.Products.Total, &response.Products.InStock, &response.Products.LowStock,
		&response.Products.OutOfStock, &inventoryValue)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4701: cannot aggregate product stats")
		writeError(w, http.StatusInternalServerError, "Error 4701")
		return
	}
	response.Products.InventoryValue = round2(inventoryValue)

	var revenue float64
	err = b.db.QueryRow(`SELECT count(*), coalesce(sum(total_amount), 0) FROM ` + b.db.Schema + `."order";`).Scan(
		&response.Orders.Total, &revenue)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4702: cannot aggregate order stats")
		writeError(w, http.StatusInternalServerError, "Error 4702")
		return
	}
	response.Orders.TotalRevenue = round2(revenue)

	breakdown, err := b.statusBreakdown()
	if err != nil {
		rlog.WithError(err).Errorln("Error 4703: cannot aggregate order statuses")
		writeError(w, http.StatusInternalServerError, "Error 4703")
		return
	}
	response.Orders.Pending = breakdown[validate.StatusPending]
	response.Orders.Shipped = breakdown[validate.StatusShipped]
	response.Orders.Delivered = breakdown[validate.StatusDelivered]

	writeJSON(w, http.StatusOK, response)
}
