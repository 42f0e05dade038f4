// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package backend

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/lib/pq"

	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/validate"
)

func (b *Backend) handleOrderRoutes(router *mux.Router) {
	router.HandleFunc("/orders", b.orderListWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/orders", b.orderCreateWithAuth).Methods(http.MethodPost)
	router.HandleFunc("/orders/{order_id}", b.orderReadWithAuth).Methods(http.MethodGet)
	router.HandleFunc("/orders/{order_id}", b.orderUpdateWithAuth).Methods(http.MethodPut)
	router.HandleFunc("/orders/{order_id}", b.orderDeleteWithAuth).Methods(http.MethodDelete)
}

type orderLineRequest struct {
	ProductID string   `json:"product_id"`
	Quantity  *float64 `json:"quantity"`
}

type orderRequest struct {
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Products      []orderLineRequest `json:"products"`
	TotalAmount   *float64           `json:"total_amount"`
	Status        string             `json:"status"`
}

// productRef is the name and price of a product, for order line resolution
type productRef struct {
	Name  string
	Price float64
}

func (b *Backend) orderListWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	orders, err := b.scanOrders(`SELECT order_id, customer_name, customer_email, products, total_amount, status, created_at
FROM ` + b.db.Schema + `."order" ORDER BY created_at DESC;`)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4401: cannot query orders")
		writeError(w, http.StatusInternalServerError, "Error 4401")
		return
	}

	refs, err := b.loadProductRefs(collectProductIDs(orders))
	if err != nil {
		rlog.WithError(err).Errorln("Error 4402: cannot resolve order products")
		writeError(w, http.StatusInternalServerError, "Error 4402")
		return
	}

	// orders with a line pointing to a vanished product are dropped from
	// the list, they remain reachable through the detail route
	validOrders := []Order{}
	for i := range orders {
		lines, complete := resolveLines(orders[i].Products, refs)
		if !complete {
			continue
		}
		orders[i].Products = lines
		validOrders = append(validOrders, orders[i])
	}
	writeJSON(w, http.StatusOK, validOrders)
}

func (b *Backend) orderCreateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	var request orderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}

	input := validate.OrderInput{
		CustomerName:  request.CustomerName,
		CustomerEmail: request.CustomerEmail,
		TotalAmount:   request.TotalAmount,
		Status:        request.Status,
	}
	for _, line := range request.Products {
		input.Products = append(input.Products, validate.OrderLineInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	if errors := validate.Order(input); len(errors) > 0 {
		writeValidationErrors(w, errors)
		return
	}

	// every referenced product must exist, otherwise the order is
	// rejected wholesale and nothing is written
	lines := make([]OrderLine, len(request.Products))
	for i, line := range request.Products {
		productID, err := uuid.Parse(strings.TrimSpace(line.ProductID))
		if err != nil {
			writeError(w, http.StatusNotFound, "one or more products not found")
			return
		}
		lines[i] = OrderLine{ProductID: productID, Quantity: int(*line.Quantity)}
	}
	refs, err := b.loadProductRefs(collectProductIDs([]Order{{Products: lines}}))
	if err != nil {
		rlog.WithError(err).Errorln("Error 4403: cannot resolve order products")
		writeError(w, http.StatusInternalServerError, "Error 4403")
		return
	}
	if _, complete := resolveLines(lines, refs); !complete {
		writeError(w, http.StatusNotFound, "one or more products not found")
		return
	}

	status := request.Status
	if status == "" {
		status = validate.StatusPending
	}

	order := Order{
		CustomerName:  strings.TrimSpace(request.CustomerName),
		CustomerEmail: strings.TrimSpace(request.CustomerEmail),
		Products:      lines,
		TotalAmount:   *request.TotalAmount,
		Status:        status,
	}
	linesJSON, _ := json.MarshalWithOption(lines, json.DisableHTMLEscape())
	err = b.db.QueryRow(`INSERT INTO `+b.db.Schema+`."order" (customer_name, customer_email, products, total_amount, status)
VALUES ($1, $2, $3, $4, $5) RETURNING order_id, created_at;`,
		order.CustomerName, order.CustomerEmail, linesJSON, order.TotalAmount, order.Status,
	).Scan(&order.OrderID, &order.CreatedAt)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4404: cannot create order")
		writeError(w, http.StatusInternalServerError, "Error 4404")
		return
	}

	order.Products, _ = resolveLines(order.Products, refs)
	b.notify(r, "order", events.OperationCreate, order.OrderID)
	writeJSON(w, http.StatusCreated, order)
}

func (b *Backend) orderReadWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	orderID, err := uuid.Parse(mux.Vars(r)["order_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var order Order
	var linesJSON []byte
	err = b.db.QueryRow(`SELECT order_id, customer_name, customer_email, products, total_amount, status, created_at
FROM `+b.db.Schema+`."order" WHERE order_id = $1;`, orderID,
	).Scan(&order.OrderID, &order.CustomerName, &order.CustomerEmail, &linesJSON,
		&order.TotalAmount, &order.Status, &order.CreatedAt)
	if err == csql.ErrNoRows {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		rlog.WithError(err).Errorln("Error 4405: cannot read order")
		writeError(w, http.StatusInternalServerError, "Error 4405")
		return
	}
	if err := json.Unmarshal(linesJSON, &order.Products); err != nil {
		rlog.WithError(err).Errorln("Error 4406: cannot decode order products")
		writeError(w, http.StatusInternalServerError, "Error 4406")
		return
	}

	refs, err := b.loadProductRefs(collectProductIDs([]Order{order}))
	if err != nil {
		rlog.WithError(err).Errorln("Error 4407: cannot resolve order products")
		writeError(w, http.StatusInternalServerError, "Error 4407")
		return
	}

	// detail resolution is best-effort, vanished products simply keep
	// their name and price absent
	order.Products, _ = resolveLines(order.Products, refs)
	writeJSON(w, http.StatusOK, order)
}

func (b *Backend) orderUpdateWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	orderID, err := uuid.Parse(mux.Vars(r)["order_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var request struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json data")
		return
	}
	if !validate.ValidOrderStatus(request.Status) {
		writeValidationErrors(w, []validate.FieldError{
			{Field: "status", Message: "status must be one of: pending, shipped, delivered"},
		})
		return
	}

	result, err := b.db.Exec(`UPDATE `+b.db.Schema+`."order" SET status = $1 WHERE order_id = $2;`,
		request.Status, orderID)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4408: cannot update order")
		writeError(w, http.StatusInternalServerError, "Error 4408")
		return
	}
	if count, _ := result.RowsAffected(); count == 0 {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	b.notify(r, "order", events.OperationUpdate, orderID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "order updated"})
}

func (b *Backend) orderDeleteWithAuth(w http.ResponseWriter, r *http.Request) {
	if b.authorized(w, r) == nil {
		return
	}
	rlog := logger.FromContext(r.Context())

	orderID, err := uuid.Parse(mux.Vars(r)["order_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := b.db.Exec(`DELETE FROM `+b.db.Schema+`."order" WHERE order_id = $1;`, orderID)
	if err != nil {
		rlog.WithError(err).Errorln("Error 4409: cannot delete order")
		writeError(w, http.StatusInternalServerError, "Error 4409")
		return
	}
	if count, _ := result.RowsAffected(); count == 0 {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	b.notify(r, "order", events.OperationDelete, orderID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "order deleted"})
}

// scanOrders runs an order query and decodes the embedded product lines
func (b *Backend) scanOrders(query string, args ...interface{}) ([]Order, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var order Order
		var linesJSON []byte
		err := rows.Scan(&order.OrderID, &order.CustomerName, &order.CustomerEmail, &linesJSON,
			&order.TotalAmount, &order.Status, &order.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(linesJSON, &order.Products); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// loadProductRefs loads name and price for the given product identifiers
func (b *Backend) loadProductRefs(ids []uuid.UUID) (map[uuid.UUID]productRef, error) {
	refs := map[uuid.UUID]productRef{}
	if len(ids) == 0 {
		return refs, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	rows, err := b.db.Query(`SELECT product_id, name, price FROM `+b.db.Schema+`.product
WHERE product_id = ANY($1::uuid[]);`, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var ref productRef
		if err := rows.Scan(&id, &ref.Name, &ref.Price); err != nil {
			return nil, err
		}
		refs[id] = ref
	}
	return refs, rows.Err()
}

// collectProductIDs returns the distinct product identifiers referenced
// by the given orders
func collectProductIDs(orders []Order) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, order := range orders {
		for _, line := range order.Products {
			if !seen[line.ProductID] {
				seen[line.ProductID] = true
				ids = append(ids, line.ProductID)
			}
		}
	}
	return ids
}

// resolveLines fills in name and price for every line whose product still
// exists. It returns false if any line could not be resolved.
func resolveLines(lines []OrderLine, refs map[uuid.UUID]productRef) ([]OrderLine, bool) {
	complete := true
	resolved := make([]OrderLine, len(lines))
	for i, line := range lines {
		resolved[i] = OrderLine{ProductID: line.ProductID, Quantity: line.Quantity}
		if ref, ok := refs[line.ProductID]; ok {
			price := ref.Price
			resolved[i].Name = ref.Name
			resolved[i].Price = &price
		} else {
			complete = false
		}
	}
	return resolved, complete
}
