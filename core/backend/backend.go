// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package backend implements the REST backend of the shop administration
// dashboard: staff authentication, CRUD for categories, products, orders
// and users, media upload for product images, and the aggregation
// endpoints for analytics and dashboard statistics.
package backend

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/shopadmin/core/access"
	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/media"
)

// Backend is the rest backend
type Backend struct {
	db        *csql.DB
	router    *mux.Router
	media     media.Store
	notifier  events.Notifier
	jwtSecret []byte
}

// Builder is a builder helper for the Backend
type Builder struct {
	// DB is a postgres database. This is mandatory.
	DB *csql.DB
	// Router is a mux router. This is mandatory.
	Router *mux.Router
	// Media stores uploaded product images. This is mandatory.
	Media media.Store
	// JwtSecret signs and verifies bearer tokens. This is mandatory.
	JwtSecret []byte
	// Notifier receives change notifications for all collections. This is optional.
	Notifier events.Notifier
	// TokenValidity is the lifetime of issued bearer tokens. Default is 24 hours.
	TokenValidity time.Duration
}

// New realizes the actual backend. It creates the sql relations (if they
// do not exist) and adds the actual routes to the router.
func New(bb *Builder) *Backend {
	if bb.DB == nil {
		panic("DB is missing")
	}
	if bb.Router == nil {
		panic("Router is missing")
	}
	if bb.Media == nil {
		panic("Media is missing")
	}
	if len(bb.JwtSecret) == 0 {
		panic("JwtSecret is missing")
	}
	notifier := bb.Notifier
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	tokenValidity := bb.TokenValidity
	if tokenValidity == 0 {
		tokenValidity = 24 * time.Hour
	}

	b := &Backend{
		db:        bb.DB,
		router:    bb.Router,
		media:     bb.Media,
		notifier:  notifier,
		jwtSecret: bb.JwtSecret,
	}

	CreateSchema(bb.DB)

	b.router.Use(access.NewJwtMiddleware(bb.JwtSecret))
	access.HandleAuthorizationRoute(b.router)

	api := b.router.PathPrefix("/api").Subrouter()
	b.handleAuthRoutes(api, tokenValidity)
	b.handleCategoryRoutes(api)
	b.handleProductRoutes(api)
	b.handleOrderRoutes(api)
	b.handleUserRoutes(api)
	b.handleAnalyticsRoutes(api)
	b.handleStatsRoutes(api)
	return b
}

// CreateSchema creates the database relations for all four collections.
// It is idempotent and also used by the seed tool.
func CreateSchema(db *csql.DB) {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ` + db.Schema + `."user" (
  user_id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
  name varchar NOT NULL,
  email varchar NOT NULL UNIQUE,
  password varchar NOT NULL,
  role varchar NOT NULL DEFAULT 'staff',
  created_at timestamp NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ` + db.Schema + `.category (
  category_id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
  name varchar NOT NULL UNIQUE,
  description varchar NOT NULL DEFAULT '',
  created_at timestamp NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ` + db.Schema + `.product (
  product_id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
  name varchar NOT NULL,
  price numeric NOT NULL,
  description varchar NOT NULL DEFAULT '',
  category_id uuid NOT NULL,
  image varchar NOT NULL,
  stock integer NOT NULL DEFAULT 0,
  created_at timestamp NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS ` + db.Schema + `."order" (
  order_id uuid DEFAULT uuid_generate_v4() PRIMARY KEY,
  customer_name varchar NOT NULL,
  customer_email varchar NOT NULL,
  products jsonb NOT NULL,
  total_amount numeric NOT NULL,
  status varchar NOT NULL DEFAULT 'pending',
  created_at timestamp NOT NULL DEFAULT now()
);
`)
	if err != nil {
		panic(err)
	}
}

// authorized returns the caller's authorization, or writes a 401 response
// and returns nil when the request carries no valid credential.
func (b *Backend) authorized(w http.ResponseWriter, r *http.Request) *access.Authorization {
	auth := access.AuthorizationFromContext(r.Context())
	if auth == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	return auth
}

// notify publishes a change notification. Delivery is best-effort.
func (b *Backend) notify(r *http.Request, resource string, operation events.Operation, resourceID uuid.UUID) {
	b.notifier.Notify(r.Context(), events.Notification{
		Resource:   resource,
		Operation:  operation,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	})
	logger.FromContext(r.Context()).Debugf("notify %s %s %s", resource, operation, resourceID)
}
