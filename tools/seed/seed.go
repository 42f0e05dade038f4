// The seed tool fills the database with demo data: a staff account, a
// small catalogue and a year of randomized orders. All fixtures are
// checked against the built-in JSON schemas before insert.
package main

import (
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"golang.org/x/crypto/bcrypt"

	"github.com/relabs-tech/shopadmin/core/backend"
	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/schema"
)

// Service holds the configuration for this tool
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password for the Postgres DB, added to the connection string"`
	Schema           string `env:"SCHEMA,default=shopadmin" description:"the database schema to seed"`
	Orders           int    `env:"ORDERS,default=150" description:"number of randomized orders to create"`
	Clear            bool   `env:"CLEAR,default=false" description:"drop and recreate the schema before seeding"`
}

type categoryFixture struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productFixture struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Category    string  `json:"-"`
	CategoryID  string  `json:"category_id"`
	Image       string  `json:"image"`
	Stock       int     `json:"stock"`
}

var categoryFixtures = []categoryFixture{
	{"Electronics", "Gadgets, devices and accessories"},
	{"Clothing", "Apparel for all seasons"},
	{"Home & Kitchen", "Everything for the household"},
	{"Books", "Fiction and non-fiction"},
}

var productFixtures = []productFixture{
	{Name: "Wireless Headphones", Price: 89.99, Category: "Electronics", Stock: 45, Image: "https://picsum.photos/seed/headphones/640/480"},
	{Name: "Smart Watch", Price: 199.99, Category: "Electronics", Stock: 8, Image: "https://picsum.photos/seed/watch/640/480"},
	{Name: "Bluetooth Speaker", Price: 49.99, Category: "Electronics", Stock: 0, Image: "https://picsum.photos/seed/speaker/640/480"},
	{Name: "Cotton T-Shirt", Price: 19.99, Category: "Clothing", Stock: 120, Image: "https://picsum.photos/seed/tshirt/640/480"},
	{Name: "Denim Jacket", Price: 79.5, Category: "Clothing", Stock: 25, Image: "https://picsum.photos/seed/jacket/640/480"},
	{Name: "Chef Knife", Price: 64.95, Category: "Home & Kitchen", Stock: 14, Image: "https://picsum.photos/seed/knife/640/480"},
	{Name: "French Press", Price: 34.99, Category: "Home & Kitchen", Stock: 3, Image: "https://picsum.photos/seed/press/640/480"},
	{Name: "Mystery Novel", Price: 12.99, Category: "Books", Stock: 60, Image: "https://picsum.photos/seed/novel/640/480"},
	{Name: "Cookbook", Price: 24.99, Category: "Books", Stock: 10, Image: "https://picsum.photos/seed/cookbook/640/480"},
}

var customers = []struct{ Name, Email string }{
	{"Alice Martin", "alice.martin@example.com"},
	{"Bob Keller", "bob.keller@example.com"},
	{"Carla Jimenez", "carla.jimenez@example.com"},
	{"Daniel Osei", "daniel.osei@example.com"},
	{"Emma Larsen", "emma.larsen@example.com"},
	{"Farid Haddad", "farid.haddad@example.com"},
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}
	rlog := logger.Default()

	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, service.Schema)
	defer db.Close()
	if service.Clear {
		db.ClearSchema()
	}
	backend.CreateSchema(db)

	validator, err := schema.Builtin()
	if err != nil {
		panic(err)
	}

	// staff account
	user := map[string]interface{}{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": "changeme6",
		"role":     "admin",
	}
	if err := validator.ValidateStruct(user, schema.UserSchemaID); err != nil {
		panic(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(user["password"].(string)), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`INSERT INTO `+db.Schema+`."user" (name, email, password, role)
VALUES ($1, $2, $3, $4) ON CONFLICT (email) DO NOTHING;`,
		user["name"], user["email"], string(hash), user["role"])
	if err != nil {
		panic(err)
	}

	// catalogue
	categoryIDs := map[string]uuid.UUID{}
	for _, category := range categoryFixtures {
		fixture := map[string]interface{}{"name": category.Name, "description": category.Description}
		if err := validator.ValidateStruct(fixture, schema.CategorySchemaID); err != nil {
			panic(err)
		}
		var categoryID uuid.UUID
		err := db.QueryRow(`INSERT INTO `+db.Schema+`.category (name, description)
VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET description = $2
RETURNING category_id;`, category.Name, category.Description).Scan(&categoryID)
		if err != nil {
			panic(err)
		}
		categoryIDs[category.Name] = categoryID
	}

	type seededProduct struct {
		ID    uuid.UUID
		Price float64
	}
	var products []seededProduct
	for _, product := range productFixtures {
		product.CategoryID = categoryIDs[product.Category].String()
		if err := validator.ValidateStruct(product, schema.ProductSchemaID); err != nil {
			panic(err)
		}
		var productID uuid.UUID
		err := db.QueryRow(`INSERT INTO `+db.Schema+`.product (name, price, description, category_id, image, stock)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING product_id;`,
			product.Name, product.Price, product.Description, product.CategoryID,
			product.Image, product.Stock).Scan(&productID)
		if err != nil {
			panic(err)
		}
		products = append(products, seededProduct{ID: productID, Price: product.Price})
	}

	// a year of randomized orders
	statuses := []string{"pending", "shipped", "delivered", "delivered", "delivered"}
	now := time.Now()
	for i := 0; i < service.Orders; i++ {
		customer := customers[rand.Intn(len(customers))]
		lineCount := 1 + rand.Intn(3)
		total := 0.0
		lines := make([]map[string]interface{}, lineCount)
		for j := range lines {
			product := products[rand.Intn(len(products))]
			quantity := 1 + rand.Intn(5)
			total += product.Price * float64(quantity)
			lines[j] = map[string]interface{}{
				"product_id": product.ID.String(),
				"quantity":   quantity,
			}
		}
		order := map[string]interface{}{
			"customer_name":  customer.Name,
			"customer_email": customer.Email,
			"products":       lines,
			"total_amount":   total,
			"status":         statuses[rand.Intn(len(statuses))],
		}
		if err := validator.ValidateStruct(order, schema.OrderSchemaID); err != nil {
			panic(err)
		}
		linesJSON, _ := json.Marshal(lines)
		createdAt := now.Add(-time.Duration(rand.Intn(365*24)) * time.Hour)
		_, err := db.Exec(`INSERT INTO `+db.Schema+`."order" (customer_name, customer_email, products, total_amount, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`,
			order["customer_name"], order["customer_email"], linesJSON,
			order["total_amount"], order["status"], createdAt)
		if err != nil {
			panic(err)
		}
	}

	rlog.Infof("seeded %d categories, %d products, %d orders",
		len(categoryFixtures), len(products), service.Orders)
}
