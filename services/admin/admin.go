// The admin service is the REST backend of the shop administration
// dashboard.
package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/shopadmin/core/backend"
	"github.com/relabs-tech/shopadmin/core/csql"
	"github.com/relabs-tech/shopadmin/core/events"
	"github.com/relabs-tech/shopadmin/core/logger"
	"github.com/relabs-tech/shopadmin/core/media"
)

// Service holds the configuration for this service
//
// use POSTGRES="host=localhost port=5432 user=postgres password=docker dbname=postgres sslmode=disable"
type Service struct {
	Postgres         string `env:"POSTGRES,required" description:"the connection string for the Postgres DB"`
	PostgresPassword string `env:"POSTGRES_PASSWORD,optional" description:"password for the Postgres DB, added to the connection string"`
	JwtSecret        string `env:"JWT_SECRET,required" description:"secret for signing and verifying bearer tokens"`
	Port             string `env:"PORT,default=3000" description:"the port this service listens on"`
	LogLevel         string `env:"LOG_LEVEL,default=info" description:"one of panic, fatal, error, warn, info, debug, trace"`
	KafkaBrokers     string `env:"KAFKA_BROKERS,optional" description:"comma separated list of Kafka brokers, notifications are disabled when empty"`
	KafkaTopic       string `env:"KAFKA_TOPIC,default=shopadmin-events" description:"the Kafka topic for change notifications"`
	Media            media.S3Configuration
}

func main() {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		panic(err)
	}

	logLevel, err := logrus.ParseLevel(service.LogLevel)
	if err != nil {
		panic(err)
	}
	logger.InitLogger(logLevel)

	db := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, "shopadmin")
	defer db.Close()

	mediaStore, err := media.NewS3(service.Media)
	if err != nil {
		panic(err)
	}

	var notifier events.Notifier
	if service.KafkaBrokers != "" {
		kafkaNotifier := events.NewKafkaNotifier(strings.Split(service.KafkaBrokers, ","), service.KafkaTopic)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	router := mux.NewRouter()
	logger.AddRequestID(router)
	backend.New(&backend.Builder{
		DB:        db,
		Router:    router,
		Media:     mediaStore,
		JwtSecret: []byte(service.JwtSecret),
		Notifier:  notifier,
	})

	handler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handlers.CompressHandler(router))

	logger.Default().Infoln("listen on port :" + service.Port)
	logger.Default().Fatal(http.ListenAndServe(":"+service.Port, handler))
}
