// Package test contains the integration test suite. It starts a real
// Postgres container and exercises the backend through full HTTP round
// trips.
package test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relabs-tech/shopadmin/core/backend"
	"github.com/relabs-tech/shopadmin/core/csql"
)

// mediaStub is an in-memory media store. It records every upload and
// deletion and returns deterministic URLs.
type mediaStub struct {
	mu        sync.Mutex
	uploads   []string
	deletions []string
}

func (m *mediaStub) Upload(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, key)
	return "https://media.test/" + key, nil
}

func (m *mediaStub) Delete(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletions = append(m.deletions, url)
	return nil
}

// deleted returns the URLs removed from the store so far
func (m *mediaStub) deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.deletions...)
}

type IntegrationTestSuite struct {
	suite.Suite

	postgresContainer testcontainers.Container
	dbConn            *csql.DB
	router            *mux.Router
	srv               *httptest.Server
	media             *mediaStub

	// bearer token of the staff account created during setup
	token string
}

func (s *IntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	postgresUser := "testuser"
	postgresPassword := "testpass"
	postgresDB := "testdb"

	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     postgresUser,
			"POSTGRES_PASSWORD": postgresPassword,
			"POSTGRES_DB":       postgresDB,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	s.Require().NoError(err)
	s.postgresContainer = pgC

	pgHost, err := pgC.Host(ctx)
	s.Require().NoError(err)
	pgPort, err := pgC.MappedPort(ctx, "5432")
	s.Require().NoError(err)

	s.dbConn = csql.OpenWithSchema(fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		pgHost, pgPort.Port(), postgresUser, postgresDB), postgresPassword, "shopadmin_test")

	s.media = &mediaStub{}
	s.router = mux.NewRouter()
	backend.New(&backend.Builder{
		DB:        s.dbConn,
		Router:    s.router,
		Media:     s.media,
		JwtSecret: []byte("integration-test-secret"),
	})

	s.srv = httptest.NewServer(s.router)

	var response struct {
		Token string `json:"token"`
	}
	status := s.doRequest(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Suite Admin",
		"email":    "suite.admin@example.com",
		"password": "super-secret",
		"role":     "admin",
	}, &response)
	s.Require().Equal(http.StatusCreated, status)
	s.Require().NotEmpty(response.Token)
	s.token = response.Token
}

func (s *IntegrationTestSuite) TearDownSuite() {
	ctx := context.Background()
	if s.srv != nil {
		s.srv.Close()
	}
	if s.dbConn != nil {
		s.dbConn.Close()
	}
	if s.postgresContainer != nil {
		err := s.postgresContainer.Terminate(ctx)
		s.Require().NoError(err)
	}
}

// doRequest performs a JSON request against the running server and
// decodes the response into out (if non-nil). It returns the status code.
func (s *IntegrationTestSuite) doRequest(method, path, token string, body interface{}, out interface{}) int {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	request, err := http.NewRequest(method, s.srv.URL+path, reader)
	s.Require().NoError(err)
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer response.Body.Close()
	if out != nil {
		data, err := io.ReadAll(response.Body)
		s.Require().NoError(err)
		if len(data) > 0 {
			s.Require().NoError(json.Unmarshal(data, out), "body: %s", string(data))
		}
	}
	return response.StatusCode
}

// doMultipart performs a multipart form request with an optional image part
func (s *IntegrationTestSuite) doMultipart(method, path, token string, fields map[string]string, image []byte, out interface{}) int {
	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	for key, value := range fields {
		s.Require().NoError(writer.WriteField(key, value))
	}
	if image != nil {
		part, err := writer.CreateFormFile("image", "image.png")
		s.Require().NoError(err)
		_, err = part.Write(image)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	request, err := http.NewRequest(method, s.srv.URL+path, &buffer)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer response.Body.Close()
	if out != nil {
		data, err := io.ReadAll(response.Body)
		s.Require().NoError(err)
		if len(data) > 0 {
			s.Require().NoError(json.Unmarshal(data, out), "body: %s", string(data))
		}
	}
	return response.StatusCode
}
