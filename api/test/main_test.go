package test

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/ory/dockertest/v3"
	"github.com/rfebrian/storefront/api"
	"github.com/rfebrian/storefront/config"
	"github.com/rfebrian/storefront/core/cart"
	"github.com/rfebrian/storefront/core/claims"
	"github.com/rfebrian/storefront/core/driver"
	"github.com/rfebrian/storefront/core/product"
	"github.com/rfebrian/storefront/core/user"
	"github.com/rfebrian/storefront/database"
	"github.com/rfebrian/storefront/validate"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	pool     *dockertest.Pool
	resource *dockertest.Resource
	pgHost   string
)

const (
	pgUser = "postgres"
	pgPass = "postgres"
)

func TestMain(m *testing.M) {
	code, err := run(m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		code = 1
	}
	os.Exit(code)
}

func run(m *testing.M) (int, error) {
	flag.Parse()
	if testing.Short() {
		return m.Run(), nil
	}

	var err error
	pool, err = dockertest.NewPool("")
	if err != nil {
		return 0, fmt.Errorf("connecting to docker: %w", err)
	}

	resource, err = pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=" + pgUser,
		"POSTGRES_PASSWORD=" + pgPass,
	})
	if err != nil {
		return 0, fmt.Errorf("starting postgres container: %w", err)
	}
	defer pool.Purge(resource)

	pgHost = resource.GetHostPort("5432/tcp")

	pool.MaxWait = 2 * time.Minute
	err = pool.Retry(func() error {
		db, err := database.Open(config.DB{
			User:       pgUser,
			Password:   pgPass,
			Host:       pgHost,
			Name:       "postgres",
			DisableTLS: true,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		return db.Ping()
	})
	if err != nil {
		return 0, fmt.Errorf("waiting for postgres: %w", err)
	}

	return m.Run(), nil
}

type TestEnv struct {
	T      *testing.T
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	UserEmail  string
	UserPass   string
	AdminEmail string
	AdminPass  string

	client *http.Client
}

// NewTestEnv creates a fresh database named after the test, migrates
// it, seeds one regular user and one admin, and serves the full API
// mux on an httptest server with a cookie-jar client.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	if pool == nil {
		t.Skip("docker not available")
	}

	admin, err := database.Open(config.DB{
		User: pgUser, Password: pgPass, Host: pgHost, Name: "postgres", DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to admin db: %w", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + name); err != nil {
		return nil, fmt.Errorf("creating database %s: %w", name, err)
	}

	db, err := database.Open(config.DB{
		User: pgUser, Password: pgPass, Host: pgHost, Name: name, DisableTLS: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", name, err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating %s: %w", name, err)
	}

	env := &TestEnv{
		T:          t,
		DB:         db,
		UserEmail:  "user@test.com",
		UserPass:   "userpassword",
		AdminEmail: "admin@test.com",
		AdminPass:  "adminpassword",
	}

	if err := env.seedUser(env.UserEmail, env.UserPass, claims.RoleUser); err != nil {
		return nil, err
	}
	if err := env.seedUser(env.AdminEmail, env.AdminPass, claims.RoleAdmin); err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)

	session := scs.New()
	session.Lifetime = time.Hour

	products, err := product.NewCache(db, 64)
	if err != nil {
		return nil, err
	}

	mux := api.APIMux(api.APIConfig{
		Log:       log,
		DB:        db,
		Session:   session,
		Carts:     cart.NewService(cart.NewSQLStore(db), cart.SQLCatalog{DB: db}),
		Products:  products,
		Positions: driver.NewHub(),
	})

	env.Server = httptest.NewServer(mux)
	env.URL = env.Server.URL
	t.Cleanup(func() {
		env.Server.Close()
		db.Close()
	})

	return env, nil
}

func (e *TestEnv) seedUser(email string, pass string, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.MinCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return user.Create(context.Background(), e.DB, user.User{
		ID:           validate.GenerateID(),
		Name:         email,
		Email:        email,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

// Client returns an http client that keeps session cookies between
// requests, lazily building one per env.
func (e *TestEnv) Client() *http.Client {
	if e.client == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			e.T.Fatal(err)
		}
		e.client = &http.Client{Jar: jar}
	}
	return e.client
}

// ResetClient drops the cookie jar, simulating a brand new visitor.
func (e *TestEnv) ResetClient() {
	e.client = nil
}

func (e *TestEnv) Login(email string, pass string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": pass})
	if err != nil {
		return err
	}

	w, err := e.Client().Post(e.URL+"/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func (e *TestEnv) Logout() error {
	w, err := e.Client().Post(e.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

// do sends a JSON request with the env client and decodes the reply
// into out when it is non-nil.
func (e *TestEnv) do(method string, path string, in any, out any) (int, error) {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	r, err := http.NewRequest(method, e.URL+path, body)
	if err != nil {
		return 0, err
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := e.Client().Do(r)
	if err != nil {
		return 0, err
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			return w.StatusCode, fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}

	return w.StatusCode, nil
}
