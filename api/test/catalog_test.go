package test

import (
	"net/http"
	"testing"

	"github.com/rfebrian/storefront/core/brand"
	"github.com/rfebrian/storefront/core/category"
	"github.com/rfebrian/storefront/validate"
)

func TestCatalogShowByID(t *testing.T) {
	env, err := NewTestEnv(t, "catalog_show")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.Login(env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}

	var b brand.Brand
	status, err := env.do(http.MethodPost, "/brands", map[string]string{
		"name": "Acme", "slug": "acme",
	}, &b)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating brand: status %d", status)
	}

	var c category.Category
	status, err = env.do(http.MethodPost, "/categories", map[string]string{
		"name": "Shoes", "slug": "shoes",
	}, &c)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating category: status %d", status)
	}

	var gotBrand brand.Brand
	status, err = env.do(http.MethodGet, "/brands/"+b.ID, nil, &gotBrand)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || gotBrand.ID != b.ID || gotBrand.Name != "Acme" {
		t.Fatalf("show brand: status %d, body %+v", status, gotBrand)
	}

	var gotCat category.Category
	status, err = env.do(http.MethodGet, "/categories/"+c.ID, nil, &gotCat)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || gotCat.ID != c.ID || gotCat.Name != "Shoes" {
		t.Fatalf("show category: status %d, body %+v", status, gotCat)
	}

	status, err = env.do(http.MethodGet, "/brands/"+validate.GenerateID(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNotFound {
		t.Fatalf("show unknown brand: status %d, want 404", status)
	}
}
