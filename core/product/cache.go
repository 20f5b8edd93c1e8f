package product

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jmoiron/sqlx"
)

// Cache fronts product reads with a bounded LRU. Writes go around it
// and invalidate the touched entry.
type Cache struct {
	db  *sqlx.DB
	lru *lru.Cache[string, Product]
}

func NewCache(db *sqlx.DB, size int) (*Cache, error) {
	l, err := lru.New[string, Product](size)
	if err != nil {
		return nil, fmt.Errorf("building product lru: %w", err)
	}

	return &Cache{db: db, lru: l}, nil
}

func (c *Cache) Fetch(ctx context.Context, id string) (Product, error) {
	if p, ok := c.lru.Get(id); ok {
		return p, nil
	}

	p, err := Fetch(ctx, c.db, id)
	if err != nil {
		return Product{}, err
	}

	c.lru.Add(id, p)
	return p, nil
}

func (c *Cache) Invalidate(id string) {
	c.lru.Remove(id)
}

// Warm loads the newest products into the cache. Meant to run as a
// background task at startup.
func (c *Cache) Warm(ctx context.Context) error {
	products, err := FetchAll(ctx, c.db)
	if err != nil {
		return fmt.Errorf("pre-warming product cache: %w", err)
	}

	for _, p := range products {
		c.lru.Add(p.ID, p)
	}

	return nil
}
