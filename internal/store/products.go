// ABOUTME: Product listing persistence methods for the SQLite store
// ABOUTME: Image URL lists are stored as JSON text columns

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CreateProduct inserts a new product listing.
func (s *SQLiteStore) CreateProduct(ctx context.Context, product *Product) error {
	imagesJSON, err := json.Marshal(product.Images)
	if err != nil {
		return fmt.Errorf("encoding images: %w", err)
	}

	query := `
		INSERT INTO products (id, title, description, quantity, price, category, location, images, seller_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, query,
		product.ID,
		product.Title,
		product.Description,
		product.Quantity,
		product.Price,
		product.Category,
		product.Location,
		string(imagesJSON),
		product.SellerEmail,
		product.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}

	s.logger.Debug("created product", "id", product.ID, "seller", product.SellerEmail)
	return nil
}

// ListProducts returns all product listings, newest first.
func (s *SQLiteStore) ListProducts(ctx context.Context) ([]*Product, error) {
	query := `
		SELECT id, title, description, quantity, price, category, location, images, seller_email, created_at
		FROM products
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListProductsBySeller returns product listings for one seller, newest first.
func (s *SQLiteStore) ListProductsBySeller(ctx context.Context, sellerEmail string) ([]*Product, error) {
	query := `
		SELECT id, title, description, quantity, price, category, location, images, seller_email, created_at
		FROM products
		WHERE seller_email = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, sellerEmail)
	if err != nil {
		return nil, fmt.Errorf("listing products by seller: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) ([]*Product, error) {
	var products []*Product
	for rows.Next() {
		var p Product
		var imagesJSON, createdAtStr string

		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Quantity,
			&p.Price,
			&p.Category,
			&p.Location,
			&imagesJSON,
			&p.SellerEmail,
			&createdAtStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		if err := json.Unmarshal([]byte(imagesJSON), &p.Images); err != nil {
			return nil, fmt.Errorf("decoding images: %w", err)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}

	return products, nil
}
