package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/louisbranch/outreach/internal/services/outreach/segment"
)

// PutCustomer inserts or replaces one customer record and its purchases.
func (s *Store) PutCustomer(ctx context.Context, customer segment.Customer) error {
	return s.PutCustomers(ctx, []segment.Customer{customer})
}

// PutCustomers inserts or replaces customers in one transaction. New customers
// are appended to the store order; existing ones keep their position.
func (s *Store) PutCustomers(ctx context.Context, customers []segment.Customer) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	for _, customer := range customers {
		if strings.TrimSpace(customer.ID) == "" {
			return fmt.Errorf("customer id is required")
		}
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, customer := range customers {
			if err := putCustomer(ctx, tx, customer); err != nil {
				return err
			}
		}
		return nil
	})
}

func putCustomer(ctx context.Context, exec sqlExecer, customer segment.Customer) error {
	interests := customer.Interests
	if interests == nil {
		interests = []string{}
	}
	interestsJSON, err := json.Marshal(interests)
	if err != nil {
		return fmt.Errorf("marshal interests: %w", err)
	}
	customerID := strings.TrimSpace(customer.ID)
	if _, err := exec.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, age, location, interests_json)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   email = excluded.email,
		   age = excluded.age,
		   location = excluded.location,
		   interests_json = excluded.interests_json`,
		customerID,
		customer.Name,
		customer.Email,
		customer.Age,
		customer.Location,
		string(interestsJSON),
	); err != nil {
		return fmt.Errorf("put customer %s: %w", customerID, err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM customer_purchases WHERE customer_id = ?`, customerID); err != nil {
		return fmt.Errorf("clear purchases for %s: %w", customerID, err)
	}
	for i, purchase := range customer.Purchases {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO customer_purchases (customer_id, position, amount, purchased_at, category)
			 VALUES (?, ?, ?, ?, ?)`,
			customerID,
			i,
			purchase.Amount,
			toMillis(purchase.At),
			purchase.Category,
		); err != nil {
			return fmt.Errorf("put purchase %d for %s: %w", i, customerID, err)
		}
	}
	return nil
}

// ListCustomers returns every customer in insertion order.
func (s *Store) ListCustomers(ctx context.Context) ([]segment.Customer, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, email, age, location, interests_json
		   FROM customers
		  ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := []segment.Customer{}
	index := map[string]int{}
	for rows.Next() {
		customer, err := scanCustomer(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list customers: %w", err)
		}
		index[customer.ID] = len(customers)
		customers = append(customers, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	purchaseRows, err := s.sqlDB.QueryContext(ctx,
		`SELECT customer_id, amount, purchased_at, category
		   FROM customer_purchases
		  ORDER BY customer_id ASC, position ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer purchaseRows.Close()
	for purchaseRows.Next() {
		var customerID string
		var purchase segment.Purchase
		var purchasedAt int64
		if err := purchaseRows.Scan(&customerID, &purchase.Amount, &purchasedAt, &purchase.Category); err != nil {
			return nil, fmt.Errorf("list purchases: %w", err)
		}
		purchase.At = fromMillis(purchasedAt)
		if i, ok := index[customerID]; ok {
			customers[i].Purchases = append(customers[i].Purchases, purchase)
		}
	}
	if err := purchaseRows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return customers, nil
}

func scanCustomer(scan scanner) (segment.Customer, error) {
	var customer segment.Customer
	var interestsJSON string
	if err := scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Age,
		&customer.Location,
		&interestsJSON,
	); err != nil {
		return segment.Customer{}, err
	}
	if err := json.Unmarshal([]byte(interestsJSON), &customer.Interests); err != nil {
		return segment.Customer{}, fmt.Errorf("decode interests for %s: %w", customer.ID, err)
	}
	return customer, nil
}

var _ segment.CustomerStore = (*Store)(nil)
