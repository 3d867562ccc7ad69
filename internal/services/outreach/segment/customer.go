package segment

import (
	"time"
)

// Purchase is one entry of a customer's purchase history.
type Purchase struct {
	Amount   float64   `json:"amount" yaml:"amount"`
	At       time.Time `json:"timestamp" yaml:"timestamp"`
	Category string    `json:"category" yaml:"category"`
}

// Customer is the read-only customer record segments are evaluated against.
type Customer struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Email     string     `json:"email" yaml:"email"`
	Age       int        `json:"age" yaml:"age"`
	Location  string     `json:"location" yaml:"location"`
	Interests []string   `json:"interests" yaml:"interests"`
	Purchases []Purchase `json:"purchases" yaml:"purchases"`
}

// PurchaseTotal sums the purchase amounts.
func (c Customer) PurchaseTotal() float64 {
	var total float64
	for _, p := range c.Purchases {
		total += p.Amount
	}
	return total
}

// LastPurchaseAt returns the most recent purchase timestamp. Purchase history
// is not assumed to be sorted.
func (c Customer) LastPurchaseAt() (time.Time, bool) {
	var last time.Time
	for i, p := range c.Purchases {
		if i == 0 || p.At.After(last) {
			last = p.At
		}
	}
	return last, len(c.Purchases) > 0
}

// HasInterest reports whether tag is in the customer's interest set.
func (c Customer) HasInterest(tag string) bool {
	for _, interest := range c.Interests {
		if interest == tag {
			return true
		}
	}
	return false
}
