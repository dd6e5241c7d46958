package entity

import (
	"fmt"
	"time"
)

// SearchCriteria describes one timeline query
type SearchCriteria struct {
	Wallet          string    `json:"wallet"`
	StartDate       string    `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate         string    `json:"end_date,omitempty"`   // YYYY-MM-DD
	ContractAddress string    `json:"contract_address,omitempty"`
	Filter          EventType `json:"filter,omitempty"` // successful, transfer or empty for both
	Page            int       `json:"page"`
}

const dateLayout = "2006-01-02"

// Validate checks the criteria and fills the default page
func (c *SearchCriteria) Validate() error {
	if c.Wallet == "" {
		return fmt.Errorf("%w: wallet is required", ErrInvalidCriteria)
	}
	if c.Page == 0 {
		c.Page = 1
	}
	if c.Page < 1 {
		return fmt.Errorf("%w: page must be at least 1", ErrInvalidCriteria)
	}
	switch c.Filter {
	case "", EventTypeSale, EventTypeTransfer:
	default:
		return fmt.Errorf("%w: filter must be %q or %q", ErrInvalidCriteria, EventTypeSale, EventTypeTransfer)
	}

	var start, end time.Time
	var err error
	if c.StartDate != "" {
		if start, err = time.Parse(dateLayout, c.StartDate); err != nil {
			return fmt.Errorf("%w: start_date must be YYYY-MM-DD", ErrInvalidCriteria)
		}
	}
	if c.EndDate != "" {
		if end, err = time.Parse(dateLayout, c.EndDate); err != nil {
			return fmt.Errorf("%w: end_date must be YYYY-MM-DD", ErrInvalidCriteria)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("%w: end_date is before start_date", ErrInvalidCriteria)
	}
	return nil
}
