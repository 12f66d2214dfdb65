package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Book represents a catalog record
type Book struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Genre     string    `json:"genre"`
	Rating    *float64  `json:"rating,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateBookRequest is the request body for POST /books
type CreateBookRequest struct {
	Title  string         `json:"title"`
	Author string         `json:"author"`
	Genre  string         `json:"genre"`
	Rating OptionalRating `json:"rating"`
}

// OptionalRating accepts a JSON number, a numeric string, null or an empty string.
//
// The browser form posts ratings as strings, so "4" and 4 are both valid.
// Set is false when the field was absent, null or "".
// Invalid is true when a string value could not be parsed as a number.
type OptionalRating struct {
	Value   float64
	Set     bool
	Invalid bool
}

// Rating builds a set OptionalRating
func Rating(v float64) OptionalRating {
	return OptionalRating{Value: v, Set: true}
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalRating) UnmarshalJSON(data []byte) error {
	*o = OptionalRating{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			o.Set = true
			o.Invalid = true
			return nil
		}
		o.Value = v
		o.Set = true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("rating must be a number: %w", err)
	}
	o.Value = v
	o.Set = true
	return nil
}

// MarshalJSON implements json.Marshaler
func (o OptionalRating) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// BookFilter holds optional listing constraints.
// Nil or empty fields mean "no constraint".
type BookFilter struct {
	Genre     string
	MinRating *float64
	Search    string
}

// Pagination holds a normalized page request
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the number of records to skip.
// It saturates at math.MaxInt instead of overflowing for very large pages.
func (p Pagination) Offset() int {
	if p.Page <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// BookListResponse is returned by GET /books
type BookListResponse struct {
	Books       []Book `json:"books"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}

// BookQuery holds the raw GET /books query parameters
type BookQuery struct {
	Page   string
	Limit  string
	Genre  string
	Rating string
	Search string
}
