package model

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Pagination is the metadata returned with every list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total items.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// OfferFilter narrows an offer listing. Empty ids mean no restriction.
type OfferFilter struct {
	SalonID    string
	ProductID  string
	ServiceID  string
	ActiveOnly bool
	Page       int
	Limit      int
}

// Normalize applies the default page and limit and caps the limit.
func (f OfferFilter) Normalize() OfferFilter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f OfferFilter) Offset() int {
	n := f.Normalize()
	return (n.Page - 1) * n.Limit
}

// Values encodes the filter as query parameters, omitting unset fields.
func (f OfferFilter) Values() url.Values {
	q := url.Values{}
	if f.SalonID != "" {
		q.Set("salonId", f.SalonID)
	}
	if f.ProductID != "" {
		q.Set("productId", f.ProductID)
	}
	if f.ServiceID != "" {
		q.Set("serviceId", f.ServiceID)
	}
	if f.ActiveOnly {
		q.Set("activeOnly", "true")
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// Envelope is the JSON shape of every response.
type Envelope struct {
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      string      `json:"error,omitempty"`
}
