package request

import "strings"

// ByIDRequest is a common struct for endpoints that require an ID path parameter.
type ByIDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// Validate performs custom validation for ByIDRequest.
func (r *ByIDRequest) Validate() error {
	return nil
}

// ListParams carries the pagination and ordering query shared by list endpoints.
type ListParams struct {
	Page  int    `form:"page" binding:"omitempty,min=1"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Order string `form:"order" binding:"omitempty,oneof=ASC DESC asc desc"`
}

// Normalize applies defaults: page 1, limit 10, order DESC.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	p.Order = strings.ToUpper(p.Order)
	if p.Order != "ASC" {
		p.Order = "DESC"
	}
}
