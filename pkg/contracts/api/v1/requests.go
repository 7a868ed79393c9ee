// Package api contains the request and response contracts of the dataset
// dashboard API. Version v1 is the current stable API version.
package api

// PaginationRequest selects a window of rows and their order.
type PaginationRequest struct {
	Offset int    `json:"offset" query:"offset" validate:"min=0"`
	Limit  int    `json:"limit" query:"limit" validate:"min=0"`
	SortBy string `json:"sort_by,omitempty" query:"sort_by"`
	Order  string `json:"order,omitempty" query:"order" validate:"omitempty,oneof=asc desc"`
}

// Descending reports whether rows are requested in descending order.
func (p PaginationRequest) Descending() bool { return p.Order == "desc" }

// AggregationInput requests metrics over one column.
type AggregationInput struct {
	Column  string   `json:"column" validate:"required"`
	Metrics []string `json:"metrics" validate:"required,min=1,dive,oneof=sum mean count min max std var median nunique"`
}

// AggregateRequest groups the dataset and computes metrics per group. The
// groups are paged with Offset and Limit.
type AggregateRequest struct {
	Keys         []string           `json:"keys"`
	Aggregations []AggregationInput `json:"aggregations" validate:"required,min=1,dive"`
	SortBy       string             `json:"sort_by,omitempty"`
	Descending   bool               `json:"descending,omitempty"`
	Offset       int                `json:"offset,omitempty" validate:"min=0"`
	Limit        int                `json:"limit,omitempty" validate:"min=0"`
}

// PredicateInput is one row filter condition.
type PredicateInput struct {
	Column   string        `json:"column" validate:"required"`
	Op       string        `json:"op" validate:"required,oneof=in not-in equals between not-null"`
	Values   []interface{} `json:"values,omitempty"`
	Min      interface{}   `json:"min,omitempty"`
	Max      interface{}   `json:"max,omitempty"`
	KeepNull bool          `json:"keep_null,omitempty"`
}

// FilterRequest returns the rows matching every predicate.
type FilterRequest struct {
	Predicates []PredicateInput `json:"predicates" validate:"required,min=1,dive"`
	Offset     int              `json:"offset" validate:"min=0"`
	Limit      int              `json:"limit" validate:"min=0"`
}

// PivotRequest cross tabulates two key columns. The pivot rows are paged
// with Offset and Limit.
type PivotRequest struct {
	Row    string `json:"row" validate:"required"`
	Column string `json:"column" validate:"required,nefield=Row"`
	Value  string `json:"value" validate:"required"`
	Metric string `json:"metric,omitempty" validate:"omitempty,oneof=sum mean count min max std var median nunique"`
	Offset int    `json:"offset,omitempty" validate:"min=0"`
	Limit  int    `json:"limit,omitempty" validate:"min=0"`
}
