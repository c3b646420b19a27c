package domain

import (
	"math"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	dErrors "yksilo/pkg/domain-errors"
)

const (
	// DefaultPageSize is used when a request does not name a size.
	DefaultPageSize = 20
	// DefaultMaxPageSize is the upper bound on page size unless configured otherwise.
	DefaultMaxPageSize = 1000
)

// PageRequest identifies a zero-based page of a listing.
type PageRequest struct {
	Sivu int `json:"sivu"`
	Koko int `json:"koko"`
}

// Validate checks the request against maxSize. It must run before any data is
// fetched. Errors carry CodeValidation with one detail per offending field.
// Sivu is bounded so that Offset()+Koko fits in an int.
func (r PageRequest) Validate(maxSize int) error {
	maxSivu := math.MaxInt
	if r.Koko > 0 {
		maxSivu = math.MaxInt/r.Koko - 1
	}
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Sivu, validation.Min(0), validation.Max(maxSivu)),
		validation.Field(&r.Koko, validation.Required, validation.Min(1), validation.Max(maxSize)),
	)
	if err == nil {
		return nil
	}
	return dErrors.WithDetails(dErrors.CodeValidation, "invalid page request", validationDetails(err)...)
}

// Offset is the number of rows preceding the page. Only a validated request
// is guaranteed not to overflow.
func (r PageRequest) Offset() int {
	return r.Sivu * r.Koko
}

// Page is one page of a listing together with the total size of the listing.
// The wire shape is {"maara": total, "sisalto": [...], "sivuja": pages}.
type Page[T any] struct {
	Maara   int64 `json:"maara"`
	Sisalto []T   `json:"sisalto"`
	Sivuja  int   `json:"sivuja"`
}

// Paginate assembles a page from a count query and a slice query. The caller
// has already validated req. Supplying more items than req.Koko is a contract
// violation and fails with CodeInvariantViolation rather than truncating.
func Paginate[T any](total int64, items []T, req PageRequest) (Page[T], error) {
	if req.Koko <= 0 {
		return Page[T]{}, dErrors.New(dErrors.CodeInvariantViolation, "page size must be positive")
	}
	if len(items) > req.Koko {
		return Page[T]{}, dErrors.New(dErrors.CodeInvariantViolation, "page holds more items than the page size")
	}
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(req.Koko) - 1) / int64(req.Koko))
	return Page[T]{Maara: total, Sisalto: items, Sivuja: pages}, nil
}

// MapPage converts the contents of a page, keeping its counts.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Sisalto))
	for _, item := range p.Sisalto {
		out = append(out, fn(item))
	}
	return Page[U]{Maara: p.Maara, Sisalto: out, Sivuja: p.Sivuja}
}

func validationDetails(err error) []string {
	errs, ok := err.(validation.Errors)
	if !ok {
		return []string{err.Error()}
	}
	details := make([]string, 0, len(errs))
	for field, fieldErr := range errs {
		details = append(details, field+": "+fieldErr.Error())
	}
	sort.Strings(details)
	return details
}
