package search

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/matchmate/internal/client/models"
	"github.com/dmitrijs2005/matchmate/internal/common"
	"github.com/go-playground/validator/v10"
)

// Filter names.
const (
	FilterMinAge           = "minAge"
	FilterMaxAge           = "maxAge"
	FilterMinHeight        = "minHeight"
	FilterMaxHeight        = "maxHeight"
	FilterGender           = "gender"
	FilterCity             = "city"
	FilterCountry          = "country"
	FilterNationality      = "nationality"
	FilterEthnicity        = "ethnicity"
	FilterMaritalStatus    = "maritalStatus"
	FilterEducation        = "education"
	FilterReligiosityLevel = "religiosityLevel"
	FilterKeyword          = "keyword"
	FilterUserID           = "userId"
	FilterPageSize         = "pageSize"
)

// FilterNames lists every known filter in display order.
var FilterNames = []string{
	FilterMinAge, FilterMaxAge, FilterMinHeight, FilterMaxHeight,
	FilterGender, FilterCity, FilterCountry, FilterNationality, FilterEthnicity,
	FilterMaritalStatus, FilterEducation, FilterReligiosityLevel,
	FilterKeyword, FilterUserID, FilterPageSize,
}

var passthroughFilters = []string{
	FilterGender, FilterCity, FilterCountry, FilterNationality, FilterEthnicity,
	FilterMaritalStatus, FilterEducation, FilterReligiosityLevel,
	FilterKeyword, FilterUserID,
}

const (
	MinAge    = 18
	MaxAge    = 80
	MinHeight = 100
	MaxHeight = 250

	DefaultPageSize = 20

	anyValue = "all"
)

var (
	validate = validator.New()
	ageRule  = fmt.Sprintf("gte=%d,lte=%d", MinAge, MaxAge)
)

// IsKnownFilter reports whether name is one of FilterNames.
func IsKnownFilter(name string) bool {
	for _, n := range FilterNames {
		if n == name {
			return true
		}
	}
	return false
}

// BuildQuery validates f and turns it into request parameters for page.
// An age bound is required. Range checks apply when both bounds are given.
// Blank and "all" filters are omitted and heights are clamped.
func BuildQuery(f models.Filters, page, defaultPageSize int) (url.Values, error) {
	minAge, hasMin, err := parseInt(f, FilterMinAge)
	if err != nil {
		return nil, err
	}
	maxAge, hasMax, err := parseInt(f, FilterMaxAge)
	if err != nil {
		return nil, err
	}
	if !hasMin && !hasMax {
		return nil, common.NewValidationError("an age range is required", FilterMinAge, FilterMaxAge)
	}
	if hasMin && hasMax {
		var bad []string
		if validate.Var(minAge, ageRule) != nil {
			bad = append(bad, FilterMinAge)
		}
		if validate.Var(maxAge, ageRule) != nil {
			bad = append(bad, FilterMaxAge)
		}
		if len(bad) > 0 {
			return nil, common.NewValidationError(fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge), bad...)
		}
		if minAge > maxAge {
			return nil, common.NewValidationError("min age must not exceed max age", FilterMinAge, FilterMaxAge)
		}
	}

	q := url.Values{}
	if hasMin {
		q.Set(FilterMinAge, strconv.Itoa(minAge))
	}
	if hasMax {
		q.Set(FilterMaxAge, strconv.Itoa(maxAge))
	}

	minHeight, hasMinH, err := parseInt(f, FilterMinHeight)
	if err != nil {
		return nil, err
	}
	maxHeight, hasMaxH, err := parseInt(f, FilterMaxHeight)
	if err != nil {
		return nil, err
	}
	if hasMinH {
		minHeight = clamp(minHeight, MinHeight, MaxHeight)
		q.Set(FilterMinHeight, strconv.Itoa(minHeight))
	}
	if hasMaxH {
		maxHeight = clamp(maxHeight, MinHeight, MaxHeight)
		q.Set(FilterMaxHeight, strconv.Itoa(maxHeight))
	}
	if hasMinH && hasMaxH && minHeight > maxHeight {
		return nil, common.NewValidationError("min height must not exceed max height", FilterMinHeight, FilterMaxHeight)
	}

	for _, name := range passthroughFilters {
		v := strings.TrimSpace(f[name])
		if v == "" || strings.EqualFold(v, anyValue) {
			continue
		}
		q.Set(name, v)
	}

	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(PageSize(f, defaultPageSize)))
	return q, nil
}

// PageSize is the pageSize filter when it is a positive number, else def.
func PageSize(f models.Filters, def int) int {
	if n, ok, err := parseInt(f, FilterPageSize); err == nil && ok && n > 0 {
		return n
	}
	if def > 0 {
		return def
	}
	return DefaultPageSize
}

func parseInt(f models.Filters, name string) (int, bool, error) {
	v := strings.TrimSpace(f[name])
	if v == "" || strings.EqualFold(v, anyValue) {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, common.NewValidationError("must be a whole number", name)
	}
	return n, true, nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
