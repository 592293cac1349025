package params

import "strconv"

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 20
	MaxPageSize       = 100
)

// QueryParams carries common list-endpoint parameters.
type QueryParams struct {
	PageNumber int
	PageSize   int
	Search     string
}

// NewQueryParams parses paging parameters from their raw query-string form,
// falling back to defaults for anything missing or malformed.
func NewQueryParams(pageNumber, pageSize, search string) QueryParams {
	p := QueryParams{
		PageNumber: DefaultPageNumber,
		PageSize:   DefaultPageSize,
		Search:     search,
	}
	if n, err := strconv.Atoi(pageNumber); err == nil && n > 0 {
		p.PageNumber = n
	}
	if n, err := strconv.Atoi(pageSize); err == nil && n > 0 {
		p.PageSize = n
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}
