package application

import (
	"strconv"

	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
)

// Paging bounds for listings.
const (
	DefaultLimit = 10
	MaxLimit     = 1000
	MaxOffset    = 1_000_000
)

// ListInput carries a listing request: a filter expression and paging.
type ListInput struct {
	Query  string
	Limit  int
	Offset int
}

// ParseListInput builds a ListInput from raw query parameters. Empty values take the defaults.
func ParseListInput(lang, q, limit, offset string) (ListInput, error) {
	in := ListInput{Query: q, Limit: DefaultLimit}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 || n > MaxLimit {
			return in, domain.BadRequest(messages.Get(lang, messages.InvalidPaging, "limit", 1, MaxLimit))
		}
		in.Limit = n
	}
	if offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 || n > MaxOffset {
			return in, domain.BadRequest(messages.Get(lang, messages.InvalidPaging, "offset", 0, MaxOffset))
		}
		in.Offset = n
	}
	return in, nil
}

func (in ListInput) normalized() ListInput {
	if in.Limit < 1 || in.Limit > MaxLimit {
		in.Limit = DefaultLimit
	}
	if in.Offset < 0 || in.Offset > MaxOffset {
		in.Offset = 0
	}
	return in
}
