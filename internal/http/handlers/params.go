package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fardapack/fardapack-crm/domain"
)

// DateLayout is the wire format of date-only values
const DateLayout = "2006-01-02"

// maxPageSize caps list responses
const maxPageSize = 500

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrValidation, c.Param("id"))
	}
	return uint(id), nil
}

// queryList accepts both repeated keys and comma separated values
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func queryEnums[T ~string](c *gin.Context, key string) []T {
	raw := queryList(c, key)
	if len(raw) == 0 {
		return nil
	}
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = T(v)
	}
	return out
}

func queryUint(c *gin.Context, key string) (*uint, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrValidation, key)
	}
	u := uint(v)
	return &u, nil
}

func queryUints(c *gin.Context, key string) ([]uint, error) {
	raw := queryList(c, key)
	out := make([]uint, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be numbers", domain.ErrValidation, key)
		}
		out = append(out, uint(v))
	}
	return out, nil
}

func queryDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", domain.ErrValidation, key)
	}
	return &t, nil
}

func queryRange(c *gin.Context, fromKey, toKey string) (domain.DateRange, error) {
	from, err := queryDate(c, fromKey)
	if err != nil {
		return domain.DateRange{}, err
	}
	to, err := queryDate(c, toKey)
	if err != nil {
		return domain.DateRange{}, err
	}
	return domain.DateRange{From: from, To: to}, nil
}

func queryBool(c *gin.Context, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrValidation, key)
	}
	return &b, nil
}

func queryPage(c *gin.Context) (domain.Page, error) {
	var p domain.Page
	for key, dst := range map[string]*int{"limit": &p.Limit, "offset": &p.Offset} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return domain.Page{}, fmt.Errorf("%w: %s must be a non-negative number", domain.ErrValidation, key)
		}
		*dst = v
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	return p, nil
}

// parseDay reads an optional date-only body field
func parseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	return t, nil
}
