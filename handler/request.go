package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JairPrada/radarcol-tfm/model"
	"github.com/JairPrada/radarcol-tfm/service"
	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("bad request")

type listRequest struct {
	Filters  model.FilterCriteria
	Page     int
	PageSize int
	Limit    *int
}

// parseListRequest reads paging and filter parameters. Blank values count as absent.
func parseListRequest(c *gin.Context, defaultPageSize int) (listRequest, error) {
	req := listRequest{Page: 1, PageSize: defaultPageSize}
	var err error

	if v := queryValue(c, "page"); v != nil {
		if req.Page, err = strconv.Atoi(*v); err != nil || req.Page < 1 {
			return req, fmt.Errorf("%w: page must be a positive integer, got %q", errBadRequest, *v)
		}
	}
	if v := queryValue(c, "page_size"); v != nil {
		if req.PageSize, err = strconv.Atoi(*v); err != nil || req.PageSize < 1 {
			return req, fmt.Errorf("%w: page_size must be a positive integer, got %q", errBadRequest, *v)
		}
	}
	if v := queryValue(c, service.ParamLimit); v != nil {
		limit, err := strconv.Atoi(*v)
		if err != nil {
			return req, fmt.Errorf("%w: limit must be an integer, got %q", errBadRequest, *v)
		}
		req.Limit = &limit
	}

	f := &req.Filters
	if f.DateFrom, err = dateValue(c, service.ParamDateFrom); err != nil {
		return req, err
	}
	if f.DateTo, err = dateValue(c, service.ParamDateTo); err != nil {
		return req, err
	}
	if f.MinAmount, err = amountValue(c, service.ParamMinAmount); err != nil {
		return req, err
	}
	if f.MaxAmount, err = amountValue(c, service.ParamMaxAmount); err != nil {
		return req, err
	}
	f.TitleContains = queryValue(c, service.ParamTitleContains)
	f.ContractID = queryValue(c, service.ParamContractID)

	return req, nil
}

func queryValue(c *gin.Context, name string) *string {
	v, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func dateValue(c *gin.Context, name string) (*string, error) {
	v := queryValue(c, name)
	if v == nil {
		return nil, nil
	}
	if _, err := time.Parse("2006-01-02", *v); err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD, got %q", errBadRequest, name, *v)
	}
	return v, nil
}

func amountValue(c *gin.Context, name string) (*int64, error) {
	v := queryValue(c, name)
	if v == nil {
		return nil, nil
	}
	n, err := strconv.ParseInt(*v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a whole amount, got %q", errBadRequest, name, *v)
	}
	return &n, nil
}
