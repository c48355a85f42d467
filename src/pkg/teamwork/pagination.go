package teamwork

import (
	"context"
	"net/url"
	"strconv"

	"github.com/tuumbleweed/xerr"

	"teamwork-invoicer/src/pkg/util"
)

// Page describes the X-Page, X-Pages and X-Records headers of a paged response.
type Page struct {
	Page    int
	Pages   int
	Records int
}

/*
readPage reads the pagination headers. Missing or malformed headers mean a single page.
*/
func readPage(resp response) Page {
	page := Page{Page: 1, Pages: 1, Records: -1}
	if resp.Header == nil {
		return page
	}
	if n, err := strconv.Atoi(resp.Header.Get("X-Page")); err == nil && n > 0 {
		page.Page = n
	}
	if n, err := strconv.Atoi(resp.Header.Get("X-Pages")); err == nil && n > 0 {
		page.Pages = n
	}
	if n, err := strconv.Atoi(resp.Header.Get("X-Records")); err == nil {
		page.Records = n
	}
	return page
}

/*
getPaged fetches the first page without a page parameter, then pages current+1..X-Pages,
waiting pageDelay before each of them, and concatenates body[key] of every page.

STATUS must be OK on every page.
*/
func getPaged[T any](ctx context.Context, c *Client, path string, query url.Values, key string) (items []T, e *xerr.Error) {
	firstQuery := cloneQuery(query)
	firstQuery.Set("pageSize", strconv.Itoa(c.pageSize))

	resp, e := c.do(ctx, "GET", path, firstQuery, nil)
	if e != nil {
		return nil, e
	}
	e = c.decodeKey(resp, key, true, &items)
	if e != nil {
		return nil, e
	}

	page := readPage(resp)
	c.log.Debug("%s: page %d of %d, %d records", path, page.Page, page.Pages, page.Records)

	for i := page.Page; i < page.Pages; i++ {
		sleepErr := util.SleepContext(ctx, c.pageDelay)
		if sleepErr != nil {
			return nil, xerr.NewError(sleepErr, "Paging interrupted", path)
		}

		pageQuery := cloneQuery(firstQuery)
		pageQuery.Set("page", strconv.Itoa(i+1))
		resp, e = c.do(ctx, "GET", path, pageQuery, nil)
		if e != nil {
			return nil, e
		}
		var pageItems []T
		e = c.decodeKey(resp, key, true, &pageItems)
		if e != nil {
			return nil, e
		}
		items = append(items, pageItems...)
	}
	return items, nil
}

func cloneQuery(query url.Values) url.Values {
	cloned := url.Values{}
	for k, v := range query {
		cloned[k] = append([]string(nil), v...)
	}
	return cloned
}
