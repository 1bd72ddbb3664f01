// Package response writes the JSON envelope shared by every endpoint.
package response

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/userhub-backend/internal/query"
)

// Envelope is the body of every response. Meta and Links are only present on
// paginated responses.
type Envelope struct {
	Data    interface{}   `json:"data"`
	Message string        `json:"message"`
	Error   *string       `json:"error"`
	Errors  []interface{} `json:"errors"`
	Status  int           `json:"status"`
	Meta    *Meta         `json:"meta,omitempty"`
	Links   *Links        `json:"links,omitempty"`
}

type Meta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatEnvelope builds an envelope. An empty errCode yields a null error and
// a nil errs slice is emitted as [].
func FormatEnvelope(data interface{}, message, errCode string, errs []interface{}, status int) Envelope {
	env := Envelope{
		Data:    data,
		Message: message,
		Errors:  errs,
		Status:  status,
	}
	if errCode != "" {
		env.Error = &errCode
	}
	if env.Errors == nil {
		env.Errors = []interface{}{}
	}
	return env
}

// Success writes a non-paginated success envelope.
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, FormatEnvelope(data, message, "", nil, status))
}

// OK is Success with 200.
func OK(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusOK, message, data)
}

// Created is Success with 201.
func Created(c *gin.Context, message string, data interface{}) {
	Success(c, http.StatusCreated, message, data)
}

// Paginated writes a page of items with meta and links derived from the request URL.
func Paginated(c *gin.Context, message string, data interface{}, page *query.Page) {
	env := FormatEnvelope(data, message, "", nil, http.StatusOK)
	env.Meta = NewMeta(page)
	links := NewLinks(requestURL(c.Request), page)
	env.Links = &links
	c.JSON(http.StatusOK, env)
}

// Fail writes an error envelope with a null data field.
func Fail(c *gin.Context, status int, errCode, message string, errs []interface{}) {
	c.JSON(status, FormatEnvelope(nil, message, errCode, errs, status))
}

// AbortWithFail is Fail for middleware; it stops the handler chain.
func AbortWithFail(c *gin.Context, status int, errCode, message string) {
	c.AbortWithStatusJSON(status, FormatEnvelope(nil, message, errCode, nil, status))
}

func NewMeta(page *query.Page) *Meta {
	return &Meta{
		Total:       page.Total,
		PerPage:     page.PerPage,
		CurrentPage: page.CurrentPage,
		LastPage:    page.LastPage,
		From:        page.From,
		To:          page.To,
	}
}

// NewLinks builds page links from base, keeping its other query parameters.
func NewLinks(base *url.URL, page *query.Page) Links {
	links := Links{
		First: pageURL(base, 1),
		Last:  pageURL(base, page.LastPage),
	}
	if page.CurrentPage > 1 {
		prev := pageURL(base, page.CurrentPage-1)
		links.Prev = &prev
	}
	if page.CurrentPage < page.LastPage {
		next := pageURL(base, page.CurrentPage+1)
		links.Next = &next
	}
	return links
}

func pageURL(base *url.URL, page int) string {
	u := *base
	values := u.Query()
	values.Set(query.ParamPage, strconv.Itoa(page))
	u.RawQuery = values.Encode()
	return u.String()
}

func requestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}
