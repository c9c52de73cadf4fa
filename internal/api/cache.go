package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"pantry/internal/store"
)

// cached sets ETag and Last-Modified for doc and answers 304 when the
// request's conditional headers match. It reports whether the response has
// been written. Documents that cannot be stat'ed are served uncached.
func (h *Handler) cached(c *gin.Context, doc store.Doc, variant string) bool {
	info, err := h.Store.Version(doc)
	if err != nil {
		return false
	}
	etag := `"` + info.Variant(variant) + `"`
	c.Header("ETag", etag)
	c.Header("Last-Modified", info.ModTime.UTC().Format(http.TimeFormat))

	if match := c.GetHeader("If-None-Match"); match != "" {
		for _, tag := range strings.Split(match, ",") {
			tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
			if tag == etag || tag == "*" {
				c.AbortWithStatus(http.StatusNotModified)
				return true
			}
		}
		return false
	}
	if since := c.GetHeader("If-Modified-Since"); since != "" {
		t, err := http.ParseTime(since)
		if err == nil && !info.ModTime.Truncate(time.Second).After(t) {
			c.AbortWithStatus(http.StatusNotModified)
			return true
		}
	}
	return false
}
