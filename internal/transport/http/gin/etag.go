package httpgin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeJSONWithETag writes v with a weak ETag and asks clients to
// revalidate. A matching If-None-Match yields 304 without a body.
func writeJSONWithETag(c *gin.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	sum := sha256.Sum256(b)
	tag := `W/"` + hex.EncodeToString(sum[:16]) + `"`

	c.Header("ETag", tag)
	c.Header("Cache-Control", "no-cache")

	if c.GetHeader("If-None-Match") == tag {
		c.Status(http.StatusNotModified)
		return nil
	}

	c.Data(status, "application/json; charset=utf-8", b)
	return nil
}
