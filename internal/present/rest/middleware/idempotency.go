package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	gocache "github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"
)

type storedResponse struct {
	status      int
	contentType string
	body        []byte
}

type captureWriter struct {
	http.ResponseWriter
	buf *bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response when the same Idempotency-Key
// and body arrive again within the store's TTL. Requests without the
// header pass through untouched, keeping the original retry-mints-a-new-id
// behavior for callers that do not opt in. Only successful responses are
// stored; a failed attempt may be retried with the same key.
func Idempotency(store *gocache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get("Idempotency-Key")
			if key == "" {
				return next(c)
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "could not read request body")
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			sum := xxh3.Hash128(append([]byte(key+"\x00"), body...))
			fingerprint := fmt.Sprintf("%016x%016x", sum.Hi, sum.Lo)

			if cached, found := store.Get(fingerprint); found {
				stored := cached.(storedResponse)
				return c.Blob(stored.status, stored.contentType, stored.body)
			}

			capture := &captureWriter{
				ResponseWriter: c.Response().Writer,
				buf:            &bytes.Buffer{},
			}
			c.Response().Writer = capture

			if err := next(c); err != nil {
				return err
			}

			if c.Response().Status == http.StatusOK {
				store.Set(fingerprint, storedResponse{
					status:      c.Response().Status,
					contentType: c.Response().Header().Get(echo.HeaderContentType),
					body:        capture.buf.Bytes(),
				}, gocache.DefaultExpiration)
			}

			return nil
		}
	}
}
