package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// flushWriter records writes and flushes; with broken set every write fails.
type flushWriter struct {
	header  http.Header
	body    strings.Builder
	flushes int
	broken  bool
}

func (w *flushWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *flushWriter) WriteHeader(int) {}

func (w *flushWriter) Write(p []byte) (int, error) {
	if w.broken {
		return 0, errors.New("write: broken pipe")
	}
	return w.body.Write(p)
}

func (w *flushWriter) Flush() { w.flushes++ }

func failingStream(chunks ...string) *llm.Stream {
	i := 0
	return llm.NewStream(func() (string, error) {
		if i < len(chunks) {
			i++
			return chunks[i-1], nil
		}
		return "", models.NewError(models.KindModelUnavailable, "model connection dropped", nil)
	}, nil)
}

func TestWriteStream_ErrorLine(t *testing.T) {
	tests := []struct {
		name        string
		broken      bool
		wantBody    string
		wantFlushes int
	}{
		{"error line appended and flushed", false, "partial\n[error] model connection dropped", 3},
		{"undeliverable error line is not flushed", true, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &flushWriter{broken: tt.broken}
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/analyze?stream=true", nil)

			var s *llm.Stream
			if tt.broken {
				s = failingStream()
			} else {
				s = failingStream("partial")
			}
			writeStream(c, s)

			if got := w.body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if w.flushes != tt.wantFlushes {
				t.Errorf("flushes = %d, want %d", w.flushes, tt.wantFlushes)
			}
		})
	}
}
