package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/croaudit/analysis"
	"github.com/use-agent/croaudit/llm"
	"github.com/use-agent/croaudit/models"
)

// Analyze returns a handler for POST /analyze.
//
// Flow:
//  1. Parse the request; "completion" is accepted as an alias of "text".
//  2. Resolve text (text wins, else fetch + extract the URL).
//  3. Call the model and either validate the full result or stream raw
//     chunks when ?stream=true or "stream": true.
func Analyze(p *analysis.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, badBody(err))
			return
		}

		in := analysis.AnalyzeInput{
			Text:    req.EffectiveText(),
			URL:     req.URL,
			Mission: req.Mission(),
		}

		if req.Stream || wantsStream(c) {
			s, err := p.AnalyzeStream(c.Request.Context(), in)
			if err != nil {
				respondError(c, err)
				return
			}
			writeStream(c, s)
			return
		}

		result, err := p.Analyze(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func wantsStream(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.Query("stream"))
	return err == nil && v
}

// writeStream copies model chunks to the response as they arrive. Once the
// first byte is written the status is fixed, so a later failure is appended
// as a final "[error]" line. A client disconnect closes the model stream.
func writeStream(c *gin.Context, s *llm.Stream) {
	defer s.Close()
	stop := context.AfterFunc(c.Request.Context(), s.Close)
	defer stop()

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	chunks := 0
	for {
		chunk, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if c.Request.Context().Err() != nil {
				slog.Info("analysis stream abandoned by client", "chunks", chunks)
				return
			}
			ae := models.AsAnalysisError(err)
			_ = c.Error(err)
			slog.Warn("analysis stream failed", "chunks", chunks, "code", ae.Kind, "error", err)
			if _, err := io.WriteString(c.Writer, "\n[error] "+ae.Message); err != nil {
				slog.Info("analysis stream error line not delivered", "error", err)
				return
			}
			c.Writer.Flush()
			return
		}
		if _, err := io.WriteString(c.Writer, chunk); err != nil {
			return
		}
		c.Writer.Flush()
		chunks++
	}
	slog.Debug("analysis stream complete", "chunks", chunks)
}
