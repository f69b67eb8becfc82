// Package server serves one analyzed coverage result over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/inodb/genecov/internal/coverage"
	"github.com/inodb/genecov/internal/report"
)

// View is the precomputed result served by the router. It is never
// modified after the router is built.
type View struct {
	Name    string // input base name, used for download file names
	Genes   []coverage.GeneCoverage
	Data    *report.Data
	Options report.Options
}

// GenesResponse is the body of GET /api/genes.
type GenesResponse struct {
	Sample    string         `json:"sample"`
	Threshold float64        `json:"threshold"`
	Total     int            `json:"total"`
	LowCount  int            `json:"low_count"`
	Mean      float64        `json:"mean_coverage"`
	Genes     []report.Entry `json:"genes"`
	Missing   []string       `json:"missing"`
}

// NewRouter builds the viewer routes.
func NewRouter(v *View, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/", func(c *gin.Context) {
		render(c, "text/html; charset=utf-8", "", func(w io.Writer) error {
			return report.WriteHTML(w, v.Data, v.Options)
		})
	})
	r.GET("/genes.csv", func(c *gin.Context) {
		column := c.DefaultQuery("column", report.ColumnPerc1x)
		if column != report.ColumnPerc1x && column != report.ColumnPct1x {
			c.String(http.StatusBadRequest, "unsupported column %q", column)
			return
		}
		render(c, "text/csv", report.ArtifactName(v.Name, "filtered", "csv"), func(w io.Writer) error {
			return report.WriteGenesCSV(w, v.Genes, column)
		})
	})
	r.GET("/report.docx", func(c *gin.Context) {
		render(c, "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			report.ArtifactName(v.Name, "report", "docx"), func(w io.Writer) error {
				return report.WriteDOCX(w, v.Data, v.Options)
			})
	})
	r.GET("/report.xlsx", func(c *gin.Context) {
		render(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			report.ArtifactName(v.Name, "report", "xlsx"), func(w io.Writer) error {
				return report.WriteXLSX(w, v.Data, v.Options)
			})
	})
	r.GET("/api/genes", func(c *gin.Context) {
		c.JSON(http.StatusOK, genesResponse(v, c.Query("q"), c.Query("low") == "true"))
	})
	return r
}

func genesResponse(v *View, query string, lowOnly bool) GenesResponse {
	resp := GenesResponse{
		Sample:    v.Name,
		Threshold: report.LowCoverageThreshold,
		Total:     v.Data.Total,
		LowCount:  v.Data.LowCount,
		Mean:      v.Data.MeanCoverage,
		Genes:     []report.Entry{},
		Missing:   v.Options.Missing,
	}
	if resp.Missing == nil {
		resp.Missing = []string{}
	}
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, e := range v.Data.Genes {
		if lowOnly && !e.Low {
			continue
		}
		if query != "" && !strings.Contains(strings.ToUpper(e.GeneID), query) {
			continue
		}
		resp.Genes = append(resp.Genes, e)
	}
	return resp
}

// render buffers the document so a rendering failure yields a clean 500.
func render(c *gin.Context, contentType, filename string, fn func(io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "render failed: %v", err)
		return
	}
	if filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			logger.Warn("request failed", append(fields, zap.String("error", c.Errors.String()))...)
			return
		}
		logger.Debug("request", fields...)
	}
}

// Serve runs the viewer on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.Info("viewer listening", zap.String("addr", "http://"+addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
