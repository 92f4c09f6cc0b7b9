package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) exportCSV(c *gin.Context) {
	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	data, err := s.exporter.CSV(s.pricing.Records(recs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "csv export failed: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", attachment("csv"))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *Server) exportXLSX(c *gin.Context) {
	recs, err := s.store.LoadAll(c.Request.Context())
	if err != nil {
		s.storeError(c, "load", err)
		return
	}
	data, err := s.exporter.XLSX(s.pricing.Records(recs))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "xlsx export failed: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", attachment("xlsx"))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func attachment(ext string) string {
	return fmt.Sprintf(`attachment; filename="rate_confirmations_%s.%s"`,
		time.Now().UTC().Format("2006-01-02"), ext)
}
