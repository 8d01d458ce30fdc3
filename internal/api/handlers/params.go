package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/salesdash/backend-go/internal/domain"
	"github.com/gin-gonic/gin"
)

// queryList supports both ?k=A&k=B and ?k=A,B.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		out = append(out, splitComma(v)...)
	}
	return out
}

func splitComma(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseBoolField reads the first value of a form field; absent means false.
func parseBoolField(values []string) (bool, error) {
	if len(values) == 0 || strings.TrimSpace(values[0]) == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(values[0]))
}

func partitionParam(c *gin.Context) (domain.Partition, error) {
	return domain.ParsePartition(c.Param("partition"))
}

func parsePositiveIntWithDefault(value string, fallback int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// parsePivotRequest reads closing, historical, total_averages and one list
// parameter per filter dimension.
func parsePivotRequest(c *gin.Context) (domain.PivotRequest, error) {
	closingRaw := strings.TrimSpace(c.Query("closing"))
	histRaw := strings.TrimSpace(c.Query("historical"))
	if closingRaw == "" || histRaw == "" {
		return domain.PivotRequest{}, fmt.Errorf("%w: closing and historical are required (YYYY-MM)", domain.ErrInvalidPeriod)
	}

	closing, err := domain.ParseYearMonth(closingRaw)
	if err != nil {
		return domain.PivotRequest{}, err
	}
	hist, err := domain.ParseYearMonth(histRaw)
	if err != nil {
		return domain.PivotRequest{}, err
	}

	req := domain.PivotRequest{
		Period:        domain.PeriodSelection{Closing: closing, Historical: hist},
		TotalAverages: domain.ParseTotalAverageMode(strings.ToLower(strings.TrimSpace(c.Query("total_averages")))),
	}
	for _, d := range domain.Dimensions {
		if values := queryList(c, string(d)); len(values) > 0 {
			req.Filters = req.Filters.With(d, values...)
		}
	}
	return req, nil
}

func parseYear(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Query("year"))
	if raw == "" {
		return time.Now().Year(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1 {
		return 0, fmt.Errorf("%w: year %q", domain.ErrInvalidYearRange, raw)
	}
	return year, nil
}
