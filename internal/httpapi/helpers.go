package httpapi

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func readBodyLimited(c echo.Context, limit int64) ([]byte, error) {
	body := c.Request().Body
	if body == nil {
		return nil, fmt.Errorf("request body is empty")
	}
	defer body.Close()
	return io.ReadAll(io.LimitReader(body, limit))
}
