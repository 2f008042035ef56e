package claim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ehr/claimview/internal/platform/x12"
)

// Handler exposes the parser over HTTP for the claim viewer.
type Handler struct {
	parser *Parser
}

// NewHandler creates a new claim handler.
func NewHandler(parser *Parser) *Handler {
	return &Handler{parser: parser}
}

// RegisterRoutes registers the X12 endpoints on the provided route group.
//
//	POST /api/v1/x12/parse     - Parse an 837 upload into viewer sections
//	POST /api/v1/x12/segments  - Report detected delimiters and segment counts
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/x12/parse", h.Parse)
	g.POST("/x12/segments", h.Segments)
}

// Parse handles POST /api/v1/x12/parse. The document is taken from the
// multipart field "file" when present, otherwise from the raw body.
func (h *Handler) Parse(c echo.Context) error {
	body, err := readUpload(c)
	if err != nil {
		return uploadError(c, err)
	}

	res, err := h.parser.ParseContext(c.Request().Context(), body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			// Answered by the timeout middleware.
			return err
		}
		return parseError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// Segments handles POST /api/v1/x12/segments.
func (h *Handler) Segments(c echo.Context) error {
	body, err := readUpload(c)
	if err != nil {
		return uploadError(c, err)
	}

	env, err := x12.Read(bytes.NewReader(body))
	if err != nil {
		return parseError(c, err)
	}

	return c.JSON(http.StatusOK, env.Summarize())
}

var errEmptyUpload = errors.New("request body is empty")

func readUpload(c echo.Context) ([]byte, error) {
	req := c.Request()

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("file is required: %w", err)
		}
		src, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file: %w", err)
		}
		defer src.Close()
		return readNonEmpty(src)
	}

	return readNonEmpty(req.Body)
}

func readNonEmpty(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errEmptyUpload
	}
	return body, nil
}

func uploadError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return c.JSON(he.Code, map[string]string{"error": fmt.Sprint(he.Message)})
	}
	return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func parseError(c echo.Context, err error) error {
	var (
		nc *NoClaimFoundError
		fe *x12.FormatError
	)
	switch {
	case errors.As(err, &nc):
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":       nc.Error(),
			"diagnostics": nc.Diagnostics(),
		})
	case errors.As(err, &fe):
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{
			"error": fe.Error(),
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})
	}
}
