package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/service"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/transport"
)

const maxImageBytes = 5 << 20

func (h *CatalogHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "image.upload")

	fh, err := c.FormFile("file")
	if err != nil {
		l.Warn("image_upload_error", "status", 400, "reason", "file is required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	if fh.Size > maxImageBytes {
		l.Warn("image_upload_error", "status", 413, "reason", "file too large", "size", fh.Size)
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image must be 5MB or smaller")
	}

	f, err := fh.Open()
	if err != nil {
		l.Error("image_upload_error", "status", 500, "reason", "cannot open upload", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read upload")
	}
	defer f.Close()

	url, err := h.Svc.UploadImage(ctx, fh.Filename, fh.Header.Get(echo.HeaderContentType), f)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedImg):
			l.Warn("image_upload_error", "status", 415, "reason", "unsupported type", "error", err)
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, "image must be jpeg, png, gif or webp")
		case errors.Is(err, service.ErrNoImageStore):
			l.Error("image_upload_error", "status", 503, "reason", "no image store", "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "image upload is not configured")
		default:
			l.Error("image_upload_error", "status", 502, "reason", "blob store rejected upload", "error", err)
			return echo.NewHTTPError(http.StatusBadGateway, "cannot store image")
		}
	}

	l.Info("image_upload_success", "url", url)
	return c.JSON(http.StatusCreated, transport.ImageUploadResponse{URL: url})
}
