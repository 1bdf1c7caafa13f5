package inventory

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jhoicas/insanjo-pos/internal/domain"
)

// MaxImageSize tamaño máximo de la imagen de producto (1 MiB).
const MaxImageSize = 1 << 20

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ImageUpload imagen recibida en el formulario de producto (campo productImage).
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// read valida tipo y tamaño y devuelve el contenido completo con su Content-Type.
func (img *ImageUpload) read() ([]byte, string, error) {
	if img.Size > MaxImageSize {
		return nil, "", domain.NewValidationError("productImage", "la imagen supera 1 MB")
	}
	data, err := io.ReadAll(io.LimitReader(img.Content, MaxImageSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("leer imagen: %w", err)
	}
	if len(data) == 0 {
		return nil, "", domain.NewValidationError("productImage", "la imagen está vacía")
	}
	if len(data) > MaxImageSize {
		return nil, "", domain.NewValidationError("productImage", "la imagen supera 1 MB")
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(img.ContentType, ";")[0]))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !allowedImageTypes[contentType] {
		return nil, "", domain.NewValidationError("productImage", "solo se permiten imágenes .png, .jpg y .jpeg")
	}
	return data, contentType, nil
}

func imageReader(data []byte) io.Reader { return bytes.NewReader(data) }
