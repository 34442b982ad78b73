package backend

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"menza-admin/internal/models"
)

const (
	DefaultImageFileName     = "uploaded_image.jpg"
	PlaceholderImageFileName = "placeholder.png"
)

// 1x1 transparent PNG. The food endpoint requires a "file" part even when the
// user picked no image.
var placeholderPNG = mustDecodeBase64("iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNk+M9QDwADhgGAWjR9awAAAABJRU5ErkJggg==")

func mustDecodeBase64(s string) []byte {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// PlaceholderImage returns a copy of the placeholder PNG.
func PlaceholderImage() []byte {
	return append([]byte(nil), placeholderPNG...)
}

// ImageContentType maps a file name to the content type sent for it.
func ImageContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".png":
		return "image/png"
	case ".bmp":
		return "image/bmp"
	default:
		return "image/jpeg"
	}
}

// encodeFoodForm builds the multipart body for POST /v1/food and returns it
// with its content type.
func encodeFoodForm(req models.CreateFoodRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	data, err := json.Marshal(req.Data())
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode food data: %w", err)
	}

	dataHeader := make(textproto.MIMEHeader)
	dataHeader.Set("Content-Disposition", `form-data; name="data"`)
	dataHeader.Set("Content-Type", "application/json")
	part, err := w.CreatePart(dataHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	image, fileName, contentType := imagePart(req)
	fileHeader := make(textproto.MIMEHeader)
	fileHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	fileHeader.Set("Content-Type", contentType)
	part, err = w.CreatePart(fileHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}

func imagePart(req models.CreateFoodRequest) ([]byte, string, string) {
	if len(req.Image) == 0 {
		return placeholderPNG, PlaceholderImageFileName, "image/png"
	}
	name := filepath.Base(req.ImageFileName)
	if req.ImageFileName == "" || name == "." || name == string(filepath.Separator) {
		name = DefaultImageFileName
	}
	return req.Image, name, ImageContentType(name)
}
