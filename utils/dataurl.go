package utils

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/juju/errors"
)

// DataURL is a decoded "data:<mime>;base64,<data>" string.
type DataURL struct {
	ContentType string
	Data        []byte
}

// Ext is the file extension matching the content type.
func (d DataURL) Ext() string {
	switch d.ContentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(d.ContentType); len(exts) > 0 {
		return exts[0]
	}
	if _, sub, ok := strings.Cut(d.ContentType, "/"); ok && sub != "" {
		return "." + sub
	}
	return ""
}

// ParseBase64DataURL decodes an image sent as a base64 data URL.
func ParseBase64DataURL(s string) (DataURL, error) {
	meta, data, ok := strings.Cut(s, ",")
	if !ok {
		return DataURL{}, errors.NotValidf("base64 image")
	}
	mediaType, found := strings.CutPrefix(meta, "data:")
	if !found {
		return DataURL{}, errors.NotValidf("base64 image header %q", meta)
	}
	contentType, params, _ := strings.Cut(mediaType, ";")
	if params != "base64" {
		return DataURL{}, errors.NotValidf("image encoding %q", params)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return DataURL{}, errors.NotValidf("content type %q", contentType)
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return DataURL{}, errors.NewNotValid(err, "decoding image")
	}
	if len(decoded) == 0 {
		return DataURL{}, errors.NotValidf("empty image")
	}
	return DataURL{ContentType: contentType, Data: decoded}, nil
}
