package media

import (
	"bytes"
	"image"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val, err := tag.StringVal()
	if err != nil {
		return nil
	}
	val = strings.TrimSpace(strings.TrimRight(val, "\x00"))
	if val == "" {
		return nil
	}
	return &val
}

// ReadMetadata extracts dimensions, byte size and the EXIF camera fields from
// raw image bytes. Missing EXIF is not an error; undecodable bytes only leave
// the dimensions empty.
func ReadMetadata(data []byte) Metadata {
	size := int64(len(data))
	meta := Metadata{FileSize: &size}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		w, h := cfg.Width, cfg.Height
		meta.Width = &w
		meta.Height = &h
	}

	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}
	meta.CameraMake = getString(exifData, exif.Make)
	meta.CameraModel = getString(exifData, exif.Model)
	if dt, err := exifData.DateTime(); err == nil {
		ts := dt.Unix()
		meta.TakenAt = &ts
	}
	return meta
}

// WithEncoded overrides dimensions and size with the values of the stored
// (re-encoded) file, keeping the EXIF fields read from the original.
func (m Metadata) WithEncoded(enc *Encoded) Metadata {
	w, h, s := enc.Width, enc.Height, enc.Size
	m.Width, m.Height, m.FileSize = &w, &h, &s
	return m
}
