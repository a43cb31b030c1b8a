// Package validation checks uploaded files against type and size rules and reports
// field-level messages suitable for a 422 response.
package validation

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// File is an uploaded file as seen by the validator.
// Content is rewound to the start after validation.
type File struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// Ext returns the client-declared extension, lowercased and without the dot.
func (f *File) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
}

// Errors maps a form field to its validation messages.
type Errors map[string][]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, strings.Join(e[f], " "))
	}
	return "validation failed: " + strings.Join(parts, " ")
}

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Signature families recognised in the leading bytes of an upload.
var (
	sigPDF  = []byte("%PDF-")
	sigZip  = []byte("PK\x03\x04")
	sigOLE2 = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// signatures maps each document extension to the magic bytes its container must start with.
// OOXML formats are zip archives; legacy Office formats are OLE2 compound files.
var signatures = map[string][]byte{
	"pdf":  sigPDF,
	"doc":  sigOLE2,
	"ppt":  sigOLE2,
	"xls":  sigOLE2,
	"docx": sigZip,
	"pptx": sigZip,
	"xlsx": sigZip,
}

// DocumentExtensions is the accepted document set, in display order.
var DocumentExtensions = []string{"pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx"}

// Rules describes the constraints for one file field.
type Rules struct {
	Field      string
	Required   bool
	Extensions []string
	MaxSize    int64
}

// DocumentRules returns the rules for the file_dokumen field.
func DocumentRules(maxSize int64, required bool) Rules {
	return Rules{
		Field:      "file_dokumen",
		Required:   required,
		Extensions: DocumentExtensions,
		MaxSize:    maxSize,
	}
}

// Validate checks f against the rules. A nil f is only valid when the field is optional.
// Rule violations are reported as Errors; failing to read the content is returned as a plain error.
func (r Rules) Validate(f *File) error {
	errs := Errors{}
	label := strings.ReplaceAll(r.Field, "_", " ")

	if f == nil {
		if r.Required {
			errs.Add(r.Field, fmt.Sprintf("The %s field is required.", label))
			return errs
		}
		return nil
	}

	ok, err := r.allowedType(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if !ok {
		errs.Add(r.Field, fmt.Sprintf("The %s must be a file of type: %s.", label, strings.Join(r.Extensions, ", ")))
	}
	if r.MaxSize > 0 && f.Size > r.MaxSize {
		errs.Add(r.Field, fmt.Sprintf("The %s must not be greater than %d kilobytes.", label, r.MaxSize/1024))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r Rules) allowedType(f *File) (bool, error) {
	ext := f.Ext()
	allowed := false
	for _, e := range r.Extensions {
		if e == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}

	sig, ok := signatures[ext]
	if !ok {
		return true, nil
	}
	if f.Content == nil {
		return false, nil
	}
	head, err := peek(f.Content, len(sig))
	if err != nil {
		return false, err
	}
	return bytes.HasPrefix(head, sig), nil
}

// peek reads up to n leading bytes and rewinds the reader.
func peek(rs io.ReadSeeker, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(rs, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}
	return buf[:read], nil
}

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentType returns the canonical MIME type for a document extension.
func ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}
