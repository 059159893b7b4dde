package echoapi

import (
	"bytes"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/portal"
)

// MaxFileSize caps multipart file parts.
var MaxFileSize int64 = 20 << 20

var errFileTooLarge = core.NewValidationError(errors.New("file too large"), core.FieldError{Field: "file", Error: "the file is too large"})

// bind decodes the request into `data`, then validates it.
func (s *Server) bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return err
	}
	return s.opts.Validate.Struct(data)
}

type formFile struct {
	portal.File
	Mime *mimetype.MIME
}

// readFormFile loads the "file" part of a multipart request and sniffs its content type.
func readFormFile(ctx echo.Context) (formFile, error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return formFile{}, core.NewValidationError(err, core.FieldError{Field: "file", Error: "this field is required"})
	}
	if fh.Size > MaxFileSize {
		return formFile{}, errFileTooLarge
	}
	data, err := readAll(fh)
	if err != nil {
		return formFile{}, errors.Wrap(err, "reading form file")
	}

	mtype := mimetype.Detect(data)
	return formFile{
		File: portal.File{
			Name:        fh.Filename,
			ContentType: mtype.String(),
			Body:        bytes.NewReader(data),
		},
		Mime: mtype,
	}, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, MaxFileSize))
}

// resourceType classifies a file as an image or a document.
func resourceType(mtype *mimetype.MIME) portal.ResourceType {
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return portal.TypeImage
		}
	}
	return portal.TypeDocument
}
