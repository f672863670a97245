package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"artshop/internal/pkg/validation"
	"artshop/internal/service/art/application"

	"github.com/shopspring/decimal"
)

// formUpload 持有 multipart 中的图片文件，处理结束后需要关闭
type formUpload struct {
	file     multipart.File
	filename string
}

func (u *formUpload) toUpload() *application.Upload {
	if u == nil {
		return nil
	}
	return &application.Upload{Filename: u.filename, Content: u.file}
}

func (u *formUpload) close() {
	_ = u.file.Close()
}

// parseCreate 支持 multipart（可带 image 文件）和 JSON 两种请求体
func parseCreate(w http.ResponseWriter, r *http.Request) (*application.CreateArtRequest, *formUpload, error) {
	req := &application.CreateArtRequest{}
	if !isMultipart(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(req); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid request body", validation.ErrInvalid)
		}
		return req, nil, nil
	}

	form, upload, err := readMultipart(w, r)
	if err != nil {
		return nil, nil, err
	}
	v := validation.New()
	req.Title = form.Get("title")
	req.Description = form.Get("description")
	req.Category = form.Get("category")
	req.Price = parseDecimal(v, "price", form.Get("price"))
	req.Quantity = parseInt(v, "quantity", form.Get("quantity"))
	if err := v.Err(); err != nil {
		if upload != nil {
			upload.close()
		}
		return nil, nil, err
	}
	return req, upload, nil
}

// parseUpdate 只填充请求中出现的字段
func parseUpdate(w http.ResponseWriter, r *http.Request) (*application.UpdateArtRequest, *formUpload, error) {
	req := &application.UpdateArtRequest{}
	if !isMultipart(r) {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadSize)).Decode(req); err != nil {
			return nil, nil, fmt.Errorf("%w: invalid request body", validation.ErrInvalid)
		}
		return req, nil, nil
	}

	form, upload, err := readMultipart(w, r)
	if err != nil {
		return nil, nil, err
	}
	v := validation.New()
	if form.Has("title") {
		s := form.Get("title")
		req.Title = &s
	}
	if form.Has("description") {
		s := form.Get("description")
		req.Description = &s
	}
	if form.Has("category") {
		s := form.Get("category")
		req.Category = &s
	}
	if form.Has("price") {
		p := parseDecimal(v, "price", form.Get("price"))
		req.Price = &p
	}
	if form.Has("quantity") {
		q := parseInt(v, "quantity", form.Get("quantity"))
		req.Quantity = &q
	}
	if err := v.Err(); err != nil {
		if upload != nil {
			upload.close()
		}
		return nil, nil, err
	}
	return req, upload, nil
}

type formValues map[string][]string

func (f formValues) Get(key string) string {
	if vs := f[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func (f formValues) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func readMultipart(w http.ResponseWriter, r *http.Request) (formValues, *formUpload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, fmt.Errorf("%w: invalid multipart form: %v", validation.ErrInvalid, err)
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		return formValues(r.MultipartForm.Value), &formUpload{file: file, filename: header.Filename}, nil
	case errors.Is(err, http.ErrMissingFile):
		return formValues(r.MultipartForm.Value), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: invalid image: %v", validation.ErrInvalid, err)
	}
}

func parseDecimal(v *validation.Validator, field, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	v.Check(err == nil, field, "must be a decimal number")
	return d
}

func parseInt(v *validation.Validator, field, raw string) int {
	n, err := strconv.Atoi(raw)
	v.Check(err == nil, field, "must be an integer")
	return n
}
