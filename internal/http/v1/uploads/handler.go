// Package uploads exposes photo ingestion on its own so a client can upload
// first and submit the returned URL as a profile preview.
package uploads

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-directory/internal/http/origin"
	applog "github.com/janisto/profile-directory/internal/platform/logging"
	"github.com/janisto/profile-directory/internal/service/photo"
)

// Ingester stores one uploaded photo.
type Ingester interface {
	Ingest(ctx context.Context, u *photo.Upload, baseURL string) (*photo.Photo, error)
}

// UploadForm is the multipart body of POST /uploads.
type UploadForm struct {
	Photo huma.FormFile `form:"photo" contentType:"image/jpeg,image/png,image/gif,image/webp" required:"false" doc:"Photo to store"`
}

// UploadInput for POST /uploads
type UploadInput struct {
	RawBody huma.MultipartFormFiles[UploadForm]
	origin  string
}

// Resolve captures the request origin the photo URL is built from.
func (i *UploadInput) Resolve(ctx huma.Context) []error {
	i.origin = origin.FromContext(ctx)
	return nil
}

// UploadResult carries the stored photo URL.
type UploadResult struct {
	URL string `json:"url" doc:"Public URL of the stored photo" example:"http://localhost:8080/uploads/0195a1b2.png"`
}

// UploadOutput for POST /uploads
type UploadOutput struct {
	Body UploadResult
}

// Register registers the upload endpoint. publicBaseURL, when set, replaces
// the request origin in returned URLs.
func Register(api huma.API, svc Ingester, publicBaseURL string) {
	huma.Register(api, huma.Operation{
		OperationID: "upload-photo",
		Method:      http.MethodPost,
		Path:        "/uploads",
		Summary:     "Upload a photo",
		Description: "Stores one image under a fresh name and returns its URL.",
		Tags:        []string{"Uploads"},
	}, func(ctx context.Context, input *UploadInput) (*UploadOutput, error) {
		file := input.RawBody.Data().Photo
		if !file.IsSet {
			return nil, huma.Error400BadRequest("No file uploaded")
		}

		p, err := svc.Ingest(ctx, &photo.Upload{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Body:        file,
		}, origin.Select(publicBaseURL, input.origin))
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &UploadOutput{Body: UploadResult{URL: p.URL}}, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, photo.ErrNoFile):
		return huma.Error400BadRequest("No file uploaded")
	case errors.Is(err, photo.ErrUnsupportedType):
		return huma.Error415UnsupportedMediaType("unsupported image type")
	case errors.Is(err, photo.ErrTooLarge):
		return huma.NewError(http.StatusRequestEntityTooLarge, "photo exceeds size limit")
	case errors.Is(err, photo.ErrStorage):
		applog.LogError(ctx, "photo storage failed", err)
		return huma.Error502BadGateway("photo upload failed")
	default:
		applog.LogError(ctx, "photo upload failed", err)
		return huma.Error500InternalServerError("internal error")
	}
}
