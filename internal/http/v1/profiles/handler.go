package profiles

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-directory/internal/http/origin"
	applog "github.com/janisto/profile-directory/internal/platform/logging"
	"github.com/janisto/profile-directory/internal/service/directory"
	"github.com/janisto/profile-directory/internal/service/photo"
	profilesvc "github.com/janisto/profile-directory/internal/service/profile"
)

// Pipeline is the write side used by the handlers.
type Pipeline interface {
	Create(ctx context.Context, sub directory.Submission) (*profilesvc.Profile, error)
	Update(ctx context.Context, id string, sub directory.Submission) (*profilesvc.Profile, error)
	Delete(ctx context.Context, id string) error
}

// Query is the read side used by the handlers.
type Query interface {
	List(ctx context.Context) ([]profilesvc.Profile, error)
	Get(ctx context.Context, id string) (*profilesvc.Profile, error)
}

// Register registers profile endpoints. prefix is the path the API is
// mounted under and is used for Location headers. publicBaseURL, when set,
// replaces the request origin in photo URLs.
func Register(api huma.API, pipeline Pipeline, query Query, prefix, publicBaseURL string) {
	huma.Register(api, huma.Operation{
		OperationID: "list-profiles",
		Method:      http.MethodGet,
		Path:        "/profiles",
		Summary:     "List profiles",
		Description: "Returns every stored profile in store order.",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, _ *ProfileListInput) (*ProfileListOutput, error) {
		list, err := query.List(ctx)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileListOutput{Body: toHTTPProfiles(list)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/profiles/{id}",
		Summary:     "Get a profile",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, input *ProfileGetInput) (*ProfileGetOutput, error) {
		p, err := query.Get(ctx, input.ID)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileGetOutput{Body: toHTTPProfile(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-profile",
		Method:        http.MethodPost,
		Path:          "/profiles",
		Summary:       "Create a profile",
		Description:   "Geocodes the address, stores the uploaded photo and persists the profile. Requires name, address and either a photo file or a preview URL.",
		Tags:          []string{"Profiles"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *ProfileCreateInput) (*ProfileCreateOutput, error) {
		sub, err := submissionFromForm(input.RawBody.Form, input.RawBody.Data().Photo, origin.Select(publicBaseURL, input.origin))
		if err != nil {
			return nil, err
		}
		p, err := pipeline.Create(ctx, sub)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileCreateOutput{
			Location: prefix + "/profiles/" + p.ID,
			Body:     toHTTPProfile(p),
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/profiles/{id}",
		Summary:     "Replace a profile",
		Description: "Runs the same steps as create and replaces the stored profile. The identifier never changes.",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileUpdateOutput, error) {
		sub, err := submissionFromForm(input.RawBody.Form, input.RawBody.Data().Photo, origin.Select(publicBaseURL, input.origin))
		if err != nil {
			return nil, err
		}
		p, err := pipeline.Update(ctx, input.ID, sub)
		if err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileUpdateOutput{Body: toHTTPProfile(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-profile",
		Method:      http.MethodDelete,
		Path:        "/profiles/{id}",
		Summary:     "Delete a profile",
		Description: "Permanently deletes the profile. The stored photo is kept.",
		Tags:        []string{"Profiles"},
	}, func(ctx context.Context, input *ProfileDeleteInput) (*ProfileDeleteOutput, error) {
		if err := pipeline.Delete(ctx, input.ID); err != nil {
			return nil, mapServiceError(ctx, err)
		}
		return &ProfileDeleteOutput{Body: DeleteResult{Message: "Profile deleted"}}, nil
	})
}

func mapServiceError(ctx context.Context, err error) error {
	var validationErr *directory.ValidationError
	var storeErr *profilesvc.StoreValidationError

	switch {
	case errors.As(err, &validationErr):
		return huma.Error400BadRequest(validationErr.Error())
	case errors.As(err, &storeErr):
		return huma.Error400BadRequest(storeErr.Error())
	case errors.Is(err, profilesvc.ErrInvalidID):
		return huma.Error400BadRequest("Invalid profile ID")
	case errors.Is(err, profilesvc.ErrNotFound):
		return huma.Error404NotFound("Profile not found")
	case errors.Is(err, directory.ErrAddressNotFound):
		return huma.Error400BadRequest("invalid address")
	case errors.Is(err, directory.ErrGeocoding):
		return huma.Error502BadGateway("geocoding service unavailable")
	case errors.Is(err, photo.ErrNoFile):
		return huma.Error400BadRequest("No file uploaded")
	case errors.Is(err, photo.ErrUnsupportedType):
		return huma.Error415UnsupportedMediaType("unsupported image type")
	case errors.Is(err, photo.ErrTooLarge):
		return huma.NewError(http.StatusRequestEntityTooLarge, "photo exceeds size limit")
	case errors.Is(err, directory.ErrPhotoIngestion):
		return huma.Error502BadGateway("photo upload failed")
	default:
		applog.LogError(ctx, "profile request failed", err)
		return huma.Error500InternalServerError("internal error")
	}
}
