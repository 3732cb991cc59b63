package profiles

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-directory/internal/http/origin"
)

// ProfileForm declares the file part of a profile submission. Text fields
// (name, description, address, contact, interests, preview) are read from
// the form values.
type ProfileForm struct {
	Photo huma.FormFile `form:"photo" contentType:"image/jpeg,image/png,image/gif,image/webp" required:"false" doc:"New profile photo"`
}

// ProfileListInput for GET /profiles (no parameters)
type ProfileListInput struct{}

// ProfileGetInput for GET /profiles/{id}
type ProfileGetInput struct {
	ID string `path:"id" doc:"Profile identifier" example:"0195a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b"`
}

// ProfileCreateInput for POST /profiles
type ProfileCreateInput struct {
	RawBody huma.MultipartFormFiles[ProfileForm]
	origin  string
}

// ProfileUpdateInput for PUT /profiles/{id}
type ProfileUpdateInput struct {
	ID      string `path:"id" doc:"Profile identifier" example:"0195a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b"`
	RawBody huma.MultipartFormFiles[ProfileForm]
	origin  string
}

// ProfileDeleteInput for DELETE /profiles/{id}
type ProfileDeleteInput struct {
	ID string `path:"id" doc:"Profile identifier" example:"0195a1b2-3c4d-7e5f-8a9b-0c1d2e3f4a5b"`
}

// Resolve captures the request origin photo URLs are built from.
func (i *ProfileCreateInput) Resolve(ctx huma.Context) []error {
	i.origin = origin.FromContext(ctx)
	return nil
}

// Resolve captures the request origin photo URLs are built from.
func (i *ProfileUpdateInput) Resolve(ctx huma.Context) []error {
	i.origin = origin.FromContext(ctx)
	return nil
}
