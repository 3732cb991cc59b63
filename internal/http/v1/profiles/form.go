package profiles

import (
	"fmt"
	"mime/multipart"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/profile-directory/internal/service/directory"
	"github.com/janisto/profile-directory/internal/service/photo"
	profilesvc "github.com/janisto/profile-directory/internal/service/profile"
)

var (
	allowedValues = []string{"name", "description", "address", "contact", "interests", "preview"}
	allowedFiles  = []string{"photo"}
)

// submissionFromForm maps an allow-listed multipart form onto a pipeline
// submission. Any other field is rejected.
func submissionFromForm(form *multipart.Form, file huma.FormFile, baseURL string) (directory.Submission, error) {
	if form == nil {
		return directory.Submission{}, huma.Error400BadRequest("multipart form required")
	}
	for key := range form.Value {
		if !slices.Contains(allowedValues, key) {
			return directory.Submission{}, huma.Error400BadRequest(fmt.Sprintf("unknown field: %s", key))
		}
	}
	for key := range form.File {
		if !slices.Contains(allowedFiles, key) {
			return directory.Submission{}, huma.Error400BadRequest(fmt.Sprintf("unknown field: %s", key))
		}
	}

	sub := directory.Submission{
		Profile: profilesvc.Payload{
			Name:        value(form, "name"),
			Description: value(form, "description"),
			Address:     value(form, "address"),
			Contact:     value(form, "contact"),
			Photo:       value(form, "preview"),
			Interests:   interests(form),
		},
		BaseURL: baseURL,
	}
	if file.IsSet {
		sub.Photo = &photo.Upload{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Body:        file,
		}
	}
	return sub, nil
}

func value(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// interests accepts repeated fields as well as comma-separated lists.
func interests(form *multipart.Form) []string {
	var out []string
	for _, raw := range form.Value["interests"] {
		for tag := range strings.SplitSeq(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
	}
	return out
}
