package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
)

type courseLookupInput struct {
	CourseID string `path:"courseId"`
}

type slugLookupInput struct {
	Slug string `path:"slug"`
}

type lookupOutput struct {
	Body struct {
		ID string `json:"id"`
	}
}

func TestUUIDPathParams(t *testing.T) {
	_, api := humatest.New(t)
	api.UseMiddleware(UUIDPathParams(api, "courseId"))

	reached := 0
	huma.Register(api, huma.Operation{OperationID: "getCourse", Method: http.MethodGet, Path: "/courses/{courseId}"},
		func(_ context.Context, in *courseLookupInput) (*lookupOutput, error) {
			reached++
			out := &lookupOutput{}
			out.Body.ID = in.CourseID
			return out, nil
		})
	huma.Register(api, huma.Operation{OperationID: "getWorkflow", Method: http.MethodGet, Path: "/workflows/{slug}"},
		func(_ context.Context, in *slugLookupInput) (*lookupOutput, error) {
			out := &lookupOutput{}
			out.Body.ID = in.Slug
			return out, nil
		})

	resp := api.Get("/courses/abc")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "courseId must be a UUID")
	assert.Zero(t, reached)

	resp = api.Get("/courses/6f1c2d3e-4b5a-4c6d-8e7f-901234567890")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, reached)

	resp = api.Get("/workflows/structured-interviews")
	assert.Equal(t, http.StatusOK, resp.Code, "slug params are not UUIDs")
}
