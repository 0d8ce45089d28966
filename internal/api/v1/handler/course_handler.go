package handler

import (
	"context"

	"coursehub/internal/api/v1/dto"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// CourseHandler serves courses, modules, lessons, their files and progress
type CourseHandler struct {
	courseService   service.CourseService
	progressService service.ProgressService
	validate        *validator.Validate
	logger          zerolog.Logger
}

func NewCourseHandler(courseService service.CourseService, progressService service.ProgressService, validate *validator.Validate, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courseService:   courseService,
		progressService: progressService,
		validate:        validate,
		logger:          logger,
	}
}

func (h *CourseHandler) ListCourses(ctx context.Context, input *operation.ListCoursesInput) (*operation.ListCoursesOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	courses, total, err := h.courseService.ListCourses(ctx, actor, input.Limit, input.Offset)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to list courses")
	}
	return &operation.ListCoursesOutput{
		Body: dto.CourseListResponseDTO{Courses: toCourseDTOs(courses), Total: total},
	}, nil
}

func (h *CourseHandler) CreateCourse(ctx context.Context, input *operation.CreateCourseInput) (*operation.CreateCourseOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	course, err := h.courseService.CreateCourse(ctx, actor, service.CourseInput{
		Title:       input.Body.Title,
		Slug:        input.Body.Slug,
		Description: input.Body.Description,
		IsPublished: input.Body.IsPublished,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create course")
	}
	return &operation.CreateCourseOutput{Body: toCourseDTO(course)}, nil
}

// GetCourse returns the course outline: modules with their lessons in order
func (h *CourseHandler) GetCourse(ctx context.Context, input *operation.GetCourseInput) (*operation.GetCourseOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	outline, err := h.courseService.GetCourseOutline(ctx, actor, input.CourseID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve course")
	}
	return &operation.GetCourseOutput{Body: toOutlineDTO(outline)}, nil
}

func (h *CourseHandler) UpdateCourse(ctx context.Context, input *operation.UpdateCourseInput) (*operation.UpdateCourseOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	course, err := h.courseService.UpdateCourse(ctx, actor, input.CourseID, service.CoursePatch{
		Title:       input.Body.Title,
		Slug:        input.Body.Slug,
		Description: input.Body.Description,
		IsPublished: input.Body.IsPublished,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update course")
	}
	return &operation.UpdateCourseOutput{Body: toCourseDTO(course)}, nil
}

func (h *CourseHandler) GetCourseProgress(ctx context.Context, input *operation.GetCourseProgressInput) (*operation.GetCourseProgressOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.progressService.GetCourseProgress(ctx, actor, input.CourseID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve progress")
	}
	completed := p.CompletedLessonIDs
	if completed == nil {
		completed = []string{}
	}
	return &operation.GetCourseProgressOutput{
		Body: dto.CourseProgressResponseDTO{
			CourseID:           p.CourseID,
			TotalLessons:       p.TotalLessons,
			CompletedLessons:   p.CompletedLessons,
			Percent:            p.Percent(),
			CompletedLessonIDs: completed,
			LastAccessedAt:     p.LastAccessedAt,
		},
	}, nil
}

func (h *CourseHandler) CreateModule(ctx context.Context, input *operation.CreateModuleInput) (*operation.CreateModuleOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	module, err := h.courseService.CreateModule(ctx, actor, input.CourseID, service.ModuleInput{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Position:    input.Body.Position,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create module")
	}
	return &operation.CreateModuleOutput{Body: toModuleDTO(module)}, nil
}

func (h *CourseHandler) UpdateModule(ctx context.Context, input *operation.UpdateModuleInput) (*operation.UpdateModuleOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	module, err := h.courseService.UpdateModule(ctx, actor, input.ModuleID, service.ModulePatch{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update module")
	}
	return &operation.UpdateModuleOutput{Body: toModuleDTO(module)}, nil
}

func (h *CourseHandler) ReorderModules(ctx context.Context, input *operation.ReorderModulesInput) (*operation.ReorderModulesOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	modules, err := h.courseService.ReorderModules(ctx, actor, input.CourseID, input.Body.IDs)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to reorder modules")
	}
	out := make([]dto.ModuleResponseDTO, 0, len(modules))
	for i := range modules {
		out = append(out, toModuleDTO(&modules[i]))
	}
	return &operation.ReorderModulesOutput{Body: out}, nil
}

func (h *CourseHandler) CreateLesson(ctx context.Context, input *operation.CreateLessonInput) (*operation.CreateLessonOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	lesson, err := h.courseService.CreateLesson(ctx, actor, input.ModuleID, service.LessonInput{
		Title:           input.Body.Title,
		LessonType:      input.Body.LessonType,
		VideoURL:        input.Body.VideoURL,
		Content:         input.Body.Content,
		ContentFormat:   input.Body.ContentFormat,
		DurationMinutes: input.Body.DurationMinutes,
		Position:        input.Body.Position,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create lesson")
	}
	return &operation.CreateLessonOutput{Body: toLessonDTO(lesson)}, nil
}

// GetLesson returns the rendered lesson and records the visit
func (h *CourseHandler) GetLesson(ctx context.Context, input *operation.GetLessonInput) (*operation.GetLessonOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	view, err := h.courseService.GetLesson(ctx, actor, input.LessonID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to retrieve lesson")
	}
	return &operation.GetLessonOutput{
		Body: dto.LessonDetailResponseDTO{
			LessonResponseDTO: toLessonDTO(&view.Lesson),
			Content:           view.Lesson.Content,
			ContentFormat:     view.Lesson.ContentFormat,
			ContentHTML:       view.ContentHTML,
			Files:             toFileDTOs(view.Files),
		},
	}, nil
}

func (h *CourseHandler) UpdateLesson(ctx context.Context, input *operation.UpdateLessonInput) (*operation.UpdateLessonOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	lesson, err := h.courseService.UpdateLesson(ctx, actor, input.LessonID, service.LessonPatch{
		Title:           input.Body.Title,
		LessonType:      input.Body.LessonType,
		VideoURL:        input.Body.VideoURL,
		Content:         input.Body.Content,
		ContentFormat:   input.Body.ContentFormat,
		DurationMinutes: input.Body.DurationMinutes,
	})
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update lesson")
	}
	return &operation.UpdateLessonOutput{Body: toLessonDTO(lesson)}, nil
}

func (h *CourseHandler) ReorderLessons(ctx context.Context, input *operation.ReorderLessonsInput) (*operation.ReorderLessonsOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	lessons, err := h.courseService.ReorderLessons(ctx, actor, input.ModuleID, input.Body.IDs)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to reorder lessons")
	}
	return &operation.ReorderLessonsOutput{Body: toLessonDTOs(lessons)}, nil
}

func (h *CourseHandler) UpdateLessonProgress(ctx context.Context, input *operation.UpdateLessonProgressInput) (*operation.UpdateLessonProgressOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := h.progressService.SetCompletion(ctx, actor, input.LessonID, input.Body.Completed)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to update progress")
	}
	return &operation.UpdateLessonProgressOutput{
		Body: dto.LessonProgressResponseDTO{
			LessonID:       p.LessonID,
			CompletedAt:    p.CompletedAt,
			LastAccessedAt: p.LastAccessedAt,
		},
	}, nil
}

// InitiateLessonUpload returns presigned PUT URLs for up to ten files
func (h *CourseHandler) InitiateLessonUpload(ctx context.Context, input *operation.InitiateLessonUploadInput) (*operation.InitiateLessonUploadOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.validate, input.Body); err != nil {
		return nil, err
	}

	tickets, err := h.courseService.InitiateFileUploads(ctx, actor, input.LessonID, input.Body.Filenames)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to create upload URLs")
	}
	return &operation.InitiateLessonUploadOutput{Body: toUploadResponse(tickets)}, nil
}

func (h *CourseHandler) CompleteLessonUpload(ctx context.Context, input *operation.CompleteLessonUploadInput) (*operation.CompleteLessonUploadOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	file, err := h.courseService.CompleteFileUpload(ctx, actor, input.LessonID, input.FileID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to complete upload")
	}
	return &operation.CompleteLessonUploadOutput{Body: toFileDTO(file)}, nil
}

// GetLessonFileURL generates a short-lived download URL for a lesson file
func (h *CourseHandler) GetLessonFileURL(ctx context.Context, input *operation.GetLessonFileURLInput) (*operation.GetLessonFileURLOutput, error) {
	actor, err := getProfileFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := h.courseService.GetFileDownloadURL(ctx, actor, input.LessonID, input.FileID)
	if err != nil {
		return nil, toHTTPError(h.logger, err, "Failed to generate signed URL")
	}
	return &operation.GetLessonFileURLOutput{Body: dto.SignedURLResponseDTO{URL: url}}, nil
}
