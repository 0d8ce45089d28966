package operation

import "coursehub/internal/api/v1/dto"

// Lesson Operations

type CreateLessonInput struct {
	ModuleID string              `path:"moduleId" doc:"Module ID"`
	Body     dto.LessonCreateDTO `json:"body"`
}

type CreateLessonOutput struct {
	Body dto.LessonResponseDTO `json:"body"`
}

type GetLessonInput struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
}

type GetLessonOutput struct {
	Body dto.LessonDetailResponseDTO `json:"body"`
}

type UpdateLessonInput struct {
	LessonID string              `path:"lessonId" doc:"Lesson ID"`
	Body     dto.LessonUpdateDTO `json:"body"`
}

type UpdateLessonOutput struct {
	Body dto.LessonResponseDTO `json:"body"`
}

type ReorderLessonsInput struct {
	ModuleID string         `path:"moduleId" doc:"Module ID"`
	Body     dto.ReorderDTO `json:"body"`
}

type ReorderLessonsOutput struct {
	Body []dto.LessonResponseDTO `json:"body"`
}

type UpdateLessonProgressInput struct {
	LessonID string                      `path:"lessonId" doc:"Lesson ID"`
	Body     dto.LessonProgressUpdateDTO `json:"body"`
}

type UpdateLessonProgressOutput struct {
	Body dto.LessonProgressResponseDTO `json:"body"`
}

// Lesson files

type InitiateLessonUploadInput struct {
	LessonID string                   `path:"lessonId" doc:"Lesson ID"`
	Body     dto.FileUploadRequestDTO `json:"body"`
}

type InitiateLessonUploadOutput struct {
	Body dto.FileUploadResponseDTO `json:"body"`
}

type CompleteLessonUploadInput struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
	FileID   string `path:"fileId" doc:"File ID"`
}

type CompleteLessonUploadOutput struct {
	Body dto.FileResponseDTO `json:"body"`
}

type GetLessonFileURLInput struct {
	LessonID string `path:"lessonId" doc:"Lesson ID"`
	FileID   string `path:"fileId" doc:"File ID"`
}

type GetLessonFileURLOutput struct {
	Body dto.SignedURLResponseDTO `json:"body"`
}
