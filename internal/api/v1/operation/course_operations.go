package operation

import "coursehub/internal/api/v1/dto"

// Course Operations

type ListCoursesInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Number of courses"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset for pagination"`
}

type ListCoursesOutput struct {
	Body dto.CourseListResponseDTO `json:"body"`
}

type CreateCourseInput struct {
	Body dto.CourseCreateDTO `json:"body"`
}

type CreateCourseOutput struct {
	Body dto.CourseResponseDTO `json:"body"`
}

type GetCourseInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type GetCourseOutput struct {
	Body dto.CourseOutlineResponseDTO `json:"body"`
}

type UpdateCourseInput struct {
	CourseID string              `path:"courseId" doc:"Course ID"`
	Body     dto.CourseUpdateDTO `json:"body"`
}

type UpdateCourseOutput struct {
	Body dto.CourseResponseDTO `json:"body"`
}

type GetCourseProgressInput struct {
	CourseID string `path:"courseId" doc:"Course ID"`
}

type GetCourseProgressOutput struct {
	Body dto.CourseProgressResponseDTO `json:"body"`
}

// Module Operations

type CreateModuleInput struct {
	CourseID string              `path:"courseId" doc:"Course ID"`
	Body     dto.ModuleCreateDTO `json:"body"`
}

type CreateModuleOutput struct {
	Body dto.ModuleResponseDTO `json:"body"`
}

type UpdateModuleInput struct {
	ModuleID string              `path:"moduleId" doc:"Module ID"`
	Body     dto.ModuleUpdateDTO `json:"body"`
}

type UpdateModuleOutput struct {
	Body dto.ModuleResponseDTO `json:"body"`
}

type ReorderModulesInput struct {
	CourseID string         `path:"courseId" doc:"Course ID"`
	Body     dto.ReorderDTO `json:"body"`
}

type ReorderModulesOutput struct {
	Body []dto.ModuleResponseDTO `json:"body"`
}
