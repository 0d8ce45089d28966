package router

import (
	"net/http"
	"os"

	"coursehub/internal/api/v1/handler"
	"coursehub/internal/api/v1/operation"
	"coursehub/internal/config"
	"coursehub/internal/deletion"
	"coursehub/internal/middleware"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// SetupHumaAPI creates a Huma API instance
func SetupHumaAPI(
	cfg *config.Config,
	authMiddleware func(http.Handler) http.Handler,
	profileMiddleware func(http.Handler) http.Handler,
	pubsubAuthMiddleware func(http.Handler) http.Handler,
	logger zerolog.Logger,
) (*chi.Mux, huma.API) {
	chiRouter := chi.NewRouter()

	// Apply middleware based on path
	chiRouter.Use(func(next http.Handler) http.Handler {
		authed := authMiddleware(profileMiddleware(next))
		pubsubAuthed := pubsubAuthMiddleware(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/openapi.json", "/openapi.yaml", "/docs", "/schemas":
				next.ServeHTTP(w, r)
			case "/dlq/record":
				pubsubAuthed.ServeHTTP(w, r)
			default:
				authed.ServeHTTP(w, r)
			}
		})
	})

	version := os.Getenv("GIT_COMMIT_SHA")
	if version == "" {
		version = "development"
	}

	humaConfig := huma.DefaultConfig("CourseHub API v1", version)
	humaConfig.Info.Description = "Courses, organization enrollments and the book-workflow library"
	humaConfig.Servers = []*huma.Server{{URL: cfg.APIBaseURL}}

	api := humachi.New(chiRouter, humaConfig)
	api.UseMiddleware(middleware.UUIDPathParams(api,
		"courseId", "moduleId", "lessonId", "fileId", "orgId", "enrollmentId", "workflowId", "userId"))

	logger.Info().Str("version", version).Msg("Huma API initialized for /v1")
	return chiRouter, api
}

// RegisterRoutes registers all Huma operations
func RegisterRoutes(
	api huma.API,
	userHandler *handler.UserHandler,
	courseHandler *handler.CourseHandler,
	orgHandler *handler.OrganizationHandler,
	workflowHandler *handler.WorkflowHandler,
	deletionHandler *handler.DeletionHandler,
	dlqHandler *handler.DLQHandler,
	logger zerolog.Logger,
) {
	logger.Info().Msg("Registering routes")

	// ========== USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "createUser",
		Method:      "POST",
		Path:        "/users/me",
		Summary:     "Create or update user profile",
		Description: "Creates the caller's profile from the token claims, or refreshes it",
		Tags:        []string{"users"},
	}, userHandler.CreateUser)

	huma.Register(api, huma.Operation{
		OperationID: "getUser",
		Method:      "GET",
		Path:        "/users/me",
		Summary:     "Get user profile",
		Description: "Retrieves the profile of the authenticated user",
		Tags:        []string{"users"},
	}, userHandler.GetUser)

	huma.Register(api, huma.Operation{
		OperationID: "updateUser",
		Method:      "PATCH",
		Path:        "/users/me",
		Summary:     "Update user profile",
		Description: "Updates the caller's display name",
		Tags:        []string{"users"},
	}, userHandler.UpdateUser)

	huma.Register(api, huma.Operation{
		OperationID: "getUserCourses",
		Method:      "GET",
		Path:        "/users/me/courses",
		Summary:     "Get user's courses",
		Description: "Lists published courses the caller's organization is enrolled in; admins see every course",
		Tags:        []string{"users"},
	}, userHandler.GetUserCourses)

	huma.Register(api, huma.Operation{
		OperationID: "getRecentLessons",
		Method:      "GET",
		Path:        "/users/me/recents",
		Summary:     "Get recent lessons",
		Description: "Retrieves recently opened lessons for the authenticated user with pagination",
		Tags:        []string{"users"},
	}, userHandler.GetRecentLessons)

	// ========== LEARNER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "getCourse",
		Method:      "GET",
		Path:        "/courses/{courseId}",
		Summary:     "Get a course outline",
		Description: "Retrieves a course with its modules and lessons in order",
		Tags:        []string{"courses"},
	}, courseHandler.GetCourse)

	huma.Register(api, huma.Operation{
		OperationID: "getCourseProgress",
		Method:      "GET",
		Path:        "/courses/{courseId}/progress",
		Summary:     "Get course progress",
		Description: "Summarizes the caller's completed lessons in a course",
		Tags:        []string{"courses", "progress"},
	}, courseHandler.GetCourseProgress)

	huma.Register(api, huma.Operation{
		OperationID: "getLesson",
		Method:      "GET",
		Path:        "/lessons/{lessonId}",
		Summary:     "Get a lesson",
		Description: "Retrieves a lesson with rendered content and downloadable files",
		Tags:        []string{"lessons"},
	}, courseHandler.GetLesson)

	huma.Register(api, huma.Operation{
		OperationID: "updateLessonProgress",
		Method:      "PUT",
		Path:        "/lessons/{lessonId}/progress",
		Summary:     "Mark a lesson complete",
		Description: "Sets or clears the caller's completion of a lesson",
		Tags:        []string{"lessons", "progress"},
	}, courseHandler.UpdateLessonProgress)

	huma.Register(api, huma.Operation{
		OperationID: "getLessonFileURL",
		Method:      "GET",
		Path:        "/lessons/{lessonId}/files/{fileId}/url",
		Summary:     "Get signed URL for a lesson file",
		Description: "Generates a short-lived download URL",
		Tags:        []string{"lessons", "files"},
	}, courseHandler.GetLessonFileURL)

	// ========== ADMIN COURSE OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listCourses",
		Method:      "GET",
		Path:        "/admin/courses",
		Summary:     "List courses",
		Description: "Lists all courses including drafts",
		Tags:        []string{"admin", "courses"},
	}, courseHandler.ListCourses)

	huma.Register(api, huma.Operation{
		OperationID:   "createCourse",
		Method:        "POST",
		Path:          "/admin/courses",
		Summary:       "Create a course",
		Description:   "Creates a course; the slug is derived from the title when omitted",
		Tags:          []string{"admin", "courses"},
		DefaultStatus: 201,
	}, courseHandler.CreateCourse)

	huma.Register(api, huma.Operation{
		OperationID: "updateCourse",
		Method:      "PATCH",
		Path:        "/admin/courses/{courseId}",
		Summary:     "Update a course",
		Description: "Updates a course's title, slug, description or published state",
		Tags:        []string{"admin", "courses"},
	}, courseHandler.UpdateCourse)

	huma.Register(api, huma.Operation{
		OperationID:   "createModule",
		Method:        "POST",
		Path:          "/admin/courses/{courseId}/modules",
		Summary:       "Create a module",
		Description:   "Adds a module to a course, appended unless a position is given",
		Tags:          []string{"admin", "modules"},
		DefaultStatus: 201,
	}, courseHandler.CreateModule)

	huma.Register(api, huma.Operation{
		OperationID: "reorderModules",
		Method:      "PUT",
		Path:        "/admin/courses/{courseId}/modules/order",
		Summary:     "Reorder modules",
		Description: "Sets module positions; the body must list every module of the course exactly once",
		Tags:        []string{"admin", "modules"},
	}, courseHandler.ReorderModules)

	huma.Register(api, huma.Operation{
		OperationID: "updateModule",
		Method:      "PATCH",
		Path:        "/admin/modules/{moduleId}",
		Summary:     "Update a module",
		Tags:        []string{"admin", "modules"},
	}, courseHandler.UpdateModule)

	huma.Register(api, huma.Operation{
		OperationID:   "createLesson",
		Method:        "POST",
		Path:          "/admin/modules/{moduleId}/lessons",
		Summary:       "Create a lesson",
		Description:   "Adds a video, content or download lesson to a module",
		Tags:          []string{"admin", "lessons"},
		DefaultStatus: 201,
	}, courseHandler.CreateLesson)

	huma.Register(api, huma.Operation{
		OperationID: "reorderLessons",
		Method:      "PUT",
		Path:        "/admin/modules/{moduleId}/lessons/order",
		Summary:     "Reorder lessons",
		Description: "Sets lesson positions; the body must list every lesson of the module exactly once",
		Tags:        []string{"admin", "lessons"},
	}, courseHandler.ReorderLessons)

	huma.Register(api, huma.Operation{
		OperationID: "updateLesson",
		Method:      "PATCH",
		Path:        "/admin/lessons/{lessonId}",
		Summary:     "Update a lesson",
		Tags:        []string{"admin", "lessons"},
	}, courseHandler.UpdateLesson)

	huma.Register(api, huma.Operation{
		OperationID: "initiateLessonUpload",
		Method:      "POST",
		Path:        "/admin/lessons/{lessonId}/files",
		Summary:     "Get upload URLs for lesson files",
		Description: "Creates pending file records and presigned PUT URLs for up to ten files",
		Tags:        []string{"admin", "files"},
	}, courseHandler.InitiateLessonUpload)

	huma.Register(api, huma.Operation{
		OperationID: "completeLessonUpload",
		Method:      "POST",
		Path:        "/admin/lessons/{lessonId}/files/{fileId}/complete",
		Summary:     "Complete a lesson file upload",
		Description: "Verifies the uploaded object and marks the file ready",
		Tags:        []string{"admin", "files"},
	}, courseHandler.CompleteLessonUpload)

	// ========== ORGANIZATION OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listOrganizations",
		Method:      "GET",
		Path:        "/admin/organizations",
		Summary:     "List organizations",
		Tags:        []string{"admin", "organizations"},
	}, orgHandler.ListOrganizations)

	huma.Register(api, huma.Operation{
		OperationID:   "createOrganization",
		Method:        "POST",
		Path:          "/admin/organizations",
		Summary:       "Create an organization",
		Tags:          []string{"admin", "organizations"},
		DefaultStatus: 201,
	}, orgHandler.CreateOrganization)

	huma.Register(api, huma.Operation{
		OperationID: "getOrganization",
		Method:      "GET",
		Path:        "/admin/organizations/{orgId}",
		Summary:     "Get an organization",
		Tags:        []string{"admin", "organizations"},
	}, orgHandler.GetOrganization)

	huma.Register(api, huma.Operation{
		OperationID: "updateOrganization",
		Method:      "PATCH",
		Path:        "/admin/organizations/{orgId}",
		Summary:     "Update an organization",
		Tags:        []string{"admin", "organizations"},
	}, orgHandler.UpdateOrganization)

	huma.Register(api, huma.Operation{
		OperationID: "listOrganizationMembers",
		Method:      "GET",
		Path:        "/admin/organizations/{orgId}/members",
		Summary:     "List organization members",
		Tags:        []string{"admin", "organizations"},
	}, orgHandler.ListMembers)

	huma.Register(api, huma.Operation{
		OperationID:   "createEnrollment",
		Method:        "POST",
		Path:          "/admin/organizations/{orgId}/enrollments",
		Summary:       "Enroll an organization in a course",
		Description:   "Grants every member of the organization access to the course; an expired enrollment is reactivated",
		Tags:          []string{"admin", "enrollments"},
		DefaultStatus: 201,
	}, orgHandler.CreateEnrollment)

	huma.Register(api, huma.Operation{
		OperationID: "listOrganizationEnrollments",
		Method:      "GET",
		Path:        "/admin/organizations/{orgId}/enrollments",
		Summary:     "List an organization's enrollments",
		Tags:        []string{"admin", "enrollments"},
	}, orgHandler.ListOrganizationEnrollments)

	huma.Register(api, huma.Operation{
		OperationID: "listCourseEnrollments",
		Method:      "GET",
		Path:        "/admin/courses/{courseId}/enrollments",
		Summary:     "List a course's enrollments",
		Tags:        []string{"admin", "enrollments"},
	}, orgHandler.ListCourseEnrollments)

	// ========== ADMIN USER OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listUsers",
		Method:      "GET",
		Path:        "/admin/users",
		Summary:     "List users",
		Description: "Lists users, optionally filtered by organization",
		Tags:        []string{"admin", "users"},
	}, userHandler.ListUsers)

	huma.Register(api, huma.Operation{
		OperationID: "adminUpdateUser",
		Method:      "PATCH",
		Path:        "/admin/users/{userId}",
		Summary:     "Update a user's access",
		Description: "Changes a user's role or organization",
		Tags:        []string{"admin", "users"},
	}, userHandler.AdminUpdateUser)

	huma.Register(api, huma.Operation{
		OperationID: "getAdminStats",
		Method:      "GET",
		Path:        "/admin/stats",
		Summary:     "Get dashboard counts",
		Tags:        []string{"admin"},
	}, userHandler.GetAdminStats)

	// ========== WORKFLOW LIBRARY OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "listWorkflowCategories",
		Method:      "GET",
		Path:        "/workflows/categories",
		Summary:     "List workflow categories",
		Tags:        []string{"workflows"},
	}, workflowHandler.ListCategories)

	huma.Register(api, huma.Operation{
		OperationID: "listWorkflowDepartments",
		Method:      "GET",
		Path:        "/workflows/categories/{categorySlug}/departments",
		Summary:     "List departments of a category",
		Tags:        []string{"workflows"},
	}, workflowHandler.ListDepartments)

	huma.Register(api, huma.Operation{
		OperationID: "searchWorkflows",
		Method:      "GET",
		Path:        "/workflows",
		Summary:     "Search workflows",
		Description: "Full-text search over titles, summaries, books and tags, ranked by relevance",
		Tags:        []string{"workflows"},
	}, workflowHandler.SearchWorkflows)

	huma.Register(api, huma.Operation{
		OperationID: "getWorkflow",
		Method:      "GET",
		Path:        "/workflows/{slug}",
		Summary:     "Get a workflow",
		Description: "Retrieves a workflow with rendered content and its files",
		Tags:        []string{"workflows"},
	}, workflowHandler.GetWorkflow)

	huma.Register(api, huma.Operation{
		OperationID: "getWorkflowFileURL",
		Method:      "GET",
		Path:        "/workflows/{slug}/files/{fileId}/url",
		Summary:     "Get signed URL for a workflow file",
		Tags:        []string{"workflows", "files"},
	}, workflowHandler.GetWorkflowFileURL)

	huma.Register(api, huma.Operation{
		OperationID:   "createWorkflowCategory",
		Method:        "POST",
		Path:          "/admin/workflow-categories",
		Summary:       "Create a workflow category",
		Tags:          []string{"admin", "workflows"},
		DefaultStatus: 201,
	}, workflowHandler.CreateCategory)

	huma.Register(api, huma.Operation{
		OperationID:   "createWorkflowDepartment",
		Method:        "POST",
		Path:          "/admin/workflow-categories/{categorySlug}/departments",
		Summary:       "Create a department",
		Tags:          []string{"admin", "workflows"},
		DefaultStatus: 201,
	}, workflowHandler.CreateDepartment)

	huma.Register(api, huma.Operation{
		OperationID:   "createWorkflow",
		Method:        "POST",
		Path:          "/admin/workflows",
		Summary:       "Create a workflow",
		Tags:          []string{"admin", "workflows"},
		DefaultStatus: 201,
	}, workflowHandler.CreateWorkflow)

	huma.Register(api, huma.Operation{
		OperationID: "updateWorkflow",
		Method:      "PATCH",
		Path:        "/admin/workflows/{workflowId}",
		Summary:     "Update a workflow",
		Tags:        []string{"admin", "workflows"},
	}, workflowHandler.UpdateWorkflow)

	huma.Register(api, huma.Operation{
		OperationID: "initiateWorkflowUpload",
		Method:      "POST",
		Path:        "/admin/workflows/{workflowId}/files",
		Summary:     "Get upload URLs for workflow files",
		Tags:        []string{"admin", "files"},
	}, workflowHandler.InitiateWorkflowUpload)

	huma.Register(api, huma.Operation{
		OperationID: "completeWorkflowUpload",
		Method:      "POST",
		Path:        "/admin/workflows/{workflowId}/files/{fileId}/complete",
		Summary:     "Complete a workflow file upload",
		Tags:        []string{"admin", "files"},
	}, workflowHandler.CompleteWorkflowUpload)

	// ========== DELETION OPERATIONS ==========
	registerDeletion[operation.CoursePath, operation.DeleteCourseInput](api, deletionHandler, deletion.EntityCourse, "Course", "/admin/courses/{courseId}")
	registerDeletion[operation.ModulePath, operation.DeleteModuleInput](api, deletionHandler, deletion.EntityModule, "Module", "/admin/modules/{moduleId}")
	registerDeletion[operation.LessonPath, operation.DeleteLessonInput](api, deletionHandler, deletion.EntityLesson, "Lesson", "/admin/lessons/{lessonId}")
	registerDeletion[operation.LessonFilePath, operation.DeleteLessonFileInput](api, deletionHandler, deletion.EntityLessonFile, "LessonFile", "/admin/lesson-files/{fileId}")
	registerDeletion[operation.OrganizationPath, operation.DeleteOrganizationInput](api, deletionHandler, deletion.EntityOrganization, "Organization", "/admin/organizations/{orgId}")
	registerDeletion[operation.EnrollmentPath, operation.DeleteEnrollmentInput](api, deletionHandler, deletion.EntityEnrollment, "Enrollment", "/admin/enrollments/{enrollmentId}")
	registerDeletion[operation.WorkflowPath, operation.DeleteWorkflowInput](api, deletionHandler, deletion.EntityWorkflow, "Workflow", "/admin/workflows/{workflowId}")

	huma.Register(api, huma.Operation{
		OperationID: "listDeletionAudit",
		Method:      "GET",
		Path:        "/admin/audit",
		Summary:     "List deletion audit entries",
		Description: "Every assessment, refusal and executed deletion, newest first",
		Tags:        []string{"admin", "deletion"},
	}, deletionHandler.ListAudit)

	// ========== DLQ OPERATIONS ==========
	huma.Register(api, huma.Operation{
		OperationID: "recordDLQ",
		Method:      "POST",
		Path:        "/dlq/record",
		Summary:     "Record DLQ message",
		Description: "Records a dead letter queue message from Pub/Sub",
		Tags:        []string{"dlq"},
	}, dlqHandler.RecordDLQ)

	logger.Info().Int("total_paths", len(api.OpenAPI().Paths)).Msg("All operations registered successfully")
}

// registerDeletion adds the impact and delete operations of one entity type.
func registerDeletion[P interface{ EntityID() string }, D interface {
	EntityID() string
	Confirmation() deletion.Confirmation
}](api huma.API, h *handler.DeletionHandler, entityType deletion.EntityType, name, path string) {
	huma.Register(api, huma.Operation{
		OperationID: "validate" + name + "Deletion",
		Method:      "GET",
		Path:        path + "/deletion-impact",
		Summary:     "Assess " + string(entityType) + " deletion",
		Description: "Counts what the deletion would remove and reports severity, confirmation requirements and blockers",
		Tags:        []string{"admin", "deletion"},
	}, handler.DeletionImpact[P](h, entityType))

	huma.Register(api, huma.Operation{
		OperationID: "delete" + name,
		Method:      "DELETE",
		Path:        path,
		Summary:     "Delete " + string(entityType),
		Description: "Deletes after re-assessing; medium severity and above need confirm=true, high needs the confirmation text, critical also needs acknowledge_critical=true",
		Tags:        []string{"admin", "deletion"},
	}, handler.DeleteEntity[D](h, entityType))
}
