package dto

import "time"

type FileUploadRequestDTO struct {
	Filenames []string `json:"filenames" minItems:"1" maxItems:"10" validate:"required,min=1,max=10,dive,required,max=255"`
}

type FileResponseDTO struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type UploadTicketDTO struct {
	File      FileResponseDTO `json:"file"`
	UploadURL string          `json:"upload_url" doc:"Presigned PUT URL"`
}

type FileUploadResponseDTO struct {
	Uploads []UploadTicketDTO `json:"uploads"`
}

type SignedURLResponseDTO struct {
	URL string `json:"url"`
}
