// FILE: internal/dto/analyze_dto.go
package dto

type AnalyzeRequest struct {
	Caption string `json:"caption" validate:"required"`
	Vibe    string `json:"vibe"`
}

type AnalyzeImageRequest struct {
	ImageDataURL string `json:"image_data_url" validate:"required"`
	Vibe         string `json:"vibe"`
}
