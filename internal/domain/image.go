package domain

import "time"

// ImageUpload is one uploaded image with the user's optional instructions
type ImageUpload struct {
	Data        []byte
	FileName    string
	ContentType string
	// Message is nil when the form carried no message field
	Message    *string
	ReceivedAt time.Time
}

// ImageAnalysis is the successful result of an image upload
type ImageAnalysis struct {
	Success     bool    `json:"success"`
	Analysis    string  `json:"analysis"`
	FileName    string  `json:"file_name"`
	ContentType string  `json:"content_type"`
	UserMessage *string `json:"user_message"`
	Metrics     Metrics `json:"metrics"`
}

// SupportedImageTypes lists the accepted upload content types
var SupportedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/webp": true,
}
