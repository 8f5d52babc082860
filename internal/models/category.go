package models

// Category is a product category with an optional image stored in S3.
type Category struct {
	BaseModel
	Name     string `gorm:"uniqueIndex" json:"category_name"`
	Image    string `json:"category_image,omitempty"`
	ImageKey string `json:"-"`
}
