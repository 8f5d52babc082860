package handlers

import (
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/fastcart/internal/models"
	"github.com/example/fastcart/internal/services"
	"github.com/example/fastcart/internal/utils"
)

const categoryImageFolder = "categories"

// CategoryHandler serves admin-managed category CRUD with S3-backed images.
type CategoryHandler struct {
	db          *gorm.DB
	storage     services.StorageService
	maxUploadMB int
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(db *gorm.DB, storage services.StorageService, maxUploadMB int) *CategoryHandler {
	return &CategoryHandler{db: db, storage: storage, maxUploadMB: maxUploadMB}
}

// readImage pulls the optional category_image file out of the multipart
// form, enforcing type and size limits. Returns nil bytes when no file was
// sent.
func (h *CategoryHandler) readImage(c *fiber.Ctx) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile("category_image")
	if err != nil {
		return nil, "", "", nil
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "only image files are allowed")
	}

	maxBytes := int64(h.maxUploadMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "image exceeds the upload size limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "failed to read uploaded file")
	}
	if int64(len(body)) > maxBytes {
		return nil, "", "", fiber.NewError(fiber.StatusBadRequest, "image exceeds the upload size limit")
	}

	return body, contentType, fileHeader.Filename, nil
}

// Create adds a category. Accepts multipart form data: category_name plus
// an optional category_image file uploaded to S3. If the row insert fails
// after a successful upload, the orphaned object is cleaned up.
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.FormValue("category_name"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category_name is required")
	}

	var existing models.Category
	err := h.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "category already exists")
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	body, contentType, filename, err := h.readImage(c)
	if err != nil {
		return err
	}

	category := models.Category{Name: name}

	if body != nil {
		key := services.ImageKey(categoryImageFolder, filename)
		imageURL, err := h.storage.Upload(c.UserContext(), key, contentType, body)
		if err != nil {
			log.Printf("[Category] image upload failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to upload category image")
		}
		category.Image = imageURL
		category.ImageKey = key
	}

	if err := h.db.Create(&category).Error; err != nil {
		services.CleanupUpload(c.UserContext(), h.storage, category.ImageKey)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "category created successfully",
		"category": category,
	})
}

// GetAll lists categories with pagination.
func (h *CategoryHandler) GetAll(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	var categories []models.Category
	if err := h.db.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"categories": categories,
		"pagination": fiber.Map{
			"page":  p.Page,
			"limit": p.Limit,
			"total": total,
		},
	})
}

// GetByID fetches one category by its UUID.
func (h *CategoryHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"category": category,
	})
}

// Update renames a category and/or replaces its image. A replaced image's
// old S3 object is deleted best-effort after the new one is in place.
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	if name := strings.TrimSpace(c.FormValue("category_name")); name != "" && name != category.Name {
		var clash models.Category
		err := h.db.Where("name = ? AND id <> ?", name, id).First(&clash).Error
		if err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "category already exists")
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		category.Name = name
	}

	body, contentType, filename, err := h.readImage(c)
	if err != nil {
		return err
	}

	oldKey := category.ImageKey
	if oldKey == "" && category.Image != "" {
		oldKey = services.KeyFromURL(category.Image)
	}

	if body != nil {
		key := services.ImageKey(categoryImageFolder, filename)
		imageURL, err := h.storage.Upload(c.UserContext(), key, contentType, body)
		if err != nil {
			log.Printf("[Category] image upload failed: %v", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to upload category image")
		}
		category.Image = imageURL
		category.ImageKey = key
	}

	if err := h.db.Save(&category).Error; err != nil {
		if body != nil {
			services.CleanupUpload(c.UserContext(), h.storage, category.ImageKey)
		}
		return err
	}

	if body != nil && oldKey != "" && oldKey != category.ImageKey {
		services.CleanupUpload(c.UserContext(), h.storage, oldKey)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "category updated successfully",
		"category": category,
	})
}

// Delete removes a category and, best-effort, its stored image.
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}

	if err := h.db.Delete(&category).Error; err != nil {
		return err
	}

	key := category.ImageKey
	if key == "" && category.Image != "" {
		key = services.KeyFromURL(category.Image)
	}
	services.CleanupUpload(c.UserContext(), h.storage, key)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "category deleted successfully",
	})
}
