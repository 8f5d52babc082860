package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImageKey(t *testing.T) {
	key := ImageKey("categories", "photo.PNG")
	assert.Regexp(t, `^categories/\d+\.png$`, key)

	key = ImageKey("categories", "weird.jfif")
	assert.Regexp(t, `^categories/\d+\.jpeg$`, key)

	key = ImageKey("categories", "noextension")
	assert.Regexp(t, `^categories/\d+\.jpeg$`, key)
}

func TestKeyFromURL(t *testing.T) {
	assert.Equal(t, "categories/123.png", KeyFromURL("https://bucket.s3.us-east-1.amazonaws.com/categories/123.png"))
	assert.Equal(t, "categories/123.png", KeyFromURL("https://cdn.example.com/categories/123.png"))
	assert.Equal(t, "", KeyFromURL("://not-a-url"))
}

func TestPublicURL(t *testing.T) {
	plain := &S3Storage{bucket: "fastcart-assets", region: "ap-south-1"}
	assert.Equal(t,
		"https://fastcart-assets.s3.ap-south-1.amazonaws.com/categories/1.png",
		plain.PublicURL("categories/1.png"))

	cdn := &S3Storage{bucket: "fastcart-assets", region: "ap-south-1", cdnBase: "https://cdn.example.com"}
	assert.Equal(t, "https://cdn.example.com/categories/1.png", cdn.PublicURL("categories/1.png"))
}
