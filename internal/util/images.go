package util

// ImageURL builds the public URL for a stored image name. Returns "" when
// the entity has no image.
func ImageURL(baseURL, dir, name string) string {
	if name == "" {
		return ""
	}
	return baseURL + "/" + dir + "/" + name
}

// FirstImage picks the display image for listings.
func FirstImage(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}
