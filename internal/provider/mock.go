package provider

// PlaceholderImages produces deterministic stand-in results. It backs both the
// no-connection path and the fallback taken when a real adapter fails: every
// entry carries the same fixed placeholder URL.
func PlaceholderImages(placeholderURL string, quantity int) []Image {
	n := capQuantity(quantity)
	images := make([]Image, n)
	for i := range images {
		images[i] = Image{URL: placeholderURL}
	}
	return images
}
