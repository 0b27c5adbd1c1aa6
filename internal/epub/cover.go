package epub

import (
	"strings"
)

// SelectCover picks the resource to use as the book cover.
// Resources are tried in manifest order:
//  1. an image whose logical path contains "cover" (case-insensitive)
//  2. the first image of any kind
//
// It reports false when the package holds no image.
func SelectCover(resources *Resources) (Resource, bool) {
	all := resources.All()

	for _, res := range all {
		if isImage(res.MediaType) && strings.Contains(strings.ToLower(res.Path), "cover") {
			return res, true
		}
	}

	for _, res := range all {
		if isImage(res.MediaType) {
			return res, true
		}
	}

	return Resource{}, false
}

// Cover selects the cover among the package resources.
func (p *Package) Cover() (Resource, bool) {
	return SelectCover(p.Resources)
}

// CoverExtension returns the file extension used to store a cover of the
// given media type: ".png" for PNG images, ".jpg" for everything else.
func CoverExtension(mediaType string) string {
	if strings.Contains(strings.ToLower(mediaType), "png") {
		return ".png"
	}
	return ".jpg"
}
