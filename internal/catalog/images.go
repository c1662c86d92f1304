package catalog

import (
	"net/url"
	"strings"
)

// ImageResolver turns stored image file names into fetchable URLs.
type ImageResolver struct {
	base string
}

func NewImageResolver(base string) ImageResolver {
	return ImageResolver{base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Resolve returns file unchanged when it is already an absolute URL, otherwise
// <base>/api/files/products/<productID>/<file>.
func (r ImageResolver) Resolve(productID, file string) string {
	file = strings.TrimSpace(file)
	if file == "" {
		return ""
	}
	if u, err := url.Parse(file); err == nil && u.IsAbs() {
		return file
	}
	return r.base + "/api/files/products/" + url.PathEscape(productID) + "/" + url.PathEscape(strings.TrimLeft(file, "/"))
}
