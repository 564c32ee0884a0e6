package model

import "strings"

// Category is a set of detection categories requested for one image.
type Category uint8

const (
	CategoryFace Category = 1 << iota
	CategoryPlate
	CategoryLogo
)

// CategoryNone requests no detection at all.
const CategoryNone Category = 0

// form checkbox names used by the upload page
var CategoryFields = map[string]Category{
	"face-blur":  CategoryFace,
	"plate-blur": CategoryPlate,
	"logo-blur":  CategoryLogo,
}

func (c Category) Has(other Category) bool {
	return other != CategoryNone && c&other == other
}

func (c Category) With(other Category) Category {
	return c | other
}

func (c Category) Empty() bool {
	return c == CategoryNone
}

func (c Category) String() string {
	if c.Empty() {
		return "none"
	}
	names := make([]string, 0, 3)
	if c.Has(CategoryFace) {
		names = append(names, "face")
	}
	if c.Has(CategoryPlate) {
		names = append(names, "plate")
	}
	if c.Has(CategoryLogo) {
		names = append(names, "logo")
	}
	return strings.Join(names, "|")
}

// CategoriesFromForm builds the set from checkbox values; only "on" enables a category.
func CategoriesFromForm(get func(field string) string) Category {
	mask := CategoryNone
	for field, cat := range CategoryFields {
		if get(field) == "on" {
			mask = mask.With(cat)
		}
	}
	return mask
}
