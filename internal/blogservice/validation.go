package blogservice

import (
	"unicode/utf8"

	"github.com/sushihentaime/sharedblog/internal/common"
)

const maxTitleLength = 200

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(utf8.RuneCountInString(title) <= maxTitleLength, "title", "must not be more than 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}

func validateFilter(v *common.Validator, f *ListFilter) {
	v.Check(utf8.RuneCountInString(f.Title) <= maxTitleLength, "q", "must not be more than 200 characters long")
	v.Check(f.Limit <= 100, "limit", "must be a maximum of 100")
}
