package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Format rules shared with the original protocol: usernames are 3-20
// alphanumeric/underscore characters, rooms 1-30 with hyphen allowed,
// messages 1-500 characters after trimming.
var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	roomRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,30}$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("roomname", func(fl validator.FieldLevel) bool {
		return roomRe.MatchString(fl.Field().String())
	})
	return v
}

func validUsername(name string) bool {
	return validate.Var(strings.TrimSpace(name), "required,username") == nil
}

func validRoom(room string) bool {
	return validate.Var(strings.TrimSpace(room), "required,roomname") == nil
}

func validMessage(text string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	return n >= 1 && n <= 500
}
