package errors

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// ScriptExt is the file extension of loadable scripts.
const ScriptExt = ".lua"

// ValidateScriptName validates the name of a script selected from the
// scripts directory. It must be a plain basename ending in [ScriptExt], so a
// request can never escape the directory.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No hidden files
func ValidateScriptName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidScript, "script name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidScript, "script name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidScript, "script name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidScript, "script name cannot contain path components")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidScript, "script name cannot be a hidden file")
	}

	if !strings.EqualFold(filepath.Ext(name), ScriptExt) {
		return New(ErrCodeInvalidScript, "script name must end in %s", ScriptExt)
	}

	return nil
}

// ValidatePath validates a user-supplied file path (edge list, config,
// output file).
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks the `validate` tags of v. The first violated
// constraint is reported as an *Error with the given code and a message
// naming the field.
func ValidateStruct(code Code, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Wrap(code, err, "validation failed")
	}
	e := verrs[0]
	return New(code, "%s", describeViolation(e))
}

func describeViolation(e validator.FieldError) string {
	field := e.Namespace()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field is required", field)
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", field, e.Param())
	case "gte", "min":
		return fmt.Sprintf("%s: must be at least %s", field, e.Param())
	case "lte", "max":
		return fmt.Sprintf("%s: must not exceed %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s: must be one of [%s]", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s: must be host:port", field)
	default:
		return fmt.Sprintf("%s: validation failed (%s)", field, e.Tag())
	}
}
