package errors

import "maps"

// ErrorCategory represents the broad category of an error for classification and routing.
type ErrorCategory string

const (
	// CategoryConfig covers configuration files, flags and environment.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Build pipeline stages.
	CategoryFileSystem  ErrorCategory = "filesystem"
	CategoryFrontMatter ErrorCategory = "frontmatter"
	CategoryTemplate    ErrorCategory = "template"
	CategoryMarkup      ErrorCategory = "markup"
	CategoryMediaType   ErrorCategory = "media_type"
	CategoryCollision   ErrorCategory = "collision"
	CategoryBuild       ErrorCategory = "build"

	// Serve time and everything else.
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// IsBuildStage reports whether the category belongs to the compile pipeline.
func (c ErrorCategory) IsBuildStage() bool {
	switch c {
	case CategoryFileSystem, CategoryFrontMatter, CategoryTemplate, CategoryMarkup,
		CategoryMediaType, CategoryCollision, CategoryBuild:
		return true
	default:
		return false
	}
}

// ErrorSeverity indicates the impact level of an error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops the build
	SeverityError   ErrorSeverity = "error"   // Fails the current request or command
	SeverityWarning ErrorSeverity = "warning" // Reported, build continues
)

// ErrorContext provides structured context for errors.
type ErrorContext map[string]any

// Set adds or updates a context value.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = make(ErrorContext)
	}
	c[key] = value
	return c
}

// Get retrieves a context value.
func (c ErrorContext) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	value, exists := c[key]
	return value, exists
}

// GetString retrieves a string context value.
func (c ErrorContext) GetString(key string) (string, bool) {
	if value, exists := c.Get(key); exists {
		if str, ok := value.(string); ok {
			return str, true
		}
	}
	return "", false
}

// Merge combines two contexts, with other taking precedence.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}
	result := make(ErrorContext, len(c)+len(other))
	maps.Copy(result, c)
	maps.Copy(result, other)
	return result
}
