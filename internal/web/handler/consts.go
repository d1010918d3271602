package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// CSRFLocalsKey is where the csrf middleware stores the token of the request.
	CSRFLocalsKey = "csrf"

	// CSRFFormField is the form field carrying the csrf token.
	CSRFFormField = "csrfToken"

	// CallbackURLField is the query and form field naming the post sign-in target.
	CallbackURLField = "callbackUrl"
)
