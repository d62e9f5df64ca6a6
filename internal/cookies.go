package internal

const (
	COOKIE_ACCESS_TOKEN_NAME = "studyportal_access_token"
	COOKIE_REDIRECT_NAME     = "studyportal_redirect"
)
