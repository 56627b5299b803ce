package constants

// AuthorizationHeader is the HTTP Authorization header name.
const AuthorizationHeader = "Authorization"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// SCIMContentType is the media type the bridge's SCIM endpoints speak.
const SCIMContentType = "application/scim+json"
