package config

const (
	HCType        = "Content-Type"
	HETag         = "ETag"
	HCacheControl = "Cache-Control"

	CTypeHTML = "text/html"
)

// Form field names shared by the viewer template and handlers.
const (
	FormTitle   = "title"
	FormContent = "content"
	FormImage   = "image"
)

// Upper bound on a multipart upload held in memory before spilling to disk.
const MaxUploadMemory = 8 << 20
