package api

import "github.com/xraph/grant/permission"

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}

// PermissionsResponse carries sanitized permissions. Role linkage never
// leaves the service.
type PermissionsResponse struct {
	Permissions []permission.Sanitized `json:"permissions" description:"Sanitized permissions"`
}
