// File: utils/constants.go
package utils

import "time"

// DefaultOwnerID keys data that has no authenticated owner.
const DefaultOwnerID = "current-user"

// OwnerContextKey is the gin context key carrying the authenticated owner id.
const OwnerContextKey = "ownerID"

// SearchDebounce is the settle time for search-as-you-type input.
const SearchDebounce = 300 * time.Millisecond

// SlugCheckDebounce is the settle time before a slug availability check.
const SlugCheckDebounce = 500 * time.Millisecond
