package types

import "errors"

// Lookup errors.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnknownContentType = errors.New("unknown content type")
	ErrNoContentType      = errors.New("no content type could be determined")
)

// Validation errors returned by the record lifecycle.
var (
	ErrInvalidStatus = errors.New("invalid status value")
	ErrInvalidField  = errors.New("field is not writable for this content type")
	ErrInvalidID     = errors.New("invalid record ID")
)

// Configuration errors (Config.Validate).
var (
	ErrDriverEmpty        = errors.New("database driver must not be empty")
	ErrDriverUnknown      = errors.New("unknown database driver")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrDuplicateSlug      = errors.New("duplicate slug")
	ErrReservedSlug       = errors.New("slug is reserved for a system table")
	ErrUnknownTaxonomy    = errors.New("unknown taxonomy")
	ErrUnknownRelation    = errors.New("relation target is not a declared content type")
	ErrInvalidListingSize = errors.New("listing records must be positive")
)

// Backend and schema errors.
var (
	ErrDetached        = errors.New("database gateway is detached")
	ErrAlreadyAttached = errors.New("database gateway is already attached")
	ErrReconcileLocked = errors.New("schema reconciliation is locked by another process")
	ErrNotLockHolder   = errors.New("caller is not the lock holder")
	ErrDialectUnknown  = errors.New("unknown SQL dialect")
	ErrInvalidGrouping = errors.New("content type declares more than one grouping taxonomy")
)
