package converter

import "errors"

// --- Exported Error Variables ---
// Library users can check against these using errors.Is.

var (
	// ErrConfigValidation indicates that the provided Options failed validation
	// at the beginning of Execute. Always fatal; no tile is touched.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrInvalidTilePath indicates a discovered tile path without the data
	// directory segment. This is a usage error and aborts the scan.
	ErrInvalidTilePath = errors.New("invalid tile path")

	// ErrScanFailed indicates the directory walk itself failed.
	ErrScanFailed = errors.New("directory scan failed")

	// ErrConvertFailed wraps every failure of a tile conversion. The tile is
	// left as it was before the attempt.
	ErrConvertFailed = errors.New("tile conversion failed")

	// ErrReferenceMissing indicates no reference tile exists for the cell.
	ErrReferenceMissing = errors.New("reference tile not found")

	// ErrNoBackup indicates undo was requested for a tile without a backup.
	ErrNoBackup = errors.New("tile has no backup")

	// ErrCleanupNotEligible indicates cleanup was requested for a tile that
	// lacks the backup or the marker.
	ErrCleanupNotEligible = errors.New("tile is not eligible for cleanup")

	// ErrJobPanic indicates a tile operation panicked; the worker recovered.
	ErrJobPanic = errors.New("tile job panicked")
)
