package core

// Visibility of a shareable item (statement, semester or course).
const (
	VisibilityUnique  = "UNIQUE"  // private to the owning department
	VisibilityCluster = "CLUSTER" // offered to the other departments of the owner's cluster
)

// Credits returns the default credits of a course: L + T + P/2.
func Credits(lecture, tutorial, practical int) float64 {
	return float64(lecture+tutorial) + float64(practical)/2
}
