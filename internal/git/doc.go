// Package git derives the source identity of a documentation checkout:
// the normalized origin URL that marks remote pages as owned by this
// repository, and the commit being published.
package git
