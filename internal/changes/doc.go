// Package changes measures how much of a dataset's trade falls under
// subheadings that the new edition changed completely or partially.
package changes
