// Package domain defines the JSON reports written by a remapping run.
package domain
