// Package shared holds code used across packages without belonging to any of
// them. Its testutil subpackage provides workbook and CSV fixtures built with
// excelize and a buffered slog handler for asserting on log output.
//
// testutil depends only on the standard library, excelize and testify so that
// any package, the core ones included, can use it in tests.
package shared
