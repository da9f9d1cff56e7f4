// Package remap applies an allocation matrix to trade frames and
// cross-validates the result.
//
// Apply performs the remapping for every series in a single matrix product.
// The input frame must follow the matrix column order exactly; Align
// produces such a frame and reports codes that were zero-filled or dropped.
//
// CrossValidate recomputes the remapping with a join and group-sum over the
// correspondence entries. By default it uses reciprocal shares (an even split
// over the entries of each old code), which agrees with the matrix product
// only when every split is uniform. Divergences are returned in a Report and
// never abort a run.
package remap
