// Package dflow is a definition-driven array transformation engine: it
// reads a catalog of scientific-array input files, lowers a set of
// output-variable definitions into a lazy, chunked flow graph, and
// writes the reconciled results to a set of output files (spec.md §1,
// §2). Run wires the pipeline's stages together end to end; each
// stage's own package (catalog, defn, registry, flow, reconcile,
// iohandle, engine) is usable independently for a caller that needs
// finer control over one phase.
package dflow
