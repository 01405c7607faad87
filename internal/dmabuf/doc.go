// Package dmabuf maps guest-exported shared buffers into process memory.
//
// On Linux the importer duplicates the exporter's file descriptor, so the
// bridge holds its own reference for the lifetime of the lease, and maps the
// buffer read-only. Closing the mapping unmaps it and closes the duplicate
// exactly once. Other platforms report that importing is unsupported.
package dmabuf
